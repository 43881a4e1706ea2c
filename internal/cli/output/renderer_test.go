package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto tty", ModeAuto, true, ModeText},
		{"auto pipe", ModeAuto, false, ModeMarkdown},
		{"empty means auto", "", false, ModeMarkdown},
		{"explicit json on tty", ModeJSON, true, ModeJSON},
		{"explicit text on pipe", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

var sampleMatches = []complete.Match{
	{Text: "users", Display: "users", DisplayMeta: "table", StartPosition: -2},
	{Text: "SELECT", Display: "SELECT", DisplayMeta: "keyword", StartPosition: -2},
}

func TestRenderer_MatchesJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.Matches(sampleMatches))

	var got []MatchView
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, MatchView{Text: "users", Display: "users", DisplayMeta: "table", StartPosition: -2}, got[0])
}

func TestRenderer_MatchesEmptyJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.Matches(nil))
	assert.JSONEq(t, "[]", out.String())
}

func TestRenderer_MatchesMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeAuto, false)
	require.NoError(t, r.Matches(sampleMatches))

	got := out.String()
	assert.Contains(t, got, "| Completion | Meta |")
	assert.Contains(t, got, "| users | table |")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_MatchesText(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)
	require.NoError(t, r.Matches(sampleMatches))

	got := out.String()
	assert.Contains(t, got, "┌")
	assert.Contains(t, got, "SELECT")
	assert.Contains(t, got, "keyword")

	out.Reset()
	require.NoError(t, r.Matches(nil))
	assert.Contains(t, out.String(), "(no completions)")
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)

	r.Success("saved")
	r.Warning("stale")
	r.Error("failed")
	r.Header(1, "Usage")

	assert.Equal(t, "✓ saved\nUsage\n", out.String())
	assert.Equal(t, "! stale\n✗ failed\n", errOut.String())
}

func TestRenderer_HeaderMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Keywords")
	assert.Equal(t, "## Keywords\n", out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Scope:** postgres:shop", FormatKeyValue("Scope", "postgres:shop"))
}

func TestRenderer_SpinWithoutTTY(t *testing.T) {
	r, _, errOut := newTestRenderer(ModeAuto, false)

	ran := false
	require.NoError(t, r.Spin("loading", func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Empty(t, errOut.String())

	boom := errors.New("boom")
	assert.ErrorIs(t, r.Spin("loading", func() error { return boom }), boom)
}
