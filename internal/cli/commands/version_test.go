package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		info    BuildInfo
		wantOut []string
		notOut  []string
	}{
		{
			name:    "release build",
			info:    BuildInfo{Version: "1.2.3", GitCommit: "abc1234", BuildDate: "2026-01-02"},
			wantOut: []string{"sqlcomplete v1.2.3", "commit abc1234, built 2026-01-02", runtime.Version()},
		},
		{
			name:    "unknown commit is omitted",
			info:    BuildInfo{Version: "0.1.0", GitCommit: "unknown", BuildDate: "unknown"},
			wantOut: []string{"sqlcomplete v0.1.0"},
			notOut:  []string{"commit"},
		},
		{
			name:    "dev version",
			info:    BuildInfo{Version: "dev"},
			wantOut: []string{"sqlcomplete vdev"},
			notOut:  []string{"commit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())

			out := buf.String()
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, not := range tt.notOut {
				assert.NotContains(t, out, not)
			}
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "test"})

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
