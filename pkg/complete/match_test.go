package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastWord(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"abc ", ""},
		{"abc def", "def"},
		{"schema.tbl", "tbl"},
		{"schema.", ""},
		{"count(col", "col"},
		{"a, b", "b"},
		{`"quoted`, `"quoted`},
		{"x = 1 +val", "+val"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, lastWord(tt.in))
		})
	}
}

func TestWordBeforeCursor(t *testing.T) {
	assert.Equal(t, "u.na", WordBeforeCursor("SELECT u.na"))
	assert.Equal(t, "", WordBeforeCursor("SELECT "))
	assert.Equal(t, "abc", WordBeforeCursor("abc"))
}

func TestFindMatchesFuzzyOrdering(t *testing.T) {
	c := newTestCompleter(t)
	cands := stringCandidates([]string{"api_user", "user_api", "supervisor", "users", "user"})

	matches := c.findMatches("user", cands, modeFuzzy, CategoryTable)
	sortMatches(matches)

	// exact word, then earliest start, then lexical order
	assert.Equal(t, []string{"user", "user_api", "users", "api_user"}, texts(matches))
}

func TestFindMatchesStrict(t *testing.T) {
	c := newTestCompleter(t)
	cands := stringCandidates([]string{"MAX", "MIN", "SUM", "max_len"})

	matches := c.findMatches("ma", cands, modeStrict, CategoryFunction)
	assert.ElementsMatch(t, []string{"MAX", "max_len"}, texts(matches))
	for _, m := range matches {
		assert.Equal(t, -2, m.StartPosition)
	}
}

func TestFindMatchesEmptyWordMatchesAll(t *testing.T) {
	c := newTestCompleter(t)
	cands := stringCandidates([]string{"a", "b", "c"})
	assert.Len(t, c.findMatches("", cands, modeFuzzy, CategoryColumn), 3)
	assert.Len(t, c.findMatches("", cands, modeStrict, CategoryColumn), 3)
}

func TestFindMatchesRegexSafe(t *testing.T) {
	c := newTestCompleter(t)
	cands := stringCandidates([]string{"a+b", "ab"})
	got := texts(c.findMatches("a+", cands, modeFuzzy, CategoryColumn))
	assert.Equal(t, []string{"a+b"}, got)
}

func TestFindMatchesRuneOffsets(t *testing.T) {
	c := newTestCompleter(t)
	cands := stringCandidates([]string{"größe", "grün"})
	matches := c.findMatches("grö", cands, modeFuzzy, CategoryColumn)
	assert.Equal(t, []string{"größe"}, texts(matches))
	assert.Equal(t, -3, matches[0].StartPosition)
}
