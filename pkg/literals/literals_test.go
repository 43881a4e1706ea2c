package literals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Contains(t, s.Keywords, "SELECT")
	assert.Contains(t, s.Keywords, "GROUP BY")
	assert.Contains(t, s.Functions, "MAX")
	assert.Contains(t, s.Datatypes, "INTEGER")
	assert.NotEmpty(t, s.BinaryOperators)

	// callers get their own copy
	s.Keywords[0] = "MUTATED"
	assert.NotEqual(t, "MUTATED", Default().Keywords[0])
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte("keywords: [SELECT]\nfunctions: [now]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT"}, s.Keywords)
	assert.Equal(t, []string{"now"}, s.Functions)

	_, err = Parse([]byte("keywords: {"))
	assert.Error(t, err)
}

func TestSplitByBinaryOperators(t *testing.T) {
	s := Default()
	tests := []struct {
		word string
		want []string
	}{
		{"", []string{""}},
		{"foo", []string{"foo"}},
		{"foo-bar", []string{"foo", "bar"}},
		{"a||b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SplitByBinaryOperators(tt.word))
		})
	}
}
