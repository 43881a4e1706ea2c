package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams(t *testing.T) {
	type extended struct {
		CommonParams `mapstructure:",squash"`
		Extensions   []string `mapstructure:"extensions"`
	}

	tests := []struct {
		name    string
		input   map[string]any
		want    extended
		wantErr string
	}{
		{name: "nil params", input: nil, want: extended{}},
		{
			name:  "typed values",
			input: map[string]any{"parallelism": 2, "extensions": []any{"json"}},
			want:  extended{CommonParams: CommonParams{Parallelism: 2}, Extensions: []string{"json"}},
		},
		{
			name:  "string number",
			input: map[string]any{"parallelism": "8"},
			want:  extended{CommonParams: CommonParams{Parallelism: 8}},
		},
		{
			name:    "unknown key",
			input:   map[string]any{"paralelism": 2},
			wantErr: "invalid adapter params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got extended
			err := DecodeParams(tt.input, &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
