package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name:  "empty map returns empty struct",
			input: map[string]any{},
			want:  &Params{},
		},
		{
			name: "extensions only",
			input: map[string]any{
				"extensions": []any{"json", "spatial"},
			},
			want: &Params{
				Extensions: []string{"json", "spatial"},
			},
		},
		{
			name: "settings converted to strings",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
			},
			want: &Params{
				Settings: map[string]string{
					"memory_limit": "4GB",
					"threads":      "4",
				},
			},
		},
		{
			name: "parallelism is shared with other adapters",
			input: map[string]any{
				"parallelism": "2",
				"extensions":  []any{"json"},
			},
			want: &Params{
				Extensions: []string{"json"},
			},
		},
		{
			name: "unknown key is rejected",
			input: map[string]any{
				"secrets": []any{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Extensions, got.Extensions)
			assert.Equal(t, tt.want.Settings, got.Settings)
		})
	}
}

func TestParseParams_Parallelism(t *testing.T) {
	got, err := ParseParams(map[string]any{"parallelism": "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Parallelism)
}
