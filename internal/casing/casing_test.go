package casing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/sqlcomplete/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "one word per line",
			content: "Users\nOrderID\n",
			want:    []string{"Users", "OrderID"},
		},
		{
			name:    "blank lines and comments skipped",
			content: "# preferred spellings\n\n  Users  \n\nSELECT\n",
			want:    []string{"Users", "SELECT"},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "casing")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "casing")

	require.NoError(t, Write(path, []string{"users", "Orders", "users", "", "ABC"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ABC\nOrders\nusers\n", string(data))

	words, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "Orders", "users"}, words)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "casing")
	require.NoError(t, Write(path, []string{"users"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []string, 4)
	require.NoError(t, Watch(ctx, path, testutil.NewTestLogger(t), func(words []string) {
		got <- words
	}))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x\n"), 0o600))
	require.NoError(t, Write(path, []string{"Users", "OrderID"}))

	select {
	case words := <-got:
		assert.Equal(t, []string{"OrderID", "Users"}, words)
	case <-time.After(5 * time.Second):
		t.Fatal("casing change not observed")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "casing"), nil, func([]string) {})
	require.Error(t, err)
}
