package complete

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PathCompleter completes filesystem paths for Path suggestions.
type PathCompleter interface {
	CompletePaths(word string) []Match
}

// FilesystemPaths lists directory entries matching the typed path prefix.
type FilesystemPaths struct {
	// Home is what a leading "~" expands to; empty uses the user's home.
	Home string
}

// CompletePaths implements PathCompleter.
func (f FilesystemPaths) CompletePaths(word string) []Match {
	path := word
	if strings.HasPrefix(path, "~") {
		home := f.Home
		if home == "" {
			var err error
			if home, err = os.UserHomeDir(); err != nil {
				return nil
			}
		}
		path = home + path[1:]
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var matches []Match
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		display := name
		if e.IsDir() {
			display += string(filepath.Separator)
		}
		matches = append(matches, Match{
			Text:          name,
			StartPosition: -utf8.RuneCountInString(base),
			Display:       display,
			Priority:      Priority{Tier: TierPath},
		})
	}
	return matches
}
