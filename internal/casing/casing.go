// Package casing reads and writes the preferred-spelling file: one word per
// line, spelled the way completions should display it.
package casing

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events an editor save produces.
const debounce = 100 * time.Millisecond

// Load reads the words of the casing file at path. Blank lines and lines
// starting with '#' are skipped.
func Load(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to open casing file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read casing file: %w", err)
	}
	return words, nil
}

// Write stores words sorted case-insensitively, one per line, dropping
// exact duplicates.
func Write(path string, words []string) error {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})

	var b strings.Builder
	seen := make(map[string]struct{}, len(sorted))
	for _, w := range sorted {
		if _, dup := seen[w]; dup || w == "" {
			continue
		}
		seen[w] = struct{}{}
		b.WriteString(w)
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create casing directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write casing file: %w", err)
	}
	return nil
}

// Watch calls onChange with the reloaded words whenever the file at path
// is written or replaced, until ctx is done. The parent directory is
// watched so editors that save through a rename are seen too. onChange
// runs on a timer goroutine.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func([]string)) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve casing file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch casing directory: %w", err)
	}

	go watchLoop(ctx, watcher, abs, logger, onChange)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, logger *slog.Logger, onChange func([]string)) {
	defer func() { _ = watcher.Close() }()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				words, err := Load(path)
				if err != nil {
					logger.Warn("casing reload failed", slog.String("path", path), slog.Any("error", err))
					return
				}
				logger.Debug("casing reloaded", slog.String("path", path), slog.Int("words", len(words)))
				onChange(words)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("casing watcher error", slog.Any("error", err))
		}
	}
}
