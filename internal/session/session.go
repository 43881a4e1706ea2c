// Package session assembles the catalog, usage counter and completer that
// the interactive commands and the completion server share.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlcomplete/internal/casing"
	"github.com/leapstack-labs/sqlcomplete/internal/classify"
	"github.com/leapstack-labs/sqlcomplete/internal/usage"
	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
)

// ErrCursorOutOfRange is returned when a cursor lies outside the buffer.
var ErrCursorOutOfRange = errors.New("cursor out of range")

// SpecialCommands are the meta-commands offered after a backslash.
var SpecialCommands = []complete.SpecialCommand{
	{Name: `\?`, Description: "Show commands."},
	{Name: `\c`, Description: "Change a new connection."},
	{Name: `\d`, Description: "List or describe tables, views and sequences."},
	{Name: `\dT`, Description: "List data types."},
	{Name: `\df`, Description: "List functions."},
	{Name: `\dn`, Description: "List schemas."},
	{Name: `\dt`, Description: "List tables."},
	{Name: `\dv`, Description: "List views."},
	{Name: `\e`, Description: "Edit the query with external editor."},
	{Name: `\i`, Description: "Execute commands from file."},
	{Name: `\l`, Description: "List databases."},
	{Name: `\n`, Description: "List or execute named queries."},
	{Name: `\nd`, Description: "Delete a named query."},
	{Name: `\ns`, Description: "Save a named query."},
	{Name: `\o`, Description: "Send all query results to file."},
	{Name: `\q`, Description: "Quit."},
	{Name: `\timing`, Description: "Toggle timing of commands."},
	{Name: `\x`, Description: "Toggle expanded output."},
}

// Config holds the sources a session is built from.
type Config struct {
	// CatalogFile is a YAML catalog fixture loaded before introspection.
	CatalogFile string
	// Target, when set, is introspected into the catalog.
	Target *adapter.Config
	// Scope keys the name counts in the usage store.
	Scope              string
	CasingFile         string
	GenerateCasingFile bool
	// UsagePath is the usage database; empty disables persistence.
	UsagePath    string
	Settings     complete.Settings
	NamedQueries []string
	Logger       *slog.Logger
}

// Session owns one catalog and the state completion reads. Its methods are
// safe for concurrent use.
type Session struct {
	ID     string
	Scope  string
	Logger *slog.Logger

	cfg       Config
	mu        sync.Mutex
	catalog   *catalog.Catalog
	counter   *prioritize.Counter
	completer *complete.Completer
	store     *usage.Store
}

// Loader runs a catalog load. Renderers use it to show progress.
type Loader func(label string, fn func() error) error

// Open builds a session from cfg: the catalog comes from the fixture file
// and the target database, usage counts from the usage store.
func Open(ctx context.Context, cfg Config, load Loader) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}
	if load == nil {
		load = func(_ string, fn func() error) error { return fn() }
	}

	id := uuid.NewString()
	s := &Session{
		ID:      id,
		Scope:   cfg.Scope,
		Logger:  logger.With(slog.String("session", id)),
		cfg:     cfg,
		counter: prioritize.New(),
	}

	if err := load("Loading catalog", func() error {
		var err error
		s.catalog, err = s.loadCatalog(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	if err := s.loadCasing(); err != nil {
		return nil, err
	}

	if cfg.UsagePath != "" {
		store, err := usage.Open(ctx, cfg.UsagePath, s.Logger)
		if err != nil {
			return nil, err
		}
		counts, err := store.Load(ctx, s.Scope)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		s.counter.Restore(counts)
		s.store = store
	}

	s.completer = s.newCompleter(s.catalog)

	s.Logger.Debug("session opened",
		slog.String("scope", s.Scope),
		slog.Int("schemas", len(s.catalog.Schemas())),
		slog.Bool("usage", s.store != nil))
	return s, nil
}

func (s *Session) newCompleter(cat *catalog.Catalog) *complete.Completer {
	return complete.New(cat,
		complete.WithSettings(s.cfg.Settings),
		complete.WithPrioritizer(s.counter),
		complete.WithNamedQueries(s.cfg.NamedQueries),
		complete.WithSpecialCommands(SpecialCommands),
		complete.WithLogger(s.Logger),
	)
}

func (s *Session) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat := catalog.New(catalog.WithLogger(s.Logger))

	if path := s.cfg.CatalogFile; path != "" {
		f, err := os.Open(path) //nolint:gosec // G304: path comes from user config
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog file: %w", err)
		}
		err = catalog.LoadFixture(f, cat)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog file %s: %w", path, err)
		}
	}

	if t := s.cfg.Target; t != nil && t.Type != "" {
		if err := introspect(ctx, *t, cat, s.Logger); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func introspect(ctx context.Context, cfg adapter.Config, cat *catalog.Catalog, logger *slog.Logger) error {
	in, err := adapter.NewIntrospector(cfg, logger)
	if err != nil {
		return err
	}
	if err := in.Connect(ctx, cfg); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	defer func() { _ = in.Close() }()

	if err := in.Load(ctx, cat); err != nil {
		return fmt.Errorf("failed to load catalog from %s: %w", cfg.Type, err)
	}
	return nil
}

// loadCasing applies the casing file, writing it first from the catalog
// when it is missing and generation is enabled.
func (s *Session) loadCasing() error {
	path := s.cfg.CasingFile
	if path == "" {
		return nil
	}
	words, err := casing.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		if !s.cfg.GenerateCasingFile {
			return nil
		}
		words = s.catalog.AllCompletions()
		if err := casing.Write(path, words); err != nil {
			return err
		}
		s.Logger.Info("casing file generated", slog.String("path", path), slog.Int("words", len(words)))
	} else if err != nil {
		return err
	}
	s.catalog.ExtendCasing(words)
	return nil
}

// WatchCasing reapplies the casing file whenever it changes, until ctx is
// done.
func (s *Session) WatchCasing(ctx context.Context) error {
	if s.cfg.CasingFile == "" {
		return nil
	}
	return casing.Watch(ctx, s.cfg.CasingFile, s.Logger, func(words []string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.catalog.ExtendCasing(words)
	})
}

// Complete returns the completions for the cursor at rune offset cursor of
// text. A negative cursor means the end of text.
func (s *Session) Complete(text string, cursor int) ([]complete.Match, error) {
	n := utf8.RuneCountInString(text)
	if cursor < 0 {
		cursor = n
	}
	if cursor > n {
		return nil, fmt.Errorf("%w: %d (text has %d characters)", ErrCursorOutOfRange, cursor, n)
	}
	before := text[:byteOffset(text, cursor)]

	s.mu.Lock()
	defer s.mu.Unlock()
	suggestions := classify.Suggest(text, before)
	return s.completer.Complete(suggestions, complete.WordBeforeCursor(before)), nil
}

func byteOffset(s string, runes int) int {
	i := 0
	for off := range s {
		if i == runes {
			return off
		}
		i++
	}
	return len(s)
}

// Record counts the keywords and names of an executed statement and adds
// them to the usage store when one is open.
func (s *Session) Record(ctx context.Context, statement string) error {
	s.mu.Lock()
	before := s.counter.Snapshot()
	s.counter.Update(statement)
	delta := s.counter.Snapshot().Since(before)
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Add(ctx, s.Scope, delta)
}

// Counts returns a copy of the session's usage counts.
func (s *Session) Counts() prioritize.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Snapshot()
}

// Catalog calls fn with the catalog while holding the session lock.
func (s *Session) Catalog(fn func(*catalog.Catalog)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.catalog)
}

// Refresh rebuilds the catalog from its sources and swaps it in.
func (s *Session) Refresh(ctx context.Context) error {
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.catalog
	s.catalog = cat
	err = s.loadCasing()
	if err != nil {
		s.catalog = prev
	} else {
		s.completer = s.newCompleter(cat)
	}
	s.mu.Unlock()
	return err
}

// Close releases the usage store.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
