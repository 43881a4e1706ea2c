// Package usage persists keyword and name frequency counts between
// sessions. Keyword counts are global; name counts are kept per scope,
// usually the connection target, so names from one database do not
// boost completions for another.
package usage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("usage store not opened")

// Store is a SQLite-backed frequency table.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the store at path and applies pending
// migrations. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create usage directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping usage database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("usage store opened", slog.String("path", path))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the applied migration version.
func (s *Store) Version() (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	return goose.GetDBVersion(s.db)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Load returns the global keyword counts and the name counts of scope.
func (s *Store) Load(ctx context.Context, scope string) (prioritize.Counts, error) {
	counts := prioritize.Counts{
		Keywords: make(map[string]int),
		Names:    make(map[string]int),
	}
	if s.db == nil {
		return counts, ErrClosed
	}

	if err := s.scanCounts(ctx, counts.Keywords,
		`SELECT keyword, count FROM keyword_counts`); err != nil {
		return counts, fmt.Errorf("failed to load keyword counts: %w", err)
	}
	if err := s.scanCounts(ctx, counts.Names,
		`SELECT name, count FROM name_counts WHERE scope = ?`, scope); err != nil {
		return counts, fmt.Errorf("failed to load name counts: %w", err)
	}
	return counts, nil
}

func (s *Store) scanCounts(ctx context.Context, into map[string]int, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// Add adds counts to the stored values, so sessions sharing a store each
// contribute their own increments. Pass the counts gathered since the last
// Add, not a running total. Non-positive counts are skipped.
func (s *Store) Add(ctx context.Context, scope string, counts prioritize.Counts) error {
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for kw, n := range counts.Keywords {
		if n <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO keyword_counts (keyword, count) VALUES (?, ?)
			 ON CONFLICT (keyword) DO UPDATE SET count = count + excluded.count`,
			kw, n); err != nil {
			return fmt.Errorf("failed to save keyword %q: %w", kw, err)
		}
	}
	for name, n := range counts.Names {
		if n <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO name_counts (scope, name, count) VALUES (?, ?, ?)
			 ON CONFLICT (scope, name) DO UPDATE SET count = count + excluded.count`,
			scope, name, n); err != nil {
			return fmt.Errorf("failed to save name %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage counts: %w", err)
	}
	s.logger.Debug("usage counts added",
		slog.String("scope", scope),
		slog.Int("keywords", len(counts.Keywords)),
		slog.Int("names", len(counts.Names)))
	return nil
}

// Scopes lists the scopes holding name counts.
func (s *Store) Scopes(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT scope FROM name_counts ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scopes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// Reset deletes the name counts of scope. An empty scope also clears the
// keyword counts and every scope.
func (s *Store) Reset(ctx context.Context, scope string) error {
	if s.db == nil {
		return ErrClosed
	}
	stmts := []string{`DELETE FROM name_counts WHERE scope = ?`}
	args := []any{scope}
	if scope == "" {
		stmts = []string{`DELETE FROM name_counts`, `DELETE FROM keyword_counts`}
		args = nil
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("failed to reset usage counts: %w", err)
		}
	}
	return nil
}
