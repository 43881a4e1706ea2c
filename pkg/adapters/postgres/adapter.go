// Package postgres loads catalog metadata from PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// Queries read the PostgreSQL system catalogs.
var Queries = adapter.Queries{
	Databases: `SELECT datname FROM pg_catalog.pg_database WHERE NOT datistemplate ORDER BY 1`,

	SearchPath: `SELECT unnest(current_schemas(true))`,

	Schemata: `SELECT nspname FROM pg_catalog.pg_namespace ORDER BY 1`,

	Tables: `
		SELECT n.nspname, c.relname
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = ANY(ARRAY['r', 'p', 'f'])
		ORDER BY 1, 2`,

	Views: `
		SELECT n.nspname, c.relname
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = ANY(ARRAY['v', 'm'])
		ORDER BY 1, 2`,

	TableCols: relationColumns(`'r', 'p', 'f'`),

	ViewCols: relationColumns(`'v', 'm'`),

	Functions: `
		SELECT n.nspname,
			p.proname,
			pg_catalog.pg_get_function_arguments(p.oid),
			pg_catalog.pg_get_function_result(p.oid),
			p.prokind = 'a',
			p.prokind = 'w',
			p.proretset
		FROM pg_catalog.pg_proc p
		JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
		WHERE p.prorettype::regtype != 'trigger'::regtype
		ORDER BY 1, 2`,

	Datatypes: `
		SELECT n.nspname, t.typname
		FROM pg_catalog.pg_type t
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE (t.typrelid = 0
				OR (SELECT c.relkind = 'c' FROM pg_catalog.pg_class c WHERE c.oid = t.typrelid))
			AND NOT EXISTS (
				SELECT 1 FROM pg_catalog.pg_type el
				WHERE el.oid = t.typelem AND el.typarray = t.oid)
			AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY 1, 2`,

	ForeignKeys: `
		SELECT sp.nspname, tp.relname, ap.attname,
			sc.nspname, tc.relname, ac.attname
		FROM pg_catalog.pg_constraint fk
		CROSS JOIN LATERAL unnest(fk.conkey, fk.confkey) AS k(child_col, parent_col)
		JOIN pg_catalog.pg_class tp ON tp.oid = fk.confrelid
		JOIN pg_catalog.pg_namespace sp ON sp.oid = tp.relnamespace
		JOIN pg_catalog.pg_attribute ap ON ap.attrelid = fk.confrelid AND ap.attnum = k.parent_col
		JOIN pg_catalog.pg_class tc ON tc.oid = fk.conrelid
		JOIN pg_catalog.pg_namespace sc ON sc.oid = tc.relnamespace
		JOIN pg_catalog.pg_attribute ac ON ac.attrelid = fk.conrelid AND ac.attnum = k.child_col
		WHERE fk.contype = 'f'
		ORDER BY 1, 2, 4, 5`,
}

func relationColumns(kinds string) string {
	return `
		SELECT n.nspname, c.relname, a.attname, a.atttypid::regtype::text
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = ANY(ARRAY[` + kinds + `])
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY 1, 2, a.attnum`
}

// Adapter implements adapter.Introspector for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL introspector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	var params adapter.CommonParams
	if err := adapter.DecodeParams(cfg.Params, &params); err != nil {
		return err
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildPostgresDSN(cfg)
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Parallelism = params.Parallelism
	return nil
}

// Load reads the system catalogs into cat.
func (a *Adapter) Load(ctx context.Context, cat *catalog.Catalog) error {
	return a.LoadCatalog(ctx, cat, Queries)
}

// buildPostgresDSN constructs a key=value connection string. Options other
// than sslmode are appended in key order and become runtime parameters.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		dsn += fmt.Sprintf(" %s=%s", k, cfg.Options[k])
	}

	return dsn
}

var _ adapter.Introspector = (*Adapter)(nil)
