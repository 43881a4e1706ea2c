// Package duckdb loads catalog metadata from a DuckDB database file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Queries read the duckdb_* metadata table functions of the current
// database. DuckDB has no window-function flag, so is_window is false.
var Queries = adapter.Queries{
	Databases: `SELECT database_name FROM duckdb_databases() WHERE NOT internal ORDER BY 1`,

	SearchPath: `SELECT current_schema()`,

	Schemata: `
		SELECT DISTINCT schema_name FROM duckdb_schemas()
		WHERE database_name = current_database()
		ORDER BY 1`,

	Tables: `
		SELECT schema_name, table_name FROM duckdb_tables()
		WHERE database_name = current_database()
		ORDER BY 1, 2`,

	Views: `
		SELECT schema_name, view_name FROM duckdb_views()
		WHERE NOT internal AND database_name = current_database()
		ORDER BY 1, 2`,

	TableCols: `
		SELECT c.schema_name, c.table_name, c.column_name, c.data_type
		FROM duckdb_columns() c
		JOIN duckdb_tables() t ON t.table_oid = c.table_oid
		WHERE c.database_name = current_database()
		ORDER BY 1, 2, c.column_index`,

	ViewCols: `
		SELECT c.schema_name, c.table_name, c.column_name, c.data_type
		FROM duckdb_columns() c
		JOIN duckdb_views() v ON v.view_oid = c.table_oid
		WHERE NOT v.internal AND c.database_name = current_database()
		ORDER BY 1, 2, c.column_index`,

	Functions: `
		SELECT DISTINCT schema_name,
			function_name,
			array_to_string(parameters, ', '),
			coalesce(return_type, ''),
			function_type = 'aggregate',
			false,
			function_type IN ('table', 'table_macro')
		FROM duckdb_functions()
		WHERE NOT internal
		ORDER BY 1, 2`,

	Datatypes: `
		SELECT schema_name, type_name FROM duckdb_types()
		WHERE NOT internal AND database_name = current_database()
		ORDER BY 1, 2`,

	ForeignKeys: `
		SELECT DISTINCT * FROM (
			SELECT schema_name AS parent_schema,
				referenced_table AS parent_table,
				unnest(referenced_column_names) AS parent_column,
				schema_name AS child_schema,
				table_name AS child_table,
				unnest(constraint_column_names) AS child_column
			FROM duckdb_constraints()
			WHERE constraint_type = 'FOREIGN KEY'
				AND database_name = current_database()
		)
		ORDER BY 1, 2, 4, 5`,
}

// Adapter implements adapter.Introspector for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB introspector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the database at cfg.Path.
// Use ":memory:" (the default) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Session settings and loaded extensions are per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params
	a.Parallelism = params.Parallelism

	if err := a.applyParams(ctx); err != nil {
		_ = a.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context) error {
	for _, ext := range a.params.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		for _, stmt := range []string{"INSTALL " + ext, "LOAD " + ext} {
			if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to load extension %s: %w", ext, err)
			}
		}
	}

	keys := make([]string, 0, len(a.params.Settings))
	for k := range a.params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.ReplaceAll(a.params.Settings[k], "'", "''")
		if _, err := a.DB.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", k, v)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// Load reads the database metadata into cat.
func (a *Adapter) Load(ctx context.Context, cat *catalog.Catalog) error {
	return a.LoadCatalog(ctx, cat, Queries)
}

var _ adapter.Introspector = (*Adapter)(nil)
