package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"golang.org/x/sync/errgroup"
)

// defaultParallelism bounds the catalog queries run at once.
const defaultParallelism = 4

// Queries are the catalog queries of one database flavour. An empty query
// is skipped. Each comment lists the selected columns in order.
type Queries struct {
	Databases   string // name
	SearchPath  string // schema
	Schemata    string // schema
	Tables      string // schema, table
	Views       string // schema, view
	TableCols   string // schema, table, column, datatype
	ViewCols    string // schema, view, column, datatype
	Functions   string // schema, name, arg list, result, is aggregate, is window, is set-returning
	Datatypes   string // schema, name
	ForeignKeys string // parent schema, parent table, parent column, child schema, child table, child column
}

// BaseSQLAdapter provides the database/sql plumbing shared by
// introspectors. Embed it and call LoadCatalog from Load.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
	// Parallelism bounds concurrent catalog queries; zero uses the default.
	Parallelism int
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

type metadata struct {
	databases   []string
	searchPath  []string
	schemata    []string
	tables      []catalog.RelationName
	views       []catalog.RelationName
	tableCols   []catalog.ColumnDef
	viewCols    []catalog.ColumnDef
	functions   []catalog.FunctionMetadata
	datatypes   []catalog.TypeName
	foreignKeys []catalog.ForeignKey
}

// LoadCatalog runs q concurrently and registers the results with cat.
// Registration happens after every query succeeded, in dependency order,
// so a failed load leaves cat untouched.
func (b *BaseSQLAdapter) LoadCatalog(ctx context.Context, cat *catalog.Catalog, q Queries) error {
	if b.DB == nil {
		return ErrNotConnected
	}

	var md metadata
	g, ctx := errgroup.WithContext(ctx)
	limit := b.Parallelism
	if limit <= 0 {
		limit = defaultParallelism
	}
	g.SetLimit(limit)

	g.Go(func() (err error) {
		md.databases, err = queryStrings(ctx, b.DB, "databases", q.Databases)
		return err
	})
	g.Go(func() (err error) {
		md.searchPath, err = queryStrings(ctx, b.DB, "search path", q.SearchPath)
		return err
	})
	g.Go(func() (err error) {
		md.schemata, err = queryStrings(ctx, b.DB, "schemata", q.Schemata)
		return err
	})
	g.Go(func() (err error) {
		md.tables, err = queryRows(ctx, b.DB, "tables", q.Tables, scanRelation)
		return err
	})
	g.Go(func() (err error) {
		md.views, err = queryRows(ctx, b.DB, "views", q.Views, scanRelation)
		return err
	})
	g.Go(func() (err error) {
		md.tableCols, err = queryRows(ctx, b.DB, "table columns", q.TableCols, scanColumn)
		return err
	})
	g.Go(func() (err error) {
		md.viewCols, err = queryRows(ctx, b.DB, "view columns", q.ViewCols, scanColumn)
		return err
	})
	g.Go(func() (err error) {
		md.functions, err = queryRows(ctx, b.DB, "functions", q.Functions, scanFunction)
		return err
	})
	g.Go(func() (err error) {
		md.datatypes, err = queryRows(ctx, b.DB, "datatypes", q.Datatypes, scanDatatype)
		return err
	})
	g.Go(func() (err error) {
		md.foreignKeys, err = queryRows(ctx, b.DB, "foreign keys", q.ForeignKeys, scanForeignKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	cat.ExtendSchemata(md.schemata)
	cat.SetSearchPath(md.searchPath)
	cat.ExtendRelations(catalog.KindTables, md.tables)
	cat.ExtendColumns(catalog.KindTables, md.tableCols)
	cat.ExtendRelations(catalog.KindViews, md.views)
	cat.ExtendColumns(catalog.KindViews, md.viewCols)
	cat.ExtendFunctions(md.functions)
	cat.ExtendDatatypes(md.datatypes)
	cat.ExtendForeignKeys(md.foreignKeys)
	cat.ExtendDatabaseNames(md.databases)

	if b.Logger != nil {
		b.Logger.Debug("catalog loaded",
			slog.Int("schemata", len(md.schemata)),
			slog.Int("tables", len(md.tables)),
			slog.Int("views", len(md.views)),
			slog.Int("functions", len(md.functions)),
			slog.Int("foreign_keys", len(md.foreignKeys)))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func queryRows[T any](ctx context.Context, db *sql.DB, what, query string, scan func(scanner) (T, error)) ([]T, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}
	return out, nil
}

func queryStrings(ctx context.Context, db *sql.DB, what, query string) ([]string, error) {
	return queryRows(ctx, db, what, query, func(s scanner) (string, error) {
		var v string
		err := s.Scan(&v)
		return v, err
	})
}

func scanRelation(s scanner) (catalog.RelationName, error) {
	var r catalog.RelationName
	err := s.Scan(&r.Schema, &r.Name)
	return r, err
}

func scanColumn(s scanner) (catalog.ColumnDef, error) {
	var c catalog.ColumnDef
	err := s.Scan(&c.Schema, &c.Relation, &c.Name, &c.Datatype)
	return c, err
}

func scanFunction(s scanner) (catalog.FunctionMetadata, error) {
	var (
		f      catalog.FunctionMetadata
		args   sql.NullString
		result sql.NullString
	)
	err := s.Scan(&f.Schema, &f.Name, &args, &result, &f.IsAggregate, &f.IsWindow, &f.IsSetReturning)
	f.ArgList, f.Result = args.String, result.String
	return f, err
}

func scanDatatype(s scanner) (catalog.TypeName, error) {
	var t catalog.TypeName
	err := s.Scan(&t.Schema, &t.Name)
	return t, err
}

func scanForeignKey(s scanner) (catalog.ForeignKey, error) {
	var fk catalog.ForeignKey
	err := s.Scan(&fk.ParentSchema, &fk.ParentTable, &fk.ParentColumn, &fk.ChildSchema, &fk.ChildTable, &fk.ChildColumn)
	return fk, err
}
