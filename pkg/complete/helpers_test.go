package complete

import (
	"testing"

	"github.com/leapstack-labs/sqlcomplete/internal/testutil"
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
)

type testTable struct {
	schema, name string
	cols         [][2]string
}

var testTables = []testTable{
	{"public", "users", [][2]string{{"id", "integer"}, {"parentid", "integer"}, {"email", "text"}, {"first_name", "text"}, {"last_name", "text"}}},
	{"public", "orders", [][2]string{{"id", "integer"}, {"user_id", "integer"}, {"ordered_date", "date"}, {"status", "text"}}},
	{"public", "select", [][2]string{{"id", "integer"}, {"insert", "text"}, {"ABC", "text"}}},
	{"custom", "products", [][2]string{{"id", "integer"}, {"product_name", "text"}, {"price", "numeric"}}},
	{"custom", "shipments", [][2]string{{"id", "integer"}, {"product_id", "integer"}, {"user_id", "integer"}}},
	{"pg_catalog", "pg_class", [][2]string{{"oid", "integer"}}},
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(catalog.WithLogger(testutil.NewTestLogger(t)))
	cat.ExtendSchemata([]string{"public", "custom", "pg_catalog"})

	var rels []catalog.RelationName
	var cols []catalog.ColumnDef
	for _, tbl := range testTables {
		rels = append(rels, catalog.RelationName{Schema: tbl.schema, Name: tbl.name})
		for _, col := range tbl.cols {
			cols = append(cols, catalog.ColumnDef{Schema: tbl.schema, Relation: tbl.name, Name: col[0], Datatype: col[1]})
		}
	}
	cat.ExtendRelations(catalog.KindTables, rels)
	cat.ExtendColumns(catalog.KindTables, cols)

	cat.ExtendRelations(catalog.KindViews, []catalog.RelationName{{Schema: "public", Name: "user_emails"}})
	cat.ExtendColumns(catalog.KindViews, []catalog.ColumnDef{
		{Schema: "public", Relation: "user_emails", Name: "id", Datatype: "integer"},
		{Schema: "public", Relation: "user_emails", Name: "email", Datatype: "text"},
	})

	cat.ExtendFunctions([]catalog.FunctionMetadata{
		{Schema: "public", Name: "custom_func1", Result: "integer"},
		{Schema: "public", Name: "custom_func2", Result: "integer"},
		{Schema: "public", Name: "custom_func2", ArgList: "x integer", Result: "integer"},
		{Schema: "public", Name: "set_returning_func", ArgList: "x integer", Result: "TABLE(x integer, y integer)", IsSetReturning: true},
		{Schema: "public", Name: "agg_func", Result: "bigint", IsAggregate: true},
		{Schema: "public", Name: "window_func", Result: "bigint", IsWindow: true},
	})
	cat.ExtendDatatypes([]catalog.TypeName{
		{Schema: "public", Name: "custom_type1"},
		{Schema: "public", Name: "custom_type2"},
	})
	cat.ExtendForeignKeys([]catalog.ForeignKey{
		{ParentSchema: "public", ParentTable: "users", ParentColumn: "id", ChildSchema: "public", ChildTable: "orders", ChildColumn: "user_id"},
		{ParentSchema: "public", ParentTable: "users", ParentColumn: "id", ChildSchema: "public", ChildTable: "users", ChildColumn: "parentid"},
		{ParentSchema: "custom", ParentTable: "products", ParentColumn: "id", ChildSchema: "custom", ChildTable: "shipments", ChildColumn: "product_id"},
		{ParentSchema: "public", ParentTable: "users", ParentColumn: "id", ChildSchema: "custom", ChildTable: "shipments", ChildColumn: "user_id"},
	})
	cat.ExtendDatabaseNames([]string{"shop", "analytics"})
	cat.SetSearchPath([]string{"public"})
	return cat
}

func newTestCompleter(t *testing.T, opts ...Option) *Completer {
	t.Helper()
	opts = append([]Option{
		WithLogger(testutil.NewTestLogger(t)),
		WithPrioritizer(prioritize.New()),
	}, opts...)
	return New(newTestCatalog(t), opts...)
}

func texts(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Text
	}
	return out
}

func settingsWith(f func(*Settings)) Option {
	s := DefaultSettings()
	f(&s)
	return WithSettings(s)
}
