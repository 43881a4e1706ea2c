package complete

import (
	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// ScopedTable is one resolved table reference with the columns it brings
// into scope. Ref holds escaped schema and name.
type ScopedTable struct {
	Ref     TableReference
	Columns []catalog.ColumnMetadata
}

// ScopedColumns resolves refs to their columns. CTEs shadow unqualified
// catalog tables. Unqualified references are looked up along the search
// path and the first schema holding them wins; tables are tried before
// views. Function references contribute the output fields of every
// overload. References resolving to the same key accumulate columns.
func (c *Completer) ScopedColumns(refs []TableReference, ctes []CTE) []ScopedTable {
	var out []ScopedTable
	index := make(map[TableReference]int)
	add := func(key TableReference, cols []catalog.ColumnMetadata) {
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, ScopedTable{Ref: key})
		}
		out[i].Columns = append(out[i].Columns, cols...)
	}

	local := make(map[string]CTE, len(ctes))
	for _, cte := range ctes {
		local[normalizeRef(cte.Name)] = cte
	}

	for _, tbl := range refs {
		if tbl.Schema == "" {
			if cte, ok := local[normalizeRef(tbl.Name)]; ok {
				cols := make([]catalog.ColumnMetadata, len(cte.Columns))
				for i, name := range cte.Columns {
					cols[i] = catalog.ColumnMetadata{Name: name}
				}
				add(TableReference{Name: tbl.Name, Alias: tbl.Alias}, cols)
				continue
			}
		}

		schemas := c.catalog.SearchPath()
		if tbl.Schema != "" {
			schemas = []string{tbl.Schema}
		}
		for _, schemaName := range schemas {
			if c.resolveInSchema(c.catalog.EscapeName(schemaName), tbl, add) {
				break
			}
		}
	}
	return out
}

func (c *Completer) resolveInSchema(schemaName string, tbl TableReference, add func(TableReference, []catalog.ColumnMetadata)) bool {
	relName := c.catalog.EscapeName(tbl.Name)

	if tbl.IsFunction {
		overloads := c.catalog.FunctionOverloads(schemaName, relName)
		if len(overloads) == 0 {
			return false
		}
		var cols []catalog.ColumnMetadata
		for _, fn := range overloads {
			cols = append(cols, fn.Fields()...)
		}
		add(TableReference{Schema: schemaName, Name: relName, Alias: tbl.Alias, IsFunction: true}, cols)
		return true
	}

	for _, kind := range []catalog.Kind{catalog.KindTables, catalog.KindViews} {
		rel, ok := c.catalog.Relation(kind, schemaName, relName)
		if !ok {
			continue
		}
		relCols := rel.Columns()
		if len(relCols) == 0 {
			continue
		}
		cols := make([]catalog.ColumnMetadata, len(relCols))
		for i, col := range relCols {
			cols[i] = *col
		}
		add(TableReference{Schema: schemaName, Name: relName, Alias: tbl.Alias}, cols)
		return true
	}
	return false
}
