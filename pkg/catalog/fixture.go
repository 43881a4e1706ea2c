package catalog

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML form of a catalog snapshot. Names are stored
// unescaped and escaped again on load.
type Fixture struct {
	SearchPath  []string        `yaml:"search_path,omitempty"`
	Databases   []string        `yaml:"databases,omitempty"`
	Casing      []string        `yaml:"casing,omitempty"`
	Schemas     []SchemaFixture `yaml:"schemas"`
	ForeignKeys []ForeignKey    `yaml:"foreign_keys,omitempty"`
}

// SchemaFixture holds the objects of one schema.
type SchemaFixture struct {
	Name      string             `yaml:"name"`
	Tables    []RelationFixture  `yaml:"tables,omitempty"`
	Views     []RelationFixture  `yaml:"views,omitempty"`
	Functions []FunctionMetadata `yaml:"functions,omitempty"`
	Datatypes []string           `yaml:"datatypes,omitempty"`
}

// RelationFixture is a table or view with its columns.
type RelationFixture struct {
	Name    string          `yaml:"name"`
	Columns []ColumnFixture `yaml:"columns,omitempty"`
}

// ColumnFixture is one column.
type ColumnFixture struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// Apply loads the fixture into c.
func (f *Fixture) Apply(c *Catalog) {
	names := make([]string, len(f.Schemas))
	for i, s := range f.Schemas {
		names[i] = s.Name
	}
	c.ExtendSchemata(names)

	for _, s := range f.Schemas {
		for _, group := range []struct {
			kind Kind
			rels []RelationFixture
		}{{KindTables, s.Tables}, {KindViews, s.Views}} {
			kind, rels := group.kind, group.rels
			var relNames []RelationName
			var cols []ColumnDef
			for _, r := range rels {
				relNames = append(relNames, RelationName{Schema: s.Name, Name: r.Name})
				for _, col := range r.Columns {
					cols = append(cols, ColumnDef{Schema: s.Name, Relation: r.Name, Name: col.Name, Datatype: col.Type})
				}
			}
			c.ExtendRelations(kind, relNames)
			c.ExtendColumns(kind, cols)
		}

		funcs := make([]FunctionMetadata, len(s.Functions))
		for i, fn := range s.Functions {
			if fn.Schema == "" {
				fn.Schema = s.Name
			}
			funcs[i] = fn
		}
		c.ExtendFunctions(funcs)

		types := make([]TypeName, len(s.Datatypes))
		for i, t := range s.Datatypes {
			types[i] = TypeName{Schema: s.Name, Name: t}
		}
		c.ExtendDatatypes(types)
	}

	c.ExtendForeignKeys(f.ForeignKeys)
	if len(f.SearchPath) > 0 {
		c.SetSearchPath(f.SearchPath)
	}
	c.ExtendDatabaseNames(f.Databases)
	if len(f.Casing) > 0 {
		c.ExtendCasing(f.Casing)
	}
}

// LoadFixture decodes a YAML fixture from r and applies it to c.
func LoadFixture(r io.Reader, c *Catalog) error {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("failed to decode catalog fixture: %w", err)
	}
	f.Apply(c)
	return nil
}

// Snapshot captures the database metadata of c as a fixture.
func (c *Catalog) Snapshot() *Fixture {
	f := &Fixture{
		SearchPath: unescapeAll(c.searchPath),
		Databases:  unescapeAll(c.databases),
	}
	for _, name := range c.schemaOrder {
		s := c.schemas[name]
		sf := SchemaFixture{Name: UnescapeName(name)}
		sf.Tables = relationFixtures(s.tables)
		sf.Views = relationFixtures(s.views)
		for _, fnName := range s.functions.order {
			sf.Functions = append(sf.Functions, s.functions.byName[fnName]...)
		}
		sf.Datatypes = unescapeAll(s.datatypes.order)
		f.Schemas = append(f.Schemas, sf)

		for _, rel := range s.tables.list() {
			for _, col := range rel.columns {
				for _, fk := range col.ForeignKeys {
					if fk.ChildSchema != name || fk.ChildTable != rel.Name || fk.ChildColumn != col.Name {
						continue
					}
					f.ForeignKeys = append(f.ForeignKeys, ForeignKey{
						ParentSchema: UnescapeName(fk.ParentSchema),
						ParentTable:  UnescapeName(fk.ParentTable),
						ParentColumn: UnescapeName(fk.ParentColumn),
						ChildSchema:  UnescapeName(fk.ChildSchema),
						ChildTable:   UnescapeName(fk.ChildTable),
						ChildColumn:  UnescapeName(fk.ChildColumn),
					})
				}
			}
		}
	}
	return f
}

// WriteFixture encodes the metadata of c as YAML.
func WriteFixture(w io.Writer, c *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode catalog fixture: %w", err)
	}
	return enc.Close()
}

func relationFixtures(set *relationSet) []RelationFixture {
	var out []RelationFixture
	for _, rel := range set.list() {
		rf := RelationFixture{Name: UnescapeName(rel.Name)}
		for _, col := range rel.columns {
			rf.Columns = append(rf.Columns, ColumnFixture{Name: UnescapeName(col.Name), Type: col.Datatype})
		}
		out = append(out, rf)
	}
	return out
}

func unescapeAll(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = UnescapeName(n)
	}
	return out
}
