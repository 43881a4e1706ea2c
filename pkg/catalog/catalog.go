// Package catalog holds the in-memory database metadata the completer
// draws candidates from: schemas, relations with their columns, functions,
// datatypes, foreign keys, the search path and preferred name casing.
//
// All object names are stored escaped (see Catalog.EscapeName). Every
// collection preserves insertion order so completion output is stable.
package catalog

import (
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/literals"
)

var namePattern = regexp.MustCompile(`^[_a-z][_a-z0-9$]*$`)

// Catalog is the owned metadata store. It is not safe for concurrent
// mutation; callers serialize Extend* calls.
type Catalog struct {
	logger   *slog.Logger
	literals literals.Set

	keywords     []string
	reserved     map[string]struct{}
	builtinFuncs map[string]struct{}

	schemaOrder []string
	schemas     map[string]*schema
	searchPath  []string
	databases   []string
	casing      map[string]string
	completions map[string]struct{}
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used to report dropped metadata.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLiterals replaces the built-in keyword, function and datatype lists.
func WithLiterals(set literals.Set) Option {
	return func(c *Catalog) {
		c.literals = set
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:   slog.New(slog.DiscardHandler),
		literals: literals.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.keywords = append([]string(nil), c.literals.Keywords...)
	c.reserved = make(map[string]struct{})
	for _, kw := range c.keywords {
		for _, word := range strings.Fields(kw) {
			c.reserved[strings.ToUpper(word)] = struct{}{}
		}
	}
	c.builtinFuncs = make(map[string]struct{}, len(c.literals.Functions))
	for _, fn := range c.literals.Functions {
		c.builtinFuncs[strings.ToUpper(fn)] = struct{}{}
	}
	c.casing = make(map[string]string)
	c.Reset()
	return c
}

// Reset drops all database metadata, keeping keywords and casing.
func (c *Catalog) Reset() {
	c.schemaOrder = nil
	c.schemas = make(map[string]*schema)
	c.searchPath = nil
	c.databases = nil
	c.completions = make(map[string]struct{})
	for _, kw := range c.keywords {
		c.completions[kw] = struct{}{}
	}
	for _, fn := range c.literals.Functions {
		c.completions[fn] = struct{}{}
	}
}

// EscapeName quotes name if it is not a plain lower-case identifier, or if
// it collides with a reserved word or built-in function name.
func (c *Catalog) EscapeName(name string) string {
	if name == "" {
		return name
	}
	upper := strings.ToUpper(name)
	_, reserved := c.reserved[upper]
	_, builtin := c.builtinFuncs[upper]
	if !namePattern.MatchString(name) || reserved || builtin {
		return `"` + name + `"`
	}
	return name
}

// UnescapeName strips one layer of surrounding double quotes.
func UnescapeName(name string) string {
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return name[1 : len(name)-1]
	}
	return name
}

// UnescapeName strips one layer of surrounding double quotes.
func (c *Catalog) UnescapeName(name string) string {
	return UnescapeName(name)
}

func (c *Catalog) escapeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = c.EscapeName(n)
	}
	return out
}

// ExtendDatabaseNames registers database names. Known names are skipped.
func (c *Catalog) ExtendDatabaseNames(names []string) {
	c.databases = appendNew(c.databases, c.escapeAll(names))
}

// ExtendKeywords adds keywords beyond the built-in list. Known keywords are
// skipped.
func (c *Catalog) ExtendKeywords(words []string) {
	c.keywords = appendNew(c.keywords, words)
	for _, w := range words {
		c.completions[w] = struct{}{}
	}
}

// appendNew appends the items not already in list, keeping first-seen order.
func appendNew(list, items []string) []string {
	for _, item := range items {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

// ExtendSchemata registers schemas. Existing schemas keep their contents.
func (c *Catalog) ExtendSchemata(names []string) {
	for _, name := range c.escapeAll(names) {
		if _, ok := c.schemas[name]; !ok {
			c.schemas[name] = newSchema(name)
			c.schemaOrder = append(c.schemaOrder, name)
		}
		c.completions[name] = struct{}{}
	}
}

// ExtendCasing replaces the preferred-casing table with words.
func (c *Catalog) ExtendCasing(words []string) {
	c.casing = make(map[string]string, len(words))
	for _, w := range words {
		c.casing[strings.ToLower(w)] = w
	}
}

// ExtendRelations registers tables or views.
func (c *Catalog) ExtendRelations(kind Kind, rels []RelationName) {
	for _, r := range rels {
		schemaName, relName := c.EscapeName(r.Schema), c.EscapeName(r.Name)
		s, ok := c.schemas[schemaName]
		if !ok || s.relations(kind) == nil {
			c.logger.Error("relation listed in unrecognized schema",
				slog.String("kind", string(kind)),
				slog.String("relation", relName),
				slog.String("schema", schemaName))
			continue
		}
		s.relations(kind).put(newRelation(schemaName, relName))
		c.completions[relName] = struct{}{}
	}
}

// ExtendColumns registers columns of known tables or views.
func (c *Catalog) ExtendColumns(kind Kind, cols []ColumnDef) {
	for _, col := range cols {
		schemaName := c.EscapeName(col.Schema)
		relName := c.EscapeName(col.Relation)
		colName := c.EscapeName(col.Name)
		rel, ok := c.Relation(kind, schemaName, relName)
		if !ok {
			c.logger.Error("column listed for unrecognized relation",
				slog.String("kind", string(kind)),
				slog.String("schema", schemaName),
				slog.String("relation", relName),
				slog.String("column", colName))
			continue
		}
		rel.putColumn(&ColumnMetadata{Name: colName, Datatype: col.Datatype})
		c.completions[colName] = struct{}{}
	}
}

// ExtendFunctions registers functions. Overloads accumulate under one name.
func (c *Catalog) ExtendFunctions(funcs []FunctionMetadata) {
	for _, fn := range funcs {
		schemaName, name := c.EscapeName(fn.Schema), c.EscapeName(fn.Name)
		s, ok := c.schemas[schemaName]
		if !ok {
			c.logger.Error("function listed in unrecognized schema",
				slog.String("function", name),
				slog.String("schema", schemaName))
			continue
		}
		s.functions.add(name, fn)
		c.completions[name] = struct{}{}
	}
}

// ExtendForeignKeys attaches each key to both its child and parent column.
func (c *Catalog) ExtendForeignKeys(fks []ForeignKey) {
	for _, fk := range fks {
		key := ForeignKey{
			ParentSchema: c.EscapeName(fk.ParentSchema),
			ParentTable:  c.EscapeName(fk.ParentTable),
			ParentColumn: c.EscapeName(fk.ParentColumn),
			ChildSchema:  c.EscapeName(fk.ChildSchema),
			ChildTable:   c.EscapeName(fk.ChildTable),
			ChildColumn:  c.EscapeName(fk.ChildColumn),
		}
		child, okChild := c.column(key.ChildSchema, key.ChildTable, key.ChildColumn)
		parent, okParent := c.column(key.ParentSchema, key.ParentTable, key.ParentColumn)
		if !okChild || !okParent {
			c.logger.Error("foreign key references unknown column",
				slog.String("child", key.ChildSchema+"."+key.ChildTable+"."+key.ChildColumn),
				slog.String("parent", key.ParentSchema+"."+key.ParentTable+"."+key.ParentColumn))
			continue
		}
		child.ForeignKeys = append(child.ForeignKeys, key)
		parent.ForeignKeys = append(parent.ForeignKeys, key)
	}
}

func (c *Catalog) column(schemaName, table, col string) (*ColumnMetadata, bool) {
	rel, ok := c.Relation(KindTables, schemaName, table)
	if !ok {
		return nil, false
	}
	return rel.Column(col)
}

// ExtendDatatypes registers user-defined types.
func (c *Catalog) ExtendDatatypes(types []TypeName) {
	for _, t := range types {
		schemaName, name := c.EscapeName(t.Schema), c.EscapeName(t.Name)
		s, ok := c.schemas[schemaName]
		if !ok {
			c.logger.Error("datatype listed in unrecognized schema",
				slog.String("datatype", name),
				slog.String("schema", schemaName))
			continue
		}
		s.datatypes.add(name)
		c.completions[name] = struct{}{}
	}
}

// SetSearchPath replaces the search path.
func (c *Catalog) SetSearchPath(path []string) {
	c.searchPath = c.escapeAll(path)
}

// Case returns the preferred casing of word, or word itself.
func (c *Catalog) Case(word string) string {
	if cased, ok := c.casing[word]; ok {
		return cased
	}
	return word
}

// Keywords returns the keyword list.
func (c *Catalog) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// BuiltinFunctions returns the built-in function names.
func (c *Catalog) BuiltinFunctions() []string {
	return append([]string(nil), c.literals.Functions...)
}

// BuiltinDatatypes returns the built-in type names.
func (c *Catalog) BuiltinDatatypes() []string {
	return append([]string(nil), c.literals.Datatypes...)
}

// Databases returns the registered database names.
func (c *Catalog) Databases() []string {
	return append([]string(nil), c.databases...)
}

// SearchPath returns the escaped search path.
func (c *Catalog) SearchPath() []string {
	return append([]string(nil), c.searchPath...)
}

// InSearchPath reports whether the escaped schema name is on the search path.
func (c *Catalog) InSearchPath(schemaName string) bool {
	for _, s := range c.searchPath {
		if s == schemaName {
			return true
		}
	}
	return false
}

// Schemas returns all schema names in registration order.
func (c *Catalog) Schemas() []string {
	return append([]string(nil), c.schemaOrder...)
}

// HasSchema reports whether the escaped schema name is registered.
func (c *Catalog) HasSchema(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

// Relations returns the tables or views of one schema.
func (c *Catalog) Relations(kind Kind, schemaName string) []*Relation {
	s, ok := c.schemas[schemaName]
	if !ok || s.relations(kind) == nil {
		return nil
	}
	return s.relations(kind).list()
}

// Relation looks up one table or view by escaped names.
func (c *Catalog) Relation(kind Kind, schemaName, name string) (*Relation, bool) {
	s, ok := c.schemas[schemaName]
	if !ok || s.relations(kind) == nil {
		return nil, false
	}
	rel, ok := s.relations(kind).byName[name]
	return rel, ok
}

// FunctionNames returns the escaped function names of one schema.
func (c *Catalog) FunctionNames(schemaName string) []string {
	s, ok := c.schemas[schemaName]
	if !ok {
		return nil
	}
	return append([]string(nil), s.functions.order...)
}

// FunctionOverloads returns every overload registered under name.
func (c *Catalog) FunctionOverloads(schemaName, name string) []FunctionMetadata {
	s, ok := c.schemas[schemaName]
	if !ok {
		return nil
	}
	return append([]FunctionMetadata(nil), s.functions.byName[name]...)
}

// DatatypeNames returns the user-defined types of one schema.
func (c *Catalog) DatatypeNames(schemaName string) []string {
	s, ok := c.schemas[schemaName]
	if !ok {
		return nil
	}
	return append([]string(nil), s.datatypes.order...)
}

// ObjectNames lists the escaped object names of one kind in one schema.
func (c *Catalog) ObjectNames(kind Kind, schemaName string) []string {
	switch kind {
	case KindTables, KindViews:
		rels := c.Relations(kind, schemaName)
		out := make([]string, len(rels))
		for i, r := range rels {
			out[i] = r.Name
		}
		return out
	case KindFunctions:
		return c.FunctionNames(schemaName)
	case KindDatatypes:
		return c.DatatypeNames(schemaName)
	default:
		return nil
	}
}

// AllCompletions returns every name known to the catalog, sorted.
func (c *Catalog) AllCompletions() []string {
	out := make([]string, 0, len(c.completions))
	for w := range c.completions {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
