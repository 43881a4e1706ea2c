package catalog

// Kind names one family of catalog objects.
type Kind string

// Object kinds held by the catalog.
const (
	KindTables    Kind = "tables"
	KindViews     Kind = "views"
	KindFunctions Kind = "functions"
	KindDatatypes Kind = "datatypes"
)

// Kinds lists every kind in catalog order.
var Kinds = []Kind{KindTables, KindViews, KindFunctions, KindDatatypes}

// ForeignKey links a child column to the parent column it references.
// The same value is attached to both columns.
type ForeignKey struct {
	ParentSchema string `yaml:"parent_schema"`
	ParentTable  string `yaml:"parent_table"`
	ParentColumn string `yaml:"parent_column"`
	ChildSchema  string `yaml:"child_schema"`
	ChildTable   string `yaml:"child_table"`
	ChildColumn  string `yaml:"child_column"`
}

// ColumnMetadata describes one column of a table, view or function result.
type ColumnMetadata struct {
	Name        string
	Datatype    string
	ForeignKeys []ForeignKey
}

// RelationName identifies a table or view to register.
type RelationName struct {
	Schema string
	Name   string
}

// ColumnDef is one row of column metadata to register.
type ColumnDef struct {
	Schema   string
	Relation string
	Name     string
	Datatype string
}

// TypeName identifies a user-defined datatype.
type TypeName struct {
	Schema string
	Name   string
}

// Relation is a table or view with its ordered columns.
type Relation struct {
	Schema string
	Name   string

	columns []*ColumnMetadata
	index   map[string]int
}

func newRelation(schema, name string) *Relation {
	return &Relation{Schema: schema, Name: name, index: make(map[string]int)}
}

// Columns returns the columns in declaration order.
func (r *Relation) Columns() []*ColumnMetadata {
	out := make([]*ColumnMetadata, len(r.columns))
	copy(out, r.columns)
	return out
}

// Column looks a column up by its escaped name.
func (r *Relation) Column(name string) (*ColumnMetadata, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.columns[i], true
}

// putColumn inserts col or replaces an existing column of the same name
// in place.
func (r *Relation) putColumn(col *ColumnMetadata) {
	if i, ok := r.index[col.Name]; ok {
		r.columns[i] = col
		return
	}
	r.index[col.Name] = len(r.columns)
	r.columns = append(r.columns, col)
}

// relationSet is an insertion-ordered set of relations keyed by name.
type relationSet struct {
	order  []string
	byName map[string]*Relation
}

func newRelationSet() *relationSet {
	return &relationSet{byName: make(map[string]*Relation)}
}

func (s *relationSet) put(rel *Relation) {
	if _, ok := s.byName[rel.Name]; !ok {
		s.order = append(s.order, rel.Name)
	}
	s.byName[rel.Name] = rel
}

func (s *relationSet) list() []*Relation {
	out := make([]*Relation, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// functionSet keeps overloads grouped by escaped name.
type functionSet struct {
	order  []string
	byName map[string][]FunctionMetadata
}

func newFunctionSet() *functionSet {
	return &functionSet{byName: make(map[string][]FunctionMetadata)}
}

func (s *functionSet) add(name string, fn FunctionMetadata) {
	if _, ok := s.byName[name]; !ok {
		s.order = append(s.order, name)
	}
	s.byName[name] = append(s.byName[name], fn)
}

// nameSet is an insertion-ordered string set.
type nameSet struct {
	order []string
	seen  map[string]struct{}
}

func newNameSet() *nameSet {
	return &nameSet{seen: make(map[string]struct{})}
}

func (s *nameSet) add(name string) {
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

func (s *nameSet) has(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// schema holds every object registered under one schema name.
type schema struct {
	name      string
	tables    *relationSet
	views     *relationSet
	functions *functionSet
	datatypes *nameSet
}

func newSchema(name string) *schema {
	return &schema{
		name:      name,
		tables:    newRelationSet(),
		views:     newRelationSet(),
		functions: newFunctionSet(),
		datatypes: newNameSet(),
	}
}

func (s *schema) relations(kind Kind) *relationSet {
	switch kind {
	case KindTables:
		return s.tables
	case KindViews:
		return s.views
	default:
		return nil
	}
}
