package complete

// Suggestion is one kind of completion the classifier expects at the
// cursor. The set of variants is closed: only types in this file
// implement it, and Completer.Matches handles every one of them.
type Suggestion interface {
	suggestion()
}

// TableReference is a table, view or function referenced by the query.
// Schema and Name are unescaped.
type TableReference struct {
	Schema     string
	Name       string
	Alias      string
	IsFunction bool
}

// Ref is the name the query uses for the reference: its alias if it has
// one, else its name.
func (t TableReference) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// CTE is a common table expression declared by the query. It shadows any
// catalog table of the same unqualified name.
type CTE struct {
	Name    string
	Columns []string
}

// FunctionFilter restricts which functions a Function suggestion offers.
type FunctionFilter int

// Function filters.
const (
	// FilterNone offers every function.
	FilterNone FunctionFilter = iota
	// FilterFromClause drops aggregate and window functions.
	FilterFromClause
)

// Table suggests tables and local CTEs.
type Table struct {
	Schema      string
	TableRefs   []TableReference
	LocalTables []CTE
}

// View suggests views.
type View struct {
	Schema    string
	TableRefs []TableReference
}

// Function suggests functions.
type Function struct {
	Schema    string
	TableRefs []TableReference
	Filter    FunctionFilter
}

// FromClauseItem suggests anything that can follow FROM or JOIN: tables,
// views and set-returning functions.
type FromClauseItem struct {
	Schema      string
	TableRefs   []TableReference
	LocalTables []CTE
}

// Column suggests columns of the referenced tables.
type Column struct {
	TableRefs []TableReference
	// RequireLastTable limits results to columns the last reference shares
	// with at least one other reference, as in "JOIN b USING (".
	RequireLastTable bool
	LocalTables      []CTE
	// Qualifiable allows ref.column output under the configured policy.
	Qualifiable bool
}

// Join suggests whole join clauses inferred from foreign keys.
type Join struct {
	TableRefs []TableReference
	Schema    string
}

// JoinCondition suggests ON conditions. Parent is set when the user has
// already typed "ref." on the left-hand side.
type JoinCondition struct {
	TableRefs []TableReference
	Parent    *TableReference
}

// Schema suggests schema names.
type Schema struct{}

// Database suggests database names.
type Database struct{}

// Keyword suggests SQL keywords.
type Keyword struct{}

// Datatype suggests type names.
type Datatype struct {
	Schema string
}

// NamedQuery suggests saved query names.
type NamedQuery struct{}

// Alias suggests aliases already declared in the query.
type Alias struct {
	Aliases []string
}

// Special suggests client meta-commands.
type Special struct{}

// Path suggests filesystem paths.
type Path struct{}

// Variable suggests names local to a routine body: its arguments and
// declared variables.
type Variable struct {
	Names []string
}

// BlockKeyword suggests PL/pgSQL statement keywords the SQL keyword list
// lacks.
type BlockKeyword struct{}

func (Table) suggestion()          {}
func (View) suggestion()           {}
func (Function) suggestion()       {}
func (FromClauseItem) suggestion() {}
func (Column) suggestion()         {}
func (Join) suggestion()           {}
func (JoinCondition) suggestion()  {}
func (Schema) suggestion()         {}
func (Database) suggestion()       {}
func (Keyword) suggestion()        {}
func (Datatype) suggestion()       {}
func (NamedQuery) suggestion()     {}
func (Alias) suggestion()          {}
func (Special) suggestion()        {}
func (Path) suggestion()           {}
func (Variable) suggestion()       {}
func (BlockKeyword) suggestion()   {}
