// Package classify guesses which kinds of completion fit the cursor
// position of a SQL buffer. It is a heuristic: it looks at the keyword or
// punctuation before the word being typed and at the relations the
// statement references, and never fails on malformed input.
package classify

import (
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// Suggest returns the suggestion contexts for the cursor at the end of
// textBeforeCursor. fullText is the whole buffer; relations referenced
// after the cursor count too. When textBeforeCursor is not a prefix of
// fullText, it is used as the whole buffer.
//
// Inside the body of a SQL or PL/pgSQL routine definition the body is
// classified on its own, and the routine's argument names, declared
// variables and PL/pgSQL keywords are suggested as well.
func Suggest(fullText, textBeforeCursor string) []complete.Suggestion {
	if !strings.HasPrefix(fullText, textBeforeCursor) {
		fullText = textBeforeCursor
	}
	if b, ok := findBody(fullText); ok && b.holds(len(textBeforeCursor)) {
		if sugs, ok := b.suggest(fullText, textBeforeCursor); ok {
			return sugs
		}
	}
	return suggestStatement(fullText, textBeforeCursor)
}

// suggestStatement classifies the ';'-separated statement holding the
// cursor. textBeforeCursor must be a prefix of fullText.
func suggestStatement(fullText, textBeforeCursor string) []complete.Suggestion {
	word := tail(textBeforeCursor)
	ctxEnd := len(textBeforeCursor) - len(word)

	toks := tokenize(fullText)
	start, end := statementBounds(toks, ctxEnd, len(fullText))

	before := strings.TrimLeft(fullText[start:ctxEnd], " \t\r\n")
	if strings.HasPrefix(before, `\`) || (before == "" && strings.HasPrefix(word, `\`)) {
		return special(before, word)
	}

	var stmt, ctx []token
	for _, t := range toks {
		if t.pos >= start && t.pos < end && !t.is(";") {
			stmt = append(stmt, t)
			if t.pos < ctxEnd {
				ctx = append(ctx, t)
			}
		}
	}

	parent := ""
	if i := strings.LastIndexByte(word, '.'); i >= 0 {
		parent = unquote(word[:i])
		if j := strings.LastIndexByte(parent, '.'); j >= 0 {
			parent = parent[j+1:]
		}
	}

	c := newCursor(stmt, ctx, ctxEnd)
	return c.suggest(parent)
}

// tail returns the fragment being typed: the trailing run of characters
// that are not whitespace, parentheses, commas or colons.
func tail(text string) string {
	i := strings.LastIndexAny(text, " \t\r\n(),:")
	return text[i+1:]
}

func unquote(name string) string {
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return name
}

// statementBounds returns the byte span of the ';'-separated statement
// that holds offset.
func statementBounds(toks []token, offset, n int) (int, int) {
	start, end := 0, n
	for _, t := range toks {
		if !t.is(";") {
			continue
		}
		if t.pos < offset {
			start = t.pos + 1
		} else {
			end = t.pos
			break
		}
	}
	return start, end
}

// cursor is the classification state of one statement.
type cursor struct {
	stmt   []token
	ctx    []token
	depth  int
	refs   []tableRef
	ctes   []cte
	offset int
}

func newCursor(stmt, ctx []token, offset int) *cursor {
	c := &cursor{stmt: stmt, ctx: ctx, offset: offset}
	for _, t := range ctx {
		switch {
		case t.is("("):
			c.depth++
		case t.is(")") && c.depth > 0:
			c.depth--
		}
	}

	c.ctes = extractCTEs(stmt)
	scope, depth := c.scope()
	c.refs = extractRefs(scope, depth)
	return c
}

// scope returns the tokens of the innermost query holding the cursor and
// the depth its clauses sit at.
func (c *cursor) scope() ([]token, int) {
	open := make([]int, 0, c.depth)
	for i, t := range c.ctx {
		switch {
		case t.is("("):
			open = append(open, i)
		case t.is(")") && len(open) > 0:
			open = open[:len(open)-1]
		}
	}
	for k := len(open) - 1; k >= 0; k-- {
		i := open[k]
		if i+1 < len(c.stmt) {
			switch c.stmt[i+1].upper() {
			case "SELECT", "WITH", "VALUES":
				end := skipGroup(c.stmt, i)
				return c.stmt[i+1 : end], c.stmt[i].depth + 1
			}
		}
	}
	return c.stmt, 0
}

// tableRefs returns every reference of the current query.
func (c *cursor) tableRefs() []complete.TableReference {
	out := make([]complete.TableReference, len(c.refs))
	for i, r := range c.refs {
		out[i] = r.TableReference
	}
	return out
}

// refsBefore returns the references that start before the cursor.
func (c *cursor) refsBefore() []complete.TableReference {
	var out []complete.TableReference
	for _, r := range c.refs {
		if r.pos < c.offset {
			out = append(out, r.TableReference)
		}
	}
	return out
}

// localTables returns the CTEs visible at the cursor.
func (c *cursor) localTables() []complete.CTE {
	var out []complete.CTE
	for _, t := range c.ctes {
		if t.bodyEnd > t.bodyStart && c.insideSpan(t.bodyStart, t.bodyEnd) {
			continue
		}
		out = append(out, t.CTE)
	}
	return out
}

func (c *cursor) insideSpan(from, to int) bool {
	if from >= len(c.stmt) {
		return false
	}
	if c.stmt[from].pos >= c.offset {
		return false
	}
	return to >= len(c.stmt) || c.stmt[to-1].pos >= c.offset
}

// last returns the i-th token from the end of the context, or a zero
// token.
func (c *cursor) last(i int) token {
	if i < len(c.ctx) {
		return c.ctx[len(c.ctx)-1-i]
	}
	return token{kind: -1}
}

// clauseKeywords are the words that decide what a list position holds.
var clauseKeywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "JOIN": {}, "ON": {}, "USING": {},
	"BY": {}, "HAVING": {}, "SET": {}, "VALUES": {}, "RETURNING": {},
	"INTO": {}, "UPDATE": {}, "DISTINCT": {}, "WHEN": {}, "THEN": {},
	"ELSE": {}, "AND": {}, "OR": {}, "NOT": {}, "CASE": {}, "LIMIT": {},
}

// lastClause returns the nearest clause keyword before the cursor that is
// not inside a closed parenthesis group.
func (c *cursor) lastClause() string {
	for i := len(c.ctx) - 1; i >= 0; i-- {
		t := c.ctx[i]
		if t.depth > c.depth {
			continue
		}
		if _, ok := clauseKeywords[t.upper()]; ok {
			return t.upper()
		}
	}
	return ""
}

func (c *cursor) suggest(parent string) []complete.Suggestion {
	if len(c.ctx) == 0 {
		return []complete.Suggestion{complete.Keyword{}, complete.Special{}}
	}

	prev := c.last(0)
	if prev.is("::") {
		return withSchema(parent, complete.Datatype{Schema: parent})
	}
	if c.columnDefinition() {
		return withSchema(parent, complete.Datatype{Schema: parent})
	}

	switch prev.kind {
	case tokWord:
		return c.afterKeyword(prev.upper(), parent)
	case tokPunct:
		return c.afterPunct(prev, parent)
	default:
		return []complete.Suggestion{complete.Keyword{}}
	}
}

// columnDefinition reports whether the cursor follows a column name in a
// CREATE TABLE column list.
func (c *cursor) columnDefinition() bool {
	if c.depth != 1 || len(c.ctx) < 3 || c.ctx[0].upper() != "CREATE" {
		return false
	}
	table := false
	for _, t := range c.ctx[1:min(4, len(c.ctx))] {
		table = table || t.upper() == "TABLE"
	}
	if !table {
		return false
	}
	prev, before := c.last(0), c.last(1)
	return isIdent(prev) && (before.is("(") || before.is(","))
}

func (c *cursor) afterKeyword(kw, parent string) []complete.Suggestion {
	switch kw {
	case "FROM", "COPY", "LATERAL":
		return withSchema(parent, complete.FromClauseItem{
			Schema:      parent,
			TableRefs:   c.refsBefore(),
			LocalTables: c.localTables(),
		})
	case "JOIN":
		sugs := []complete.Suggestion{complete.FromClauseItem{
			Schema:      parent,
			TableRefs:   c.refsBefore(),
			LocalTables: c.localTables(),
		}}
		if refs := c.refsBefore(); len(refs) > 0 {
			sugs = append(sugs, complete.Join{TableRefs: refs, Schema: parent})
		}
		return withSchema(parent, sugs...)
	case "UPDATE", "INTO", "TRUNCATE", "TABLE":
		return withSchema(parent, complete.Table{Schema: parent, TableRefs: c.refsBefore()})
	case "VIEW":
		return withSchema(parent, complete.View{Schema: parent})
	case "FUNCTION":
		return withSchema(parent, complete.Function{Schema: parent})
	case "TYPE":
		return withSchema(parent, complete.Datatype{Schema: parent})
	case "SCHEMA":
		return []complete.Suggestion{complete.Schema{}}
	case "DATABASE", "USE", "CONNECT":
		return []complete.Suggestion{complete.Database{}}
	case "ON":
		return c.joinCondition(parent)
	case "AS":
		if c.inCast() {
			return withSchema(parent, complete.Datatype{Schema: parent})
		}
		return nil
	case "SELECT", "WHERE", "HAVING", "BY", "DISTINCT", "AND", "OR", "NOT",
		"SET", "WHEN", "THEN", "ELSE", "CASE", "RETURNING":
		return c.columns(parent)
	}
	return []complete.Suggestion{complete.Keyword{}}
}

func (c *cursor) afterPunct(prev token, parent string) []complete.Suggestion {
	switch prev.text {
	case ")":
		return []complete.Suggestion{complete.Keyword{}}
	case "(":
		before := c.last(1)
		switch before.upper() {
		case "USING":
			return []complete.Suggestion{complete.Column{
				TableRefs:        c.refsBefore(),
				RequireLastTable: true,
				LocalTables:      c.localTables(),
			}}
		case "FROM", "JOIN", "IN", "EXISTS":
			if c.depth > 0 && before.upper() != "IN" {
				return []complete.Suggestion{complete.Keyword{}}
			}
		}
	case ",":
		if c.inUsing() {
			return []complete.Suggestion{complete.Column{
				TableRefs:        c.refsBefore(),
				RequireLastTable: true,
				LocalTables:      c.localTables(),
			}}
		}
	}

	switch clause := c.lastClause(); clause {
	case "FROM":
		if prev.is(",") {
			return c.afterKeyword(clause, parent)
		}
	case "ON":
		if prev.is(",") {
			return []complete.Suggestion{complete.Keyword{}}
		}
		if parent != "" {
			return c.joinCondition(parent)
		}
		refs := c.tableRefs()
		return []complete.Suggestion{
			complete.Column{TableRefs: refs, Qualifiable: true, LocalTables: c.localTables()},
			complete.Alias{Aliases: aliases(refs)},
		}
	case "INTO":
		if c.depth > 0 {
			return []complete.Suggestion{complete.Column{TableRefs: c.refsBefore(), LocalTables: c.localTables()}}
		}
		return []complete.Suggestion{complete.Keyword{}}
	case "", "USING", "UPDATE", "JOIN", "LIMIT":
		return []complete.Suggestion{complete.Keyword{}}
	}
	return c.columns(parent)
}

// columns is the suggestion set of an expression position.
func (c *cursor) columns(parent string) []complete.Suggestion {
	refs := c.tableRefs()
	if parent == "" {
		return []complete.Suggestion{
			complete.Column{TableRefs: refs, Qualifiable: true, LocalTables: c.localTables()},
			complete.Function{TableRefs: refs},
			complete.Keyword{},
		}
	}

	var matched []complete.TableReference
	for _, r := range refs {
		if matchesParent(r, parent) {
			matched = append(matched, r)
		}
	}
	var local []complete.CTE
	for _, t := range c.localTables() {
		if strings.EqualFold(t.Name, parent) {
			local = append(local, t)
		}
	}

	sugs := make([]complete.Suggestion, 0, 4)
	if len(matched) > 0 {
		sugs = append(sugs, complete.Column{TableRefs: matched, LocalTables: local})
	}
	return append(sugs,
		complete.Table{Schema: parent},
		complete.View{Schema: parent},
		complete.Function{Schema: parent},
	)
}

// joinCondition handles the position right after ON, with or without a
// "ref." prefix.
func (c *cursor) joinCondition(parent string) []complete.Suggestion {
	refs := c.refsBefore()
	if parent == "" {
		return []complete.Suggestion{
			complete.Alias{Aliases: aliases(refs)},
			complete.JoinCondition{TableRefs: refs},
		}
	}
	for _, r := range refs {
		if matchesParent(r, parent) {
			p := r
			return []complete.Suggestion{
				complete.Column{TableRefs: []complete.TableReference{r}, LocalTables: c.localTables()},
				complete.JoinCondition{TableRefs: refs, Parent: &p},
			}
		}
	}
	return c.columns(parent)
}

// inCast reports whether the innermost open parenthesis belongs to CAST.
func (c *cursor) inCast() bool {
	return c.openedBy() == "CAST"
}

// inUsing reports whether the innermost open parenthesis follows USING.
func (c *cursor) inUsing() bool {
	return c.openedBy() == "USING"
}

// openedBy returns the word before the innermost open parenthesis.
func (c *cursor) openedBy() string {
	if c.depth == 0 {
		return ""
	}
	for i := len(c.ctx) - 1; i > 0; i-- {
		t := c.ctx[i]
		if t.is("(") && t.depth == c.depth-1 {
			return c.ctx[i-1].upper()
		}
	}
	return ""
}

func aliases(refs []complete.TableReference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Ref())
	}
	return out
}

// withSchema appends a Schema suggestion unless the name is already
// qualified.
func withSchema(parent string, sugs ...complete.Suggestion) []complete.Suggestion {
	if parent == "" {
		return append(sugs, complete.Schema{})
	}
	return sugs
}
