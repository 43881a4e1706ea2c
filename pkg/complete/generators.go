package complete

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// systemPrefix marks catalog objects hidden until the user types it.
const systemPrefix = "pg_"

// schemaObject is a catalog object ready to become a candidate. Schema is
// empty when no qualifier should be shown.
type schemaObject struct {
	name     string
	schema   string
	function bool
}

// schemasFor lists the escaped schemas to draw objects from.
func (c *Completer) schemasFor(schema string) []string {
	if schema != "" {
		escaped := c.catalog.EscapeName(schema)
		if c.catalog.HasSchema(escaped) {
			return []string{escaped}
		}
		return nil
	}
	if c.settings.SearchPathFilter {
		return c.catalog.SearchPath()
	}
	return c.catalog.Schemas()
}

// displaySchema decides whether an object from schemaName needs a
// qualifier: not when the user typed one, nor when it is on the search
// path.
func (c *Completer) displaySchema(schemaName, typed string) string {
	if typed != "" || c.catalog.InSearchPath(schemaName) {
		return ""
	}
	return schemaName
}

func (c *Completer) schemaObjects(schema string, kind catalog.Kind) []schemaObject {
	var objs []schemaObject
	for _, sch := range c.schemasFor(schema) {
		for _, name := range c.catalog.ObjectNames(kind, sch) {
			objs = append(objs, schemaObject{
				name:     name,
				schema:   c.displaySchema(sch, schema),
				function: kind == catalog.KindFunctions,
			})
		}
	}
	return objs
}

// schemaFunctions yields one object per overload accepted by keep.
func (c *Completer) schemaFunctions(schema string, keep func(catalog.FunctionMetadata) bool) []schemaObject {
	var objs []schemaObject
	for _, sch := range c.schemasFor(schema) {
		for _, name := range c.catalog.FunctionNames(sch) {
			for _, fn := range c.catalog.FunctionOverloads(sch, name) {
				if !keep(fn) {
					continue
				}
				objs = append(objs, schemaObject{name: name, schema: c.displaySchema(sch, schema), function: true})
			}
		}
	}
	return objs
}

// objectCandidate renders "[schema.]name[()][ alias]".
func (c *Completer) objectCandidate(obj schemaObject, withAlias bool, refs []TableReference) Candidate {
	cased := c.catalog.Case(obj.name)
	var b strings.Builder
	if obj.schema != "" {
		b.WriteString(c.catalog.Case(obj.schema))
		b.WriteByte('.')
	}
	b.WriteString(cased)
	if obj.function {
		b.WriteString("()")
	}
	if withAlias {
		b.WriteByte(' ')
		b.WriteString(c.Alias(cased, refs))
	}
	schemaPrio := 1
	if obj.schema != "" {
		schemaPrio = 0
	}
	return Candidate{
		Text:           b.String(),
		Synonyms:       []string{cased, GenerateAlias(catalog.UnescapeName(cased))},
		SchemaPriority: schemaPrio,
	}
}

func hideSystem(objs []schemaObject, schema, word string) []schemaObject {
	if schema != "" || strings.HasPrefix(word, systemPrefix) {
		return objs
	}
	kept := objs[:0]
	for _, o := range objs {
		if !strings.HasPrefix(o.name, systemPrefix) {
			kept = append(kept, o)
		}
	}
	return kept
}

func (c *Completer) tableMatches(s Table, word string, withAlias bool) []Match {
	objs := c.schemaObjects(s.Schema, catalog.KindTables)
	for _, cte := range s.LocalTables {
		objs = append(objs, schemaObject{name: cte.Name})
	}
	objs = hideSystem(objs, s.Schema, word)

	cands := make([]Candidate, len(objs))
	for i, o := range objs {
		cands[i] = c.objectCandidate(o, withAlias, s.TableRefs)
	}
	return c.findMatches(word, cands, modeFuzzy, CategoryTable)
}

func (c *Completer) viewMatches(s View, word string, withAlias bool) []Match {
	objs := hideSystem(c.schemaObjects(s.Schema, catalog.KindViews), s.Schema, word)
	cands := make([]Candidate, len(objs))
	for i, o := range objs {
		cands[i] = c.objectCandidate(o, withAlias, s.TableRefs)
	}
	return c.findMatches(word, cands, modeFuzzy, CategoryView)
}

func (c *Completer) functionMatches(s Function, word string, withAlias bool) []Match {
	var cands []Candidate
	if s.Filter == FilterFromClause {
		objs := c.schemaFunctions(s.Schema, func(fn catalog.FunctionMetadata) bool {
			return !fn.IsAggregate && !fn.IsWindow
		})
		for _, o := range objs {
			cands = append(cands, c.objectCandidate(o, withAlias, s.TableRefs))
		}
	} else {
		for _, o := range c.schemaObjects(s.Schema, catalog.KindFunctions) {
			cands = append(cands, c.objectCandidate(o, false, s.TableRefs))
		}
	}

	// overloads collapse to one suggestion
	seen := make(map[string]struct{}, len(cands))
	unique := cands[:0]
	for _, cand := range cands {
		if _, dup := seen[cand.Text]; dup {
			continue
		}
		seen[cand.Text] = struct{}{}
		unique = append(unique, cand)
	}

	matches := c.findMatches(word, unique, modeFuzzy, CategoryFunction)
	if s.Schema == "" && s.Filter == FilterNone {
		matches = append(matches, c.findMatches(word, stringCandidates(c.catalog.BuiltinFunctions()), modeStrict, CategoryFunction)...)
	}
	return matches
}

func (c *Completer) fromClauseMatches(s FromClauseItem, word string) []Match {
	alias := c.settings.GenerateAliases
	matches := c.tableMatches(Table{Schema: s.Schema, TableRefs: s.TableRefs, LocalTables: s.LocalTables}, word, alias)
	matches = append(matches, c.viewMatches(View{Schema: s.Schema, TableRefs: s.TableRefs}, word, alias)...)
	matches = append(matches, c.functionMatches(Function{Schema: s.Schema, TableRefs: s.TableRefs, Filter: FilterFromClause}, word, alias)...)
	return matches
}

func (c *Completer) schemaMatches(word string) []Match {
	names := c.catalog.Schemas()
	if !strings.HasPrefix(word, systemPrefix) {
		kept := names[:0]
		for _, n := range names {
			if !strings.HasPrefix(n, systemPrefix) {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	return c.findMatches(word, stringCandidates(names), modeFuzzy, CategorySchema)
}

// keywordMatches cases keywords, which it may modify in place, and
// prefix-matches them.
func (c *Completer) keywordMatches(word string, keywords []string) []Match {
	casing := c.settings.KeywordCasing
	if casing == KeywordCasingAuto {
		casing = KeywordCasingUpper
		if word != "" && unicode.IsLower(lastRune(word)) {
			casing = KeywordCasingLower
		}
	}
	for i, kw := range keywords {
		if casing == KeywordCasingLower {
			keywords[i] = strings.ToLower(kw)
		} else {
			keywords[i] = strings.ToUpper(kw)
		}
	}
	return c.findMatches(word, stringCandidates(keywords), modeStrict, CategoryKeyword)
}

func (c *Completer) datatypeMatches(s Datatype, word string) []Match {
	var cands []Candidate
	for _, o := range c.schemaObjects(s.Schema, catalog.KindDatatypes) {
		cands = append(cands, c.objectCandidate(o, false, nil))
	}
	matches := c.findMatches(word, cands, modeFuzzy, CategoryDatatype)
	if s.Schema == "" {
		matches = append(matches, c.findMatches(word, stringCandidates(c.catalog.BuiltinDatatypes()), modeStrict, CategoryDatatype)...)
	}
	return matches
}

func (c *Completer) specialMatches(word string) []Match {
	cands := make([]Candidate, len(c.specials))
	for i, cmd := range c.specials {
		cands[i] = Candidate{Text: cmd.Name, Meta: cmd.Description, Synonyms: []string{cmd.Name}}
	}
	return c.findMatches(word, cands, modeStrict, CategoryNone)
}
