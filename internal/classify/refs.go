package classify

import (
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// tableRef is a FROM clause item and the offset it starts at.
type tableRef struct {
	complete.TableReference
	pos int
}

// clauseEnd holds the words that end a FROM item or its alias.
var clauseEnd = map[string]struct{}{
	"WHERE": {}, "JOIN": {}, "INNER": {}, "LEFT": {}, "RIGHT": {}, "FULL": {},
	"OUTER": {}, "CROSS": {}, "NATURAL": {}, "LATERAL": {}, "ON": {},
	"USING": {}, "GROUP": {}, "ORDER": {}, "HAVING": {}, "LIMIT": {},
	"OFFSET": {}, "UNION": {}, "INTERSECT": {}, "EXCEPT": {}, "WINDOW": {},
	"SET": {}, "VALUES": {}, "RETURNING": {}, "SELECT": {}, "FROM": {},
	"AS": {}, "WITH": {}, "FOR": {}, "FETCH": {}, "DEFAULT": {},
	"TABLESAMPLE": {}, "WHEN": {}, "ONLY": {},
}

// itemStart holds the words after which a FROM item follows.
var itemStart = map[string]struct{}{
	"FROM": {}, "JOIN": {}, "UPDATE": {}, "INTO": {}, "TABLE": {},
	"TRUNCATE": {}, "COPY": {}, "LATERAL": {}, "ONLY": {},
}

func isIdent(t token) bool {
	if t.kind == tokQuoted {
		return true
	}
	if t.kind != tokWord {
		return false
	}
	_, kw := clauseEnd[t.upper()]
	return !kw
}

// extractRefs collects the relations referenced at depth in toks.
func extractRefs(toks []token, depth int) []tableRef {
	var (
		refs      []tableRef
		expect    bool
		fromList  bool
		functions bool
	)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.depth != depth {
			continue
		}
		switch {
		case t.kind == tokWord:
			u := t.upper()
			if _, ok := itemStart[u]; ok {
				expect = true
				fromList = u == "FROM" || fromList && u != "JOIN"
				functions = u == "FROM" || u == "JOIN" || u == "LATERAL"
				continue
			}
			if _, ok := clauseEnd[u]; ok {
				expect = false
				if u != "JOIN" {
					fromList = false
				}
				continue
			}
		case t.is(","):
			expect = fromList
			continue
		}

		if !expect {
			continue
		}
		expect = false
		if ref, next, ok := parseItem(toks, i, depth, functions); ok {
			refs = append(refs, ref)
			i = next - 1
		}
	}
	return refs
}

// parseItem reads "[schema.]name[(...)] [AS] [alias]" starting at toks[i]
// and returns the reference and the index after it. A parenthesis after the
// name marks a function call only where functions are allowed; elsewhere,
// as in INSERT INTO t (...), it is a column list.
func parseItem(toks []token, i, depth int, functions bool) (tableRef, int, bool) {
	if i >= len(toks) || !isIdent(toks[i]) {
		return tableRef{}, i, false
	}
	ref := tableRef{pos: toks[i].pos}
	ref.Name = toks[i].name()
	i++
	if i+1 < len(toks) && toks[i].is(".") && isIdent(toks[i+1]) {
		ref.Schema = ref.Name
		ref.Name = toks[i+1].name()
		i += 2
	}
	if i < len(toks) && toks[i].is("(") {
		if !functions {
			return ref, i, true
		}
		ref.IsFunction = true
		i = skipGroup(toks, i)
	}
	if i < len(toks) && toks[i].upper() == "AS" {
		i++
	}
	if i < len(toks) && toks[i].depth == depth && isIdent(toks[i]) {
		ref.Alias = toks[i].name()
		i++
	}
	return ref, i, true
}

// skipGroup returns the index after the parenthesis group opened at
// toks[open].
func skipGroup(toks []token, open int) int {
	depth := toks[open].depth
	for i := open + 1; i < len(toks); i++ {
		if toks[i].is(")") && toks[i].depth == depth {
			return i + 1
		}
	}
	return len(toks)
}

// cte is a WITH clause entry and the token span of its body.
type cte struct {
	complete.CTE
	bodyStart, bodyEnd int
}

// extractCTEs reads the WITH clause that opens a statement.
func extractCTEs(toks []token) []cte {
	if len(toks) == 0 || toks[0].upper() != "WITH" {
		return nil
	}
	i := 1
	if i < len(toks) && toks[i].upper() == "RECURSIVE" {
		i++
	}

	var out []cte
	for i < len(toks) && isIdent(toks[i]) {
		c := cte{}
		c.Name = toks[i].name()
		i++
		if i < len(toks) && toks[i].is("(") {
			end := skipGroup(toks, i)
			for _, t := range toks[i+1 : end-1] {
				if isIdent(t) {
					c.Columns = append(c.Columns, t.name())
				}
			}
			i = end
		}
		for i < len(toks) && toks[i].kind == tokWord {
			i++ // AS [NOT] MATERIALIZED
		}
		if i >= len(toks) || !toks[i].is("(") {
			out = append(out, c)
			break
		}
		c.bodyStart = i
		c.bodyEnd = skipGroup(toks, i)
		if c.Columns == nil {
			c.Columns = selectColumns(toks[i+1:c.bodyEnd], toks[i].depth+1)
		}
		out = append(out, c)

		i = c.bodyEnd
		if i < len(toks) && toks[i].is(",") {
			i++
			continue
		}
		break
	}
	return out
}

// selectColumns returns the output names of a SELECT list at depth.
// Expressions without an alias or a plain column name are skipped.
func selectColumns(toks []token, depth int) []string {
	if len(toks) == 0 || toks[0].upper() != "SELECT" {
		return nil
	}
	var (
		cols []string
		item []token
	)
	flush := func() {
		if n := itemName(item); n != "" {
			cols = append(cols, n)
		}
		item = nil
	}
	for _, t := range toks[1:] {
		if t.depth == depth {
			if t.upper() == "FROM" {
				break
			}
			if t.is(",") {
				flush()
				continue
			}
		}
		item = append(item, t)
	}
	flush()
	return cols
}

func itemName(item []token) string {
	n := len(item)
	switch {
	case n == 0:
		return ""
	case n >= 2 && item[n-2].upper() == "AS" && (item[n-1].kind == tokWord || item[n-1].kind == tokQuoted):
		return item[n-1].name()
	case n == 1 && isIdent(item[0]):
		return item[0].name()
	case n == 3 && item[1].is(".") && isIdent(item[2]):
		return item[2].name()
	case n >= 2 && isIdent(item[n-1]) && (isIdent(item[n-2]) || item[n-2].is(")") || item[n-2].kind == tokNumber || item[n-2].kind == tokString):
		return item[n-1].name()
	}
	return ""
}

// matchesParent reports whether ref is the relation a "parent." prefix
// names.
func matchesParent(ref complete.TableReference, parent string) bool {
	return strings.EqualFold(ref.Ref(), parent)
}
