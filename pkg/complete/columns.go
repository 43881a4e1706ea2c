package complete

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

func (c *Completer) columnMatches(s Column, word string) []Match {
	tables := s.TableRefs
	qualify := false
	if s.Qualifiable {
		switch c.settings.QualifyColumns {
		case QualifyAlways:
			qualify = true
		case QualifyIfMoreThanOneTable:
			qualify = len(tables) > 1
		}
	}
	qualified := func(col, ref string) string {
		if qualify {
			return ref + "." + c.catalog.Case(col)
		}
		return c.catalog.Case(col)
	}

	c.logger.Debug("completion column scope", "tables", len(tables))
	scoped := c.ScopedColumns(tables, s.LocalTables)

	var cands []Candidate
	for _, st := range scoped {
		for _, col := range st.Columns {
			cands = append(cands, Candidate{
				Text:     qualified(col.Name, st.Ref.Ref()),
				Meta:     string(CategoryColumn),
				Synonyms: []string{col.Name, GenerateAlias(catalog.UnescapeName(c.catalog.Case(col.Name)))},
			})
		}
	}
	if s.RequireLastTable && len(tables) > 0 {
		cands = stringCandidates(sharedWithLast(scoped, tables[len(tables)-1].Ref()))
	} else if len(cands) > 0 {
		// A literal "*" sits in the pool; typing it triggers the expansion below.
		cands = append([]Candidate{{Text: "*", Meta: string(CategoryColumn), Synonyms: []string{"*"}}}, cands...)
	}

	if last := lastWord(word); last == "*" {
		return []Match{c.expandAsterisk(scoped, tables, word, qualified)}
	}
	return c.findMatches(word, cands, modeFuzzy, CategoryColumn)
}

// sharedWithLast lists the columns of the last reference that also appear
// in another reference, in the last reference's column order.
func sharedWithLast(scoped []ScopedTable, last string) []string {
	others := make(map[string]struct{})
	var lastCols []string
	for _, st := range scoped {
		isLast := normalizeRef(st.Ref.Ref()) == normalizeRef(last)
		for _, col := range st.Columns {
			if isLast {
				lastCols = append(lastCols, col.Name)
			} else {
				others[col.Name] = struct{}{}
			}
		}
	}
	var shared []string
	seen := make(map[string]struct{})
	for _, name := range lastCols {
		if _, ok := others[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		shared = append(shared, name)
	}
	return shared
}

// expandAsterisk replaces "*" with the full column list.
func (c *Completer) expandAsterisk(scoped []ScopedTable, tables []TableReference, word string, qualified func(col, ref string) string) Match {
	if c.settings.AsteriskColumnOrder == ColumnOrderAlphabetic {
		for i := range scoped {
			cols := slices.Clone(scoped[i].Columns)
			slices.SortStableFunc(cols, func(a, b catalog.ColumnMetadata) int {
				return strings.Compare(a.Name, b.Name)
			})
			scoped[i].Columns = cols
		}
	}

	var list string
	prefix := word[:len(word)-1]
	if prefix != "" && strings.HasSuffix(prefix, ".") && len(tables) == 1 {
		// "x.*": the first column keeps the typed "x.", the rest repeat it
		qualifier := trailingWord.FindString(prefix)
		var names []string
		for _, st := range scoped {
			for _, col := range st.Columns {
				names = append(names, c.catalog.Case(col.Name))
			}
		}
		if c.settings.AsteriskColumnOrder == ColumnOrderAlphabetic {
			slices.Sort(names)
		}
		list = strings.Join(names, ", "+qualifier)
	} else {
		var cols []string
		for _, st := range scoped {
			for _, col := range st.Columns {
				cols = append(cols, qualified(col.Name, st.Ref.Ref()))
			}
		}
		list = strings.Join(cols, ", ")
	}

	return Match{
		Text:          list,
		StartPosition: -1,
		Display:       "*",
		DisplayMeta:   "columns",
		Priority:      Priority{Tier: TierPinned},
	}
}
