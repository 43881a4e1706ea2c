package complete

import (
	"fmt"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// defaultSchema is never added as a qualifier to join suggestions.
const defaultSchema = "public"

// Join condition tiers.
const (
	fkJoinPriority      = 2000
	intNameJoinPriority = 1000
	nameJoinPriority    = 0
)

var integerTypes = map[string]struct{}{
	"integer":  {},
	"bigint":   {},
	"smallint": {},
}

type qualifiedColumn struct {
	schema, table, column string
}

func (c *Completer) joinMatches(s Join, word string) []Match {
	scoped := c.ScopedColumns(s.TableRefs, nil)

	qualified := make(map[string]string, len(s.TableRefs))
	refPrio := make(map[string]int, len(s.TableRefs))
	for i, t := range s.TableRefs {
		qualified[normalizeRef(t.Ref())] = t.Schema
		refPrio[normalizeRef(t.Ref())] = i
	}
	refs := refSet(s.TableRefs)

	others := make(map[[2]string]struct{})
	for i, st := range scoped {
		if i == len(scoped)-1 {
			break
		}
		others[[2]string{st.Ref.Schema, st.Ref.Name}] = struct{}{}
	}

	cs := c.catalog.Case
	var joins []Candidate
	for _, st := range scoped {
		rtbl := st.Ref
		for _, rcol := range st.Columns {
			for _, fk := range rcol.ForeignKeys {
				right := qualifiedColumn{rtbl.Schema, rtbl.Name, rcol.Name}
				child := qualifiedColumn{fk.ChildSchema, fk.ChildTable, fk.ChildColumn}
				parent := qualifiedColumn{fk.ParentSchema, fk.ParentTable, fk.ParentColumn}
				left := parent
				if parent == right {
					left = child
				}
				if s.Schema != "" && left.schema != c.catalog.EscapeName(s.Schema) {
					continue
				}

				plain := fmt.Sprintf("%s ON %s.%s = %s.%s",
					cs(left.table), cs(left.table), cs(left.column), rtbl.Ref(), cs(right.column))
				join := plain
				if _, taken := refs[normalizeRef(left.table)]; c.settings.GenerateAliases || taken {
					lref := c.Alias(left.table, s.TableRefs)
					join = fmt.Sprintf("%s %s ON %s.%s = %s.%s",
						cs(left.table), lref, lref, cs(left.column), rtbl.Ref(), cs(right.column))
				}
				alias := GenerateAlias(catalog.UnescapeName(cs(left.table)))
				synonyms := []string{join}
				if plain != join {
					synonyms = append(synonyms, plain)
				}
				synonyms = append(synonyms, fmt.Sprintf("%s ON %s.%s = %s.%s",
					alias, alias, cs(left.column), rtbl.Ref(), cs(right.column)))

				if s.Schema == "" &&
					((qualified[normalizeRef(rtbl.Ref())] != "" && left.schema == right.schema) ||
						(left.schema != right.schema && left.schema != defaultSchema)) {
					join = left.schema + "." + join
				}

				prio := refPrio[normalizeRef(rtbl.Ref())] * 2
				if _, ok := others[[2]string{left.schema, left.table}]; !ok {
					prio++
				}
				joins = append(joins, Candidate{
					Text:     join,
					Priority: prio,
					Meta:     string(CategoryJoin),
					Synonyms: synonyms,
				})
			}
		}
	}
	return c.findMatches(word, joins, modeFuzzy, CategoryJoin)
}

func (c *Completer) joinConditionMatches(s JoinCondition, word string) []Match {
	scoped := c.ScopedColumns(s.TableRefs, nil)

	var lref string
	switch {
	case s.Parent != nil:
		lref = s.Parent.Ref()
	case len(s.TableRefs) > 0:
		lref = s.TableRefs[len(s.TableRefs)-1].Ref()
	default:
		return nil
	}
	left := -1
	for i, st := range scoped {
		if normalizeRef(st.Ref.Ref()) == normalizeRef(lref) {
			left = i
		}
	}
	if left < 0 {
		c.logger.Debug("join condition parent not in scope", "ref", lref)
		return nil
	}
	ltbl, lcols := scoped[left].Ref, scoped[left].Columns

	refPrio := make(map[string]int, len(s.TableRefs))
	for i, t := range s.TableRefs {
		refPrio[normalizeRef(t.Ref())] = i
	}

	var (
		conds []Candidate
		seen  = make(map[string]struct{})
	)
	addCond := func(lcol, rcol, rref string, prio int, meta Category) {
		prefix := ltbl.Ref() + "."
		if s.Parent != nil {
			prefix = ""
		}
		cond := prefix + c.catalog.Case(lcol) + " = " + rref + "." + c.catalog.Case(rcol)
		if _, dup := seen[cond]; dup {
			return
		}
		seen[cond] = struct{}{}
		conds = append(conds, Candidate{Text: cond, Priority: prio + refPrio[normalizeRef(rref)], Meta: string(meta)})
	}

	// other in-scope tables by (schema, table, column)
	byColumn := make(map[qualifiedColumn][]TableReference)
	for _, st := range scoped {
		if normalizeRef(st.Ref.Ref()) == normalizeRef(lref) {
			continue
		}
		for _, col := range st.Columns {
			key := qualifiedColumn{st.Ref.Schema, st.Ref.Name, col.Name}
			byColumn[key] = append(byColumn[key], st.Ref)
		}
	}
	for _, lcol := range lcols {
		for _, fk := range lcol.ForeignKeys {
			own := qualifiedColumn{ltbl.Schema, ltbl.Name, lcol.Name}
			child := qualifiedColumn{fk.ChildSchema, fk.ChildTable, fk.ChildColumn}
			parent := qualifiedColumn{fk.ParentSchema, fk.ParentTable, fk.ParentColumn}
			l, r := parent, child
			if own == child {
				l, r = child, parent
			}
			for _, rtbl := range byColumn[r] {
				addCond(l.column, r.column, rtbl.Ref(), fkJoinPriority, CategoryFKJoin)
			}
		}
	}

	type nameType struct{ name, datatype string }
	byNameType := make(map[nameType][]TableReference)
	for _, st := range scoped {
		for _, col := range st.Columns {
			key := nameType{col.Name, col.Datatype}
			byNameType[key] = append(byNameType[key], st.Ref)
		}
	}
	for _, lcol := range lcols {
		for _, rtbl := range byNameType[nameType{lcol.Name, lcol.Datatype}] {
			if rtbl.Ref() == ltbl.Ref() {
				continue
			}
			prio := nameJoinPriority
			if _, ok := integerTypes[lcol.Datatype]; ok {
				prio = intNameJoinPriority
			}
			addCond(lcol.Name, lcol.Name, rtbl.Ref(), prio, CategoryNameJoin)
		}
	}

	return c.findMatches(word, conds, modeFuzzy, CategoryJoin)
}
