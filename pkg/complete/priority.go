package complete

import (
	"cmp"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// Category is the kind of object a match stands for. It doubles as the
// default display meta of a match.
type Category string

// Match categories.
const (
	CategoryKeyword    Category = "keyword"
	CategoryVariable   Category = "variable"
	CategoryFunction   Category = "function"
	CategoryView       Category = "view"
	CategoryTable      Category = "table"
	CategoryDatatype   Category = "datatype"
	CategoryDatabase   Category = "database"
	CategorySchema     Category = "schema"
	CategoryColumn     Category = "column"
	CategoryTableAlias Category = "table alias"
	CategoryJoin       Category = "join"
	CategoryNameJoin   Category = "name join"
	CategoryFKJoin     Category = "fk join"
	CategoryNamedQuery Category = "named query"
	CategoryNone       Category = ""
)

// categoryOrder lists ranked categories from highest to lowest: keyword
// first, fk join last. Ranking tests pin this direction.
var categoryOrder = []Category{
	CategoryKeyword,
	CategoryVariable,
	CategoryFunction,
	CategoryView,
	CategoryTable,
	CategoryDatatype,
	CategoryDatabase,
	CategorySchema,
	CategoryColumn,
	CategoryTableAlias,
	CategoryJoin,
	CategoryNameJoin,
	CategoryFKJoin,
}

// Rank is the category's position in the ranking order; higher ranks
// first. Categories outside the order rank below every listed one.
func (c Category) Rank() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return len(categoryOrder) - 1 - i
		}
	}
	return -1
}

// Tier separates synthetic matches from ranked ones.
type Tier int

// Match tiers.
const (
	// TierPath holds collaborator results kept in their original order.
	TierPath Tier = -1
	// TierRanked holds matches ordered by the remaining key fields.
	TierRanked Tier = 0
	// TierPinned holds the asterisk column expansion.
	TierPinned Tier = 1
)

// MatchKey scores how a fragment matched a candidate. Score is +Inf for an
// exact first word, minus the matched span for fuzzy matches and -Inf for
// strict prefix matches; Start is minus the match offset.
type MatchKey struct {
	Score float64
	Start int
}

// Compare orders keys; a better match compares greater.
func (k MatchKey) Compare(o MatchKey) int {
	if c := cmp.Compare(k.Score, o.Score); c != 0 {
		return c
	}
	return cmp.Compare(k.Start, o.Start)
}

// LexicalKey breaks ties between otherwise equal matches. Shorter names
// and names sorting earlier compare greater; space and underscore sort
// before every other character.
type LexicalKey struct {
	codes []int
	text  string
}

// NewLexicalKey builds the tiebreak key of item.
func NewLexicalKey(item string) LexicalKey {
	lowered := catalog.UnescapeName(strings.ToLower(item))
	codes := make([]int, 0, len(lowered)+1)
	for _, r := range lowered {
		if r == ' ' || r == '_' {
			codes = append(codes, 0)
			continue
		}
		codes = append(codes, -int(r))
	}
	codes = append(codes, 1)
	return LexicalKey{codes: codes, text: item}
}

// Compare orders lexical keys.
func (k LexicalKey) Compare(o LexicalKey) int {
	n := min(len(k.codes), len(o.codes))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(k.codes[i], o.codes[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(k.codes), len(o.codes)); c != 0 {
		return c
	}
	return strings.Compare(k.text, o.text)
}

// Priority is the full ranking key of a match. Fields compare in
// declaration order and a greater Priority ranks first.
type Priority struct {
	Tier       Tier
	Match      MatchKey
	Category   int
	Candidate  int
	Prevalence int
	Schema     int
	Lexical    LexicalKey
}

// Compare returns -1, 0 or +1.
func (p Priority) Compare(o Priority) int {
	if c := cmp.Compare(p.Tier, o.Tier); c != 0 {
		return c
	}
	if c := p.Match.Compare(o.Match); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Category, o.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Candidate, o.Candidate); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Prevalence, o.Prevalence); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Schema, o.Schema); c != 0 {
		return c
	}
	return p.Lexical.Compare(o.Lexical)
}
