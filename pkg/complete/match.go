package complete

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// Candidate is a completion before matching. Synonyms are the strings
// matched against the typed fragment; the best synonym match wins.
type Candidate struct {
	Text     string
	Priority int
	// Meta overrides the generator's category as display meta.
	Meta           string
	Synonyms       []string
	SchemaPriority int
}

// Match is a ranked completion. StartPosition is the cursor-relative
// offset, in runes, where Text replaces the typed input.
type Match struct {
	Text          string
	StartPosition int
	Display       string
	DisplayMeta   string
	Priority      Priority
}

type matchMode int

const (
	modeFuzzy matchMode = iota
	modeStrict
)

const (
	maxMetaLen       = 50
	truncatedMetaLen = 47
)

var (
	trailingFragment = regexp.MustCompile(`[^.():,\s]+$`)
	trailingWord     = regexp.MustCompile(`[^():,\s]+$`)
)

// lastWord returns the trailing run of characters that are not whitespace
// or one of .():, in text.
func lastWord(text string) string {
	if text == "" || unicode.IsSpace(lastRune(text)) {
		return ""
	}
	return trailingFragment.FindString(text)
}

// WordBeforeCursor returns the run of non-space characters ending at the
// cursor.
func WordBeforeCursor(textBeforeCursor string) string {
	i := strings.LastIndexFunc(textBeforeCursor, unicode.IsSpace)
	if i < 0 {
		return textBeforeCursor
	}
	_, size := utf8.DecodeRuneInString(textBeforeCursor[i:])
	return textBeforeCursor[i+size:]
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

func stringCandidates(items []string) []Candidate {
	cands := make([]Candidate, len(items))
	for i, item := range items {
		cands[i] = Candidate{Text: item, Synonyms: []string{item}}
	}
	return cands
}

// findMatches filters cands against the fragment at the end of word and
// scores the survivors. Category feeds both ranking and the default
// display meta.
func (c *Completer) findMatches(word string, cands []Candidate, mode matchMode, category Category) []Match {
	text := strings.ToLower(lastWord(word))
	textLen := utf8.RuneCountInString(text)
	text = strings.TrimPrefix(text, `"`)

	var pattern *regexp.Regexp
	if mode == modeFuzzy {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, regexp.QuoteMeta(string(r)))
		}
		pattern = regexp.MustCompile("(" + strings.Join(parts, ".*?") + ")")
	}
	exactLen := utf8.RuneCountInString(text) + 1

	score := func(item string) (MatchKey, bool) {
		lowered := strings.ToLower(item)
		if mode == modeStrict {
			if strings.HasPrefix(lowered, text) {
				return MatchKey{Score: math.Inf(-1)}, true
			}
			return MatchKey{}, false
		}
		if head := firstRunes(lowered, exactLen); head == text || head == text+" " {
			return MatchKey{Score: math.Inf(1), Start: -1}, true
		}
		target := catalog.UnescapeName(lowered)
		loc := pattern.FindStringIndex(target)
		if loc == nil {
			return MatchKey{}, false
		}
		span := utf8.RuneCountInString(target[loc[0]:loc[1]])
		start := utf8.RuneCountInString(target[:loc[0]])
		return MatchKey{Score: -float64(span), Start: -start}, true
	}

	prevalence := c.prioritizer.NameCount
	if mode == modeStrict {
		prevalence = c.prioritizer.KeywordCount
	}
	rank := category.Rank()

	var matches []Match
	for _, cand := range cands {
		synonyms := cand.Synonyms
		if len(synonyms) == 0 {
			synonyms = []string{cand.Text}
		}
		var (
			best  MatchKey
			found bool
		)
		for _, syn := range synonyms {
			key, ok := score(syn)
			if !ok {
				continue
			}
			if !found || key.Compare(best) > 0 {
				best = key
			}
			found = true
		}
		if !found {
			continue
		}

		meta := cand.Meta
		if meta == "" {
			meta = string(category)
		}
		if utf8.RuneCountInString(meta) > maxMetaLen {
			meta = firstRunes(meta, truncatedMetaLen) + "..."
		}

		matches = append(matches, Match{
			Text:          c.catalog.Case(cand.Text),
			StartPosition: -textLen,
			DisplayMeta:   meta,
			Priority: Priority{
				Tier:       TierRanked,
				Match:      best,
				Category:   rank,
				Candidate:  cand.Priority,
				Prevalence: prevalence(cand.Text),
				Schema:     cand.SchemaPriority,
				Lexical:    NewLexicalKey(cand.Text),
			},
		})
	}
	return matches
}

// sortMatches orders matches best first, keeping generator order on ties.
func sortMatches(matches []Match) {
	slices.SortStableFunc(matches, func(a, b Match) int {
		return b.Priority.Compare(a.Priority)
	})
}
