// Package prioritize counts how often keywords and identifiers appear in
// executed queries so frequently used names can rank higher.
package prioritize

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/literals"
)

var whitespace = regexp.MustCompile(`\s+`)

// KeywordCounter counts whole-word, case-insensitive keyword occurrences.
// Whitespace inside a multi-word keyword matches any whitespace run, so
// "GROUP\n  BY" counts as GROUP BY.
type KeywordCounter struct {
	keywords []string
	patterns map[string]*regexp.Regexp
	counts   map[string]int
}

// NewKeywordCounter compiles one pattern per keyword.
func NewKeywordCounter(keywords []string) *KeywordCounter {
	k := &KeywordCounter{
		patterns: make(map[string]*regexp.Regexp, len(keywords)),
		counts:   make(map[string]int),
	}
	for _, kw := range keywords {
		if _, dup := k.patterns[kw]; dup {
			continue
		}
		words := whitespace.Split(strings.TrimSpace(kw), -1)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		k.patterns[kw] = regexp.MustCompile(`(?im)\b` + strings.Join(words, `\s+`) + `\b`)
		k.keywords = append(k.keywords, kw)
	}
	return k
}

// Update adds the keyword occurrences found in text.
func (k *KeywordCounter) Update(text string) {
	for _, kw := range k.keywords {
		if n := len(k.patterns[kw].FindAllStringIndex(text, -1)); n > 0 {
			k.counts[kw] += n
		}
	}
}

// Count returns the occurrences seen so far for keyword.
func (k *KeywordCounter) Count(keyword string) int {
	return k.counts[keyword]
}

// Add increases the count of a tracked keyword by n. Unknown keywords
// are ignored.
func (k *KeywordCounter) Add(keyword string, n int) {
	if _, ok := k.patterns[keyword]; ok && n > 0 {
		k.counts[keyword] += n
	}
}

// identifier matches quoted identifiers, bare words, string literals and
// comments; only the first two are counted.
var identifier = regexp.MustCompile(`'(?:[^']|'')*'|--[^\n]*|/\*(?s:.*?)\*/|"(?:[^"]|"")+"|[A-Za-z_][A-Za-z0-9_$]*`)

// Counter tracks keyword and name prevalence across query history.
type Counter struct {
	keywords *KeywordCounter
	reserved map[string]struct{}
	names    map[string]int
}

// New creates a counter over the built-in keyword list.
func New() *Counter {
	return NewWithKeywords(literals.Default().Keywords)
}

// NewWithKeywords creates a counter over keywords.
func NewWithKeywords(keywords []string) *Counter {
	reserved := make(map[string]struct{})
	for _, kw := range keywords {
		for _, w := range strings.Fields(kw) {
			reserved[strings.ToUpper(w)] = struct{}{}
		}
	}
	return &Counter{
		keywords: NewKeywordCounter(keywords),
		reserved: reserved,
		names:    make(map[string]int),
	}
}

// Update counts both keywords and names in text.
func (c *Counter) Update(text string) {
	c.UpdateKeywords(text)
	c.UpdateNames(text)
}

// UpdateKeywords counts keywords only.
func (c *Counter) UpdateKeywords(text string) {
	c.keywords.Update(text)
}

// UpdateNames counts identifiers that are not keywords.
func (c *Counter) UpdateNames(text string) {
	for _, tok := range identifier.FindAllString(text, -1) {
		switch {
		case strings.HasPrefix(tok, "'"), strings.HasPrefix(tok, "--"), strings.HasPrefix(tok, "/*"):
			continue
		case tok[0] != '"':
			if _, ok := c.reserved[strings.ToUpper(tok)]; ok {
				continue
			}
		}
		c.names[tok]++
	}
}

// ClearNames forgets all name counts.
func (c *Counter) ClearNames() {
	c.names = make(map[string]int)
}

// KeywordCount returns how often keyword was seen.
func (c *Counter) KeywordCount(keyword string) int {
	return c.keywords.Count(keyword)
}

// NameCount returns how often name was seen.
func (c *Counter) NameCount(name string) int {
	return c.names[name]
}

// Counts is a copy of a counter's tables.
type Counts struct {
	Keywords map[string]int
	Names    map[string]int
}

// Snapshot copies the non-zero counts.
func (c *Counter) Snapshot() Counts {
	out := Counts{
		Keywords: make(map[string]int, len(c.keywords.counts)),
		Names:    make(map[string]int, len(c.names)),
	}
	for kw, n := range c.keywords.counts {
		out.Keywords[kw] = n
	}
	for name, n := range c.names {
		out.Names[name] = n
	}
	return out
}

// Since returns the counts gained since prev, an earlier snapshot of the
// same counter. Keys that did not grow are left out.
func (c Counts) Since(prev Counts) Counts {
	out := Counts{
		Keywords: make(map[string]int),
		Names:    make(map[string]int),
	}
	for kw, n := range c.Keywords {
		if d := n - prev.Keywords[kw]; d > 0 {
			out.Keywords[kw] = d
		}
	}
	for name, n := range c.Names {
		if d := n - prev.Names[name]; d > 0 {
			out.Names[name] = d
		}
	}
	return out
}

// Restore adds counts to the current tables.
func (c *Counter) Restore(counts Counts) {
	for kw, n := range counts.Keywords {
		c.keywords.Add(kw, n)
	}
	for name, n := range counts.Names {
		if n > 0 {
			c.names[name] += n
		}
	}
}
