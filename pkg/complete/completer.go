// Package complete generates and ranks SQL completions.
//
// A classifier decides which kinds of object fit at the cursor and passes
// them as Suggestion values; Completer turns each suggestion into
// candidates drawn from a catalog.Catalog, matches them against the word
// before the cursor and returns one list ordered by Priority.
//
// A Completer is synchronous and holds no locks. Callers that refresh the
// catalog from another goroutine must serialize that with completion.
package complete

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
)

// QualifyPolicy controls when column completions are prefixed with their
// table reference.
type QualifyPolicy string

// Qualification policies.
const (
	QualifyAlways             QualifyPolicy = "always"
	QualifyNever              QualifyPolicy = "never"
	QualifyIfMoreThanOneTable QualifyPolicy = "if_more_than_one_table"
)

// ColumnOrder controls the order of an expanded "*".
type ColumnOrder string

// Column orders.
const (
	ColumnOrderTable      ColumnOrder = "table_order"
	ColumnOrderAlphabetic ColumnOrder = "alphabetic"
)

// KeywordCasing controls how keywords are emitted.
type KeywordCasing string

// Keyword casings.
const (
	KeywordCasingUpper KeywordCasing = "upper"
	KeywordCasingLower KeywordCasing = "lower"
	// KeywordCasingAuto follows the case of the last typed character.
	KeywordCasingAuto KeywordCasing = "auto"
)

// ParseKeywordCasing normalises s; unknown values fall back to upper.
func ParseKeywordCasing(s string) KeywordCasing {
	switch k := KeywordCasing(strings.ToLower(strings.TrimSpace(s))); k {
	case KeywordCasingUpper, KeywordCasingLower, KeywordCasingAuto:
		return k
	default:
		return KeywordCasingUpper
	}
}

// Settings are the user-facing completion options.
type Settings struct {
	SearchPathFilter    bool
	GenerateAliases     bool
	QualifyColumns      QualifyPolicy
	AsteriskColumnOrder ColumnOrder
	KeywordCasing       KeywordCasing
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		QualifyColumns:      QualifyIfMoreThanOneTable,
		AsteriskColumnOrder: ColumnOrderTable,
		KeywordCasing:       KeywordCasingUpper,
	}
}

// Prioritizer reports how often names and keywords were used before.
type Prioritizer interface {
	KeywordCount(keyword string) int
	NameCount(name string) int
}

// SpecialCommand is a client meta-command offered by Special suggestions.
type SpecialCommand struct {
	Name        string
	Description string
}

// Completer produces ranked matches for suggestions.
type Completer struct {
	catalog      *catalog.Catalog
	settings     Settings
	prioritizer  Prioritizer
	namedQueries []string
	specials     []SpecialCommand
	paths        PathCompleter
	logger       *slog.Logger
}

// Option configures a Completer.
type Option func(*Completer)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(c *Completer) {
		c.settings = s
	}
}

// WithPrioritizer injects the usage counter consulted while ranking.
func WithPrioritizer(p Prioritizer) Option {
	return func(c *Completer) {
		if p != nil {
			c.prioritizer = p
		}
	}
}

// WithNamedQueries sets the saved query names.
func WithNamedQueries(names []string) Option {
	return func(c *Completer) {
		c.namedQueries = slices.Clone(names)
	}
}

// WithSpecialCommands sets the meta-commands.
func WithSpecialCommands(cmds []SpecialCommand) Option {
	return func(c *Completer) {
		c.specials = slices.Clone(cmds)
	}
}

// WithPathCompleter replaces filesystem path completion.
func WithPathCompleter(p PathCompleter) Option {
	return func(c *Completer) {
		if p != nil {
			c.paths = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Completer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Completer over cat.
func New(cat *catalog.Catalog, opts ...Option) *Completer {
	c := &Completer{
		catalog:     cat,
		settings:    DefaultSettings(),
		prioritizer: prioritize.New(),
		paths:       FilesystemPaths{},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.settings.KeywordCasing = ParseKeywordCasing(string(c.settings.KeywordCasing))
	if c.settings.QualifyColumns == "" {
		c.settings.QualifyColumns = QualifyIfMoreThanOneTable
	}
	if c.settings.AsteriskColumnOrder == "" {
		c.settings.AsteriskColumnOrder = ColumnOrderTable
	}
	return c
}

// Catalog returns the catalog completions are drawn from.
func (c *Completer) Catalog() *catalog.Catalog {
	return c.catalog
}

// Settings returns the effective settings.
func (c *Completer) Settings() Settings {
	return c.settings
}

// SetNamedQueries replaces the saved query names.
func (c *Completer) SetNamedQueries(names []string) {
	c.namedQueries = slices.Clone(names)
}

// Complete returns the matches of every suggestion, best first.
func (c *Completer) Complete(suggestions []Suggestion, wordBeforeCursor string) []Match {
	var matches []Match
	for _, s := range suggestions {
		c.logger.Debug("suggestion", "type", fmt.Sprintf("%T", s))
		matches = append(matches, c.Matches(s, wordBeforeCursor)...)
	}
	sortMatches(matches)
	return matches
}

// Matches returns the unsorted matches of one suggestion. It panics on a
// Suggestion type this package does not define.
func (c *Completer) Matches(s Suggestion, word string) []Match {
	switch s := s.(type) {
	case Table:
		return c.tableMatches(s, word, false)
	case View:
		return c.viewMatches(s, word, false)
	case Function:
		return c.functionMatches(s, word, false)
	case FromClauseItem:
		return c.fromClauseMatches(s, word)
	case Column:
		return c.columnMatches(s, word)
	case Join:
		return c.joinMatches(s, word)
	case JoinCondition:
		return c.joinConditionMatches(s, word)
	case Schema:
		return c.schemaMatches(word)
	case Database:
		return c.findMatches(word, stringCandidates(c.catalog.Databases()), modeFuzzy, CategoryDatabase)
	case Keyword:
		return c.keywordMatches(word, c.catalog.Keywords())
	case Datatype:
		return c.datatypeMatches(s, word)
	case NamedQuery:
		return c.findMatches(word, stringCandidates(c.namedQueries), modeFuzzy, CategoryNamedQuery)
	case Alias:
		return c.findMatches(word, stringCandidates(s.Aliases), modeFuzzy, CategoryTableAlias)
	case Special:
		return c.specialMatches(word)
	case Path:
		return c.paths.CompletePaths(word)
	case Variable:
		return c.findMatches(word, stringCandidates(s.Names), modeFuzzy, CategoryVariable)
	case BlockKeyword:
		return c.keywordMatches(word, c.blockKeywords())
	default:
		panic(fmt.Sprintf("complete: unhandled suggestion %T", s))
	}
}

// CompleteAll prefix-matches every name the catalog knows, ignoring
// context, and returns the matches sorted by text.
func (c *Completer) CompleteAll(wordBeforeCursor string) []Match {
	matches := c.findMatches(wordBeforeCursor, stringCandidates(c.catalog.AllCompletions()), modeStrict, CategoryNone)
	slices.SortStableFunc(matches, func(a, b Match) int {
		return strings.Compare(a.Text, b.Text)
	})
	return matches
}
