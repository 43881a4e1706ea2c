package complete

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlcomplete/pkg/prioritize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordMatches(t *testing.T) {
	tests := []struct {
		name   string
		casing KeywordCasing
		word   string
		want   []string
	}{
		{name: "upper by default", casing: KeywordCasingUpper, word: "SEL", want: []string{"SELECT"}},
		{name: "lower", casing: KeywordCasingLower, word: "SEL", want: []string{"select"}},
		{name: "auto follows lower input", casing: KeywordCasingAuto, word: "sel", want: []string{"select"}},
		{name: "auto follows upper input", casing: KeywordCasingAuto, word: "SEL", want: []string{"SELECT"}},
		{name: "multi-word keyword", casing: KeywordCasingUpper, word: "group", want: []string{"GROUP BY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompleter(t, settingsWith(func(s *Settings) { s.KeywordCasing = tt.casing }))
			matches := c.Complete([]Suggestion{Keyword{}}, tt.word)
			assert.Equal(t, tt.want, texts(matches))
			for _, m := range matches {
				assert.Equal(t, -len(tt.word), m.StartPosition)
				assert.Equal(t, "keyword", m.DisplayMeta)
			}
		})
	}
}

func TestKeywordStartPosition(t *testing.T) {
	c := newTestCompleter(t)
	matches := c.Complete([]Suggestion{Keyword{}}, "SELECT * FR")
	require.Len(t, matches, 1)
	assert.Equal(t, "FROM", matches[0].Text)
	assert.Equal(t, -2, matches[0].StartPosition)
}

func TestFunctionMatchesIncludeBuiltins(t *testing.T) {
	c := newTestCompleter(t)

	matches := c.Complete([]Suggestion{Function{}}, "MA")
	require.Len(t, matches, 1)
	assert.Equal(t, "MAX", matches[0].Text)
	assert.Equal(t, -2, matches[0].StartPosition)
	assert.Equal(t, "function", matches[0].DisplayMeta)

	all := texts(c.Complete([]Suggestion{Function{}}, "custom"))
	assert.Equal(t, []string{"custom_func1()", "custom_func2()"}, all)
}

func TestFunctionMatchesSchemaQualified(t *testing.T) {
	c := newTestCompleter(t)
	got := texts(c.Complete([]Suggestion{Function{Schema: "public"}}, ""))
	assert.ElementsMatch(t, []string{
		"custom_func1()", "custom_func2()", "set_returning_func()", "agg_func()", "window_func()",
	}, got)
}

func TestFromClauseMatches(t *testing.T) {
	tests := []struct {
		name     string
		settings func(*Settings)
		want     []string
	}{
		{
			name:     "all schemas",
			settings: func(*Settings) {},
			want: []string{
				"users", "orders", `"select"`, "custom.products", "custom.shipments",
				"user_emails",
				"custom_func1()", "custom_func2()", "set_returning_func()",
			},
		},
		{
			name:     "search path only",
			settings: func(s *Settings) { s.SearchPathFilter = true },
			want: []string{
				"users", "orders", `"select"`,
				"user_emails",
				"custom_func1()", "custom_func2()", "set_returning_func()",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompleter(t, settingsWith(tt.settings))
			got := texts(c.Complete([]Suggestion{FromClauseItem{}}, ""))
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestFromClauseGeneratesAliases(t *testing.T) {
	c := newTestCompleter(t, settingsWith(func(s *Settings) { s.GenerateAliases = true }))
	refs := []TableReference{{Name: "users", Alias: "u"}}
	got := texts(c.Complete([]Suggestion{FromClauseItem{TableRefs: refs}}, ""))
	assert.Contains(t, got, "orders o")
	assert.Contains(t, got, "users u2")
	assert.Contains(t, got, "user_emails ue")
	assert.Contains(t, got, "custom.products p")
}

func TestSystemObjectsHiddenUntilTyped(t *testing.T) {
	c := newTestCompleter(t)

	got := texts(c.Complete([]Suggestion{Table{}}, ""))
	assert.NotContains(t, got, "pg_catalog.pg_class")

	got = texts(c.Complete([]Suggestion{Table{}}, "pg_"))
	assert.Contains(t, got, "pg_catalog.pg_class")

	got = texts(c.Complete([]Suggestion{Table{Schema: "pg_catalog"}}, ""))
	assert.Equal(t, []string{"pg_class"}, got)
}

func TestTableMatchesQuotedInput(t *testing.T) {
	c := newTestCompleter(t)
	matches := c.Complete([]Suggestion{Table{}}, `"sel`)
	require.Len(t, matches, 1)
	assert.Equal(t, `"select"`, matches[0].Text)
	assert.Equal(t, -4, matches[0].StartPosition)
}

func TestTableMatchesLocalTables(t *testing.T) {
	c := newTestCompleter(t)
	got := texts(c.Complete([]Suggestion{Table{LocalTables: []CTE{{Name: "recent", Columns: []string{"id"}}}}}, "rec"))
	assert.Equal(t, []string{"recent"}, got)
}

func TestTableMatchesUseCasing(t *testing.T) {
	c := newTestCompleter(t)
	c.Catalog().ExtendCasing([]string{"Users"})
	got := texts(c.Complete([]Suggestion{Table{}}, "use"))
	assert.Contains(t, got, "Users")
	assert.NotContains(t, got, "users")
}

func TestPrevalenceBreaksTies(t *testing.T) {
	counter := prioritize.New()
	counter.Update(`SELECT * FROM "select"; SELECT id FROM "select"`)

	plain := newTestCompleter(t)
	ranked := newTestCompleter(t, WithPrioritizer(counter))

	assert.Equal(t, "orders", plain.Complete([]Suggestion{Table{}}, "")[0].Text)
	assert.Equal(t, `"select"`, ranked.Complete([]Suggestion{Table{}}, "")[0].Text)
}

func TestSchemaMatches(t *testing.T) {
	c := newTestCompleter(t)
	assert.ElementsMatch(t, []string{"public", "custom"}, texts(c.Complete([]Suggestion{Schema{}}, "")))
	assert.Equal(t, []string{"pg_catalog"}, texts(c.Complete([]Suggestion{Schema{}}, "pg_")))
}

func TestSimpleSuggestionMatches(t *testing.T) {
	c := newTestCompleter(t, WithNamedQueries([]string{"daily", "weekly"}))

	tests := []struct {
		name string
		s    Suggestion
		word string
		want []string
	}{
		{name: "database", s: Database{}, word: "", want: []string{"analytics", "shop"}},
		{name: "named query", s: NamedQuery{}, word: "da", want: []string{"daily"}},
		{name: "alias", s: Alias{Aliases: []string{"u", "o"}}, word: "", want: []string{"o", "u"}},
		{name: "user datatypes", s: Datatype{}, word: "custom_t", want: []string{"custom_type1", "custom_type2"}},
		{name: "builtin datatypes", s: Datatype{}, word: "VARC", want: []string{"VARCHAR"}},
		{name: "schema datatypes skip builtins", s: Datatype{Schema: "public"}, word: "VARC", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(c.Complete([]Suggestion{tt.s}, tt.word)))
		})
	}
}

func TestSpecialMatchesTruncateMeta(t *testing.T) {
	long := strings.Repeat("x", 60)
	c := newTestCompleter(t, WithSpecialCommands([]SpecialCommand{
		{Name: `\d`, Description: "describe"},
		{Name: `\dt`, Description: long},
		{Name: `\l`, Description: "list databases"},
	}))

	matches := c.Complete([]Suggestion{Special{}}, `\d`)
	require.Len(t, matches, 2)
	byText := map[string]string{}
	for _, m := range matches {
		byText[m.Text] = m.DisplayMeta
	}
	assert.Equal(t, "describe", byText[`\d`])
	assert.Equal(t, strings.Repeat("x", 47)+"...", byText[`\dt`])
}

func TestPathSuggestion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.sql"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.sql"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o750))

	c := newTestCompleter(t)
	matches := c.Complete([]Suggestion{Path{}}, filepath.Join(dir, "a"))
	require.Len(t, matches, 2)
	assert.Equal(t, "alpha.sql", matches[0].Text)
	assert.Equal(t, "archive", matches[1].Text)
	assert.Equal(t, "archive"+string(filepath.Separator), matches[1].Display)
	assert.Equal(t, -1, matches[0].StartPosition)
}

func TestPathSuggestionExpandsHome(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "notes.sql"), nil, 0o600))

	c := newTestCompleter(t, WithPathCompleter(FilesystemPaths{Home: home}))
	got := texts(c.Complete([]Suggestion{Path{}}, "~/no"))
	assert.Equal(t, []string{"notes.sql"}, got)
}

type unknownSuggestion struct{}

func (unknownSuggestion) suggestion() {}

func TestMatchesPanicsOnUnknownSuggestion(t *testing.T) {
	c := newTestCompleter(t)
	assert.Panics(t, func() {
		c.Matches(unknownSuggestion{}, "")
	})
}

func TestCompleteMergesSuggestions(t *testing.T) {
	c := newTestCompleter(t)
	got := texts(c.Complete([]Suggestion{Keyword{}, Table{}}, "use"))
	assert.Contains(t, got, "USE")
	assert.Contains(t, got, "users")
	assert.Contains(t, got, "user_emails")
}

func TestCompleteAll(t *testing.T) {
	c := newTestCompleter(t)
	got := texts(c.CompleteAll("us"))
	assert.Equal(t, []string{"USE", "USER", "USING", "user_emails", "user_id", "users"}, got)
}

func TestParseKeywordCasing(t *testing.T) {
	tests := []struct {
		in   string
		want KeywordCasing
	}{
		{"upper", KeywordCasingUpper},
		{"Lower", KeywordCasingLower},
		{" auto ", KeywordCasingAuto},
		{"shouty", KeywordCasingUpper},
		{"", KeywordCasingUpper},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywordCasing(tt.in))
		})
	}
}

func TestNewFillsMissingSettings(t *testing.T) {
	c := New(newTestCatalog(t), WithSettings(Settings{KeywordCasing: "bogus"}))
	s := c.Settings()
	assert.Equal(t, KeywordCasingUpper, s.KeywordCasing)
	assert.Equal(t, QualifyIfMoreThanOneTable, s.QualifyColumns)
	assert.Equal(t, ColumnOrderTable, s.AsteriskColumnOrder)
}

func TestVariableMatches(t *testing.T) {
	c := newTestCompleter(t)
	sugs := []Suggestion{Keyword{}, Variable{Names: []string{"arg1", "arg2", "total"}}, BlockKeyword{}}

	matches := c.Complete(sugs, "ar")
	require.NotEmpty(t, matches)
	assert.Equal(t, []string{"arg1", "arg2"}, texts(matches[:2]))
	for _, m := range matches[:2] {
		assert.Equal(t, "variable", m.DisplayMeta)
		assert.Equal(t, -2, m.StartPosition)
	}
	assert.Contains(t, texts(matches), "array")

	matches = c.Complete(sugs, "to")
	require.NotEmpty(t, matches)
	assert.Equal(t, "total", matches[0].Text)
}

func TestBlockKeywordMatches(t *testing.T) {
	c := newTestCompleter(t)

	got := texts(c.Complete([]Suggestion{BlockKeyword{}}, "RA"))
	assert.Equal(t, []string{"RAISE"}, got)

	got = texts(c.Complete([]Suggestion{BlockKeyword{}}, "el"))
	assert.Equal(t, []string{"elseif", "elsif"}, got)

	got = texts(c.Complete([]Suggestion{Keyword{}, BlockKeyword{}}, "RETURN"))
	assert.Equal(t, 1, countOf(got, "RETURNING"))
	assert.Equal(t, 1, countOf(got, "RETURN"))
}

func countOf(items []string, item string) int {
	n := 0
	for _, it := range items {
		if it == item {
			n++
		}
	}
	return n
}
