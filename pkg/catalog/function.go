package catalog

import (
	"strings"
	"unicode"
)

// FunctionMetadata describes one function overload. ArgList and Result
// hold the text produced by pg_get_function_arguments and
// pg_get_function_result.
type FunctionMetadata struct {
	Schema         string `yaml:"schema"`
	Name           string `yaml:"name"`
	ArgList        string `yaml:"arg_list"`
	Result         string `yaml:"result"`
	IsAggregate    bool   `yaml:"is_aggregate"`
	IsWindow       bool   `yaml:"is_window"`
	IsSetReturning bool   `yaml:"is_set_returning"`
}

// Arg is one parsed entry of a typed field list.
type Arg struct {
	Mode     string
	Name     string
	Datatype string
}

// Fields returns the output columns produced when the function is used as
// a FROM clause item.
func (f FunctionMetadata) Fields() []ColumnMetadata {
	result := strings.TrimSpace(f.Result)
	switch {
	case strings.EqualFold(result, "void"):
		return nil
	case hasPrefixFold(result, "TABLE"):
		return argsToColumns(TableColumns(result))
	}

	if out := ArgumentsWithMode(f.ArgList, "OUT", "INOUT", "TABLE"); len(out) > 0 {
		return argsToColumns(out)
	}
	if f.IsSetReturning && result != "" {
		return []ColumnMetadata{{
			Name:     f.Name,
			Datatype: strings.TrimSpace(trimPrefixFold(result, "SETOF")),
		}}
	}
	return nil
}

func argsToColumns(args []Arg) []ColumnMetadata {
	var cols []ColumnMetadata
	for _, a := range args {
		if a.Name == "" {
			continue
		}
		cols = append(cols, ColumnMetadata{Name: a.Name, Datatype: a.Datatype})
	}
	return cols
}

// TableColumns parses the column list of a "TABLE(...)" result.
func TableColumns(result string) []Arg {
	open := strings.IndexByte(result, '(')
	end := strings.LastIndexByte(result, ')')
	if open < 0 || end <= open {
		return nil
	}
	return ParseTypedFieldList(result[open+1 : end])
}

// ArgumentsWithMode returns the arguments of argList whose mode is one of
// modes. Arguments without an explicit mode are IN.
func ArgumentsWithMode(argList string, modes ...string) []Arg {
	var out []Arg
	for _, a := range ParseTypedFieldList(argList) {
		for _, m := range modes {
			if a.Mode == m {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

var argModes = map[string]struct{}{
	"IN": {}, "OUT": {}, "INOUT": {}, "VARIADIC": {}, "TABLE": {},
}

// typeLeadWords start a datatype rather than a field name.
var typeLeadWords = map[string]struct{}{
	"bigint": {}, "bit": {}, "bool": {}, "boolean": {}, "bytea": {},
	"char": {}, "character": {}, "date": {}, "decimal": {}, "double": {},
	"float": {}, "int": {}, "integer": {}, "interval": {}, "json": {},
	"jsonb": {}, "numeric": {}, "real": {}, "smallint": {}, "text": {},
	"time": {}, "timestamp": {}, "uuid": {}, "varchar": {},
}

// ParseTypedFieldList parses "mode name type [DEFAULT expr]" entries
// separated by top-level commas. Entries with only a type yield an Arg
// without a name.
func ParseTypedFieldList(list string) []Arg {
	var args []Arg
	for _, item := range splitTopLevel(list) {
		item = stripDefault(item)
		words := strings.Fields(item)
		if len(words) == 0 {
			continue
		}

		arg := Arg{Mode: "IN"}
		if _, ok := argModes[strings.ToUpper(words[0])]; ok && len(words) > 1 {
			arg.Mode = strings.ToUpper(words[0])
			words = words[1:]
		}
		if len(words) >= 2 {
			if _, isType := typeLeadWords[strings.ToLower(words[0])]; !isType {
				arg.Name = strings.Trim(words[0], `"`)
				words = words[1:]
			}
		}
		arg.Datatype = strings.Join(words, " ")
		args = append(args, arg)
	}
	return args
}

// splitTopLevel splits on commas outside parentheses and quotes.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	prev := ' '
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case (r == '\'' || r == '"') && opensQuote(prev):
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
		prev = r
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// stripDefault removes a trailing "DEFAULT expr" or "= expr".
func stripDefault(item string) string {
	var quote rune
	prev := ' '
	for i, r := range item {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			prev = r
			continue
		}
		switch {
		case (r == '\'' || r == '"') && opensQuote(prev):
			quote = r
		case r == '=':
			return item[:i]
		case (r == 'd' || r == 'D') && (i == 0 || unicode.IsSpace(rune(item[i-1]))):
			if len(item) >= i+7 && strings.EqualFold(item[i:i+7], "default") &&
				(len(item) == i+7 || unicode.IsSpace(rune(item[i+7]))) {
				return item[:i]
			}
		}
		prev = r
	}
	return item
}

// opensQuote reports whether a quote following prev starts a quoted run.
// A quote glued to a word or number is treated as a stray character.
func opensQuote(prev rune) bool {
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimPrefixFold(s, prefix string) string {
	if hasPrefixFold(s, prefix) {
		return s[len(prefix):]
	}
	return s
}
