package classify

import (
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

var (
	createRoutine = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:FUNCTION|PROCEDURE)\s`)
	doStatement   = regexp.MustCompile(`(?is)^\s*DO(?:\s|\$|')`)
	bodyQuote     = regexp.MustCompile(`\$(?:[A-Za-z_][A-Za-z_0-9]*)?\$|'`)
	asBody        = regexp.MustCompile(`(?i)\bAS\s*(\$(?:[A-Za-z_][A-Za-z_0-9]*)?\$|')`)
	declareBlock  = regexp.MustCompile(`(?is)\bDECLARE\b(.*?)\bBEGIN\b`)
)

// routineBody is the quoted body of a CREATE FUNCTION, CREATE PROCEDURE
// or DO statement. start and end delimit the text between the quotes; an
// unclosed body runs to the end of the buffer.
type routineBody struct {
	start    int
	end      int
	language string
	args     []string
}

// findBody locates the routine body of a buffer that opens with CREATE
// FUNCTION, CREATE PROCEDURE or DO.
func findBody(text string) (routineBody, bool) {
	var (
		b     routineBody
		quote []int
	)
	if loc := createRoutine.FindStringIndex(text); loc != nil {
		open, closing, ok := signature(text, loc[1])
		if !ok {
			return b, false
		}
		for _, arg := range catalog.ParseTypedFieldList(text[open+1 : closing]) {
			if arg.Name != "" {
				b.args = append(b.args, arg.Name)
			}
		}
		m := asBody.FindStringSubmatchIndex(text[closing:])
		if m == nil {
			return b, false
		}
		quote = []int{closing + m[2], closing + m[3]}
	} else if loc := doStatement.FindStringIndex(text); loc != nil {
		from := loc[1] - 1
		m := bodyQuote.FindStringIndex(text[from:])
		if m == nil {
			return b, false
		}
		quote = []int{from + m[0], from + m[1]}
		b.language = "plpgsql"
	} else {
		return b, false
	}

	delim := text[quote[0]:quote[1]]
	b.start = quote[1]
	b.end = len(text)
	after := len(text)
	if delim == "'" {
		if i := stringEnd(text, b.start); i >= 0 {
			b.end, after = i, i+1
		}
	} else if i := strings.Index(text[b.start:], delim); i >= 0 {
		b.end = b.start + i
		after = b.end + len(delim)
	}

	if lang := routineLanguage(text[:quote[0]] + " " + text[after:]); lang != "" {
		b.language = lang
	}
	return b, true
}

// holds reports whether the cursor offset sits inside the body.
func (b routineBody) holds(offset int) bool {
	return b.start <= offset && offset <= b.end
}

// suggest classifies the body as SQL and adds the names the body can see.
// Languages other than SQL and PL/pgSQL report false.
func (b routineBody) suggest(fullText, textBeforeCursor string) ([]complete.Suggestion, bool) {
	body := fullText[b.start:b.end]
	names := slices.Clone(b.args)
	switch b.language {
	case "plpgsql":
		names = append(names, declaredNames(body)...)
	case "sql":
	default:
		return nil, false
	}

	sugs := suggestStatement(body, textBeforeCursor[b.start:])
	if len(names) > 0 {
		sugs = append(sugs, complete.Variable{Names: names})
	}
	if b.language == "plpgsql" {
		sugs = append(sugs, complete.BlockKeyword{})
	}
	return sugs, true
}

// signature returns the offsets of the parentheses around the argument
// list that follows the routine name.
func signature(text string, from int) (int, int, bool) {
	toks := tokenize(text[from:])
	for i, t := range toks {
		if !t.is("(") {
			if t.kind == tokWord || t.kind == tokQuoted || t.is(".") {
				continue
			}
			return 0, 0, false
		}
		for _, u := range toks[i+1:] {
			if u.is(")") && u.depth == t.depth {
				return from + t.pos, from + u.pos, true
			}
		}
		return 0, 0, false
	}
	return 0, 0, false
}

// stringEnd returns the offset of the quote closing a string literal
// whose text starts at start, or -1 when it is unclosed.
func stringEnd(text string, start int) int {
	for i := start; i < len(text); i++ {
		if text[i] != '\'' {
			continue
		}
		if i+1 < len(text) && text[i+1] == '\'' {
			i++
			continue
		}
		return i
	}
	return -1
}

// routineLanguage returns the lower-cased LANGUAGE clause argument of a
// routine definition with its body cut out.
func routineLanguage(text string) string {
	toks := tokenize(text)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].upper() != "LANGUAGE" {
			continue
		}
		if next := toks[i+1]; next.kind == tokWord || next.kind == tokString || next.kind == tokQuoted {
			return strings.ToLower(strings.Trim(next.text, `'"`))
		}
	}
	return ""
}

// declaredNames lists the variables of a PL/pgSQL DECLARE section: the
// first identifier of every declaration.
func declaredNames(body string) []string {
	m := declareBlock.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	var names []string
	for _, decl := range strings.Split(m[1], ";") {
		toks := tokenize(decl)
		if len(toks) > 0 && (toks[0].kind == tokWord || toks[0].kind == tokQuoted) {
			names = append(names, toks[0].name())
		}
	}
	return names
}
