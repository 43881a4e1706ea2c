package classify

import "strings"

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokString
	tokNumber
	tokPunct
)

// token is one lexeme of the input. Depth is the parenthesis nesting level
// the token sits at; parentheses carry the level outside them.
type token struct {
	kind  tokenKind
	text  string
	pos   int
	depth int
}

// upper returns the keyword spelling of a word token.
func (t token) upper() string {
	if t.kind != tokWord {
		return ""
	}
	return strings.ToUpper(t.text)
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

// name returns the identifier a word or quoted token spells.
func (t token) name() string {
	if t.kind == tokQuoted {
		return strings.ReplaceAll(strings.Trim(t.text, `"`), `""`, `"`)
	}
	return t.text
}

var twoCharOps = map[string]struct{}{
	"::": {}, "<=": {}, ">=": {}, "<>": {}, "!=": {}, "||": {},
}

// tokenize splits s into tokens. Comments and whitespace are dropped.
// Unterminated quotes run to the end of the input.
func tokenize(s string) []token {
	var (
		toks  []token
		depth int
	)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 4
			}
		case c == '\'' || c == '"':
			end := closeQuote(s, i)
			kind := tokString
			if c == '"' {
				kind = tokQuoted
			}
			toks = append(toks, token{kind: kind, text: s[i:end], pos: i, depth: depth})
			i = end
		case isIdentStart(c):
			end := i + 1
			for end < len(s) && isIdentChar(s[end]) {
				end++
			}
			toks = append(toks, token{kind: tokWord, text: s[i:end], pos: i, depth: depth})
			i = end
		case c >= '0' && c <= '9':
			end := i + 1
			for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
				end++
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:end], pos: i, depth: depth})
			i = end
		case c == '(':
			toks = append(toks, token{kind: tokPunct, text: "(", pos: i, depth: depth})
			depth++
			i++
		case c == ')':
			if depth > 0 {
				depth--
			}
			toks = append(toks, token{kind: tokPunct, text: ")", pos: i, depth: depth})
			i++
		default:
			n := 1
			if i+1 < len(s) {
				if _, ok := twoCharOps[s[i:i+2]]; ok {
					n = 2
				}
			}
			toks = append(toks, token{kind: tokPunct, text: s[i : i+n], pos: i, depth: depth})
			i += n
		}
	}
	return toks
}

// closeQuote returns the offset just past the quote opened at s[start].
// A doubled quote character is an escaped quote.
func closeQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '$'
}
