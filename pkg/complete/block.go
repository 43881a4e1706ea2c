package complete

import (
	"slices"
	"strings"
)

// plpgsqlKeywords are the statement words of a PL/pgSQL body.
var plpgsqlKeywords = []string{
	"ALIAS", "ARRAY", "BEGIN", "CONTINUE", "CURSOR", "DECLARE", "DEFINE",
	"DIAGNOSTICS", "ELSEIF", "ELSIF", "EXCEPTION", "EXECUTE", "EXIT",
	"FOREACH", "FOUND", "GET", "LOOP", "NEXT", "NOTICE", "PERFORM", "QUERY",
	"RAISE", "RETURN", "RETURNING", "REVERSE", "ROW_COUNT", "SLICE",
	"STRICT", "USING", "WHILE",
}

// blockKeywords returns the PL/pgSQL keywords missing from the catalog's
// keyword list, so a body never lists a keyword twice.
func (c *Completer) blockKeywords() []string {
	known := c.catalog.Keywords()
	for i, kw := range known {
		known[i] = strings.ToUpper(kw)
	}
	var out []string
	for _, kw := range plpgsqlKeywords {
		if !slices.Contains(known, kw) {
			out = append(out, kw)
		}
	}
	return out
}
