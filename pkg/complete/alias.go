package complete

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlcomplete/pkg/catalog"
)

// GenerateAlias abbreviates an unescaped table name: its upper-case
// letters if it has any, otherwise its first letter plus every letter
// that follows an underscore. "OrderItems" gives "OI", "order_items"
// gives "oi".
func GenerateAlias(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		return b.String()
	}

	prev := '_'
	for _, r := range name {
		if prev == '_' && r != '_' {
			b.WriteRune(r)
		}
		prev = r
	}
	if b.Len() == 0 {
		return name
	}
	return b.String()
}

// normalizeRef folds a reference for collision checks.
func normalizeRef(ref string) string {
	return strings.ToLower(catalog.UnescapeName(ref))
}

func refSet(refs []TableReference) map[string]struct{} {
	set := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		set[normalizeRef(r.Ref())] = struct{}{}
	}
	return set
}

// Alias picks an alias for table that collides with none of refs. The
// table name itself is used unless alias generation is on; a collision
// appends 2, 3, ... (inside the quotes of a quoted name).
func (c *Completer) Alias(table string, refs []TableReference) string {
	name := c.catalog.Case(table)
	taken := refSet(refs)
	if c.settings.GenerateAliases {
		name = GenerateAlias(catalog.UnescapeName(name))
	}
	if _, ok := taken[normalizeRef(name)]; !ok {
		return name
	}

	quoted := len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"'
	for i := 2; ; i++ {
		var candidate string
		if quoted {
			candidate = `"` + name[1:len(name)-1] + strconv.Itoa(i) + `"`
		} else {
			candidate = name + strconv.Itoa(i)
		}
		if _, ok := taken[normalizeRef(candidate)]; !ok {
			return candidate
		}
	}
}
