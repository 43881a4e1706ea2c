package classify

import (
	"strings"

	"github.com/leapstack-labs/sqlcomplete/pkg/complete"
)

// special classifies a backslash meta-command line. before is the line up
// to the fragment being typed.
func special(before, word string) []complete.Suggestion {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return []complete.Suggestion{complete.Special{}}
	}

	parent := ""
	if i := strings.LastIndexByte(word, '.'); i >= 0 {
		parent = unquote(word[:i])
	}

	switch cmd := strings.TrimSuffix(fields[0], "+"); cmd {
	case `\c`, `\connect`, `\l`:
		return []complete.Suggestion{complete.Database{}}
	case `\i`, `\ir`, `\o`, `\e`:
		return []complete.Suggestion{complete.Path{}}
	case `\n`, `\nd`:
		return []complete.Suggestion{complete.NamedQuery{}}
	case `\dn`:
		return []complete.Suggestion{complete.Schema{}}
	case `\d`:
		return withSchema(parent, complete.Table{Schema: parent}, complete.View{Schema: parent})
	case `\dt`:
		return withSchema(parent, complete.Table{Schema: parent})
	case `\dv`, `\dm`:
		return withSchema(parent, complete.View{Schema: parent})
	case `\df`:
		return withSchema(parent, complete.Function{Schema: parent})
	case `\dT`:
		return withSchema(parent, complete.Datatype{Schema: parent})
	}
	return nil
}
