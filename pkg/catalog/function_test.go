package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func argNames(args []Arg) []string {
	var out []string
	for _, a := range args {
		out = append(out, a.Name)
	}
	return out
}

func TestParseTypedFieldList(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		args := ParseTypedFieldList("a int, b int[][], c double precision, d text")
		assert.Equal(t, []string{"a", "b", "c", "d"}, argNames(args))
		assert.Equal(t, "double precision", args[2].Datatype)
	})

	t.Run("modes and defaults", func(t *testing.T) {
		args := ParseTypedFieldList(`   IN a int = 5,
                IN b text default 'abc'::text,
                IN c double precision = 9.99",
                OUT d double precision[]            `)
		assert.Equal(t, []string{"a", "b", "c", "d"}, argNames(args))
		var modes []string
		for _, a := range args {
			modes = append(modes, a.Mode)
		}
		assert.Equal(t, []string{"IN", "IN", "IN", "OUT"}, modes)
	})

	t.Run("no argument names", func(t *testing.T) {
		args := ParseTypedFieldList("int, double precision, text")
		assert.Len(t, args, 3)
		for _, a := range args {
			assert.Empty(t, a.Name)
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ParseTypedFieldList(""))
	})
}

func TestTableColumns(t *testing.T) {
	args := TableColumns(`TABLE(
        x INT,
        y DOUBLE PRECISION,
        z TEXT)`)
	assert.Equal(t, []string{"x", "y", "z"}, argNames(args))
}

func TestArgumentsWithMode(t *testing.T) {
	args := ArgumentsWithMode("IN x INT DEFAULT 2, OUT y DOUBLE PRECISION", "OUT", "INOUT")
	assert.Equal(t, []string{"y"}, argNames(args))
}

func TestFunctionMetadata_Fields(t *testing.T) {
	tests := []struct {
		name string
		fn   FunctionMetadata
		want []ColumnMetadata
	}{
		{
			name: "void result",
			fn:   FunctionMetadata{Name: "f", Result: "void"},
		},
		{
			name: "table result",
			fn:   FunctionMetadata{Name: "f", Result: "TABLE(x integer, y text)", IsSetReturning: true},
			want: []ColumnMetadata{{Name: "x", Datatype: "integer"}, {Name: "y", Datatype: "text"}},
		},
		{
			name: "out arguments",
			fn:   FunctionMetadata{Name: "f", ArgList: "a integer, OUT b text, INOUT c bigint", Result: "record"},
			want: []ColumnMetadata{{Name: "b", Datatype: "text"}, {Name: "c", Datatype: "bigint"}},
		},
		{
			name: "scalar set returning",
			fn:   FunctionMetadata{Name: "series", Result: "SETOF integer", IsSetReturning: true},
			want: []ColumnMetadata{{Name: "series", Datatype: "integer"}},
		},
		{
			name: "scalar",
			fn:   FunctionMetadata{Name: "f", ArgList: "x integer", Result: "integer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn.Fields())
		})
	}
}
