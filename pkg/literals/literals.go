// Package literals exposes the built-in keyword, function, datatype and
// operator lists shipped with the completer.
package literals

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed literals.yaml
var embedded []byte

// Set holds one collection of literal lists.
type Set struct {
	Keywords        []string `yaml:"keywords"`
	Functions       []string `yaml:"functions"`
	Datatypes       []string `yaml:"datatypes"`
	BinaryOperators []string `yaml:"binary_operators"`
}

var (
	defaultOnce sync.Once
	defaultSet  Set
)

// Parse decodes a YAML literal document.
func Parse(data []byte) (Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("failed to parse literals: %w", err)
	}
	return s, nil
}

// Default returns a copy of the embedded literal lists.
func Default() Set {
	defaultOnce.Do(func() {
		s, err := Parse(embedded)
		if err != nil {
			panic(err)
		}
		defaultSet = s
	})
	return Set{
		Keywords:        slices.Clone(defaultSet.Keywords),
		Functions:       slices.Clone(defaultSet.Functions),
		Datatypes:       slices.Clone(defaultSet.Datatypes),
		BinaryOperators: slices.Clone(defaultSet.BinaryOperators),
	}
}

// SplitByBinaryOperators splits word on every binary operator in the set.
// An empty word yields a single empty element.
func (s Set) SplitByBinaryOperators(word string) []string {
	if len(s.BinaryOperators) == 0 {
		return []string{word}
	}
	ops := slices.Clone(s.BinaryOperators)
	// longest first so "||/" wins over "||"
	sort.SliceStable(ops, func(i, j int) bool { return len(ops[i]) > len(ops[j]) })
	quoted := make([]string, len(ops))
	for i, op := range ops {
		quoted[i] = regexp.QuoteMeta(op)
	}
	re := regexp.MustCompile(strings.Join(quoted, "|"))
	return re.Split(word, -1)
}
