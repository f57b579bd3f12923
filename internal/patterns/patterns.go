// Package patterns defines the capability kinds a registry accepts and the
// source syntax conventions the exclusion filters rely on.
//
// A Kind pairs two regular expressions: one recognizes an implementation
// declaration ("impl ScalarUDFImpl for Area") and one recognizes the matching
// registration call in the central file. Both must carry exactly one capture
// group, the type name. Adding a capability is adding a Kind; nothing else in
// the pipeline changes.
//
// Matching is textual and intentionally shallow (not a parser).
package patterns

import (
	"fmt"
	"regexp"
)

// Examples matched by the default kinds:
//
//   impl ScalarUDFImpl for Area { ... }
//   impl AggregateUDFImpl for Extent { ... }
//
//   session_context.register_udf(crate::udf::geo::measurement::Area::default().into());
//   session_context.register_udaf(crate::udf::native::bounding_box::Extent::default().into());

// Spec is the uncompiled, serializable form of a Kind.
type Spec struct {
	Name       string `toml:"name"`
	Implements string `toml:"implements"`
	Registers  string `toml:"registers"`
	// Suggest is a registration-call template used by -suggest. The
	// placeholders {module} and {name} are substituted.
	Suggest string `toml:"suggest"`
}

// Kind is a compiled capability kind.
type Kind struct {
	Name       string
	Implements *regexp.Regexp
	Registers  *regexp.Regexp
	Suggest    string
}

// Match is one occurrence of a kind's pattern: the captured type name and
// the byte offset of the start of the whole match.
type Match struct {
	Name   string
	Offset int
}

// Ident matches an identifier, including non-ASCII letters and digits.
// RE2's \w is ASCII-only.
const Ident = `[\p{L}\p{N}_]+`

// DefaultSpecs returns the scalar and aggregate kinds of a DataFusion-style
// UDF registry.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:       "scalar",
			Implements: `impl\s+ScalarUDFImpl\s+for\s+(` + Ident + `)`,
			Registers:  `register_udf\(crate::udf::[^)]+::(` + Ident + `)::default\(\)\.into\(\)\)`,
			Suggest:    "session_context.register_udf(crate::udf::{module}::{name}::default().into());",
		},
		{
			Name:       "aggregate",
			Implements: `impl\s+AggregateUDFImpl\s+for\s+(` + Ident + `)`,
			Registers:  `register_udaf\(crate::udf::[^)]+::(` + Ident + `)::default\(\)\.into\(\)\)`,
			Suggest:    "session_context.register_udaf(crate::udf::{module}::{name}::default().into());",
		},
	}
}

// Compile turns a Spec into a Kind.
func Compile(s Spec) (Kind, error) {
	impl, err := compileOne(s.Name, "implements", s.Implements)
	if err != nil {
		return Kind{}, err
	}
	reg, err := compileOne(s.Name, "registers", s.Registers)
	if err != nil {
		return Kind{}, err
	}
	return Kind{Name: s.Name, Implements: impl, Registers: reg, Suggest: s.Suggest}, nil
}

// CompileAll compiles specs in order, stopping at the first failure.
func CompileAll(specs []Spec) ([]Kind, error) {
	out := make([]Kind, 0, len(specs))
	for _, s := range specs {
		k, err := Compile(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// MustDefault compiles DefaultSpecs. The defaults are constant, so a failure
// is a programming error.
func MustDefault() []Kind {
	kinds, err := CompileAll(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return kinds
}

func compileOne(kind, field, expr string) (*regexp.Regexp, error) {
	rx, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("kind %q: %s: %w", kind, field, err)
	}
	if n := rx.NumSubexp(); n != 1 {
		return nil, fmt.Errorf("kind %q: %s: want exactly 1 capture group, got %d", kind, field, n)
	}
	return rx, nil
}

// FindImplementations returns every implementation declaration in text.
func (k Kind) FindImplementations(text string) []Match {
	return findAll(k.Implements, text)
}

// FindRegistrations returns every registration call in text.
func (k Kind) FindRegistrations(text string) []Match {
	return findAll(k.Registers, text)
}

func findAll(rx *regexp.Regexp, text string) []Match {
	idxs := rx.FindAllStringSubmatchIndex(text, -1)
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(idxs))
	for _, idx := range idxs {
		// idx layout: [ full0 full1  grp1_0 grp1_1 ]
		out = append(out, Match{Name: text[idx[2]:idx[3]], Offset: idx[0]})
	}
	return out
}
