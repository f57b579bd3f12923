// Package diff provides unified-diff generation for suggested edits.
// It uses github.com/pmezard/go-difflib/difflib to produce classic unified
// patches (---/+++ headers, @@ hunks, lines prefixed with ' ', '-', '+').
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// Options controls patch generation behavior.
type Options struct {
	// NoPrefix controls whether FromFile/ToFile are prefixed with "a/" and "b/".
	// When true, the paths passed by the caller are used as-is.
	NoPrefix bool
}

// Unified produces a classic unified patch for a↦b. It returns an empty body
// when a and b are equal.
func Unified(aName, bName, a, b string, opt Options) (string, error) {
	if !opt.NoPrefix {
		aName, bName = "a/"+aName, "b/"+bName
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  contextLines,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("unified diff %s: %w", bName, err)
	}
	return s, nil
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
