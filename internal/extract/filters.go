package extract

import (
	"regexp"
	"strings"

	"regcheck/internal/patterns"
	"regcheck/internal/textutil"
)

// A filter decides whether a matched declaration is exempt from the
// registration requirement. Filters run in table order; the first one that
// excludes a candidate is reported as the reason.
type filter struct {
	name     string
	excludes func(text string, c Candidate, syn patterns.Syntax) bool
}

var filters = []filter{
	{name: "comment", excludes: func(text string, c Candidate, syn patterns.Syntax) bool {
		return inComment(text, c.Offset, syn)
	}},
	{name: "suppressed", excludes: func(text string, c Candidate, syn patterns.Syntax) bool {
		return suppressed(text, c.Name, syn)
	}},
	{name: "restricted", excludes: func(text string, c Candidate, syn patterns.Syntax) bool {
		return restrictedOnly(text, c.Name, syn)
	}},
}

// inComment reports whether off sits in a line comment or an unclosed block
// comment.
//
// The block check counts open and close markers in text[:off] and treats
// more opens than closes as "inside". String and char literals are not
// parsed, so a marker inside a literal skews the count.
func inComment(text string, off int, syn patterns.Syntax) bool {
	if syn.LineComment != "" {
		head := strings.TrimSpace(text[textutil.LineStart(text, off):off])
		if strings.HasPrefix(head, syn.LineComment) {
			return true
		}
	}
	if syn.BlockOpen == "" || syn.BlockClose == "" {
		return false
	}
	before := text[:off]
	return strings.Count(before, syn.BlockOpen) > strings.Count(before, syn.BlockClose)
}

// suppressed reports whether the definition of name carries the suppression
// marker, either earlier on the same line or on the line directly above.
func suppressed(text, name string, syn patterns.Syntax) bool {
	if syn.SuppressMarker == "" {
		return false
	}
	marker := regexp.QuoteMeta(syn.SuppressMarker)
	def := definition(name, syn)
	sameLine := regexp.MustCompile(marker + `(?:[^\n]*` + nonIdent + `)?` + def)
	lineAbove := regexp.MustCompile(marker + `[^\n]*\n(?:[^\n]*` + nonIdent + `)?` + def)
	return sameLine.MatchString(text) || lineAbove.MatchString(text)
}

// restrictedOnly reports whether name is defined with the module-local
// qualifier and no definition in the same text uses a wider one.
func restrictedOnly(text, name string, syn patterns.Syntax) bool {
	if syn.Restricted == "" {
		return false
	}
	def := definition(name, syn)
	if !regexp.MustCompile(regexp.QuoteMeta(syn.Restricted) + `\s+` + def).MatchString(text) {
		return false
	}
	for _, w := range syn.Wider {
		if w == "" {
			continue
		}
		if regexp.MustCompile(regexp.QuoteMeta(w) + `\s+` + def).MatchString(text) {
			return false
		}
	}
	return true
}

// nonIdent matches one character that cannot be part of an identifier.
// RE2's \b only knows ASCII word characters.
const nonIdent = `[^\p{L}\p{N}_\n]`

// definition matches the definition keyword and name as whole words.
func definition(name string, syn patterns.Syntax) string {
	return regexp.QuoteMeta(syn.Definition) + `\s+` + regexp.QuoteMeta(name) + `(?:[^\p{L}\p{N}_]|$)`
}
