// Package suggest renders the registration calls that would wire missing
// candidates into the central file and presents them as a unified diff.
// Nothing is written to disk.
package suggest

import (
	"path"
	"sort"
	"strings"

	"regcheck/internal/diff"
	"regcheck/internal/extract"
	"regcheck/internal/patterns"
	"regcheck/internal/registry"
	"regcheck/internal/textutil"
)

// ModulePath converts a root-relative source path into a module path:
// "geo/measurement/area.rs" → "geo::measurement::area" and
// "geo/measurement/mod.rs" → "geo::measurement".
func ModulePath(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	segs := strings.Split(rel, "/")
	if len(segs) > 0 && segs[len(segs)-1] == "mod" {
		segs = segs[:len(segs)-1]
	}
	return strings.Join(segs, "::")
}

// Render fills a kind's template. An empty module drops its "::" separator.
func Render(tmpl, module, name string) string {
	if module == "" {
		tmpl = strings.ReplaceAll(tmpl, "{module}::", "")
	}
	return strings.NewReplacer("{module}", module, "{name}", name).Replace(tmpl)
}

// Edit returns f's text with one rendered registration call inserted per
// missing candidate. A call goes after the last registration of the same
// kind, else after the last registration of any kind, else at end of file,
// reusing the anchor line's indentation.
//
// Candidates whose kind has no template are ignored. A rendered call that
// the kind's own registration pattern would not pick up (for example a type
// declared directly under the root, which has no module segment) is not
// inserted; such candidates are returned as unplaced.
func Edit(f *registry.File, missing []extract.Candidate, kinds []patterns.Kind) (string, []extract.Candidate) {
	byName := make(map[string]patterns.Kind, len(kinds))
	for _, k := range kinds {
		byName[k.Name] = k
	}
	lastByKind := make(map[string]int)
	lastAny := 0
	for _, c := range f.Calls {
		if c.Line > lastByKind[c.Kind] {
			lastByKind[c.Kind] = c.Line
		}
		if c.Line > lastAny {
			lastAny = c.Line
		}
	}

	text := textutil.EnsureTrailingLF(f.Text)
	lines := strings.SplitAfter(text, "\n")
	lines = lines[:len(lines)-1] // SplitAfter leaves "" after the final \n
	endAnchor := len(lines)

	sorted := append([]extract.Candidate(nil), missing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	inserts := make(map[int][]string) // anchor line (1-based, 0 = top) -> new lines
	var unplaced []extract.Candidate
	for _, c := range sorted {
		k, ok := byName[c.Kind]
		if !ok || k.Suggest == "" {
			continue
		}
		call := Render(k.Suggest, ModulePath(c.Path), c.Name)
		if !recognized(k, call, c.Name) {
			unplaced = append(unplaced, c)
			continue
		}
		anchor, ok := lastByKind[c.Kind]
		if !ok {
			anchor = lastAny
		}
		indent := ""
		if anchor == 0 {
			anchor = endAnchor
		} else {
			indent = textutil.Indent(lines[anchor-1])
		}
		inserts[anchor] = append(inserts[anchor], indent+call+"\n")
	}
	if len(inserts) == 0 {
		return f.Text, unplaced
	}

	var b strings.Builder
	b.Grow(len(text) + 128*len(sorted))
	b.WriteString(strings.Join(inserts[0], ""))
	for i, ln := range lines {
		b.WriteString(ln)
		b.WriteString(strings.Join(inserts[i+1], ""))
	}
	return b.String(), unplaced
}

// recognized reports whether k's registration pattern finds name in call.
func recognized(k patterns.Kind, call, name string) bool {
	if k.Registers == nil {
		return false
	}
	for _, m := range k.FindRegistrations(call) {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Patch renders Edit as a unified diff against f, labelled with the
// slash-separated name (a/ and b/ prefixes are added unless name is
// absolute). The body is "" when there is nothing to add. Candidates Edit
// could not place are returned alongside.
func Patch(f *registry.File, name string, missing []extract.Candidate, kinds []patterns.Kind) (string, []extract.Candidate, error) {
	edited, unplaced := Edit(f, missing, kinds)
	if edited == f.Text {
		return "", unplaced, nil
	}
	body, err := diff.Unified(name, name, f.Text, edited, diff.Options{NoPrefix: path.IsAbs(name)})
	return body, unplaced, err
}
