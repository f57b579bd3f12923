// Package extract finds implementation declarations in source text and
// decides which of them must appear in the central registration file.
//
// Each kind's implementation pattern is matched against every file; a match
// becomes a Candidate unless one of the exclusion filters exempts it:
//
//   - comment:    the declaration is commented out
//   - suppressed: the type definition carries the unused-code marker
//   - restricted: the type is only visible to its parent module
//
// Candidates are deduplicated by type name across files.
package extract

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"regcheck/internal/patterns"
	"regcheck/internal/textutil"
	"regcheck/internal/walkwalk"
)

// Candidate is an implementation declaration that survived every filter.
type Candidate struct {
	Name   string // implementing type name
	Kind   string // capability kind name
	Path   string // root-relative file path
	Offset int    // byte offset of the declaration in the file text
	Line   int    // 1-based line of Offset
}

// Extractor applies a fixed set of kinds and syntax rules to source files.
// It holds no per-run state and is safe for concurrent use.
type Extractor struct {
	kinds  []patterns.Kind
	syntax patterns.Syntax
	log    *slog.Logger
}

// New returns an Extractor. A nil logger discards debug output.
func New(kinds []patterns.Kind, syntax patterns.Syntax, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{kinds: kinds, syntax: syntax, log: logger}
}

// File returns the admitted candidates of one file, grouped by kind in
// table order and by offset within a kind. Names may repeat.
func (e *Extractor) File(f walkwalk.SourceFile) []Candidate {
	var out []Candidate
	verdicts := make(map[string]string) // name -> excluding filter ("" = admitted), for name-only filters
	for _, k := range e.kinds {
		for _, m := range k.FindImplementations(f.Text) {
			c := Candidate{
				Name:   m.Name,
				Kind:   k.Name,
				Path:   f.RelPath,
				Offset: m.Offset,
				Line:   textutil.LineOf(f.Text, m.Offset),
			}
			if reason := e.exclusion(f.Text, c, verdicts); reason != "" {
				e.log.Debug("candidate excluded",
					"name", c.Name, "kind", c.Kind, "path", c.Path, "line", c.Line, "filter", reason)
				continue
			}
			e.log.Debug("candidate admitted", "name", c.Name, "kind", c.Kind, "path", c.Path, "line", c.Line)
			out = append(out, c)
		}
	}
	return out
}

// exclusion returns the name of the first filter excluding c, or "".
// Verdicts of the name-only filters are memoized per file in cache.
func (e *Extractor) exclusion(text string, c Candidate, cache map[string]string) string {
	if filters[0].excludes(text, c, e.syntax) {
		return filters[0].name
	}
	if reason, ok := cache[c.Name]; ok {
		return reason
	}
	reason := ""
	for _, f := range filters[1:] {
		if f.excludes(text, c, e.syntax) {
			reason = f.name
			break
		}
	}
	cache[c.Name] = reason
	return reason
}

// Collect extracts candidates from files using at most workers goroutines
// (0 = unbounded) and merges the per-file results once all of them are done.
func (e *Extractor) Collect(ctx context.Context, files []walkwalk.SourceFile, workers int) ([]Candidate, error) {
	perFile := make([][]Candidate, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = e.File(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	merged := Merge(perFile...)
	e.log.Debug("extraction finished", "files", len(files), "candidates", len(merged))
	return merged, nil
}

// Merge unions candidate lists by name. For a name seen more than once the
// occurrence with the smallest (Path, Offset) is kept, so the result does
// not depend on the order of the inputs. The output is sorted by name.
func Merge(lists ...[]Candidate) []Candidate {
	byName := make(map[string]Candidate)
	for _, list := range lists {
		for _, c := range list {
			prev, ok := byName[c.Name]
			if !ok || before(c, prev) {
				byName[c.Name] = c
			}
		}
	}
	out := make([]Candidate, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func before(a, b Candidate) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	return a.Kind < b.Kind
}

// Names returns the sorted names of candidates.
func Names(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}
