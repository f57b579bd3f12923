// Package registry reads the central registration file and extracts the
// names wired into it.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"regcheck/internal/patterns"
	"regcheck/internal/textutil"
)

// ErrNotFound is returned by Read when the registration file does not exist.
var ErrNotFound = errors.New("registration file not found")

// Registration is one registered name. Line is the 1-based line of its first
// registration call.
type Registration struct {
	Name string
	Kind string
	Line int
}

// File is the decoded central file with every registration call found in it,
// in file order. Calls may repeat a name.
type File struct {
	Path  string
	Text  string
	Calls []Registration
}

// Read loads path and extracts the registration calls of every kind.
func Read(path string, kinds []patterns.Kind) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := textutil.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &File{Path: path, Text: text, Calls: Extract(text, kinds)}, nil
}

// Extract returns every registration call in text, ordered by position.
func Extract(text string, kinds []patterns.Kind) []Registration {
	type hit struct {
		reg Registration
		off int
	}
	var hits []hit
	for _, k := range kinds {
		for _, m := range k.FindRegistrations(text) {
			hits = append(hits, hit{
				reg: Registration{Name: m.Name, Kind: k.Name, Line: textutil.LineOf(text, m.Offset)},
				off: m.Offset,
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].off < hits[j].off })
	out := make([]Registration, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.reg)
	}
	return out
}

// Registered returns the deduplicated registrations of f sorted by name,
// keeping the first call of each name.
func (f *File) Registered() []Registration {
	seen := make(map[string]struct{}, len(f.Calls))
	out := make([]Registration, 0, len(f.Calls))
	for _, r := range f.Calls {
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
