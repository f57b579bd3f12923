package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Labels names things in the text report.
type Labels struct {
	Noun    string // what an implementation is called, e.g. "UDF"
	Routine string // the central registration routine, e.g. "mount"
	File    string // display name of the central file, e.g. "lib.rs"
}

// WriteText renders the human-readable report. Output depends only on r and
// l, so repeated runs over unchanged sources are byte-identical.
func WriteText(w io.Writer, r Result, l Labels) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Checking %s registration in %s function...\n", l.Noun, l.Routine)

	fmt.Fprintf(&b, "Found %d %s implementations:\n", len(r.Candidates), l.Noun)
	writeList(&b, r.Candidates)

	fmt.Fprintf(&b, "\nFound %d registered %ss:\n", len(r.Registered), l.Noun)
	writeList(&b, r.Registered)

	if r.OK() {
		fmt.Fprintf(&b, "\nSUCCESS: All %s implementations are properly registered in %s!\n", l.Noun, l.Routine)
	} else {
		fmt.Fprintf(&b, "\nERROR: Found %d %s implementations not registered in %s:\n", len(r.Missing), l.Noun, l.Routine)
		for _, c := range r.Missing {
			fmt.Fprintf(&b, "  - %s (%s:%d)\n", c.Name, c.Path, c.Line)
		}
		fmt.Fprintf(&b, "\nPlease add the missing registrations to the %s function in %s\n", l.Routine, l.File)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, names []string) {
	for _, n := range names {
		fmt.Fprintf(b, "  - %s\n", n)
	}
}

type jsonMissing struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

type jsonReport struct {
	Candidates []string      `json:"candidates"`
	Registered []string      `json:"registered"`
	Missing    []jsonMissing `json:"missing"`
	OK         bool          `json:"ok"`
}

// WriteJSON renders the machine-readable report. Arrays are never null.
func WriteJSON(w io.Writer, r Result) error {
	rep := jsonReport{
		Candidates: append([]string{}, r.Candidates...),
		Registered: append([]string{}, r.Registered...),
		Missing:    make([]jsonMissing, 0, len(r.Missing)),
		OK:         r.OK(),
	}
	for _, c := range r.Missing {
		rep.Missing = append(rep.Missing, jsonMissing{Name: c.Name, Kind: c.Kind, Path: c.Path, Line: c.Line})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
