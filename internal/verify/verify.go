// Package verify computes the set difference between implementation
// candidates and registered names and renders the result.
package verify

import (
	"regcheck/internal/extract"
	"regcheck/internal/registry"
	"regcheck/internal/sortutil"
)

// Exit codes of a completed verification.
const (
	ExitOK      = 0
	ExitMissing = 1
)

// Result is the outcome of one verification. All slices are sorted by name
// and never nil.
type Result struct {
	Candidates []string
	Registered []string
	// Missing holds the representative candidate of every name that is a
	// candidate but not registered.
	Missing []extract.Candidate
}

// Compute returns candidates minus registrations. It does no I/O. Each
// name is represented by the candidate extract.Merge selects.
func Compute(cands []extract.Candidate, regs []registry.Registration) Result {
	reps := extract.Merge(cands)
	regSet := make(map[string]struct{}, len(regs))
	for _, r := range regs {
		regSet[r.Name] = struct{}{}
	}

	missing := make([]extract.Candidate, 0)
	for _, c := range reps {
		if _, ok := regSet[c.Name]; !ok {
			missing = append(missing, c)
		}
	}

	return Result{
		Candidates: extract.Names(reps),
		Registered: sortutil.Keys(regSet),
		Missing:    missing,
	}
}

// OK reports whether every candidate is registered.
func (r Result) OK() bool { return len(r.Missing) == 0 }

// ExitCode maps the result to the process exit status.
func (r Result) ExitCode() int {
	if r.OK() {
		return ExitOK
	}
	return ExitMissing
}

// MissingNames returns the sorted names of the missing candidates.
func (r Result) MissingNames() []string {
	out := make([]string, 0, len(r.Missing))
	for _, c := range r.Missing {
		out = append(out, c.Name)
	}
	return out
}
