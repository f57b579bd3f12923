// Package validate performs lightweight validation of checker settings
// before any source is read. It aggregates every issue into a single error
// so a broken config file is fixed in one round trip.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"regcheck/internal/patterns"
)

// Input is the subset of settings that can be checked without touching the
// filesystem.
type Input struct {
	Kinds      []patterns.Spec
	Syntax     patterns.Syntax
	Extensions []string
	Format     string
	Workers    int
}

// Formats lists the accepted report formats.
var Formats = []string{"text", "json"}

// Settings validates in and returns nil or one aggregated error:
//
//   - at least one kind; names non-empty and unique
//   - implements/registers compile and carry exactly one capture group
//   - syntax: definition keyword set; block markers set together or not at all
//   - extensions non-empty strings starting with '.'
//   - format is one of Formats; workers >= 0
func Settings(in Input) error {
	var errs errlist

	if len(in.Kinds) == 0 {
		errs.add("at least one kind must be configured")
	}
	seen := make(map[string]struct{}, len(in.Kinds))
	for i, k := range in.Kinds {
		prefix := fmt.Sprintf("kind[%d] (%s)", i, k.Name)
		if strings.TrimSpace(k.Name) == "" {
			errs.add("%s: name must be non-empty", prefix)
		} else if _, dup := seen[k.Name]; dup {
			errs.add("%s: duplicate kind name %q", prefix, k.Name)
		} else {
			seen[k.Name] = struct{}{}
		}
		if k.Implements == "" || k.Registers == "" {
			errs.add("%s: implements and registers must both be set", prefix)
			continue
		}
		if _, err := patterns.Compile(k); err != nil {
			errs.add("%s: %v", prefix, err)
		}
	}

	if strings.TrimSpace(in.Syntax.Definition) == "" {
		errs.add("syntax.definition must be non-empty")
	}
	if (in.Syntax.BlockOpen == "") != (in.Syntax.BlockClose == "") {
		errs.add("syntax.block_open and syntax.block_close must be set together")
	}

	if len(in.Extensions) == 0 {
		errs.add("at least one extension must be configured")
	}
	for _, e := range in.Extensions {
		if !strings.HasPrefix(e, ".") || len(e) < 2 {
			errs.add("extension %q must start with '.'", e)
		}
	}

	if !contains(Formats, in.Format) {
		errs.add("format must be one of %s (got %q)", strings.Join(Formats, ", "), in.Format)
	}
	if in.Workers < 0 {
		errs.add("workers must be >= 0 (got %d)", in.Workers)
	}

	return errs.err()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(e.msgs, "\n"))
}
