// Package check wires the pipeline together: scan and extract candidates,
// read the central registration file, and compute the verification result.
// The two extraction stages share no data and run concurrently.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"regcheck/internal/config"
	"regcheck/internal/extract"
	"regcheck/internal/registry"
	"regcheck/internal/verify"
	"regcheck/internal/walkwalk"
)

// Outcome is everything a completed run produced.
type Outcome struct {
	Result   verify.Result
	Registry *registry.File
	Files    int // number of source files scanned
}

// Run executes one verification. Configuration problems are returned as
// *config.Error; any other error is an I/O failure. A non-empty missing set
// is not an error: it is reported through Outcome.Result.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := config.Preflight(cfg); err != nil {
		return nil, err
	}

	var (
		cands  []extract.Candidate
		reg    *registry.File
		nfiles int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		files, err := walkwalk.Scan(walkwalk.Options{
			Root:         cfg.Root,
			Exts:         cfg.ExtSet(),
			Exclude:      cfg.ExcludeSet(),
			UseGitignore: cfg.UseGitignore,
		})
		if err != nil {
			if errors.Is(err, walkwalk.ErrRootNotFound) {
				return &config.Error{Code: config.ErrCodeRootNotFound, Path: cfg.Root, Err: err}
			}
			return fmt.Errorf("scan: %w", err)
		}
		nfiles = len(files)
		logger.Debug("scan finished", "root", cfg.Root, "files", nfiles)

		ex := extract.New(cfg.Kinds, cfg.Syntax, logger)
		cands, err = ex.Collect(gctx, files, cfg.Workers)
		return err
	})
	g.Go(func() error {
		f, err := registry.Read(cfg.Registry, cfg.Kinds)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				return &config.Error{Code: config.ErrCodeRegistryNotFound, Path: cfg.Registry, Err: err}
			}
			return fmt.Errorf("registry: %w", err)
		}
		reg = f
		logger.Debug("registry read", "path", cfg.Registry, "calls", len(f.Calls))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := verify.Compute(cands, reg.Registered())
	logger.Debug("verification finished",
		"candidates", len(res.Candidates), "registered", len(res.Registered), "missing", len(res.Missing))
	return &Outcome{Result: res, Registry: reg, Files: nfiles}, nil
}
