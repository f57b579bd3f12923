// Package main provides the regcheck CLI. It verifies that every plugin
// implementation found under an implementation root is registered in the
// central registration file, prints a deterministic report, and exits
// non-zero when something is left unwired.
//
// Usage:
//
//	regcheck [flags]
//
// Exit codes:
//   - 0 : every implementation is registered
//   - 1 : missing registrations, or a source file could not be read
//   - 2 : usage or configuration error (missing root or registration file,
//     invalid config file)
//
// Key design goals:
//   - Read-only: sources are never modified; -suggest only prints a patch
//   - Deterministic output (sorted sets, stable representative locations)
//   - Settings from flags > environment/.env > regcheck.toml > defaults
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"regcheck/internal/check"
	"regcheck/internal/config"
	"regcheck/internal/suggest"
	"regcheck/internal/verify"
)

const (
	exitIO     = 1
	exitConfig = 2
)

// cliConfig is the parsed command line.
type cliConfig struct {
	args    config.CLIArgs
	verbose bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return exitConfig
	}
	logger := newLogger(stderr, cli.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "ERROR: reading working directory:", err)
		return exitIO
	}
	cfg, err := config.LoadEffective(cwd, cli.args, os.LookupEnv)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return exitConfig
	}
	logger.Debug("configuration resolved",
		"root", cfg.Root, "registry", cfg.Registry, "extensions", cfg.Extensions,
		"kinds", len(cfg.Kinds), "workers", cfg.Workers)

	out, err := check.Run(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		if config.Code(err) != "" {
			return exitConfig
		}
		return exitIO
	}

	display := displayPath(cwd, cfg.Registry)
	switch cfg.Format {
	case "json":
		err = verify.WriteJSON(stdout, out.Result)
	default:
		err = verify.WriteText(stdout, out.Result, verify.Labels{
			Noun:    cfg.Noun,
			Routine: cfg.Routine,
			File:    display,
		})
	}
	if err != nil {
		fmt.Fprintln(stderr, "ERROR: writing report:", err)
		return exitIO
	}

	if cfg.Suggest && !out.Result.OK() {
		if cfg.Format == "json" {
			logger.Warn("-suggest is ignored with -format json")
		} else if err := writeSuggestion(stdout, logger, display, out, cfg); err != nil {
			fmt.Fprintln(stderr, "ERROR: rendering suggestion:", err)
			return exitIO
		}
	}
	return out.Result.ExitCode()
}

func writeSuggestion(w io.Writer, logger *slog.Logger, display string, out *check.Outcome, cfg config.Config) error {
	patch, unplaced, err := suggest.Patch(out.Registry, filepath.ToSlash(display), out.Result.Missing, cfg.Kinds)
	if err != nil {
		return err
	}
	for _, c := range unplaced {
		logger.Warn("no registration call suggested: the rendered call would not match the registration pattern",
			"name", c.Name, "kind", c.Kind, "path", c.Path)
	}
	if patch == "" {
		return nil
	}
	_, err = fmt.Fprintf(w, "\nSuggested change (not applied):\n\n%s", patch)
	return err
}

// parseFlags parses args into a cliConfig. Help output and flag errors go
// to errOut.
func parseFlags(args []string, errOut io.Writer) (cliConfig, error) {
	fs := flag.NewFlagSet("regcheck", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage:\n  %s [flags]\n\nFlags:\n", fs.Name())
		fs.PrintDefaults()
	}

	var c cliConfig
	a := &c.args
	fs.StringVar(&a.ConfigPath, "config", config.DefaultConfigFile, "TOML config file (optional unless set explicitly)")
	fs.StringVar(&a.Root, "root", config.DefaultRoot, "implementation root directory")
	fs.StringVar(&a.Registry, "registry", config.DefaultRegistry, "central registration file")
	fs.StringVar(&a.Ext, "ext", ".rs", "comma-separated source extensions to scan")
	fs.StringVar(&a.Exclude, "exclude", "", "comma-separated directory names to skip")
	fs.BoolVar(&a.UseGitignore, "use-gitignore", false, "honor <root>/.gitignore during the scan")
	fs.StringVar(&a.Format, "format", config.DefaultFormat, "report format: text or json")
	fs.IntVar(&a.Workers, "workers", 0, "files extracted in parallel (0 = number of CPUs)")
	fs.BoolVar(&a.Suggest, "suggest", false, "print a unified diff adding the missing registrations")
	fs.BoolVar(&c.verbose, "v", false, "debug logging to stderr")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if fs.NArg() > 0 {
		return cliConfig{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			a.ConfigSet = true
		case "root":
			a.RootSet = true
		case "registry":
			a.RegistrySet = true
		case "ext":
			a.ExtSet = true
		case "exclude":
			a.ExcludeSet = true
		case "use-gitignore":
			a.UseGitignoreSet = true
		case "format":
			a.FormatSet = true
		case "workers":
			a.WorkersSet = true
		}
	})
	return c, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// displayPath shows p relative to cwd when it lies beneath it.
func displayPath(cwd, p string) string {
	rel, err := filepath.Rel(cwd, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
