// Package config resolves the effective checker configuration from
// defaults, an optional TOML file, the environment (including a .env file)
// and command-line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"regcheck/internal/patterns"
	"regcheck/internal/validate"
)

const (
	// ErrCodeRootNotFound means the implementation root does not exist.
	ErrCodeRootNotFound = "root_not_found"
	// ErrCodeRegistryNotFound means the central registration file does not exist.
	ErrCodeRegistryNotFound = "registry_not_found"
	// ErrCodeInvalid means a config file or setting could not be read or is invalid.
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultRoot       = "rust/geodatafusion/src/udf"
	DefaultRegistry   = "rust/geodatafusion/src/lib.rs"
	DefaultConfigFile = "regcheck.toml"
	DefaultFormat     = "text"
	DefaultNoun       = "UDF"
	DefaultRoutine    = "mount"
	dotEnvFile        = ".env"
)

// Environment variables consulted by LoadEffective.
const (
	EnvRoot     = "REGCHECK_ROOT"
	EnvRegistry = "REGCHECK_REGISTRY"
	EnvExt      = "REGCHECK_EXT"
	EnvFormat   = "REGCHECK_FORMAT"
	EnvWorkers  = "REGCHECK_WORKERS"
)

var (
	defaultExtensions = []string{".rs"}
	defaultExclude    = []string{}
)

// Error is a structured configuration error.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeRootNotFound:
		return fmt.Sprintf("%s: implementation root %q does not exist or is not a directory", e.Code, e.Path)
	case ErrCodeRegistryNotFound:
		return fmt.Sprintf("%s: central registration file %q not found", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path != "" {
			return fmt.Sprintf("%s: %q: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code from err, or "" if err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CLIArgs carries command-line values together with whether each was set
// explicitly, so that an explicit flag always wins over file and environment.
type CLIArgs struct {
	ConfigPath string
	ConfigSet  bool

	Root    string
	RootSet bool

	Registry    string
	RegistrySet bool

	Ext    string
	ExtSet bool

	Exclude    string
	ExcludeSet bool

	UseGitignore    bool
	UseGitignoreSet bool

	Format    string
	FormatSet bool

	Workers    int
	WorkersSet bool

	Suggest bool
}

// FileConfig mirrors regcheck.toml.
type FileConfig struct {
	Root         string          `toml:"root"`
	Registry     string          `toml:"registry"`
	Extensions   []string        `toml:"extensions"`
	Exclude      []string        `toml:"exclude"`
	UseGitignore *bool           `toml:"use_gitignore"`
	Format       string          `toml:"format"`
	Workers      int             `toml:"workers"`
	Noun         string          `toml:"noun"`
	Routine      string          `toml:"routine"`
	Kinds        []patterns.Spec `toml:"kind"`
	Syntax       patterns.Syntax `toml:"syntax"`
}

// Config is the effective, validated configuration handed to the pipeline.
// Root and Registry are absolute.
type Config struct {
	Root         string
	Registry     string
	Extensions   []string
	Exclude      []string
	UseGitignore bool
	Format       string
	Workers      int
	Suggest      bool
	Noun         string
	Routine      string
	Kinds        []patterns.Kind
	Syntax       patterns.Syntax
}

// ExtSet returns Extensions as a set.
func (c Config) ExtSet() map[string]struct{} { return toSet(c.Extensions) }

// ExcludeSet returns Exclude as a set.
func (c Config) ExcludeSet() map[string]struct{} { return toSet(c.Exclude) }

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// LoadEffective merges defaults < config file < environment < CLI.
//
// The config file is cli.ConfigPath when set (it must exist), otherwise
// <cwd>/regcheck.toml when present. A <cwd>/.env file supplies environment
// values not already present in lookup. Relative paths resolve against cwd.
func LoadEffective(cwd string, cli CLIArgs, lookup LookupEnv) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	fc, cfgPath, err := loadFile(cwd, cli)
	if err != nil {
		return Config{}, err
	}
	env, err := loadEnv(cwd, lookup)
	if err != nil {
		return Config{}, err
	}

	specs := fc.Kinds
	if len(specs) == 0 {
		specs = patterns.DefaultSpecs()
	}

	eff := Config{
		Root:       pick(DefaultRoot, fc.Root, env(EnvRoot), cli.Root, cli.RootSet),
		Registry:   pick(DefaultRegistry, fc.Registry, env(EnvRegistry), cli.Registry, cli.RegistrySet),
		Extensions: defaultExtensions,
		Exclude:    defaultExclude,
		Format:     pick(DefaultFormat, fc.Format, env(EnvFormat), cli.Format, cli.FormatSet),
		Workers:    fc.Workers,
		Suggest:    cli.Suggest,
		Noun:       firstNonEmpty(fc.Noun, DefaultNoun),
		Routine:    firstNonEmpty(fc.Routine, DefaultRoutine),
		Syntax:     fc.Syntax,
	}

	if len(fc.Extensions) > 0 {
		eff.Extensions = fc.Extensions
	}
	if v := env(EnvExt); v != "" {
		eff.Extensions = splitCSV(v)
	}
	if cli.ExtSet {
		eff.Extensions = splitCSV(cli.Ext)
	}
	eff.Extensions = normalizeExts(eff.Extensions)

	if fc.Exclude != nil {
		eff.Exclude = fc.Exclude
	}
	if cli.ExcludeSet {
		eff.Exclude = splitCSV(cli.Exclude)
	}

	if fc.UseGitignore != nil {
		eff.UseGitignore = *fc.UseGitignore
	}
	if cli.UseGitignoreSet {
		eff.UseGitignore = cli.UseGitignore
	}

	if v := env(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &Error{Code: ErrCodeInvalid, Err: fmt.Errorf("%s: %w", EnvWorkers, err)}
		}
		eff.Workers = n
	}
	if cli.WorkersSet {
		eff.Workers = cli.Workers
	}

	if err := validate.Settings(validate.Input{
		Kinds:      specs,
		Syntax:     eff.Syntax,
		Extensions: eff.Extensions,
		Format:     eff.Format,
		Workers:    eff.Workers,
	}); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	kinds, err := patterns.CompileAll(specs)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	eff.Kinds = kinds

	if eff.Workers == 0 {
		eff.Workers = runtime.NumCPU()
	}
	eff.Root = absFrom(cwd, eff.Root)
	eff.Registry = absFrom(cwd, eff.Registry)
	return eff, nil
}

// Preflight checks the filesystem preconditions of a run: the implementation
// root must be a directory and the central registration file must exist.
// A missing path or one of the wrong type is an *Error; any other stat
// failure is returned as a plain I/O error.
func Preflight(c Config) error {
	info, err := os.Stat(c.Root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Code: ErrCodeRootNotFound, Path: c.Root, Err: err}
	case err != nil:
		return fmt.Errorf("stat root: %w", err)
	case !info.IsDir():
		return &Error{Code: ErrCodeRootNotFound, Path: c.Root}
	}
	info, err = os.Stat(c.Registry)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Code: ErrCodeRegistryNotFound, Path: c.Registry, Err: err}
	case err != nil:
		return fmt.Errorf("stat registration file: %w", err)
	case info.IsDir():
		return &Error{Code: ErrCodeRegistryNotFound, Path: c.Registry}
	}
	return nil
}

func loadFile(cwd string, cli CLIArgs) (FileConfig, string, error) {
	fc := FileConfig{Syntax: patterns.RustSyntax()}
	path := absFrom(cwd, DefaultConfigFile)
	if cli.ConfigSet {
		path = absFrom(cwd, cli.ConfigPath)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cli.ConfigSet {
			return fc, "", nil
		}
		return fc, path, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fc, path, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	return fc, path, nil
}

// loadEnv returns a getter consulting lookup first and <cwd>/.env second.
func loadEnv(cwd string, lookup LookupEnv) (func(string) string, error) {
	path := filepath.Join(cwd, dotEnvFile)
	dot, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		dot = map[string]string{}
	}
	return func(key string) string {
		if v, ok := lookup(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dot[key])
	}, nil
}

// pick returns the highest-precedence non-empty value.
func pick(def, file, env, cli string, cliSet bool) string {
	v := def
	if strings.TrimSpace(file) != "" {
		v = file
	}
	if env != "" {
		v = env
	}
	if cliSet {
		v = cli
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func absFrom(cwd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}

// splitCSV splits a comma-separated list, trimming spaces and dropping
// empty items.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeExts lowercases extensions and adds a missing leading dot.
func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if e[0] != '.' {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// toSet builds a string->struct{} set from a slice, skipping empty strings.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}
