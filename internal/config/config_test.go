package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) LookupEnv {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadEffectiveDefaults(t *testing.T) {
	cwd := t.TempDir()
	cfg, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, DefaultRoot), cfg.Root)
	assert.Equal(t, filepath.Join(cwd, DefaultRegistry), cfg.Registry)
	assert.Equal(t, []string{".rs"}, cfg.Extensions)
	assert.Empty(t, cfg.Exclude)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "UDF", cfg.Noun)
	assert.Equal(t, "mount", cfg.Routine)
	require.Len(t, cfg.Kinds, 2)
	assert.Equal(t, "scalar", cfg.Kinds[0].Name)
	assert.Equal(t, "#[allow(dead_code)]", cfg.Syntax.SuppressMarker)
}

func TestLoadEffectivePrecedence(t *testing.T) {
	cwd := t.TempDir()
	write(t, cwd, DefaultConfigFile, `
root = "from-file"
registry = "file/lib.rs"
format = "json"
workers = 3
extensions = [".rs", ".RS2"]
noun = "plugin"
`)
	write(t, cwd, ".env", "REGCHECK_REGISTRY=dotenv/lib.rs\nREGCHECK_WORKERS=5\n")

	cfg, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "from-file"), cfg.Root)
	assert.Equal(t, filepath.Join(cwd, "dotenv/lib.rs"), cfg.Registry)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, []string{".rs", ".rs2"}, cfg.Extensions)
	assert.Equal(t, "plugin", cfg.Noun)

	cfg, err = LoadEffective(cwd, CLIArgs{}, envOf(map[string]string{EnvRegistry: "/abs/lib.rs", EnvExt: "rs"}))
	require.NoError(t, err)
	assert.Equal(t, "/abs/lib.rs", cfg.Registry)
	assert.Equal(t, []string{".rs"}, cfg.Extensions)

	cfg, err = LoadEffective(cwd, CLIArgs{
		Root: "cli-root", RootSet: true,
		Format: "text", FormatSet: true,
		Workers: 1, WorkersSet: true,
		Ext: ".rs, .txt", ExtSet: true,
	}, envOf(map[string]string{EnvRoot: "env-root"}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "cli-root"), cfg.Root)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, []string{".rs", ".txt"}, cfg.Extensions)
}

func TestLoadEffectiveCustomKindsAndSyntax(t *testing.T) {
	cwd := t.TempDir()
	path := write(t, cwd, "custom.toml", `
[[kind]]
name = "window"
implements = 'impl\s+WindowUDFImpl\s+for\s+(\w+)'
registers = 'register_udwf\((\w+)::new\(\)\)'

[syntax]
suppress_marker = "#[allow(unused)]"
`)
	cfg, err := LoadEffective(cwd, CLIArgs{ConfigPath: path, ConfigSet: true}, noEnv)
	require.NoError(t, err)
	require.Len(t, cfg.Kinds, 1)
	assert.Equal(t, "window", cfg.Kinds[0].Name)
	assert.Equal(t, "#[allow(unused)]", cfg.Syntax.SuppressMarker)
	assert.Equal(t, "struct", cfg.Syntax.Definition, "unset syntax keys keep their defaults")
}

func TestLoadEffectiveInvalid(t *testing.T) {
	cwd := t.TempDir()
	write(t, cwd, DefaultConfigFile, `
format = "yaml"

[[kind]]
name = "bad"
implements = 'impl (\w+) for (\w+)'
registers = 'r\((\w+)\)'
`)
	_, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalid, Code(err))
	assert.Contains(t, err.Error(), "format must be one of")
	assert.Contains(t, err.Error(), "exactly 1 capture group")
}

func TestLoadEffectiveUnknownKey(t *testing.T) {
	cwd := t.TempDir()
	write(t, cwd, DefaultConfigFile, "rooot = \"typo\"\n")
	_, err := LoadEffective(cwd, CLIArgs{}, noEnv)
	assert.Equal(t, ErrCodeInvalid, Code(err))
}

func TestLoadEffectiveExplicitConfigMustExist(t *testing.T) {
	_, err := LoadEffective(t.TempDir(), CLIArgs{ConfigPath: "missing.toml", ConfigSet: true}, noEnv)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalid, Code(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadEffectiveBadWorkersEnv(t *testing.T) {
	_, err := LoadEffective(t.TempDir(), CLIArgs{}, envOf(map[string]string{EnvWorkers: "many"}))
	assert.Equal(t, ErrCodeInvalid, Code(err))
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "udf")
	require.NoError(t, os.MkdirAll(root, 0o755))
	lib := write(t, dir, "lib.rs", "")

	assert.NoError(t, Preflight(Config{Root: root, Registry: lib}))

	err := Preflight(Config{Root: filepath.Join(dir, "nope"), Registry: lib})
	assert.Equal(t, ErrCodeRootNotFound, Code(err))

	err = Preflight(Config{Root: root, Registry: filepath.Join(dir, "missing.rs")})
	assert.Equal(t, ErrCodeRegistryNotFound, Code(err))
	assert.Contains(t, err.Error(), "central registration file")

	err = Preflight(Config{Root: lib, Registry: lib})
	assert.Equal(t, ErrCodeRootNotFound, Code(err))
}

func TestPreflightStatFailureIsNotConfigError(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "udf")
	require.NoError(t, os.MkdirAll(root, 0o755))
	lib := write(t, dir, "lib.rs", "")

	// A NUL byte makes stat fail with EINVAL rather than ENOENT.
	err := Preflight(Config{Root: root + "\x00", Registry: lib})
	require.Error(t, err)
	assert.Equal(t, "", Code(err))
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	err = Preflight(Config{Root: root, Registry: lib + "\x00"})
	require.Error(t, err)
	assert.Equal(t, "", Code(err))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, "", Code(errors.New("x")))
}
