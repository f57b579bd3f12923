// Package walkwalk provides a deterministic, filterable filesystem walker
// and loader that feeds the implementation extractor with source text.
//
// Every walk, read and decode failure is returned to the caller; no file is
// skipped silently.
package walkwalk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"regcheck/internal/textutil"
)

// ErrRootNotFound is returned when the scan root does not exist or is not a
// directory.
var ErrRootNotFound = errors.New("scan root not found")

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath string // root-relative path with forward slashes
	AbsPath string // absolute filesystem path
}

// SourceFile is a collected file together with its decoded text.
type SourceFile struct {
	RelPath string
	AbsPath string
	Text    string
}

// Options selects which files a walk collects.
//
// Symlinked files are collected like regular files. Symlinked directories
// are never descended into.
type Options struct {
	Root         string
	Exts         map[string]struct{} // lowercase, with leading dot; empty = all
	Exclude      map[string]struct{} // exact directory base names to skip
	UseGitignore bool                // honor <root>/.gitignore
}

type walkState struct {
	opts     Options
	root     string
	patterns []gitPattern
	files    []FileInfo
}

// Scan collects the files under opts.Root and loads their text.
func Scan(opts Options) ([]SourceFile, error) {
	files, err := CollectFiles(opts)
	if err != nil {
		return nil, err
	}
	return Load(files)
}

// CollectFiles walks opts.Root and returns the matching files sorted by
// relative path.
func CollectFiles(opts Options) ([]FileInfo, error) {
	root, patterns, err := resolveRootAndIgnores(opts)
	if err != nil {
		return nil, err
	}
	state := &walkState{opts: opts, root: root, patterns: patterns}
	if err := filepath.WalkDir(root, state.visit); err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Slice(state.files, func(i, j int) bool { return state.files[i].RelPath < state.files[j].RelPath })
	return state.files, nil
}

// Load reads and decodes every file. The first unreadable or non-text file
// aborts the load.
func Load(files []FileInfo) ([]SourceFile, error) {
	out := make([]SourceFile, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.RelPath, err)
		}
		text, err := textutil.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.RelPath, err)
		}
		out = append(out, SourceFile{RelPath: f.RelPath, AbsPath: f.AbsPath, Text: text})
	}
	return out, nil
}

func resolveRootAndIgnores(opts Options) (string, []gitPattern, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", ErrRootNotFound, opts.Root)
		}
		return "", nil, err
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, opts.Root)
	}
	if !opts.UseGitignore {
		return root, nil, nil
	}
	pats, err := parseGitignore(filepath.Join(root, ".gitignore"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return root, nil, nil
		}
		return "", nil, err
	}
	return root, pats, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	rel, err := ws.relative(path)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	if ws.shouldSkip(rel, d) {
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		return nil
	}
	return ws.handleFile(path, rel, d)
}

func (ws *walkState) relative(path string) (string, error) {
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (ws *walkState) shouldSkip(rel string, d fs.DirEntry) bool {
	if d.IsDir() && excludedDir(filepath.Base(rel), ws.opts.Exclude) {
		return true
	}
	if ws.opts.UseGitignore && matchGitignore(ws.patterns, rel, d.IsDir()) {
		return true
	}
	return false
}

func (ws *walkState) handleFile(path, rel string, d fs.DirEntry) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !hasExt(ext, ws.opts.Exts) {
		return nil
	}
	mode := d.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		mode = info.Mode()
	}
	if !mode.IsRegular() {
		return nil
	}
	ws.files = append(ws.files, FileInfo{RelPath: rel, AbsPath: path})
	return nil
}

func hasExt(ext string, exts map[string]struct{}) bool {
	if len(exts) == 0 {
		return true
	}
	_, ok := exts[ext]
	return ok
}

// excludedDir reports whether base is one of the excluded directory names.
func excludedDir(base string, exclude map[string]struct{}) bool {
	_, ok := exclude[base]
	return ok
}
