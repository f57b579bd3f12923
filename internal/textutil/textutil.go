// Package textutil holds the small text helpers shared by the scanner,
// the registration reader and the suggestion renderer.
package textutil

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNotText is returned by Decode when the input is not valid UTF-8.
var ErrNotText = errors.New("content is not valid UTF-8 text")

// Decode validates b as UTF-8 and returns it with CRLF and lone CR
// normalized to LF. Byte offsets reported by the extractors refer to the
// returned string.
func Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrNotText
	}
	return string(NormalizeLF(b)), nil
}

// NormalizeLF converts CRLF and lone CR to LF.
func NormalizeLF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// LineOf returns the 1-based line number of byte offset off in s.
func LineOf(s string, off int) int {
	if off > len(s) {
		off = len(s)
	}
	return 1 + strings.Count(s[:off], "\n")
}

// LineStart returns the offset of the first byte of the line containing off.
func LineStart(s string, off int) int {
	return strings.LastIndexByte(s[:off], '\n') + 1
}

// Indent returns the leading run of spaces and tabs of line.
func Indent(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}
