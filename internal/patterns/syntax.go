package patterns

// Syntax describes the source conventions the exclusion filters look for.
// Markers are literal text, not regular expressions.
type Syntax struct {
	LineComment string `toml:"line_comment"`
	BlockOpen   string `toml:"block_open"`
	BlockClose  string `toml:"block_close"`

	// SuppressMarker is the attribute that silences unused-code warnings.
	SuppressMarker string `toml:"suppress_marker"`

	// Definition is the keyword introducing a type definition.
	Definition string `toml:"definition"`

	// Restricted is the module-local visibility qualifier; Wider lists the
	// qualifiers that make a definition reachable beyond its parent module.
	Restricted string   `toml:"restricted"`
	Wider      []string `toml:"wider"`
}

// RustSyntax returns the conventions of Rust sources.
func RustSyntax() Syntax {
	return Syntax{
		LineComment:    "//",
		BlockOpen:      "/*",
		BlockClose:     "*/",
		SuppressMarker: "#[allow(dead_code)]",
		Definition:     "struct",
		Restricted:     "pub(super)",
		Wider:          []string{"pub", "pub(crate)"},
	}
}
