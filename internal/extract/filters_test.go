package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"regcheck/internal/patterns"
)

func TestInComment(t *testing.T) {
	syn := patterns.RustSyntax()
	cases := []struct {
		name string
		src  string
		want bool
	}{
		{"plain", "impl X for Y {}", false},
		{"line comment", "  // impl X for Y {}", true},
		{"trailing line comment elsewhere", "let a = 1; // note\nimpl X for Y {}", false},
		{"code before marker on line", "foo(); // impl X for Y", false},
		{"open block", "/*\nimpl X for Y {}\n*/", true},
		{"closed block", "/* old */\nimpl X for Y {}", false},
		{"nested opens", "/* /* */\nimpl X for Y {}", true},
		{"marker in string literal", "let s = \"/*\";\nimpl X for Y {}", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			off := strings.Index(tc.src, "impl")
			assert.Equal(t, tc.want, inComment(tc.src, off, syn))
		})
	}
}

func TestSuppressed(t *testing.T) {
	syn := patterns.RustSyntax()
	assert.True(t, suppressed("#[allow(dead_code)] struct Foo;", "Foo", syn))
	assert.True(t, suppressed("#[allow(dead_code)]\npub(super) struct Foo {\n}", "Foo", syn))
	assert.False(t, suppressed("#[allow(dead_code)]\n#[derive(Debug)]\npub struct Foo;", "Foo", syn))
	assert.False(t, suppressed("#[allow(dead_code)]\npub struct FooBar;", "Foo", syn))
	assert.False(t, suppressed("pub struct Foo;", "Foo", syn))
	assert.False(t, suppressed("#[allow(dead_code)] struct Foo;", "Foo", patterns.Syntax{Definition: "struct"}))
}

func TestRestrictedOnly(t *testing.T) {
	syn := patterns.RustSyntax()
	assert.True(t, restrictedOnly("pub(super) struct Bar;", "Bar", syn))
	assert.False(t, restrictedOnly("pub struct Bar;", "Bar", syn))
	assert.False(t, restrictedOnly("pub(crate) struct Bar;", "Bar", syn))
	assert.False(t, restrictedOnly("pub(super) struct Bar;\npub struct Bar;", "Bar", syn))
	assert.False(t, restrictedOnly("pub(super) struct Bar;\npub(crate) struct Bar;", "Bar", syn))
	assert.False(t, restrictedOnly("struct Bar;", "Bar", syn))
	assert.True(t, restrictedOnly("pub(super) struct Bar;\npub struct Barista;", "Bar", syn))
}

func TestFiltersTreatNonASCIILettersAsIdentifierChars(t *testing.T) {
	syn := patterns.RustSyntax()
	assert.True(t, suppressed("#[allow(dead_code)]\nstruct Área;", "Área", syn))
	assert.False(t, suppressed("#[allow(dead_code)] struct Fooé;", "Foo", syn))
	assert.False(t, suppressed("#[allow(dead_code)] éstruct Foo;", "Foo", syn))

	assert.True(t, restrictedOnly("pub(super) struct Área {}", "Área", syn))
	assert.False(t, restrictedOnly("pub(super) struct Fooé;", "Foo", syn))
	assert.True(t, restrictedOnly("pub(super) struct Foo;\npub struct Fooé;", "Foo", syn))
}
