package verify

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regcheck/internal/extract"
	"regcheck/internal/registry"
)

var labels = Labels{Noun: "UDF", Routine: "mount", File: "lib.rs"}

func cand(name, path string, line int) extract.Candidate {
	return extract.Candidate{Name: name, Kind: "scalar", Path: path, Line: line, Offset: line * 10}
}

func TestComputeAllRegistered(t *testing.T) {
	r := Compute(
		[]extract.Candidate{cand("Foo", "a.rs", 3)},
		[]registry.Registration{{Name: "Foo", Kind: "scalar", Line: 1}},
	)
	assert.True(t, r.OK())
	assert.Equal(t, ExitOK, r.ExitCode())
	assert.Equal(t, []string{"Foo"}, r.Candidates)
	assert.Equal(t, []string{"Foo"}, r.Registered)
	assert.NotNil(t, r.Missing)
	assert.Empty(t, r.Missing)
}

func TestComputeMissing(t *testing.T) {
	r := Compute(
		[]extract.Candidate{cand("Foo", "a.rs", 3), cand("Bar", "a.rs", 9)},
		[]registry.Registration{{Name: "Foo"}, {Name: "Unused"}},
	)
	assert.False(t, r.OK())
	assert.Equal(t, ExitMissing, r.ExitCode())
	assert.Equal(t, []string{"Bar", "Foo"}, r.Candidates)
	assert.Equal(t, []string{"Foo", "Unused"}, r.Registered)
	assert.Equal(t, []string{"Bar"}, r.MissingNames())
}

func TestComputeDuplicateCandidateKeepsFirstPath(t *testing.T) {
	r := Compute([]extract.Candidate{cand("Foo", "z.rs", 1), cand("Foo", "b.rs", 5)}, nil)
	require.Len(t, r.Missing, 1)
	assert.Equal(t, "b.rs", r.Missing[0].Path)
	assert.Equal(t, []string{}, r.Registered)
}

func TestComputeAgreesWithMergeOnRepresentative(t *testing.T) {
	scalar := extract.Candidate{Name: "Foo", Kind: "scalar", Path: "a.rs", Offset: 4, Line: 1}
	aggregate := extract.Candidate{Name: "Foo", Kind: "aggregate", Path: "a.rs", Offset: 4, Line: 1}
	for _, in := range [][]extract.Candidate{{scalar, aggregate}, {aggregate, scalar}} {
		r := Compute(in, nil)
		require.Len(t, r.Missing, 1)
		assert.Equal(t, extract.Merge(in)[0], r.Missing[0])
		assert.Equal(t, "aggregate", r.Missing[0].Kind)
	}
}

func TestWriteTextFailure(t *testing.T) {
	r := Compute(
		[]extract.Candidate{cand("Foo", "a.rs", 3), cand("Bar", "geo/b.rs", 9)},
		[]registry.Registration{{Name: "Foo"}},
	)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, labels))
	want := `Checking UDF registration in mount function...
Found 2 UDF implementations:
  - Bar
  - Foo

Found 1 registered UDFs:
  - Foo

ERROR: Found 1 UDF implementations not registered in mount:
  - Bar (geo/b.rs:9)

Please add the missing registrations to the mount function in lib.rs
`
	assert.Equal(t, want, buf.String())
}

func TestWriteTextSuccessIsIdempotent(t *testing.T) {
	r := Compute([]extract.Candidate{cand("Foo", "a.rs", 3)}, []registry.Registration{{Name: "Foo"}})
	var a, b bytes.Buffer
	require.NoError(t, WriteText(&a, r, labels))
	require.NoError(t, WriteText(&b, r, labels))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Contains(t, a.String(), "SUCCESS: All UDF implementations are properly registered in mount!")
	assert.NotContains(t, a.String(), "ERROR")
}

func TestWriteJSON(t *testing.T) {
	r := Compute([]extract.Candidate{cand("Bar", "a.rs", 2)}, nil)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["ok"])
	assert.Equal(t, []any{}, got["registered"])
	assert.Equal(t, []any{"Bar"}, got["candidates"])
	missing := got["missing"].([]any)
	require.Len(t, missing, 1)
	assert.Equal(t, map[string]any{"name": "Bar", "kind": "scalar", "path": "a.rs", "line": float64(2)}, missing[0])
}
