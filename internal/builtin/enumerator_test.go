package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/value"
)

// TestEnumeratorMaterializesArrayEach exercises array#each's captured
// enumerator materializing back to the same elements via to_a.
func TestEnumeratorMaterializesArrayEach(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(1), value.Fixnum(2), value.Fixnum(3))
	enumVal, err := arrayEach(m, a, nil)
	require.NoError(t, err)
	result, err := enumeratorToA(m, enumVal, nil)
	require.NoError(t, err)
	got := mustArray(t, result)
	require.Len(t, got.Elems, 3)
	for i, want := range []int64{1, 2, 3} {
		n, ok := got.Elems[i].AsFixnum()
		require.True(t, ok)
		assert.Equal(t, want, n)
	}
}

// TestEnumeratorMaterializesRange exercises Range-backed enumerators
// expanding to their inclusive/exclusive integer sequence.
func TestEnumeratorMaterializesRange(t *testing.T) {
	m := newTestVM()
	rng := value.Heap(value.NewRange(value.Fixnum(1), value.Fixnum(4), true))
	enumVal := value.Heap(value.NewEnumerator(rng, 0, nil))
	result, err := enumeratorToA(m, enumVal, nil)
	require.NoError(t, err)
	got := mustArray(t, result)
	want := []int64{1, 2, 3}
	require.Len(t, got.Elems, len(want))
	for i, w := range want {
		n, ok := got.Elems[i].AsFixnum()
		require.True(t, ok)
		assert.Equal(t, w, n)
	}
}

// TestEnumeratorWithIndex exercises with_index's re-wrap-then-force
// contract: with_index itself returns a new Enumerator (no block syntax
// exists to apply eagerly), and pairing with the index only happens once
// that chain is forced via to_a.
func TestEnumeratorWithIndex(t *testing.T) {
	m := newTestVM()
	a := arr(str("a"), str("b"))
	enumVal, err := arrayEach(m, a, nil)
	require.NoError(t, err)
	withIdx, err := enumeratorWithIndex(m, enumVal, nil)
	require.NoError(t, err)
	h, ok := withIdx.AsHeap()
	require.True(t, ok)
	_, isEnum := h.(*value.Enumerator)
	require.True(t, isEnum)
	result, err := enumeratorToA(m, withIdx, nil)
	require.NoError(t, err)
	pairs := mustArray(t, result)
	require.Len(t, pairs.Elems, 2)
	first := mustArray(t, pairs.Elems[0])
	idx, ok := first.Elems[1].AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(0), idx)
}

// TestArrayMapWithIndexChains exercises the full chain this subset can
// realize: `arr.map.with_index` builds one Enumerator per call, and
// forcing it with to_a pairs each original element (unchanged, since no
// block exists to transform it) with its index.
func TestArrayMapWithIndexChains(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(10), value.Fixnum(20), value.Fixnum(30))
	mapped, err := arrayMap(m, a, nil)
	require.NoError(t, err)
	withIdx, err := enumeratorWithIndex(m, mapped, nil)
	require.NoError(t, err)
	result, err := enumeratorToA(m, withIdx, nil)
	require.NoError(t, err)
	pairs := mustArray(t, result)
	require.Len(t, pairs.Elems, 3)
	for i, want := range []int64{10, 20, 30} {
		pair := mustArray(t, pairs.Elems[i])
		elem, ok := pair.Elems[0].AsFixnum()
		require.True(t, ok)
		assert.Equal(t, want, elem)
		idx, ok := pair.Elems[1].AsFixnum()
		require.True(t, ok)
		assert.Equal(t, int64(i), idx)
	}
}
