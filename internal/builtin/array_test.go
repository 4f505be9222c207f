package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/value"
)

func arr(elems ...value.Value) value.Value { return value.Heap(value.NewArray(elems)) }

func TestArrayPushAndPop(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(1), value.Fixnum(2))
	_, err := arrayPush(m, a, []value.Value{value.Fixnum(3)})
	require.NoError(t, err)
	result, err := arrayPop(m, a, nil)
	require.NoError(t, err)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestArraySortNumeric(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(3), value.Fixnum(1), value.Fixnum(2))
	result, err := arraySort(m, a, nil)
	require.NoError(t, err)
	sorted := mustArray(t, result)
	want := []int64{1, 2, 3}
	require.Len(t, sorted.Elems, len(want))
	for i, w := range want {
		n, ok := sorted.Elems[i].AsFixnum()
		require.True(t, ok)
		assert.Equal(t, w, n)
	}
}

func TestArrayJoinWithSeparator(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(1), value.Fixnum(2), value.Fixnum(3))
	result, err := arrayJoin(m, a, []value.Value{str("-")})
	require.NoError(t, err)
	h, ok := result.AsHeap()
	require.True(t, ok)
	assert.Equal(t, "1-2-3", h.(*value.HeapString).Str())
}

// TestArrayMapCapturesEnumerator exercises map's blockless contract: with
// no block-literal syntax to apply, `map` returns an Enumerator over self
// exactly like `each` does, forced back to the original elements by to_a.
func TestArrayMapCapturesEnumerator(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(1), value.Fixnum(2))
	enumVal, err := arrayMap(m, a, nil)
	require.NoError(t, err)
	result, err := enumeratorToA(m, enumVal, nil)
	require.NoError(t, err)
	got := mustArray(t, result)
	require.Len(t, got.Elems, 2)
	n, ok := got.Elems[0].AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(1), n)
}

func TestArrayIncludePredicate(t *testing.T) {
	m := newTestVM()
	a := arr(value.Fixnum(1), value.Fixnum(2))
	yes, err := arrayInclude(m, a, []value.Value{value.Fixnum(2)})
	require.NoError(t, err)
	assert.True(t, yes.Truthy())

	no, err := arrayInclude(m, a, []value.Value{value.Fixnum(9)})
	require.NoError(t, err)
	assert.False(t, no.Truthy())
}
