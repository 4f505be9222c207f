package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
	"github.com/marble-lang/marble/internal/vm"
)

func newTestVM() *vm.VM {
	g := globals.New(nil)
	Bootstrap(g, nil)
	return vm.New(g, nil)
}

func str(s string) value.Value { return value.Heap(value.NewString(s)) }

// TestStringPercentPreservesSpecifierLetterAsLiteral exercises the
// bug-for-bug `%` behavior ported from string_rem: the directive's flag
// and width digits are elided, but the specifier letter that ends the
// digit scan falls through as ordinary literal text.
func TestStringPercentPreservesSpecifierLetterAsLiteral(t *testing.T) {
	m := newTestVM()
	result, err := stringRem(m, str("count: %05d!"), []value.Value{value.Fixnum(3)})
	require.NoError(t, err)
	s, ok := result.AsHeap()
	require.True(t, ok)
	assert.Equal(t, "count: d!", s.(*value.HeapString).Str())
}

func TestStringPercentLiteralPercentEscape(t *testing.T) {
	m := newTestVM()
	result, err := stringRem(m, str("100%% done"), []value.Value{value.Fixnum(0)})
	require.NoError(t, err)
	s, _ := result.AsHeap()
	assert.Equal(t, "100% done", s.(*value.HeapString).Str())
}

func TestStringPercentNoDirectives(t *testing.T) {
	m := newTestVM()
	result, err := stringRem(m, str("plain text"), []value.Value{value.Fixnum(0)})
	require.NoError(t, err)
	s, _ := result.AsHeap()
	assert.Equal(t, "plain text", s.(*value.HeapString).Str())
}

// TestStringSplitLimitSemantics exercises spec.md §4.8's four split-limit
// cases.
func TestStringSplitLimitSemantics(t *testing.T) {
	m := newTestVM()

	// limit == 1: whole string as the only element.
	result, err := stringSplit(m, str("a,b,,"), []value.Value{str(","), value.Fixnum(1)})
	require.NoError(t, err)
	arr := mustArray(t, result)
	assertStrings(t, arr, []string{"a,b,,"})

	// limit == 0: trailing empties stripped.
	result, err = stringSplit(m, str("a,b,,"), []value.Value{str(",")})
	require.NoError(t, err)
	arr = mustArray(t, result)
	assertStrings(t, arr, []string{"a", "b"})

	// limit < 0: trailing empties kept.
	result, err = stringSplit(m, str("a,b,,"), []value.Value{str(","), value.Fixnum(-1)})
	require.NoError(t, err)
	arr = mustArray(t, result)
	assertStrings(t, arr, []string{"a", "b", "", ""})

	// limit > 0: at most that many fields, remainder rejoined.
	result, err = stringSplit(m, str("a,b,c,d"), []value.Value{str(","), value.Fixnum(2)})
	require.NoError(t, err)
	arr = mustArray(t, result)
	assertStrings(t, arr, []string{"a", "b,c,d"})
}

func TestStringTimesRejectsNegativeCount(t *testing.T) {
	m := newTestVM()
	_, err := stringTimes(m, str("ab"), []value.Value{value.Fixnum(-1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func mustArray(t *testing.T, v value.Value) *value.HeapArray {
	t.Helper()
	h, ok := v.AsHeap()
	require.True(t, ok)
	a, ok := h.(*value.HeapArray)
	require.True(t, ok)
	return a
}

func assertStrings(t *testing.T, arr *value.HeapArray, want []string) {
	t.Helper()
	require.Len(t, arr.Elems, len(want))
	for i, w := range want {
		h, ok := arr.Elems[i].AsHeap()
		require.True(t, ok)
		assert.Equal(t, w, h.(*value.HeapString).Str())
	}
}
