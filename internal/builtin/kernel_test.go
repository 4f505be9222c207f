package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/value"
)

// TestAssertPassesOnEqualValues exercises assert's idiom as used
// throughout original_source's own string builtin tests:
// `assert(expected, actual)` compares the two via value.Eq and returns
// nil rather than aborting when they match.
func TestAssertPassesOnEqualValues(t *testing.T) {
	m := newTestVM()
	result, err := builtinAssert(m, value.Nil, []value.Value{str("this is a pen"), str("this is " + "a pen")})
	require.NoError(t, err)
	assert.Equal(t, value.Nil, result)
}

// TestAssertPassesOnEqualFixnums exercises assert with two equal
// fixnums. A mismatch calls os.Exit, which is unsafe under `go test`, so
// this test only exercises the passing path.
func TestAssertPassesOnEqualFixnums(t *testing.T) {
	m := newTestVM()
	result, err := builtinAssert(m, value.Nil, []value.Value{value.Fixnum(2), value.Fixnum(2)})
	require.NoError(t, err)
	assert.Equal(t, value.Nil, result)
}

// TestAssertRequiresExactlyTwoArgs guards the arity check added to
// match original_source's builtin_assert, which panics on anything
// other than exactly 2 arguments.
func TestAssertRequiresExactlyTwoArgs(t *testing.T) {
	m := newTestVM()

	_, err := builtinAssert(m, value.Nil, []value.Value{value.Fixnum(1)})
	require.Error(t, err)

	_, err = builtinAssert(m, value.Nil, nil)
	require.Error(t, err)

	_, err = builtinAssert(m, value.Nil, []value.Value{value.Fixnum(1), value.Fixnum(2), value.Fixnum(3)})
	require.Error(t, err)
}

// TestBuiltinChrConvertsFixnumToByteString exercises chr's one real
// branch: an Integer argument becomes a one-character string.
func TestBuiltinChrConvertsFixnumToByteString(t *testing.T) {
	m := newTestVM()
	result, err := builtinChr(m, value.Nil, []value.Value{value.Fixnum(65)})
	require.NoError(t, err)
	h, ok := result.AsHeap()
	require.True(t, ok)
	assert.Equal(t, "A", h.(*value.HeapString).Str())
}

// TestBuiltinPReturnsSingleArgUnchanged confirms p's return contract:
// a single argument passes through unchanged (besides being printed).
func TestBuiltinPReturnsSingleArgUnchanged(t *testing.T) {
	m := newTestVM()
	result, err := builtinP(m, value.Nil, []value.Value{value.Fixnum(7)})
	require.NoError(t, err)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}
