package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/value"
)

func TestIntegerAbs(t *testing.T) {
	m := newTestVM()
	result, err := integerAbs(m, value.Fixnum(-7), nil)
	require.NoError(t, err)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}

func TestIntegerToSProducesDecimalString(t *testing.T) {
	m := newTestVM()
	result, err := integerToS(m, value.Fixnum(42), nil)
	require.NoError(t, err)
	h, ok := result.AsHeap()
	require.True(t, ok)
	assert.Equal(t, "42", h.(*value.HeapString).Str())
}

func TestFloatToIRejectsNonFloatReceiver(t *testing.T) {
	m := newTestVM()
	_, err := floatToI(m, value.Fixnum(1), nil)
	require.Error(t, err)
}
