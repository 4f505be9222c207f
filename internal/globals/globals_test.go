package globals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/globals"
)

// TestFieldOffsetThreeLevelInheritance guards against FieldOffset
// double-counting ancestor field spans: A (2 own fields) < B (3 own
// fields) < C (field "x"), so "x" must land at offset 5, not 7.
func TestFieldOffsetThreeLevelInheritance(t *testing.T) {
	g := globals.New(nil)

	a := g.DefineClass(g.Intern("A"), g.Builtins.Object)
	a.FieldNames = []string{"a1", "a2"}

	b := g.DefineClass(g.Intern("B"), a)
	b.FieldNames = []string{"b1", "b2", "b3"}

	c := g.DefineClass(g.Intern("C"), b)
	c.FieldNames = []string{"x"}

	off, ok := g.FieldOffset(c, g.Intern("x"))
	require.True(t, ok)
	assert.Equal(t, 5, off)
}

// TestFieldOffsetFindsInheritedField confirms a field declared on a
// distant ancestor still resolves to its own slot, not the querying
// class's.
func TestFieldOffsetFindsInheritedField(t *testing.T) {
	g := globals.New(nil)

	a := g.DefineClass(g.Intern("A2"), g.Builtins.Object)
	a.FieldNames = []string{"a1", "a2"}

	b := g.DefineClass(g.Intern("B2"), a)
	b.FieldNames = []string{"b1", "b2", "b3"}

	c := g.DefineClass(g.Intern("C2"), b)
	c.FieldNames = []string{"x"}

	off, ok := g.FieldOffset(c, g.Intern("a2"))
	require.True(t, ok)
	assert.Equal(t, 1, off)
}

// TestFieldOffsetUnknownField reports not-found rather than panicking or
// returning a stale offset.
func TestFieldOffsetUnknownField(t *testing.T) {
	g := globals.New(nil)
	a := g.DefineClass(g.Intern("A3"), g.Builtins.Object)
	a.FieldNames = []string{"a1"}

	_, ok := g.FieldOffset(a, g.Intern("nope"))
	assert.False(t, ok)
}

// TestEnsureFieldAppendsOncePerName exercises lazy field declaration
// across a three-level hierarchy: a new field on the leaf class must be
// appended after every inherited slot, and a second EnsureField call for
// the same name must return the same slot rather than appending again.
func TestEnsureFieldAppendsOncePerName(t *testing.T) {
	g := globals.New(nil)
	a := g.DefineClass(g.Intern("A4"), g.Builtins.Object)
	a.FieldNames = []string{"a1", "a2"}
	b := g.DefineClass(g.Intern("B4"), a)
	b.FieldNames = []string{"b1"}
	c := g.DefineClass(g.Intern("C4"), b)

	first := g.EnsureField(c, g.Intern("x"))
	assert.Equal(t, 3, first)

	second := g.EnsureField(c, g.Intern("x"))
	assert.Equal(t, first, second)

	assert.Equal(t, 4, g.TotalFields(c))
}
