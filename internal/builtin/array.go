package builtin

import (
	"sort"

	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
)

// installArray registers Array's element/size/conversion methods.
// `[]`/`[]=` are opcodes handled directly by internal/vm's getArrayElem/
// setArrayElem (spec.md §4.6), not method dispatch, so they are not
// registered here; these are the rest of Array's representative contract
// (spec.md §4.9) that do not require block-application.
func installArray(g *globals.Globals) {
	c := g.Builtins.Array
	register(g, c, "size", arraySize)
	register(g, c, "length", arraySize)
	register(g, c, "push", arrayPush)
	register(g, c, "<<", arrayPush)
	register(g, c, "pop", arrayPop)
	register(g, c, "first", arrayFirst)
	register(g, c, "last", arrayLast)
	register(g, c, "empty?", arrayEmpty)
	register(g, c, "include?", arrayInclude)
	register(g, c, "reverse", arrayReverse)
	register(g, c, "sort", arraySort)
	register(g, c, "join", arrayJoin)
	register(g, c, "to_a", arrayToA)
	register(g, c, "each", arrayEach)
	register(g, c, "map", arrayMap)
	register(g, c, "concat", arrayConcat)
}

func asArray(vmCtx interface{}, v value.Value, method string) (*value.HeapArray, error) {
	h, ok := v.AsHeap()
	if !ok {
		return nil, typeErr(vmCtx, method, "Array")
	}
	a, ok := h.(*value.HeapArray)
	if !ok {
		return nil, typeErr(vmCtx, method, "Array")
	}
	return a, nil
}

func arraySize(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "size")
	if err != nil {
		return value.Nil, err
	}
	return value.Fixnum(int64(len(a.Elems))), nil
}

func arrayPush(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "push")
	if err != nil {
		return value.Nil, err
	}
	a.Elems = append(a.Elems, args...)
	return self, nil
}

func arrayPop(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "pop")
	if err != nil {
		return value.Nil, err
	}
	if len(a.Elems) == 0 {
		return value.Nil, nil
	}
	last := a.Elems[len(a.Elems)-1]
	a.Elems = a.Elems[:len(a.Elems)-1]
	return last, nil
}

func arrayFirst(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "first")
	if err != nil {
		return value.Nil, err
	}
	if len(a.Elems) == 0 {
		return value.Nil, nil
	}
	return a.Elems[0], nil
}

func arrayLast(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "last")
	if err != nil {
		return value.Nil, err
	}
	if len(a.Elems) == 0 {
		return value.Nil, nil
	}
	return a.Elems[len(a.Elems)-1], nil
}

func arrayEmpty(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "empty?")
	if err != nil {
		return value.Nil, err
	}
	return value.Bool(len(a.Elems) == 0), nil
}

func arrayInclude(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "include?")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "include?", 1, len(args))
	}
	for _, e := range a.Elems {
		if e.Eq(args[0]) {
			return value.True, nil
		}
	}
	return value.False, nil
}

func arrayReverse(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "reverse")
	if err != nil {
		return value.Nil, err
	}
	out := make([]value.Value, len(a.Elems))
	for i, e := range a.Elems {
		out[len(out)-1-i] = e
	}
	return value.Heap(value.NewArray(out)), nil
}

// arraySort supports arrays of homogeneous Integer or Float elements; it
// is not a general-purpose comparator since this language subset has no
// block syntax to supply a custom ordering (see installEnumerator).
func arraySort(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "sort")
	if err != nil {
		return value.Nil, err
	}
	out := append([]value.Value{}, a.Elems...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		li, lok := numericFor(out[i])
		rj, rok := numericFor(out[j])
		if !lok || !rok {
			sortErr = typeErr(vmCtx, "sort", "numeric elements")
			return false
		}
		return li < rj
	})
	if sortErr != nil {
		return value.Nil, sortErr
	}
	return value.Heap(value.NewArray(out)), nil
}

func numericFor(v value.Value) (float64, bool) {
	if n, ok := v.AsFixnum(); ok {
		return float64(n), true
	}
	if f, ok := v.AsFlonum(); ok {
		return f, true
	}
	return 0, false
}

func arrayJoin(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "join")
	if err != nil {
		return value.Nil, err
	}
	sep := ""
	if len(args) == 1 {
		s, err := asString(vmCtx, args[0], "join")
		if err != nil {
			return value.Nil, err
		}
		sep = s.Str()
	} else if len(args) > 1 {
		return value.Nil, argErr(vmCtx, "join", 1, len(args))
	}
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = value.ToDisplayString(e)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return value.Heap(value.NewString(out)), nil
}

func arrayToA(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asArray(vmCtx, self, "to_a"); err != nil {
		return value.Nil, err
	}
	return self, nil
}

// arrayEach captures (self, "each", args) as an Enumerator rather than
// iterating directly, since this language subset has no block-literal
// AST node to apply per element (see installEnumerator's doc comment).
// Callers that want the elements materialize them via Enumerator#to_a.
func arrayEach(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asArray(vmCtx, self, "each"); err != nil {
		return value.Nil, err
	}
	selector := vmOf(vmCtx).Globals().Intern("each")
	return value.Heap(value.NewEnumerator(self, uint32(selector), args)), nil
}

// arrayMap captures (self, "map", args) as an Enumerator exactly like
// arrayEach: this language subset has no block-literal AST node to apply
// per element, so `map` without a block to apply is, like Ruby's own
// blockless `map`, an Enumerator over this array that a later `to_a`/
// `with_index` forces (spec.md §4.7, §8 testable property 5).
func arrayMap(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asArray(vmCtx, self, "map"); err != nil {
		return value.Nil, err
	}
	selector := vmOf(vmCtx).Globals().Intern("map")
	return value.Heap(value.NewEnumerator(self, uint32(selector), args)), nil
}

func arrayConcat(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	a, err := asArray(vmCtx, self, "concat")
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "concat", 1, len(args))
	}
	other, err := asArray(vmCtx, args[0], "concat")
	if err != nil {
		return value.Nil, err
	}
	a.Elems = append(a.Elems, other.Elems...)
	return self, nil
}
