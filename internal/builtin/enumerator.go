package builtin

import (
	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/value"
)

// installEnumerator registers Enumerator's replay methods.
//
// spec.md §4.7 describes Enumerator as capturing a (receiver, method,
// args) triple and replaying it against a caller-supplied block for
// each/map/with_index. This subset's AST (spec.md §6) has no block or
// closure-literal node at all — Send only carries a receiver, a method
// symbol, and a plain argument list, with no slot for a block — so there
// is no surface syntax an enumerator's consumer could use to hand it a
// per-element callback in the first place: every call here is, in
// Ruby's terms, a "no block given" call.
//
// Ruby's own contract for that case (spec.md §4.7, §8 testable property
// 5) is what this implements: `each` with no block returns the receiver
// enumerator itself; `map`/`with_index` with no block each return a
// *new* Enumerator that re-wraps the call, so that a chain like
// `arr.map.with_index` keeps building one Enumerator per call instead of
// materializing early. Only `to_a`/`force`/`size` actually force the
// chain, by replaying it down to its root receiver (an Array's elements
// or a Range's integer expansion) and applying each link's effect:
// `with_index` pairs every element with its index; `map`/`each` without
// an applied block pass their elements through unchanged, exactly as
// Ruby's own blockless `map`/`each` do.
func installEnumerator(g *globals.Globals) {
	c := g.Builtins.Enumerator
	register(g, c, "to_a", enumeratorToA)
	register(g, c, "force", enumeratorToA)
	register(g, c, "each", enumeratorEach)
	register(g, c, "map", enumeratorMap)
	register(g, c, "with_index", enumeratorWithIndex)
	register(g, c, "size", enumeratorSize)
}

func asEnumerator(vmCtx interface{}, v value.Value, method string) (*value.Enumerator, error) {
	h, ok := v.AsHeap()
	if !ok {
		return nil, typeErr(vmCtx, method, "Enumerator")
	}
	e, ok := h.(*value.Enumerator)
	if !ok {
		return nil, typeErr(vmCtx, method, "Enumerator")
	}
	return e, nil
}

// baseElements expands a non-Enumerator heap receiver into a concrete
// element slice, the one case this subset can realize without
// block-application: an Array's own elements, or a Range's integer
// expansion. An Enumerator receiver recurses through materialize so a
// chain of captured calls (`arr.map.with_index`) resolves link by link.
func baseElements(vmCtx interface{}, v value.Value) ([]value.Value, error) {
	h, ok := v.AsHeap()
	if !ok {
		return nil, vmOf(vmCtx).RuntimeErr(errs.UnimplementedErr, "enumerator over a non-heap receiver cannot be materialized without block application")
	}
	switch r := h.(type) {
	case *value.HeapArray:
		out := make([]value.Value, len(r.Elems))
		copy(out, r.Elems)
		return out, nil
	case *value.HeapRange:
		start, ok := r.Start.AsFixnum()
		if !ok {
			return nil, vmOf(vmCtx).RuntimeErr(errs.UnimplementedErr, "enumerator over a non-integer range cannot be materialized")
		}
		end, ok := r.End.AsFixnum()
		if !ok {
			return nil, vmOf(vmCtx).RuntimeErr(errs.UnimplementedErr, "enumerator over a non-integer range cannot be materialized")
		}
		if r.Exclusive {
			end--
		}
		if end < start {
			return []value.Value{}, nil
		}
		out := make([]value.Value, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, value.Fixnum(i))
		}
		return out, nil
	case *value.Enumerator:
		return materialize(vmCtx, r)
	default:
		return nil, vmOf(vmCtx).RuntimeErr(errs.UnimplementedErr, "enumerator over this receiver kind cannot be materialized without block application")
	}
}

// materialize forces e's whole captured chain down to concrete elements:
// it resolves e.Receiver (recursing through any nested Enumerator), then
// applies e's own selector. `each`/`map` without an applied block pass
// their elements through unchanged; `with_index` pairs every element
// with its index, offset by an optional first argument, matching Ruby's
// own `enum.with_index(offset).to_a` contract.
func materialize(vmCtx interface{}, e *value.Enumerator) ([]value.Value, error) {
	elems, err := baseElements(vmCtx, e.Receiver)
	if err != nil {
		return nil, err
	}
	if vmOf(vmCtx).Globals().Name(ident.ID(e.Selector)) != "with_index" {
		return elems, nil
	}
	start := int64(0)
	if len(e.Args) == 1 {
		n, ok := e.Args[0].AsFixnum()
		if !ok {
			return nil, typeErr(vmCtx, "with_index", "Integer offset")
		}
		start = n
	}
	out := make([]value.Value, len(elems))
	for i, el := range elems {
		out[i] = value.Heap(value.NewArray([]value.Value{el, value.Fixnum(start + int64(i))}))
	}
	return out, nil
}

func enumeratorToA(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	e, err := asEnumerator(vmCtx, self, "to_a")
	if err != nil {
		return value.Nil, err
	}
	elems, err := materialize(vmCtx, e)
	if err != nil {
		return value.Nil, err
	}
	return value.Heap(value.NewArray(elems)), nil
}

func enumeratorEach(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asEnumerator(vmCtx, self, "each"); err != nil {
		return value.Nil, err
	}
	return self, nil
}

// enumeratorMap re-wraps self as a new Enumerator selecting "map" (see
// installEnumerator's doc comment): with no block syntax to apply, a
// second `map` call just extends the chain one link, exactly like
// arrayMap does from an Array receiver.
func enumeratorMap(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asEnumerator(vmCtx, self, "map"); err != nil {
		return value.Nil, err
	}
	selector := vmOf(vmCtx).Globals().Intern("map")
	return value.Heap(value.NewEnumerator(self, uint32(selector), args)), nil
}

// enumeratorWithIndex re-wraps self as a new Enumerator selecting
// "with_index", so that `arr.map.with_index` builds one Enumerator per
// call instead of materializing early; the index pairing itself only
// happens once the chain is forced by to_a/force/size (see materialize).
func enumeratorWithIndex(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, err := asEnumerator(vmCtx, self, "with_index"); err != nil {
		return value.Nil, err
	}
	if len(args) > 1 {
		return value.Nil, argErr(vmCtx, "with_index", 1, len(args))
	}
	selector := vmOf(vmCtx).Globals().Intern("with_index")
	return value.Heap(value.NewEnumerator(self, uint32(selector), args)), nil
}

func enumeratorSize(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	e, err := asEnumerator(vmCtx, self, "size")
	if err != nil {
		return value.Nil, err
	}
	elems, err := materialize(vmCtx, e)
	if err != nil {
		return value.Nil, err
	}
	return value.Fixnum(int64(len(elems))), nil
}
