// Package value implements marble's uniform Value representation: the
// tagged handle passed on the VM's operand stack, stored in local slots,
// and held in instance/class-variable maps.
//
// spec.md describes Value as "a tagged 64-bit word with four recognized
// immediate shapes plus a heap-object pointer" and allows NaN-boxing or
// low-bit tagging as implementation strategies, with the single contract
// that every Value decodes unambiguously as exactly one shape. Go's
// garbage collector cannot safely hide a pointer inside an untyped 64-bit
// word (a GC-scanned pointer must be stored in a field the runtime knows
// about), so this package renders the same contract as a small tagged
// struct instead of a raw bit-packed word: a one-byte kind tag plus a
// 64-bit immediate payload plus a heap pointer, with the invariant that
// exactly one of (payload, heap pointer) is meaningful for any given kind.
// That invariant — not the specific bit layout — is what spec.md actually
// requires; the constructors below (Fixnum, Symbol, Flonum) and the As*
// accessors store and read each immediate shape in the 64-bit payload, so fixnum arithmetic on
// known-fixnum values never allocates.
package value

import "math"

// Kind discriminates the shape a Value currently holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindTrue
	KindFalse
	KindFixnum
	KindSymbol
	KindFlonum
	KindHeap
)

// Value is the uniform handle used throughout the interpreter.
type Value struct {
	kind    Kind
	payload uint64
	heap    HeapObject
}

// Nil is the canonical nil Value.
var Nil = Value{kind: KindNil}

// True and False are the canonical boolean singletons.
var (
	True  = Value{kind: KindTrue}
	False = Value{kind: KindFalse}
)

// Bool packs a Go bool into the corresponding singleton.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Fixnum packs a signed integer into an immediate FixNum Value. At least
// 62 bits of payload are available (spec §3); this implementation stores
// the full 64-bit two's complement pattern, so the effective range is the
// full int64 range rather than the spec's minimum guarantee.
func Fixnum(i int64) Value {
	return Value{kind: KindFixnum, payload: uint64(i)}
}

// Symbol packs an interned identifier as an immediate symbol Value.
func Symbol(id uint32) Value {
	return Value{kind: KindSymbol, payload: uint64(id)}
}

// Flonum packs a float64 into an immediate Value. Per spec §4.2's
// canonicalization requirement, a NaN payload is canonicalized to Go's
// standard quiet NaN bit pattern so that no float value can be confused
// with a reserved tag or compare unequal to itself in ways that would
// surprise callers beyond IEEE 754's own NaN rules.
func Flonum(f float64) Value {
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return Value{kind: KindFlonum, payload: math.Float64bits(f)}
}

// Heap wraps a heap-allocated object in a Value.
func Heap(obj HeapObject) Value {
	return Value{kind: KindHeap, heap: obj}
}

// Kind reports which shape v currently holds.
func (v Value) Kind() Kind { return v.kind }

// IsNil, IsTrue, IsFalse, IsFixnum, IsSymbol, IsFlonum, IsHeap are the
// shape predicates required by spec §4.2.
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsTrue() bool   { return v.kind == KindTrue }
func (v Value) IsFalse() bool  { return v.kind == KindFalse }
func (v Value) IsFixnum() bool { return v.kind == KindFixnum }
func (v Value) IsSymbol() bool { return v.kind == KindSymbol }
func (v Value) IsFlonum() bool { return v.kind == KindFlonum }
func (v Value) IsHeap() bool   { return v.kind == KindHeap }

// Truthy implements Ruby-like truthiness: everything except nil and false
// is truthy. Used by JMP_IF_FALSE and boolean operator lowering.
func (v Value) Truthy() bool {
	return v.kind != KindNil && v.kind != KindFalse
}

// AsFixnum unpacks a FixNum Value, reporting false if v is not a FixNum.
func (v Value) AsFixnum() (int64, bool) {
	if v.kind != KindFixnum {
		return 0, false
	}
	return int64(v.payload), true
}

// AsSymbol unpacks a symbol Value's identifier, reporting false if v is
// not a symbol.
func (v Value) AsSymbol() (uint32, bool) {
	if v.kind != KindSymbol {
		return 0, false
	}
	return uint32(v.payload), true
}

// AsFlonum unpacks a Flonum Value, reporting false if v is not a float.
func (v Value) AsFlonum() (float64, bool) {
	if v.kind != KindFlonum {
		return 0, false
	}
	return math.Float64frombits(v.payload), true
}

// AsHeap returns the heap object backing v, reporting false if v is not a
// heap Value.
func (v Value) AsHeap() (HeapObject, bool) {
	if v.kind != KindHeap {
		return nil, false
	}
	return v.heap, true
}

// Eq implements language-level equality (spec §4.2): immediates compare
// by bit-identity within their own kind, with numeric coercion between
// fixnum and float; heap objects compare structurally for String/Array/
// Range, by pattern source for Regexp, and by identity for Class/
// Instance/Enumerator.
func (v Value) Eq(other Value) bool {
	if v.kind == other.kind {
		switch v.kind {
		case KindNil, KindTrue, KindFalse:
			return true
		case KindFixnum:
			return v.payload == other.payload
		case KindSymbol:
			return v.payload == other.payload
		case KindFlonum:
			return math.Float64frombits(v.payload) == math.Float64frombits(other.payload)
		case KindHeap:
			return v.heap.Equal(other.heap)
		}
	}
	// Mixed fixnum/float numeric coercion.
	if vf, ok := v.AsFixnum(); ok {
		if of, ok := other.AsFlonum(); ok {
			return float64(vf) == of
		}
	}
	if vf, ok := v.AsFlonum(); ok {
		if of, ok := other.AsFixnum(); ok {
			return vf == float64(of)
		}
	}
	return false
}

// HeapKind discriminates the concrete type of a heap object.
type HeapKind uint8

const (
	HeapKindString HeapKind = iota
	HeapKindArray
	HeapKindRange
	HeapKindClass
	HeapKindInstance
	HeapKindEnumerator
	HeapKindRegexp
)

// HeapObject is implemented by every heap-allocated kind (spec §3):
// String, Array, Range, Class, Instance, Enumerator, Regexp. Equal
// implements the kind's defined equality, used by Value.Eq.
type HeapObject interface {
	HeapKind() HeapKind
	Equal(other HeapObject) bool
	Inspect() string
}
