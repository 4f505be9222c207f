package value

import (
	"fmt"
	"strings"
)

// HeapString is the String heap kind: a raw byte buffer with a lazily
// filled string cache, mirroring ruruby's RString (original_source/
// src/builtin/string.rs), which keeps both a Bytes and Str representation
// so that String#bytes can operate even on non-UTF-8 buffers.
type HeapString struct {
	raw []byte
	str string
	ok  bool // true once str has been filled from raw
}

// NewString builds a HeapString from a Go string (always valid UTF-8 by
// construction).
func NewString(s string) *HeapString {
	return &HeapString{raw: []byte(s), str: s, ok: true}
}

// NewStringBytes builds a HeapString from a raw byte buffer; Str fills
// the string cache on first use.
func NewStringBytes(b []byte) *HeapString {
	return &HeapString{raw: b}
}

// Str returns raw converted to a Go string, caching it on first call
// (mirroring RString::convert_to_str). Bytes that are not valid UTF-8 are
// passed through unchanged, not rejected.
func (s *HeapString) Str() string {
	if !s.ok {
		s.str = string(s.raw)
		s.ok = true
	}
	return s.str
}

// Bytes returns the string's raw byte buffer.
func (s *HeapString) Bytes() []byte { return s.raw }

// SetStr replaces the string's contents.
func (s *HeapString) SetStr(v string) {
	s.str = v
	s.raw = []byte(v)
	s.ok = true
}

func (s *HeapString) HeapKind() HeapKind { return HeapKindString }

func (s *HeapString) Equal(other HeapObject) bool {
	o, ok := other.(*HeapString)
	return ok && s.Str() == o.Str()
}

func (s *HeapString) Inspect() string {
	return fmt.Sprintf("%q", s.Str())
}

// HeapArray is the Array heap kind: a mutable, ordered, heterogeneous
// sequence of Values.
type HeapArray struct {
	Elems []Value
}

// NewArray builds a HeapArray from the given elements (no copy beyond the
// slice header; callers should not alias a caller-owned slice they intend
// to keep mutating independently).
func NewArray(elems []Value) *HeapArray {
	return &HeapArray{Elems: elems}
}

func (a *HeapArray) HeapKind() HeapKind { return HeapKindArray }

func (a *HeapArray) Equal(other HeapObject) bool {
	o, ok := other.(*HeapArray)
	if !ok || len(a.Elems) != len(o.Elems) {
		return false
	}
	for i := range a.Elems {
		if !a.Elems[i].Eq(o.Elems[i]) {
			return false
		}
	}
	return true
}

func (a *HeapArray) Inspect() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = Inspect(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// HeapRange is the Range heap kind: an integer-bounded range with an
// exclusivity flag (`..` vs `...`).
type HeapRange struct {
	Start, End Value
	Exclusive  bool
}

// NewRange builds a HeapRange.
func NewRange(start, end Value, exclusive bool) *HeapRange {
	return &HeapRange{Start: start, End: end, Exclusive: exclusive}
}

func (r *HeapRange) HeapKind() HeapKind { return HeapKindRange }

func (r *HeapRange) Equal(other HeapObject) bool {
	o, ok := other.(*HeapRange)
	return ok && r.Start.Eq(o.Start) && r.End.Eq(o.End) && r.Exclusive == o.Exclusive
}

func (r *HeapRange) Inspect() string {
	op := ".."
	if r.Exclusive {
		op = "..."
	}
	return Inspect(r.Start) + op + Inspect(r.End)
}

// Class is the Class heap kind: a named class with a superclass link, a
// method table (keyed by interned identifier, populated by internal/
// globals), and instance-variable layout information used to compute
// field offsets for Instance allocation.
type Class struct {
	Name       string
	Super      *Class
	Methods    map[uint32]interface{} // instance methods, keyed by ident.ID; value is a globals.MethodRef, typed via interface{} to avoid an import cycle
	ClassMethods map[uint32]interface{} // singleton/class methods, same keying and typing as Methods
	FieldNames []string                 // own (non-inherited) instance variable names, in declaration order
}

// NewClass builds a Class with the given name and superclass (nil for the
// root).
func NewClass(name string, super *Class) *Class {
	return &Class{
		Name: name, Super: super,
		Methods:      make(map[uint32]interface{}),
		ClassMethods: make(map[uint32]interface{}),
	}
}

func (c *Class) HeapKind() HeapKind { return HeapKindClass }

// Equal for classes is identity: two distinct Class values are never
// equal even if they share a name.
func (c *Class) Equal(other HeapObject) bool {
	o, ok := other.(*Class)
	return ok && c == o
}

func (c *Class) Inspect() string { return c.Name }

// Instance is the Instance heap kind: an object of a user-defined class
// with a flat instance-variable slice, indexed by field offset (computed
// by walking the class's ancestor chain; see internal/globals.FieldOffset /
// EnsureField, ported from smog's pkg/vm field-offset helpers).
type Instance struct {
	Class  *Class
	Fields []Value
}

// NewInstance allocates an Instance with nFields Values all initialized
// to Nil.
func NewInstance(class *Class, nFields int) *Instance {
	fields := make([]Value, nFields)
	for i := range fields {
		fields[i] = Nil
	}
	return &Instance{Class: class, Fields: fields}
}

func (in *Instance) HeapKind() HeapKind { return HeapKindInstance }

func (in *Instance) Equal(other HeapObject) bool {
	o, ok := other.(*Instance)
	return ok && in == o
}

func (in *Instance) Inspect() string {
	return fmt.Sprintf("#<%s>", in.Class.Name)
}

// Enumerator is the Enumerator heap kind: a captured-but-not-yet-run
// method send (receiver, selector, args), replayed lazily by each/map/
// with_index and friends. Ported from ruruby's enum_new/
// src/builtin/enumerator.rs.
type Enumerator struct {
	Receiver Value
	Selector uint32 // ident.ID of the method to replay
	Args     []Value
}

// NewEnumerator captures a (receiver, selector, args) triple without
// invoking it.
func NewEnumerator(receiver Value, selector uint32, args []Value) *Enumerator {
	return &Enumerator{Receiver: receiver, Selector: selector, Args: args}
}

func (e *Enumerator) HeapKind() HeapKind { return HeapKindEnumerator }

func (e *Enumerator) Equal(other HeapObject) bool {
	o, ok := other.(*Enumerator)
	return ok && e == o
}

func (e *Enumerator) Inspect() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = Inspect(a)
	}
	return fmt.Sprintf("#<Enumerator: %s:%d(%s)>", Inspect(e.Receiver), e.Selector, strings.Join(parts, ", "))
}

// Regexp is the Regexp heap kind, backing =~ / sub / gsub / scan.
// The pattern source is kept alongside the compiled matcher (an
// interface{} populated by internal/builtin to avoid this package
// depending on Go's regexp package for a feature that is really a
// builtin-layer concern).
type Regexp struct {
	Source   string
	Compiled interface{}
}

// NewRegexp wraps a pattern source and its compiled matcher.
func NewRegexp(source string, compiled interface{}) *Regexp {
	return &Regexp{Source: source, Compiled: compiled}
}

func (r *Regexp) HeapKind() HeapKind { return HeapKindRegexp }

func (r *Regexp) Equal(other HeapObject) bool {
	o, ok := other.(*Regexp)
	return ok && r.Source == o.Source
}

func (r *Regexp) Inspect() string {
	return "/" + r.Source + "/"
}

// Inspect renders v the way the `inspect` builtin does, dispatching on
// kind. It is the single source of truth for Value-to-display-string
// conversion shared by Array/Enumerator Inspect and the `puts`/`p`
// builtins.
func Inspect(v Value) string {
	switch v.Kind() {
	case KindNil:
		return "nil"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindFixnum:
		n, _ := v.AsFixnum()
		return fmt.Sprintf("%d", n)
	case KindFlonum:
		f, _ := v.AsFlonum()
		return fmt.Sprintf("%g", f)
	case KindSymbol:
		id, _ := v.AsSymbol()
		return fmt.Sprintf(":#%d", id)
	case KindHeap:
		h, _ := v.AsHeap()
		return h.Inspect()
	default:
		return "<?>"
	}
}

// ToDisplayString renders v the way `puts`/`to_s` does: strings print
// their contents without quoting, everything else falls back to Inspect.
func ToDisplayString(v Value) string {
	if v.IsHeap() {
		if h, ok := v.AsHeap(); ok {
			if s, ok := h.(*HeapString); ok {
				return s.Str()
			}
		}
	}
	return Inspect(v)
}
