// Package globals owns marble's process-scoped mutable state: the
// identifier table, the method table, the built-in class singletons, and
// the top-level constants map (spec.md §3 "Globals", §4.3).
//
// Structured logging of registration events (class/method install) uses
// go.uber.org/zap, mirroring the structured-event logging style found in
// the corpus's service-shaped repos (nspcc-dev-neo-go); smog itself has
// no logger at all, so this is an ambient-stack addition rather than an
// adaptation of teacher code.
package globals

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/iseq"
	"github.com/marble-lang/marble/internal/value"
)

// MethodRef is an opaque handle into a Globals' method table, handed out
// by AddMethod and valid for the lifetime of the Globals it came from
// (spec.md §4.3's invariant).
type MethodRef uint32

// SourceMapEntry pairs a program counter with the source location the
// instruction at that PC was generated from, used to attribute runtime
// errors (spec.md §4.5 rule 4).
type SourceMapEntry struct {
	PC  int
	Loc [2]int // (start, end) byte offsets; kept as a plain pair to avoid an ast import here
}

// MethodKind discriminates MethodInfo's tagged union (spec.md §3's
// "MethodRef ... each entry is one of").
type MethodKind uint8

const (
	MethodKindRubyFunc MethodKind = iota
	MethodKindBuiltinFunc
	MethodKindAttrReader
	MethodKindAttrWriter
)

// BuiltinFunc is the native-callback shape for BuiltinFunc methods:
// `(vm, self, args) -> (Value, error)`. The vm parameter is typed as
// interface{} here to avoid internal/globals depending on internal/vm
// (which itself depends on internal/globals for method resolution);
// internal/builtin asserts it back to *vm.VM.
type BuiltinFunc func(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error)

// MethodInfo is one entry in the method table.
type MethodInfo struct {
	Kind MethodKind

	// RubyFunc fields.
	ISeq      *iseq.ISeq
	Params    []ident.ID
	Lvars     int
	SourceMap []SourceMapEntry

	// BuiltinFunc field.
	Builtin BuiltinFunc

	// AttrReader/AttrWriter field: the instance variable named.
	AttrName ident.ID

	// Name is kept for diagnostics (NoMethod errors, disassembly).
	Name string

	// ClassSuper is set only on the synthetic RubyFunc registered for a
	// ClassDef's body (internal/codegen's genClassDef): the superclass
	// identifier named at the `class Name < Super` site, or ident.Nil if
	// no explicit superclass was given (defaults to Object at DEF_CLASS
	// execution time).
	ClassSuper ident.ID
}

// NewRubyMethod builds a RubyFunc MethodInfo.
func NewRubyMethod(name string, body *iseq.ISeq, params []ident.ID, lvars int, sourceMap []SourceMapEntry) *MethodInfo {
	return &MethodInfo{
		Kind: MethodKindRubyFunc, Name: name, ISeq: body,
		Params: params, Lvars: lvars, SourceMap: sourceMap,
	}
}

// NewBuiltinMethod builds a BuiltinFunc MethodInfo.
func NewBuiltinMethod(name string, fn BuiltinFunc) *MethodInfo {
	return &MethodInfo{Kind: MethodKindBuiltinFunc, Name: name, Builtin: fn}
}

// NewAttrReader builds an AttrReader MethodInfo for instance variable attr.
func NewAttrReader(name string, attr ident.ID) *MethodInfo {
	return &MethodInfo{Kind: MethodKindAttrReader, Name: name, AttrName: attr}
}

// NewAttrWriter builds an AttrWriter MethodInfo for instance variable attr.
func NewAttrWriter(name string, attr ident.ID) *MethodInfo {
	return &MethodInfo{Kind: MethodKindAttrWriter, Name: name, AttrName: attr}
}

// BuiltinClasses holds the singleton Class objects for every built-in
// kind (spec.md §3: "built-in class singletons (Object, Integer, String,
// Array, Range, Enumerator, …)"). internal/builtin populates their
// method tables at bootstrap; internal/vm consults them to resolve the
// receiver class of an immediate or heap Value that is not itself a
// user-defined Instance.
type BuiltinClasses struct {
	Object     *value.Class
	NilClass   *value.Class
	TrueClass  *value.Class
	FalseClass *value.Class
	Integer    *value.Class
	Float      *value.Class
	Symbol     *value.Class
	String     *value.Class
	Array      *value.Class
	Range      *value.Class
	Enumerator *value.Class
	Regexp     *value.Class
}

// Globals is the process-wide, single-threaded (spec.md §5) runtime
// state: identifier table, method table, built-in class singletons, and
// top-level constants.
type Globals struct {
	Idents   *ident.Table
	Builtins *BuiltinClasses

	methods   []*MethodInfo
	classes   map[ident.ID]*value.Class
	constants map[ident.ID]value.Value

	log *zap.Logger
}

// New returns a Globals with an empty identifier table, the built-in
// class singletons wired to a common Object root (but no native methods
// installed — see internal/builtin.Bootstrap for that), and no top-level
// constants. A nil logger is replaced with zap.NewNop() so callers never
// need a nil check (mirrors the "production callers get a no-op logger
// by default" contract described in SPEC_FULL.md's ambient stack
// section).
func New(log *zap.Logger) *Globals {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Globals{
		Idents:    ident.New(),
		classes:   make(map[ident.ID]*value.Class),
		constants: make(map[ident.ID]value.Value),
		log:       log,
	}
	object := value.NewClass("Object", nil)
	builtins := &BuiltinClasses{
		Object:     object,
		NilClass:   value.NewClass("NilClass", object),
		TrueClass:  value.NewClass("TrueClass", object),
		FalseClass: value.NewClass("FalseClass", object),
		Integer:    value.NewClass("Integer", object),
		Float:      value.NewClass("Float", object),
		Symbol:     value.NewClass("Symbol", object),
		String:     value.NewClass("String", object),
		Array:      value.NewClass("Array", object),
		Range:      value.NewClass("Range", object),
		Enumerator: value.NewClass("Enumerator", object),
		Regexp:     value.NewClass("Regexp", object),
	}
	g.Builtins = builtins
	// The empty string takes ID 0 (ident.Nil), so no class, constant,
	// method or variable name is ever given that ID.
	g.Intern("")
	for name, c := range map[string]*value.Class{
		"Object": builtins.Object, "NilClass": builtins.NilClass,
		"TrueClass": builtins.TrueClass, "FalseClass": builtins.FalseClass,
		"Integer": builtins.Integer, "Float": builtins.Float,
		"Symbol": builtins.Symbol, "String": builtins.String,
		"Array": builtins.Array, "Range": builtins.Range,
		"Enumerator": builtins.Enumerator, "Regexp": builtins.Regexp,
	} {
		id := g.Intern(name)
		g.classes[id] = c
		g.constants[id] = value.Heap(c)
	}
	return g
}

// Intern and Lookup forward to the identifier table (spec.md §4.1).
func (g *Globals) Intern(name string) ident.ID        { return g.Idents.Intern(name) }
func (g *Globals) Lookup(name string) (ident.ID, bool) { return g.Idents.Lookup(name) }
func (g *Globals) Name(id ident.ID) string             { return g.Idents.Name(id) }

// AddMethod registers info and returns a MethodRef that remains valid
// for the lifetime of g.
func (g *Globals) AddMethod(info *MethodInfo) MethodRef {
	ref := MethodRef(len(g.methods))
	g.methods = append(g.methods, info)
	g.log.Debug("method registered", zap.String("name", info.Name), zap.Uint32("ref", uint32(ref)))
	return ref
}

// Method resolves a MethodRef to its MethodInfo. It panics on an unknown
// ref, which would indicate a MethodRef manufactured outside AddMethod —
// an internal invariant violation, not a recoverable runtime condition.
func (g *Globals) Method(ref MethodRef) *MethodInfo {
	if int(ref) >= len(g.methods) {
		panic(fmt.Sprintf("globals: unknown method ref %d", ref))
	}
	return g.methods[ref]
}

// DefineClass registers a new Class under name with the given superclass
// (nil for the root Object class) and returns it. If a class with this
// name already exists it is returned unmodified — ClassDef in Ruby
// reopens existing classes rather than erroring, and marble follows that
// for top-level class declarations encountered more than once.
func (g *Globals) DefineClass(name ident.ID, super *value.Class) *value.Class {
	if c, ok := g.classes[name]; ok {
		return c
	}
	c := value.NewClass(g.Name(name), super)
	g.classes[name] = c
	g.log.Debug("class registered", zap.String("name", c.Name))
	return c
}

// Class looks up a registered class by identifier.
func (g *Globals) Class(name ident.ID) (*value.Class, bool) {
	c, ok := g.classes[name]
	return c, ok
}

// SetConstant and Constant implement the top-level constants map.
func (g *Globals) SetConstant(name ident.ID, v value.Value) {
	g.constants[name] = v
}

func (g *Globals) Constant(name ident.ID) (value.Value, bool) {
	v, ok := g.constants[name]
	return v, ok
}

// AddInstanceMethod installs ref into class's instance-method table under
// name (spec.md §4.6: DEF_METHOD installs into the instance-method table).
func (g *Globals) AddInstanceMethod(class *value.Class, name ident.ID, ref MethodRef) {
	class.Methods[uint32(name)] = ref
}

// LookupInstanceMethod searches class's instance-method table, walking
// the superclass chain, per spec.md §4.6's send-resolution algorithm.
func (g *Globals) LookupInstanceMethod(class *value.Class, name ident.ID) (MethodRef, bool) {
	for c := class; c != nil; c = c.Super {
		if raw, ok := c.Methods[uint32(name)]; ok {
			return raw.(MethodRef), true
		}
	}
	return 0, false
}

// AddClassMethod installs ref into class's class-method (singleton)
// table under name, used for `def self.name` and resolved only when the
// receiver IS the class itself (spec.md §4.6).
func (g *Globals) AddClassMethod(class *value.Class, name ident.ID, ref MethodRef) {
	class.ClassMethods[uint32(name)] = ref
}

// LookupClassMethod searches class's class-method table, walking the
// superclass chain.
func (g *Globals) LookupClassMethod(class *value.Class, name ident.ID) (MethodRef, bool) {
	for c := class; c != nil; c = c.Super {
		if raw, ok := c.ClassMethods[uint32(name)]; ok {
			return raw.(MethodRef), true
		}
	}
	return 0, false
}

// FieldOffset returns the flat instance-variable slot assigned to attr on
// class, walking the superclass chain to account for inherited fields
// first (ported from smog's pkg/vm field-offset helpers, generalized
// from smog's fixed per-class field list to a name-keyed lookup since
// marble allocates instance variables lazily by name rather than by a
// compile-time-complete field list).
func (g *Globals) FieldOffset(class *value.Class, attr ident.ID) (int, bool) {
	name := g.Name(attr)

	// Collect the chain from class up to its root ancestor, then walk it
	// root-first, threading the accumulated offset explicitly through
	// the loop variable rather than a closure-captured variable: each
	// class's own FieldNames contributes to the running offset exactly
	// once, however deep the superclass chain goes.
	var chain []*value.Class
	for c := class; c != nil; c = c.Super {
		chain = append(chain, c)
	}

	offset := 0
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		for j, n := range c.FieldNames {
			if n == name {
				return offset + j, true
			}
		}
		offset += len(c.FieldNames)
	}
	return 0, false
}

// countFields reports the total number of instance-variable slots a
// class and all its ancestors declare (CountAllFields in smog's vm.go).
func countFields(c *value.Class) int {
	n := 0
	for cur := c; cur != nil; cur = cur.Super {
		n += len(cur.FieldNames)
	}
	return n
}

// EnsureField returns the slot index for attr on class, appending a new
// field to class's own FieldNames the first time attr is seen — instance
// variables in this language are declared implicitly by first assignment
// (spec.md §8 scenario 6: `@x = 7` inside a method with no prior
// declaration), not pre-declared the way smog's NEW_OBJECT opcode
// assumes a fixed field count known at class-definition time.
func (g *Globals) EnsureField(class *value.Class, attr ident.ID) int {
	if off, ok := g.FieldOffset(class, attr); ok {
		return off
	}
	base := countFields(class) - len(class.FieldNames)
	class.FieldNames = append(class.FieldNames, g.Name(attr))
	return base + len(class.FieldNames) - 1
}

// TotalFields reports how many instance-variable slots class and its
// ancestors declare in total — the size to allocate for a new Instance.
func (g *Globals) TotalFields(class *value.Class) int {
	return countFields(class)
}
