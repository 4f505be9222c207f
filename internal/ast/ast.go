// Package ast defines the node kinds the code generator consumes
// (spec.md §6). The parser that produces these nodes is out of scope for
// this module except for this shape; internal/parser builds a minimal
// Ruby-like surface syntax sufficient to exercise it end to end.
//
// Every node carries a Loc so that generation and runtime errors can
// report a source location (spec.md §7), the same role smog's AST would
// play if it defined one consistently — smog's own pkg/ast.go sketches
// node types that its compiler never actually matches against, so this
// package is written fresh against the node-kind list spec.md gives
// rather than adapted from smog's inconsistent original.
package ast

// Loc is a half-open byte range in the source text.
type Loc struct {
	Start, End int
}

// Node is implemented by every AST node kind.
type Node interface {
	loc() Loc
}

// Locate returns n's source location.
func Locate(n Node) Loc { return n.loc() }

type base struct {
	L Loc
}

func (b base) loc() Loc { return b.L }

// Nil is the `nil` literal.
type Nil struct {
	base
}

// Bool is a `true`/`false` literal.
type Bool struct {
	base
	Value bool
}

// Number is an integer literal.
type Number struct {
	base
	Value int64
}

// Float is a floating-point literal.
type Float struct {
	base
	Value float64
}

// String is a string literal.
type String struct {
	base
	Text string
}

// Symbol is a `:name` literal, already resolved to an identifier.
type Symbol struct {
	base
	Ident uint32
}

// InterpolatedString is a string literal containing `#{...}` splices.
// Parts alternate conceptually between literal text and Node; each part
// here is a Node (String nodes for literal runs, arbitrary expressions
// for splices).
type InterpolatedString struct {
	base
	Parts []Node
}

// SelfValue is the `self` keyword.
type SelfValue struct {
	base
}

// Range is a `start..end` or `start...end` literal.
type Range struct {
	base
	StartNode, EndNode Node
	Exclusive          bool
}

// Array is an `[a, b, c]` literal.
type Array struct {
	base
	Items []Node
}

// Ident is a reference to a local variable.
type Ident struct {
	base
	Ident uint32
}

// Const is a reference to a top-level constant.
type Const struct {
	base
	Ident uint32
}

// InstanceVar is a reference to `@name`.
type InstanceVar struct {
	base
	Ident uint32
}

// BinOp is `lhs <op> rhs`. Op is one of "+", "-", "*", "/", ">>", "<<",
// "|", "&", "^", "%", "==", "!=", ">=", ">", "<=", "<", "&&", "||".
type BinOp struct {
	base
	Op       string
	LHS, RHS Node
}

// ArrayMember is `arr[indices...]`, used both as an expression and
// (inside Assign) as an assignment target.
type ArrayMember struct {
	base
	ArrayNode Node
	Indices   []Node
}

// CompStmt is a sequence of statements evaluated for their side effects,
// whose value is that of the last statement (nil if empty).
type CompStmt struct {
	base
	Items []Node
}

// If is `if cond then ... else ... end`. Else may be nil.
type If struct {
	base
	Cond, Then, Else Node
}

// For is `for id in range do body end`. The loop's value is the range
// node re-evaluated at loop exit (spec.md §4.5, §9 Open Question 2).
type For struct {
	base
	Ident uint32
	Range Node
	Body  Node
}

// Assign is `lhs = rhs`.
type Assign struct {
	base
	LHS, RHS Node
}

// MulAssign is `lhs1, lhs2 = rhs1, rhs2, ...`.
type MulAssign struct {
	base
	LHSList, RHSList []Node
}

// Send is a method call `recv.method(args...)` (or an implicit-self call
// when Recv is nil).
type Send struct {
	base
	Recv   Node // nil means implicit self
	Method uint32
	Args   []Node
}

// Param is one formal parameter in a method/block definition.
type Param struct {
	base
	Ident uint32
}

// MethodDef is `def name(params) body end`, defining an instance method.
type MethodDef struct {
	base
	Name   uint32
	Params []Param
	Body   Node
	Lvars  int
}

// ClassMethodDef is `def self.name(params) body end`, defining a
// class/singleton method.
type ClassMethodDef struct {
	base
	Name   uint32
	Params []Param
	Body   Node
	Lvars  int
}

// ClassDef is `class Name [< Super] body end`.
type ClassDef struct {
	base
	Name  uint32
	Super uint32 // 0 (ident.Nil) if no explicit superclass
	Body  Node
	Lvars int
}

// Break is a `break` statement inside a loop body.
type Break struct {
	base
}

// Next is a `next` statement inside a loop body.
type Next struct {
	base
}

// New<Kind> constructors attach a Loc at construction time, mirroring
// smog parser's convention of stamping node positions as it builds them.

func NewNil(l Loc) *Nil                   { return &Nil{base{l}} }
func NewBool(l Loc, v bool) *Bool         { return &Bool{base{l}, v} }
func NewNumber(l Loc, v int64) *Number    { return &Number{base{l}, v} }
func NewFloat(l Loc, v float64) *Float    { return &Float{base{l}, v} }
func NewString(l Loc, s string) *String   { return &String{base{l}, s} }
func NewSymbol(l Loc, id uint32) *Symbol  { return &Symbol{base{l}, id} }
func NewSelfValue(l Loc) *SelfValue       { return &SelfValue{base{l}} }
func NewIdent(l Loc, id uint32) *Ident    { return &Ident{base{l}, id} }
func NewConst(l Loc, id uint32) *Const    { return &Const{base{l}, id} }
func NewInstanceVar(l Loc, id uint32) *InstanceVar {
	return &InstanceVar{base{l}, id}
}
func NewBreak(l Loc) *Break { return &Break{base{l}} }
func NewNext(l Loc) *Next   { return &Next{base{l}} }

func NewInterpolatedString(l Loc, parts []Node) *InterpolatedString {
	return &InterpolatedString{base{l}, parts}
}
func NewRange(l Loc, start, end Node, exclusive bool) *Range {
	return &Range{base{l}, start, end, exclusive}
}
func NewArray(l Loc, items []Node) *Array { return &Array{base{l}, items} }
func NewBinOp(l Loc, op string, lhs, rhs Node) *BinOp {
	return &BinOp{base{l}, op, lhs, rhs}
}
func NewArrayMember(l Loc, arr Node, indices []Node) *ArrayMember {
	return &ArrayMember{base{l}, arr, indices}
}
func NewCompStmt(l Loc, items []Node) *CompStmt { return &CompStmt{base{l}, items} }
func NewIf(l Loc, cond, then, els Node) *If     { return &If{base{l}, cond, then, els} }
func NewFor(l Loc, id uint32, rng, body Node) *For {
	return &For{base{l}, id, rng, body}
}
func NewAssign(l Loc, lhs, rhs Node) *Assign { return &Assign{base{l}, lhs, rhs} }
func NewMulAssign(l Loc, lhsList, rhsList []Node) *MulAssign {
	return &MulAssign{base{l}, lhsList, rhsList}
}
func NewSend(l Loc, recv Node, method uint32, args []Node) *Send {
	return &Send{base{l}, recv, method, args}
}
func NewParam(l Loc, id uint32) *Param { return &Param{base{l}, id} }
func NewMethodDef(l Loc, name uint32, params []Param, body Node, lvars int) *MethodDef {
	return &MethodDef{base{l}, name, params, body, lvars}
}
func NewClassMethodDef(l Loc, name uint32, params []Param, body Node, lvars int) *ClassMethodDef {
	return &ClassMethodDef{base{l}, name, params, body, lvars}
}
func NewClassDef(l Loc, name, super uint32, body Node, lvars int) *ClassDef {
	return &ClassDef{base{l}, name, super, body, lvars}
}
