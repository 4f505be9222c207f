package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/codegen"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
	"github.com/marble-lang/marble/internal/vm"
)

// runProgram lowers body with a fresh Globals/Codegen/VM and returns the
// program's final stack value.
func runProgram(t *testing.T, g *globals.Globals, body ast.Node) value.Value {
	t.Helper()
	cg := codegen.New(g, nil)
	method, err := cg.GenProgram(body)
	require.NoError(t, err)
	machine := vm.New(g, nil)
	result, err := machine.Eval(method)
	require.NoError(t, err)
	return result
}

func num(n int64) *ast.Number { return &ast.Number{Value: n} }

// TestArithmeticFixnumWraps exercises spec.md §4.6's fixnum arithmetic
// contract: two fixnums produce a fixnum result, and overflow wraps.
func TestArithmeticFixnumWraps(t *testing.T) {
	g := globals.New(nil)
	body := &ast.BinOp{Op: "*", LHS: &ast.BinOp{Op: "+", LHS: num(3), RHS: num(4)}, RHS: num(2)}
	result := runProgram(t, g, body)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(14), n)

	wrapped := runProgram(t, g, &ast.BinOp{Op: "+", LHS: num(9223372036854775807), RHS: num(1)})
	w, ok := wrapped.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(-9223372036854775808), w)
}

// TestArithmeticMixedPromotesToFloat exercises the fixnum/float promotion
// rule.
func TestArithmeticMixedPromotesToFloat(t *testing.T) {
	g := globals.New(nil)
	body := &ast.BinOp{Op: "+", LHS: num(1), RHS: &ast.Float{Value: 0.5}}
	result := runProgram(t, g, body)
	f, ok := result.AsFlonum()
	require.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)
}

// TestIntegerDivisionByZeroRaisesZeroDivision exercises the ZeroDivision
// error path (spec.md §4.6).
func TestIntegerDivisionByZeroRaisesZeroDivision(t *testing.T) {
	g := globals.New(nil)
	body := &ast.BinOp{Op: "/", LHS: num(1), RHS: num(0)}
	cg := codegen.New(g, nil)
	method, err := cg.GenProgram(body)
	require.NoError(t, err)
	machine := vm.New(g, nil)
	_, err = machine.Eval(method)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZeroDivision")
}

// TestComparisonLeLtSwapToGeGt exercises the Le/Lt-as-swapped-Ge/Gt
// lowering rule end to end: `3 <= 3` and `3 < 4` must both evaluate true.
func TestComparisonLeLtSwapToGeGt(t *testing.T) {
	g := globals.New(nil)
	body := &ast.BinOp{Op: "&&",
		LHS: &ast.BinOp{Op: "<=", LHS: num(3), RHS: num(3)},
		RHS: &ast.BinOp{Op: "<", LHS: num(3), RHS: num(4)},
	}
	result := runProgram(t, g, body)
	assert.True(t, result.IsTrue())
}

// TestForLoopScenario5 matches spec.md §8 scenario 5: a non-exclusive
// `0..3` range visits 0, 1, 2, 3 inclusive. This is verified indirectly
// through a side-effecting accumulator local that sums the induction
// variable over every iteration.
func TestForLoopScenario5(t *testing.T) {
	g := globals.New(nil)
	i := ast.Ident{Ident: uint32(g.Intern("i"))}
	acc := ast.Ident{Ident: uint32(g.Intern("acc"))}

	body := &ast.CompStmt{Items: []ast.Node{
		&ast.Assign{LHS: &acc, RHS: num(0)},
		&ast.For{
			Ident: i.Ident,
			Range: &ast.Range{StartNode: num(0), EndNode: num(3), Exclusive: false},
			Body: &ast.Assign{LHS: &acc, RHS: &ast.BinOp{Op: "+", LHS: &acc, RHS: &i}},
		},
		&acc,
	}}

	result := runProgram(t, g, body)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	// 0+1+2+3 == 6, confirming the loop body ran for i = 0,1,2,3 inclusive.
	assert.Equal(t, int64(6), n)
}

// TestClassDefAndInstanceVariables matches spec.md §8 scenario 6:
// class C; def f; @x = 7; end; def g; @x; end end; c = C.new; c.f; c.g
// evaluates to 7.
func TestClassDefAndInstanceVariables(t *testing.T) {
	g := globals.New(nil)
	xID := uint32(g.Intern("x"))
	fID := uint32(g.Intern("f"))
	gID := uint32(g.Intern("g"))
	newID := uint32(g.Intern("new"))
	cConstID := uint32(g.Intern("C"))
	cVarID := uint32(g.Intern("c"))

	classBody := &ast.CompStmt{Items: []ast.Node{
		&ast.MethodDef{
			Name: fID,
			Body: &ast.Assign{LHS: &ast.InstanceVar{Ident: xID}, RHS: num(7)},
		},
		&ast.MethodDef{
			Name: gID,
			Body: &ast.InstanceVar{Ident: xID},
		},
	}}

	program := &ast.CompStmt{Items: []ast.Node{
		&ast.ClassDef{Name: cConstID, Body: classBody},
		&ast.Assign{
			LHS: &ast.Ident{Ident: cVarID},
			RHS: &ast.Send{Recv: &ast.Const{Ident: cConstID}, Method: newID},
		},
		&ast.Send{Recv: &ast.Ident{Ident: cVarID}, Method: fID},
		&ast.Send{Recv: &ast.Ident{Ident: cVarID}, Method: gID},
	}}

	result := runProgram(t, g, program)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}

// TestArraySetAndGetElem exercises SET_ARRAY_ELEM/GET_ARRAY_ELEM.
func TestArraySetAndGetElem(t *testing.T) {
	g := globals.New(nil)
	arrID := uint32(g.Intern("arr"))
	arrIdent := &ast.Ident{Ident: arrID}

	program := &ast.CompStmt{Items: []ast.Node{
		&ast.Assign{LHS: arrIdent, RHS: &ast.Array{Items: []ast.Node{num(1), num(2), num(3)}}},
		&ast.Assign{LHS: &ast.ArrayMember{ArrayNode: arrIdent, Indices: []ast.Node{num(1)}}, RHS: num(9)},
		&ast.ArrayMember{ArrayNode: arrIdent, Indices: []ast.Node{num(1)}},
	}}

	result := runProgram(t, g, program)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	assert.Equal(t, int64(9), n)
}

// TestNoMethodErrorOnUnknownSend exercises the NoMethod failure path of
// spec.md §4.6's send-resolution algorithm.
func TestNoMethodErrorOnUnknownSend(t *testing.T) {
	g := globals.New(nil)
	program := &ast.Send{Recv: num(1), Method: uint32(g.Intern("frobnicate"))}
	cg := codegen.New(g, nil)
	method, err := cg.GenProgram(program)
	require.NoError(t, err)
	machine := vm.New(g, nil)
	_, err = machine.Eval(method)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoMethod")
}

// TestBreakExitsLoopEarly exercises break's patch-to-exit wiring.
func TestBreakExitsLoopEarly(t *testing.T) {
	g := globals.New(nil)
	i := &ast.Ident{Ident: uint32(g.Intern("i"))}
	acc := &ast.Ident{Ident: uint32(g.Intern("acc"))}

	program := &ast.CompStmt{Items: []ast.Node{
		&ast.Assign{LHS: acc, RHS: num(0)},
		&ast.For{
			Ident: i.Ident,
			Range: &ast.Range{StartNode: num(0), EndNode: num(10), Exclusive: true},
			Body: &ast.If{
				Cond: &ast.BinOp{Op: "==", LHS: i, RHS: num(3)},
				Then: &ast.Break{},
				Else: &ast.Assign{LHS: acc, RHS: &ast.BinOp{Op: "+", LHS: acc, RHS: num(1)}},
			},
		},
		acc,
	}}

	result := runProgram(t, g, program)
	n, ok := result.AsFixnum()
	require.True(t, ok)
	// Loop runs i = 0,1,2 incrementing acc, then breaks at i == 3.
	assert.Equal(t, int64(3), n)
}
