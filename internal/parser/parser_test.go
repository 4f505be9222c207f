package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/parser"
)

func parse(t *testing.T, src string) *ast.CompStmt {
	t.Helper()
	g := globals.New(nil)
	p := parser.New(src, g)
	node, err := p.Parse()
	require.NoError(t, err)
	body, ok := node.(*ast.CompStmt)
	require.True(t, ok)
	return body
}

func TestArithmeticPrecedence(t *testing.T) {
	body := parse(t, "1 + 2 * 3")
	require.Len(t, body.Items, 1)
	bin, ok := body.Items[0].(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	_, ok = bin.LHS.(*ast.Number)
	require.True(t, ok)
	rhs, ok := bin.RHS.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op)
}

func TestAssignThenReadIsLocal(t *testing.T) {
	body := parse(t, "x = 1\nx")
	require.Len(t, body.Items, 2)
	_, ok := body.Items[0].(*ast.Assign)
	require.True(t, ok)
	ident, ok := body.Items[1].(*ast.Ident)
	require.True(t, ok, "unassigned-first-use should still be an Ident after declaration")
	assert.NotZero(t, ident.Ident)
}

func TestBareCallWithoutPriorAssignmentIsSend(t *testing.T) {
	body := parse(t, "puts 1")
	require.Len(t, body.Items, 1)
	send, ok := body.Items[0].(*ast.Send)
	require.True(t, ok)
	assert.Nil(t, send.Recv)
	require.Len(t, send.Args, 1)
	n, ok := send.Args[0].(*ast.Number)
	require.True(t, ok)
	assert.Equal(t, int64(1), n.Value)
}

func TestIfElseEnd(t *testing.T) {
	body := parse(t, "if 1 < 2 then\n  x = 1\nelse\n  x = 2\nend")
	require.Len(t, body.Items, 1)
	ifNode, ok := body.Items[0].(*ast.If)
	require.True(t, ok)
	_, ok = ifNode.Cond.(*ast.BinOp)
	require.True(t, ok)
	then, ok := ifNode.Then.(*ast.CompStmt)
	require.True(t, ok)
	assert.Len(t, then.Items, 1)
	require.NotNil(t, ifNode.Else)
	els, ok := ifNode.Else.(*ast.CompStmt)
	require.True(t, ok)
	assert.Len(t, els.Items, 1)
}

func TestIfWithoutElse(t *testing.T) {
	body := parse(t, "if true\n  1\nend")
	ifNode, ok := body.Items[0].(*ast.If)
	require.True(t, ok)
	assert.Nil(t, ifNode.Else)
}

func TestForRangeLoop(t *testing.T) {
	body := parse(t, "for i in 0...3 do\n  puts i\nend")
	forNode, ok := body.Items[0].(*ast.For)
	require.True(t, ok)
	rng, ok := forNode.Range.(*ast.Range)
	require.True(t, ok)
	assert.True(t, rng.Exclusive)
}

func TestArrayLiteralAndIndexing(t *testing.T) {
	body := parse(t, "a = [1, 2, 3]\na[0]")
	require.Len(t, body.Items, 2)
	assign := body.Items[0].(*ast.Assign)
	arr, ok := assign.RHS.(*ast.Array)
	require.True(t, ok)
	assert.Len(t, arr.Items, 3)
	member, ok := body.Items[1].(*ast.ArrayMember)
	require.True(t, ok)
	require.Len(t, member.Indices, 1)
}

func TestDotCallWithArgs(t *testing.T) {
	body := parse(t, "a = [1]\na.push(4)")
	send := body.Items[1].(*ast.Send)
	_, ok := send.Recv.(*ast.Ident)
	require.True(t, ok, "a was assigned above, so the receiver must resolve as a local read")
	require.Len(t, send.Args, 1)
}

func TestMethodDefAndClassDef(t *testing.T) {
	body := parse(t, "class Greeter\n  def hello(name)\n    puts name\n  end\nend")
	classDef, ok := body.Items[0].(*ast.ClassDef)
	require.True(t, ok)
	comp, ok := classDef.Body.(*ast.CompStmt)
	require.True(t, ok)
	require.Len(t, comp.Items, 1)
	method, ok := comp.Items[0].(*ast.MethodDef)
	require.True(t, ok)
	require.Len(t, method.Params, 1)
}

func TestClassMethodDef(t *testing.T) {
	body := parse(t, "class Point\n  def self.origin\n    0\n  end\nend")
	classDef := body.Items[0].(*ast.ClassDef)
	comp := classDef.Body.(*ast.CompStmt)
	_, ok := comp.Items[0].(*ast.ClassMethodDef)
	require.True(t, ok)
}

func TestBreakAndNext(t *testing.T) {
	body := parse(t, "for i in 0..3 do\n  next\n  break\nend")
	forNode := body.Items[0].(*ast.For)
	comp := forNode.Body.(*ast.CompStmt)
	require.Len(t, comp.Items, 2)
	_, ok := comp.Items[0].(*ast.Next)
	require.True(t, ok)
	_, ok = comp.Items[1].(*ast.Break)
	require.True(t, ok)
}

func TestInstanceVarAndSelfAndSymbol(t *testing.T) {
	body := parse(t, "@x\nself\n:sym")
	require.Len(t, body.Items, 3)
	_, ok := body.Items[0].(*ast.InstanceVar)
	require.True(t, ok)
	_, ok = body.Items[1].(*ast.SelfValue)
	require.True(t, ok)
	_, ok = body.Items[2].(*ast.Symbol)
	require.True(t, ok)
}

func TestParenthesizedExpressionOverridesPrecedence(t *testing.T) {
	body := parse(t, "(1 + 2) * 3")
	bin := body.Items[0].(*ast.BinOp)
	assert.Equal(t, "*", bin.Op)
	_, ok := bin.LHS.(*ast.BinOp)
	require.True(t, ok)
}
