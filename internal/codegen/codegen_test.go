package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/iseq"
)

func TestGenMethodIseqEndsInEND(t *testing.T) {
	g := globals.New(nil)
	cg := New(g, nil)

	body := ast.NewNumber(ast.Loc{}, 42)
	info, err := cg.GenMethodIseq("<main>", nil, body)
	require.NoError(t, err)

	bytes := info.ISeq.Bytes()
	require.NotEmpty(t, bytes)
	assert.Equal(t, iseq.OpEnd, info.ISeq.ReadOp(iseq.Pos(len(bytes)-1)))
	assert.Equal(t, iseq.OpPushFixnum, info.ISeq.ReadOp(0))
}

func TestGenCompStmtEmptyPushesNil(t *testing.T) {
	g := globals.New(nil)
	cg := New(g, nil)

	info, err := cg.GenMethodIseq("<main>", nil, &ast.CompStmt{})
	require.NoError(t, err)
	assert.Equal(t, iseq.OpPushNil, info.ISeq.ReadOp(0))
}

func TestGenIdentMissingLocalIsNameError(t *testing.T) {
	g := globals.New(nil)
	cg := New(g, nil)
	id := g.Intern("x")

	_, err := cg.GenMethodIseq("<main>", nil, ast.NewIdent(ast.Loc{}, uint32(id)))
	require.Error(t, err)
}

func TestGenForLoopPatchesJumpsWithinBounds(t *testing.T) {
	g := globals.New(nil)
	cg := New(g, nil)
	iID := g.Intern("i")

	body := &ast.For{
		Ident: uint32(iID),
		Range: &ast.Range{StartNode: ast.NewNumber(ast.Loc{}, 0), EndNode: ast.NewNumber(ast.Loc{}, 3)},
		Body:  ast.NewIdent(ast.Loc{}, uint32(iID)),
	}

	info, err := cg.GenMethodIseq("<main>", nil, body)
	require.NoError(t, err)

	seq := info.ISeq
	n := seq.Len()
	pos := iseq.Pos(0)
	for int(pos) < n {
		op := seq.ReadOp(pos)
		width := iseq.OperandWidth(op)
		if op == iseq.OpJmp || op == iseq.OpJmpIfFalse {
			disp := seq.ReadI32(pos + 1)
			target := int(pos) + 1 + 4 + int(disp)
			assert.GreaterOrEqual(t, target, 0)
			assert.LessOrEqual(t, target, n)
		}
		pos += 1 + iseq.Pos(width)
	}
}

func TestGenAndShortCircuitEmitsBothJumps(t *testing.T) {
	g := globals.New(nil)
	cg := New(g, nil)

	binop := &ast.BinOp{Op: "&&", LHS: ast.NewBool(ast.Loc{}, true), RHS: ast.NewBool(ast.Loc{}, false)}
	info, err := cg.GenMethodIseq("<main>", nil, binop)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(info.ISeq.Disassemble(), "JMP_IF_FALSE"))
}
