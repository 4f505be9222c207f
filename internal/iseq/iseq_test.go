package iseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitFixnumAndDisassemble(t *testing.T) {
	s := New()
	s.EmitFixnum(42)
	s.EmitSimple(OpEnd)

	assert.Equal(t, OpPushFixnum, s.ReadOp(0))
	assert.Equal(t, int64(42), int64(s.ReadU64(1)))
	assert.Equal(t, OpEnd, s.ReadOp(9))

	out := s.Disassemble()
	assert.Contains(t, out, "PUSH_FIXNUM")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "END")
}

func TestJumpPatchZeroDisplacementLeavesPCUnchanged(t *testing.T) {
	s := New()
	jmp := s.EmitJump(OpJmp)
	target := s.Here()
	s.PatchJump(jmp, target)

	disp := s.ReadI32(jmp + 1)
	assert.Equal(t, int32(0), disp)
}

func TestJumpPatchForwardDisplacement(t *testing.T) {
	s := New()
	jmp := s.EmitJump(OpJmpIfFalse)
	s.EmitSimple(OpPushNil)
	target := s.Here()
	s.PatchJump(jmp, target)

	operandEnd := int(jmp) + 1 + 4
	disp := s.ReadI32(jmp + 1)
	assert.Equal(t, int32(int(target)-operandEnd), disp)
	assert.Equal(t, target, Pos(operandEnd)+Pos(disp))
}

func TestOperandWidths(t *testing.T) {
	assert.Equal(t, 0, OperandWidth(OpEnd))
	assert.Equal(t, 8, OperandWidth(OpPushFixnum))
	assert.Equal(t, 4, OperandWidth(OpGetLocal))
	assert.Equal(t, 8, OperandWidth(OpSend))
}

func TestNextAdvancesByOpcodePlusOperand(t *testing.T) {
	s := New()
	pos := s.EmitU32(OpGetLocal, 3)
	next := Next(pos, OpGetLocal)
	assert.Equal(t, Pos(int(pos)+1+4), next)
}
