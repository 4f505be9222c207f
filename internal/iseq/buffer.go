package iseq

import "encoding/binary"

// Pos is a byte offset into an ISeq's buffer: the position of an opcode
// byte, or (for patch bookkeeping) the position of a pending operand.
type Pos int

// ISeq is the mutable-during-generation, frozen-after-registration
// instruction buffer for one method or block body.
type ISeq struct {
	code []byte
}

// New returns an empty ISeq ready for code generation.
func New() *ISeq {
	return &ISeq{}
}

// Len reports the current size of the buffer in bytes.
func (s *ISeq) Len() int { return len(s.code) }

// Bytes exposes the underlying buffer, read-only by convention — callers
// in internal/vm treat it as frozen once the owning MethodInfo has been
// registered with internal/globals.
func (s *ISeq) Bytes() []byte { return s.code }

// emitOp appends op's opcode byte and returns the position it was
// written at.
func (s *ISeq) emitOp(op Op) Pos {
	pos := Pos(len(s.code))
	s.code = append(s.code, byte(op))
	return pos
}

func (s *ISeq) emitU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	s.code = append(s.code, buf[:]...)
}

func (s *ISeq) emitI32(v int32) {
	s.emitU32(uint32(v))
}

func (s *ISeq) emitU64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	s.code = append(s.code, buf[:]...)
}

// EmitSimple emits a zero-operand opcode (PUSH_NIL, POP, END, arithmetic
// and comparison ops, ...).
func (s *ISeq) EmitSimple(op Op) Pos {
	return s.emitOp(op)
}

// EmitFixnum emits PUSH_FIXNUM with an immediate i64 operand.
func (s *ISeq) EmitFixnum(v int64) Pos {
	pos := s.emitOp(OpPushFixnum)
	s.emitU64(uint64(v))
	return pos
}

// EmitFlonum emits PUSH_FLONUM with an immediate f64-bits operand.
func (s *ISeq) EmitFlonum(bits uint64) Pos {
	pos := s.emitOp(OpPushFlonum)
	s.emitU64(bits)
	return pos
}

// EmitIdent emits an opcode whose sole operand is an IdentId (PUSH_STRING,
// PUSH_SYMBOL, GET_CONST, SET_CONST, GET_INSTANCE_VAR, SET_INSTANCE_VAR).
func (s *ISeq) EmitIdent(op Op, id uint32) Pos {
	pos := s.emitOp(op)
	s.emitU32(id)
	return pos
}

// EmitU32 emits an opcode whose sole operand is a plain u32 count/index
// (CONCAT_STRING, CREATE_ARRAY, GET_ARRAY_ELEM, SET_ARRAY_ELEM, GET_LOCAL,
// SET_LOCAL, DUP).
func (s *ISeq) EmitU32(op Op, n uint32) Pos {
	pos := s.emitOp(op)
	s.emitU32(n)
	return pos
}

// EmitSend emits SEND or SUPER_SEND with a method IdentId and argument
// count.
func (s *ISeq) EmitSend(op Op, method uint32, argc uint32) Pos {
	pos := s.emitOp(op)
	s.emitU32(method)
	s.emitU32(argc)
	return pos
}

// EmitDef emits DEF_METHOD / DEF_CLASS_METHOD / DEF_CLASS with a name
// IdentId and a registered MethodRef (itself represented as a uint32
// handle — see internal/globals.MethodRef).
func (s *ISeq) EmitDef(op Op, name uint32, methodRef uint32) Pos {
	pos := s.emitOp(op)
	s.emitU32(name)
	s.emitU32(methodRef)
	return pos
}

// EmitJump emits JMP or JMP_IF_FALSE with a placeholder zero displacement
// and returns the position of the opcode byte; the displacement itself
// begins at pos+1. Callers patch the real displacement later with
// PatchJump once the jump target is known (spec.md §9's deferred-patch
// discipline).
func (s *ISeq) EmitJump(op Op) Pos {
	pos := s.emitOp(op)
	s.emitI32(0)
	return pos
}

// PatchJump overwrites the displacement operand of the jump instruction
// at jumpPos (as returned by EmitJump) so that it lands at target. The
// displacement is measured from the byte immediately after the 4-byte
// operand, per spec.md §6.
func (s *ISeq) PatchJump(jumpPos Pos, target Pos) {
	operandPos := int(jumpPos) + 1
	afterOperand := operandPos + 4
	disp := int32(int(target) - afterOperand)
	binary.BigEndian.PutUint32(s.code[operandPos:operandPos+4], uint32(disp))
}

// Here returns the position the next instruction will be emitted at —
// the natural label value for a forward or backward jump target.
func (s *ISeq) Here() Pos {
	return Pos(len(s.code))
}

// ReadOp decodes the opcode at pos.
func (s *ISeq) ReadOp(pos Pos) Op {
	return Op(s.code[pos])
}

// ReadU32 decodes a big-endian u32 operand starting at pos.
func (s *ISeq) ReadU32(pos Pos) uint32 {
	return binary.BigEndian.Uint32(s.code[pos : pos+4])
}

// ReadI32 decodes a big-endian signed i32 operand starting at pos.
func (s *ISeq) ReadI32(pos Pos) int32 {
	return int32(s.ReadU32(pos))
}

// ReadU64 decodes a big-endian u64 operand starting at pos.
func (s *ISeq) ReadU64(pos Pos) uint64 {
	return binary.BigEndian.Uint64(s.code[pos : pos+8])
}

// Next returns the position immediately following the instruction at pos,
// using op's fixed operand width.
func Next(pos Pos, op Op) Pos {
	return pos + 1 + Pos(OperandWidth(op))
}
