package iseq

import (
	"fmt"
	"strings"
)

// Disassemble renders an ISeq as a human-readable listing, one
// instruction per line prefixed with its byte offset. This backs the
// `marble disasm` CLI subcommand (mirroring smog's bytecode disassembler
// convention of printing mnemonics instead of raw opcode numbers).
func (s *ISeq) Disassemble() string {
	var b strings.Builder
	pos := Pos(0)
	for int(pos) < len(s.code) {
		op := s.ReadOp(pos)
		width := OperandWidth(op)
		fmt.Fprintf(&b, "%6d  %-16s", pos, op)
		operandPos := pos + 1
		switch op {
		case OpPushFixnum:
			fmt.Fprintf(&b, "%d", int64(s.ReadU64(operandPos)))
		case OpPushFlonum:
			fmt.Fprintf(&b, "bits=0x%x", s.ReadU64(operandPos))
		case OpPushString, OpPushSymbol, OpGetConst, OpSetConst,
			OpGetInstanceVar, OpSetInstanceVar:
			fmt.Fprintf(&b, "ident=%d", s.ReadU32(operandPos))
		case OpConcatString, OpCreateArray, OpGetArrayElem, OpSetArrayElem,
			OpGetLocal, OpSetLocal, OpDup:
			fmt.Fprintf(&b, "%d", s.ReadU32(operandPos))
		case OpSend, OpSuperSend:
			method := s.ReadU32(operandPos)
			argc := s.ReadU32(operandPos + 4)
			fmt.Fprintf(&b, "ident=%d argc=%d", method, argc)
		case OpJmp, OpJmpIfFalse:
			disp := s.ReadI32(operandPos)
			fmt.Fprintf(&b, "%+d -> %d", disp, int(operandPos)+4+int(disp))
		case OpDefMethod, OpDefClassMethod, OpDefClass:
			name := s.ReadU32(operandPos)
			ref := s.ReadU32(operandPos + 4)
			fmt.Fprintf(&b, "ident=%d ref=%d", name, ref)
		}
		b.WriteByte('\n')
		pos += 1 + Pos(width)
	}
	return b.String()
}
