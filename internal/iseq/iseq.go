// Package iseq defines marble's bytecode format: the opcode set, operand
// encoding, and the mutable-then-frozen instruction buffer produced by
// internal/codegen and walked by internal/vm.
//
// Architecture (adapted from smog's pkg/bytecode, generalized from
// smog's fixed-width {Opcode, int} instruction slice to a flat byte
// buffer so that operand widths can vary by opcode, per spec.md §4.4/§4.6):
//
//  1. An ISeq is a flat byte sequence: one opcode byte followed by a
//     fixed-width, opcode-specific operand block.
//  2. All multi-byte operands are big-endian (spec.md §6).
//  3. Jump displacements are signed 32-bit relative offsets measured from
//     the byte immediately after the 4-byte displacement operand, so a
//     displacement of 0 leaves the PC unchanged (spec.md §6).
//  4. An ISeq is mutable during code generation (codegen appends
//     instructions and patches pending jump displacements) and is treated
//     as frozen and shared-by-reference once installed into a MethodInfo.
package iseq

// Op is a single bytecode opcode.
type Op byte

const (
	// Singletons — no operand.
	OpPushNil Op = iota
	OpPushTrue
	OpPushFalse
	OpPushSelf

	// Immediates.
	OpPushFixnum // i64
	OpPushFlonum // f64 bits
	OpPushString // IdentId
	OpPushSymbol // IdentId

	// Arithmetic / bitwise — no operand, pop rhs then lhs.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpShr
	OpShl
	OpBitOr
	OpBitAnd
	OpBitXor

	// Comparison — no operand, pop rhs then lhs. LE/LT are never emitted;
	// codegen swaps operand order and emits GE/GT instead (spec.md §4.5).
	OpEq
	OpNe
	OpGe
	OpGt

	// String building.
	OpConcatString // u32 n: pop n values, push concatenated string
	OpToS          // no operand: pop one value, push its string form

	// Aggregates.
	OpCreateArray    // u32 len
	OpGetArrayElem   // u32 nargs
	OpSetArrayElem   // u32 nargs
	OpCreateRange    // no operand: pop exclFlag, pop end, pop start, push range

	// Variables.
	OpGetLocal // u32 slot
	OpSetLocal // u32 slot

	// Constants / globals.
	OpGetConst // IdentId
	OpSetConst // IdentId

	// Instance variables.
	OpGetInstanceVar // IdentId
	OpSetInstanceVar // IdentId

	// Message send.
	OpSend      // IdentId method, u32 argc
	OpSuperSend // IdentId method, u32 argc

	// Control flow.
	OpJmp         // i32 disp
	OpJmpIfFalse  // i32 disp

	// Stack shuffling.
	OpDup // u32 n
	OpPop // no operand

	// Definitions.
	OpDefMethod      // IdentId, MethodRef
	OpDefClassMethod // IdentId, MethodRef
	OpDefClass       // IdentId, MethodRef

	// Frame exit.
	OpEnd // no operand: return top of stack from current frame
)

var opNames = map[Op]string{
	OpPushNil: "PUSH_NIL", OpPushTrue: "PUSH_TRUE", OpPushFalse: "PUSH_FALSE",
	OpPushSelf: "PUSH_SELF", OpPushFixnum: "PUSH_FIXNUM", OpPushFlonum: "PUSH_FLONUM",
	OpPushString: "PUSH_STRING", OpPushSymbol: "PUSH_SYMBOL",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV",
	OpShr: "SHR", OpShl: "SHL", OpBitOr: "BIT_OR", OpBitAnd: "BIT_AND", OpBitXor: "BIT_XOR",
	OpEq: "EQ", OpNe: "NE", OpGe: "GE", OpGt: "GT",
	OpConcatString: "CONCAT_STRING", OpToS: "TO_S",
	OpCreateArray: "CREATE_ARRAY", OpGetArrayElem: "GET_ARRAY_ELEM", OpSetArrayElem: "SET_ARRAY_ELEM",
	OpCreateRange: "CREATE_RANGE",
	OpGetLocal:    "GET_LOCAL", OpSetLocal: "SET_LOCAL",
	OpGetConst: "GET_CONST", OpSetConst: "SET_CONST",
	OpGetInstanceVar: "GET_INSTANCE_VAR", OpSetInstanceVar: "SET_INSTANCE_VAR",
	OpSend: "SEND", OpSuperSend: "SUPER_SEND",
	OpJmp: "JMP", OpJmpIfFalse: "JMP_IF_FALSE",
	OpDup: "DUP", OpPop: "POP",
	OpDefMethod: "DEF_METHOD", OpDefClassMethod: "DEF_CLASS_METHOD", OpDefClass: "DEF_CLASS",
	OpEnd: "END",
}

// String renders op's mnemonic, for disassembly and error messages.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// OperandWidth returns the number of operand bytes that follow op's
// opcode byte. Variable-width opcodes (none currently) would return -1;
// every opcode in this set has a fixed width.
func OperandWidth(op Op) int {
	switch op {
	case OpPushNil, OpPushTrue, OpPushFalse, OpPushSelf,
		OpAdd, OpSub, OpMul, OpDiv, OpShr, OpShl, OpBitOr, OpBitAnd, OpBitXor,
		OpEq, OpNe, OpGe, OpGt, OpToS, OpCreateRange, OpPop, OpEnd:
		return 0
	case OpPushFixnum, OpPushFlonum:
		return 8
	case OpPushString, OpPushSymbol, OpGetConst, OpSetConst,
		OpGetInstanceVar, OpSetInstanceVar:
		return 4 // IdentId
	case OpConcatString, OpCreateArray, OpGetArrayElem, OpSetArrayElem,
		OpGetLocal, OpSetLocal, OpDup:
		return 4 // u32
	case OpSend, OpSuperSend:
		return 8 // IdentId (4) + u32 argc (4)
	case OpJmp, OpJmpIfFalse:
		return 4 // i32 disp
	case OpDefMethod, OpDefClassMethod, OpDefClass:
		return 8 // IdentId (4) + MethodRef (4)
	default:
		return 0
	}
}
