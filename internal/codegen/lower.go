package codegen

import (
	"math"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/iseq"
)

func toLoc(l ast.Loc) errs.Loc { return errs.Loc{Start: l.Start, End: l.End} }

// genStmt lowers a node used in statement position: it is responsible
// for the CompStmt "exactly one value remains" discipline (spec.md §4.5
// rule: "between children emit POP so exactly one value remains on the
// stack at block end; an empty block emits PUSH_NIL"). Every other node
// kind behaves the same as in expression position.
func (cg *Codegen) genStmt(n ast.Node) error {
	if cs, ok := n.(*ast.CompStmt); ok {
		if len(cs.Items) == 0 {
			cg.cur().seq.EmitSimple(iseq.OpPushNil)
			return nil
		}
		for i, item := range cs.Items {
			if i > 0 {
				cg.cur().seq.EmitSimple(iseq.OpPop)
			}
			if err := cg.genExpr(item); err != nil {
				return err
			}
		}
		return nil
	}
	return cg.genExpr(n)
}

// genExpr lowers n in expression position, leaving exactly one Value on
// the operand stack.
func (cg *Codegen) genExpr(n ast.Node) error {
	ctx := cg.cur()
	seq := ctx.seq

	switch node := n.(type) {
	case *ast.Nil:
		ctx.note(ast.Locate(node))
		seq.EmitSimple(iseq.OpPushNil)
		return nil

	case *ast.Bool:
		if node.Value {
			seq.EmitSimple(iseq.OpPushTrue)
		} else {
			seq.EmitSimple(iseq.OpPushFalse)
		}
		return nil

	case *ast.Number:
		seq.EmitFixnum(node.Value)
		return nil

	case *ast.Float:
		seq.EmitFlonum(math.Float64bits(node.Value))
		return nil

	case *ast.String:
		id := cg.g.Intern(node.Text)
		seq.EmitIdent(iseq.OpPushString, uint32(id))
		return nil

	case *ast.Symbol:
		seq.EmitIdent(iseq.OpPushSymbol, node.Ident)
		return nil

	case *ast.InterpolatedString:
		return cg.genInterpolatedString(node)

	case *ast.SelfValue:
		seq.EmitSimple(iseq.OpPushSelf)
		return nil

	case *ast.Range:
		if err := cg.genExpr(node.StartNode); err != nil {
			return err
		}
		if err := cg.genExpr(node.EndNode); err != nil {
			return err
		}
		if node.Exclusive {
			seq.EmitSimple(iseq.OpPushTrue)
		} else {
			seq.EmitSimple(iseq.OpPushFalse)
		}
		seq.EmitSimple(iseq.OpCreateRange)
		return nil

	case *ast.Array:
		for _, item := range node.Items {
			if err := cg.genExpr(item); err != nil {
				return err
			}
		}
		seq.EmitU32(iseq.OpCreateArray, uint32(len(node.Items)))
		return nil

	case *ast.Ident:
		ctx.note(ast.Locate(node))
		slot, ok := ctx.lvars.lookup(ident.ID(node.Ident))
		if !ok {
			return errs.NewParseError(errs.NameError, toLoc(ast.Locate(node)), "undefined local variable")
		}
		seq.EmitU32(iseq.OpGetLocal, uint32(slot))
		return nil

	case *ast.Const:
		ctx.note(ast.Locate(node))
		seq.EmitIdent(iseq.OpGetConst, node.Ident)
		return nil

	case *ast.InstanceVar:
		ctx.note(ast.Locate(node))
		seq.EmitIdent(iseq.OpGetInstanceVar, node.Ident)
		return nil

	case *ast.BinOp:
		return cg.genBinOp(node)

	case *ast.ArrayMember:
		if err := cg.genExpr(node.ArrayNode); err != nil {
			return err
		}
		for _, idx := range node.Indices {
			if err := cg.genExpr(idx); err != nil {
				return err
			}
		}
		seq.EmitU32(iseq.OpGetArrayElem, uint32(len(node.Indices)))
		return nil

	case *ast.CompStmt:
		return cg.genStmt(node)

	case *ast.If:
		return cg.genIf(node)

	case *ast.For:
		return cg.genFor(node)

	case *ast.Assign:
		return cg.genAssign(node)

	case *ast.MulAssign:
		return cg.genMulAssign(node)

	case *ast.Send:
		return cg.genSend(node)

	case *ast.MethodDef:
		return cg.genMethodDef(node)

	case *ast.ClassMethodDef:
		return cg.genClassMethodDef(node)

	case *ast.ClassDef:
		return cg.genClassDef(node)

	case *ast.Break:
		return cg.genBreak(node)

	case *ast.Next:
		return cg.genNext(node)

	default:
		return errs.NewParseError(errs.SyntaxError, errs.Loc{}, "unsupported node kind %T", n)
	}
}

// genInterpolatedString lowers `"a#{b}c"`-shaped strings: each part is
// either a literal String node or an arbitrary expression; non-string
// parts are converted with TO_S, then all parts are joined with
// CONCAT_STRING (spec.md §4.4).
func (cg *Codegen) genInterpolatedString(node *ast.InterpolatedString) error {
	seq := cg.cur().seq
	for _, part := range node.Parts {
		if err := cg.genExpr(part); err != nil {
			return err
		}
		if _, isStr := part.(*ast.String); !isStr {
			seq.EmitSimple(iseq.OpToS)
		}
	}
	seq.EmitU32(iseq.OpConcatString, uint32(len(node.Parts)))
	return nil
}

var binOpDirect = map[string]iseq.Op{
	"+": iseq.OpAdd, "-": iseq.OpSub, "*": iseq.OpMul, "/": iseq.OpDiv,
	">>": iseq.OpShr, "<<": iseq.OpShl,
	"|": iseq.OpBitOr, "&": iseq.OpBitAnd, "^": iseq.OpBitXor,
	"==": iseq.OpEq, "!=": iseq.OpNe, ">=": iseq.OpGe, ">": iseq.OpGt,
}

// genBinOp lowers a binary operator node. Le/Lt are never emitted as
// opcodes: per spec.md §4.5 they are rewritten as Ge/Gt with the operand
// order swapped (`a <= b` becomes `b >= a`). `&&`/`||` lower separately
// via genAnd/genOr's short-circuit, boolean-normalizing scheme.
func (cg *Codegen) genBinOp(node *ast.BinOp) error {
	switch node.Op {
	case "&&":
		return cg.genAnd(node)
	case "||":
		return cg.genOr(node)
	case "<=":
		return cg.genSwappedCompare(node.RHS, node.LHS, iseq.OpGe)
	case "<":
		return cg.genSwappedCompare(node.RHS, node.LHS, iseq.OpGt)
	case "%":
		// `%` has no opcode: it is sent to the LHS as a one-argument
		// method call (String#%).
		method := uint32(cg.g.Intern("%"))
		return cg.genSend(ast.NewSend(ast.Locate(node), node.LHS, method, []ast.Node{node.RHS}))
	}
	op, ok := binOpDirect[node.Op]
	if !ok {
		return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(node)), "unknown operator %q", node.Op)
	}
	if err := cg.genExpr(node.LHS); err != nil {
		return err
	}
	if err := cg.genExpr(node.RHS); err != nil {
		return err
	}
	cg.cur().note(ast.Locate(node))
	cg.cur().seq.EmitSimple(op)
	return nil
}

func (cg *Codegen) genSwappedCompare(first, second ast.Node, op iseq.Op) error {
	if err := cg.genExpr(first); err != nil {
		return err
	}
	if err := cg.genExpr(second); err != nil {
		return err
	}
	cg.cur().seq.EmitSimple(op)
	return nil
}

// genAnd lowers `a && b` as: eval a; if false, skip to false-branch; eval
// b; if false, fall to false-branch; otherwise push true and jump past
// the false-branch. This normalizes the result to a boolean rather than
// preserving either operand's original value (spec.md §4.5's "explicit
// PUSH_FALSE/PUSH_TRUE fallthrough using two forward jumps").
func (cg *Codegen) genAnd(node *ast.BinOp) error {
	seq := cg.cur().seq
	if err := cg.genExpr(node.LHS); err != nil {
		return err
	}
	toFalse1 := seq.EmitJump(iseq.OpJmpIfFalse)
	if err := cg.genExpr(node.RHS); err != nil {
		return err
	}
	toFalse2 := seq.EmitJump(iseq.OpJmpIfFalse)
	seq.EmitSimple(iseq.OpPushTrue)
	toEnd := seq.EmitJump(iseq.OpJmp)
	falseLabel := seq.Here()
	seq.EmitSimple(iseq.OpPushFalse)
	endLabel := seq.Here()
	seq.PatchJump(toFalse1, falseLabel)
	seq.PatchJump(toFalse2, falseLabel)
	seq.PatchJump(toEnd, endLabel)
	return nil
}

// genOr lowers `a || b` symmetrically to genAnd.
func (cg *Codegen) genOr(node *ast.BinOp) error {
	seq := cg.cur().seq
	if err := cg.genExpr(node.LHS); err != nil {
		return err
	}
	toRHS := seq.EmitJump(iseq.OpJmpIfFalse)
	seq.EmitSimple(iseq.OpPushTrue)
	toEnd1 := seq.EmitJump(iseq.OpJmp)
	rhsLabel := seq.Here()
	seq.PatchJump(toRHS, rhsLabel)
	if err := cg.genExpr(node.RHS); err != nil {
		return err
	}
	toFalse := seq.EmitJump(iseq.OpJmpIfFalse)
	seq.EmitSimple(iseq.OpPushTrue)
	toEnd2 := seq.EmitJump(iseq.OpJmp)
	falseLabel := seq.Here()
	seq.EmitSimple(iseq.OpPushFalse)
	endLabel := seq.Here()
	seq.PatchJump(toFalse, falseLabel)
	seq.PatchJump(toEnd1, endLabel)
	seq.PatchJump(toEnd2, endLabel)
	return nil
}

// genIf lowers `if cond then .. else .. end` per spec.md §4.5:
// cond, JMP_IF_FALSE->L1, then, JMP->L2, L1: else, L2:.
func (cg *Codegen) genIf(node *ast.If) error {
	seq := cg.cur().seq
	if err := cg.genExpr(node.Cond); err != nil {
		return err
	}
	toElse := seq.EmitJump(iseq.OpJmpIfFalse)
	if err := cg.genStmt(node.Then); err != nil {
		return err
	}
	toEnd := seq.EmitJump(iseq.OpJmp)
	elseLabel := seq.Here()
	seq.PatchJump(toElse, elseLabel)
	if node.Else != nil {
		if err := cg.genStmt(node.Else); err != nil {
			return err
		}
	} else {
		seq.EmitSimple(iseq.OpPushNil)
	}
	endLabel := seq.Here()
	seq.PatchJump(toEnd, endLabel)
	return nil
}

// genFor lowers `for id in range do body end` per spec.md §4.5: id is
// initialized to the range's start, the header compares id against the
// range's end (GE when the range is exclusive, GT otherwise — derived
// from spec.md §8 scenario 5, a non-exclusive `0..3` visiting 0..3
// inclusive, which requires GT as the exit test), the body runs, id is
// incremented, and control jumps back to the header. The loop's overall
// value is the range expression re-evaluated at exit (spec.md §9 Open
// Question 2, resolved bug-for-bug per SPEC_FULL.md).
func (cg *Codegen) genFor(node *ast.For) error {
	ctx := cg.cur()
	seq := ctx.seq
	slot, ok := ctx.lvars.lookup(ident.ID(node.Ident))
	if !ok {
		return errs.NewParseError(errs.NameError, toLoc(ast.Locate(node)), "for-loop variable not declared")
	}
	rng, ok := node.Range.(*ast.Range)
	if !ok {
		return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(node)), "for-loop requires a range expression")
	}

	if err := cg.genExpr(rng.StartNode); err != nil {
		return err
	}
	seq.EmitU32(iseq.OpSetLocal, uint32(slot))
	seq.EmitSimple(iseq.OpPop)

	cg.pushLoop()

	header := seq.Here()
	seq.EmitU32(iseq.OpGetLocal, uint32(slot))
	if err := cg.genExpr(rng.EndNode); err != nil {
		return err
	}
	if rng.Exclusive {
		seq.EmitSimple(iseq.OpGe)
	} else {
		seq.EmitSimple(iseq.OpGt)
	}
	// Top of stack is now true iff the loop should exit. JMP_IF_FALSE
	// branches to the body when the exit test is false (continue);
	// otherwise control falls through to the unconditional jump to exit.
	toBody := seq.EmitJump(iseq.OpJmpIfFalse)
	exitJump := seq.EmitJump(iseq.OpJmp)
	bodyLabel := seq.Here()
	seq.PatchJump(toBody, bodyLabel)

	if err := cg.genStmt(node.Body); err != nil {
		return err
	}
	seq.EmitSimple(iseq.OpPop)

	incr := seq.Here()
	seq.EmitU32(iseq.OpGetLocal, uint32(slot))
	seq.EmitFixnum(1)
	seq.EmitSimple(iseq.OpAdd)
	seq.EmitU32(iseq.OpSetLocal, uint32(slot))
	seq.EmitSimple(iseq.OpPop)
	backJump := seq.EmitJump(iseq.OpJmp)
	seq.PatchJump(backJump, header)

	exit := seq.Here()
	seq.PatchJump(exitJump, exit)

	lf := cg.popLoop()
	for _, esc := range lf.escapes {
		switch esc.kind {
		case escapeBreak:
			seq.PatchJump(esc.pos, exit)
		case escapeNext:
			seq.PatchJump(esc.pos, incr)
		}
	}

	// Loop result: the range expression re-evaluated.
	if err := cg.genExpr(rng.StartNode); err != nil {
		return err
	}
	if err := cg.genExpr(rng.EndNode); err != nil {
		return err
	}
	if rng.Exclusive {
		seq.EmitSimple(iseq.OpPushTrue)
	} else {
		seq.EmitSimple(iseq.OpPushFalse)
	}
	seq.EmitSimple(iseq.OpCreateRange)
	return nil
}

func (cg *Codegen) genBreak(node *ast.Break) error {
	lf, ok := cg.curLoop()
	if !ok {
		return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(node)), "break outside of a loop")
	}
	seq := cg.cur().seq
	pos := seq.EmitJump(iseq.OpJmp)
	lf.escapes = append(lf.escapes, pendingEscape{pos: pos, kind: escapeBreak})
	return nil
}

func (cg *Codegen) genNext(node *ast.Next) error {
	lf, ok := cg.curLoop()
	if !ok {
		return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(node)), "next outside of a loop")
	}
	seq := cg.cur().seq
	pos := seq.EmitJump(iseq.OpJmp)
	lf.escapes = append(lf.escapes, pendingEscape{pos: pos, kind: escapeNext})
	return nil
}

// genAssign lowers `lhs = rhs`: rhs is evaluated first, then dispatched
// on the shape of lhs (spec.md §4.5).
func (cg *Codegen) genAssign(node *ast.Assign) error {
	seq := cg.cur().seq
	if err := cg.genExpr(node.RHS); err != nil {
		return err
	}
	switch lhs := node.LHS.(type) {
	case *ast.Ident:
		slot, ok := cg.cur().lvars.lookup(ident.ID(lhs.Ident))
		if !ok {
			return errs.NewParseError(errs.NameError, toLoc(ast.Locate(lhs)), "undefined local variable")
		}
		seq.EmitU32(iseq.OpSetLocal, uint32(slot))
		return nil
	case *ast.Const:
		seq.EmitIdent(iseq.OpSetConst, lhs.Ident)
		return nil
	case *ast.InstanceVar:
		seq.EmitIdent(iseq.OpSetInstanceVar, lhs.Ident)
		return nil
	case *ast.Send:
		// `recv.attr = rhs` lowers to `recv.attr=(rhs)`: the assigned
		// value is already on the stack from RHS above; now push recv and
		// SEND the setter selector with argc=1.
		if err := cg.genExpr(lhs.Recv); err != nil {
			return err
		}
		setter := cg.g.Intern(cg.g.Name(ident.ID(lhs.Method)) + "=")
		seq.EmitSend(iseq.OpSend, uint32(setter), 1)
		return nil
	case *ast.ArrayMember:
		if err := cg.genExpr(lhs.ArrayNode); err != nil {
			return err
		}
		for _, idx := range lhs.Indices {
			if err := cg.genExpr(idx); err != nil {
				return err
			}
		}
		seq.EmitU32(iseq.OpSetArrayElem, uint32(len(lhs.Indices)))
		return nil
	default:
		return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(node)), "invalid assignment target")
	}
}

// genMulAssign lowers `lhs1, lhs2 = rhs1, rhs2, ...` per spec.md §4.5:
// all RHS values are evaluated, the top rhs_len values are duplicated,
// padded with nil or truncated to match lhs_len, then assigned in
// reverse order (so DUP's top-of-stack order matches LHS left-to-right
// once popped one at a time). If rhs_len != 1, the expression's own
// value is the RHS values repacked as an array.
func (cg *Codegen) genMulAssign(node *ast.MulAssign) error {
	seq := cg.cur().seq
	for _, rhs := range node.RHSList {
		if err := cg.genExpr(rhs); err != nil {
			return err
		}
	}
	rhsLen := len(node.RHSList)
	lhsLen := len(node.LHSList)

	seq.EmitU32(iseq.OpDup, uint32(rhsLen))
	for i := rhsLen; i < lhsLen; i++ {
		seq.EmitSimple(iseq.OpPushNil)
	}
	for i := lhsLen; i < rhsLen; i++ {
		seq.EmitSimple(iseq.OpPop)
	}

	// Assign each LHS target, right to left, popping one value at a time
	// (the values are in source order on the stack; popping from the top
	// consumes the rightmost first, so we walk LHS in reverse).
	for i := lhsLen - 1; i >= 0; i-- {
		switch lhs := node.LHSList[i].(type) {
		case *ast.Ident:
			slot, ok := cg.cur().lvars.lookup(ident.ID(lhs.Ident))
			if !ok {
				return errs.NewParseError(errs.NameError, toLoc(ast.Locate(lhs)), "undefined local variable")
			}
			seq.EmitU32(iseq.OpSetLocal, uint32(slot))
			seq.EmitSimple(iseq.OpPop)
		case *ast.Const:
			seq.EmitIdent(iseq.OpSetConst, lhs.Ident)
			seq.EmitSimple(iseq.OpPop)
		case *ast.InstanceVar:
			seq.EmitIdent(iseq.OpSetInstanceVar, lhs.Ident)
			seq.EmitSimple(iseq.OpPop)
		default:
			return errs.NewParseError(errs.SyntaxError, toLoc(ast.Locate(lhs)), "invalid multi-assignment target")
		}
	}

	if rhsLen != 1 {
		seq.EmitU32(iseq.OpCreateArray, uint32(rhsLen))
	}
	return nil
}

// genSend lowers `recv.method(args...)`: args are pushed in source
// order, then the receiver is pushed last so it is on top at SEND
// (spec.md §4.5/§4.4). An implicit-self call (Recv == nil) pushes
// PUSH_SELF as the receiver.
func (cg *Codegen) genSend(node *ast.Send) error {
	seq := cg.cur().seq
	for _, arg := range node.Args {
		if err := cg.genExpr(arg); err != nil {
			return err
		}
	}
	if node.Recv != nil {
		if err := cg.genExpr(node.Recv); err != nil {
			return err
		}
	} else {
		seq.EmitSimple(iseq.OpPushSelf)
	}
	cg.cur().note(ast.Locate(node))
	seq.EmitSend(iseq.OpSend, node.Method, uint32(len(node.Args)))
	return nil
}

// genMethodDef lowers `def name(params) body end`: the body is generated
// recursively into its own context and registered; DEF_METHOD is emitted
// in the enclosing context with the new MethodRef (spec.md §4.5).
func (cg *Codegen) genMethodDef(node *ast.MethodDef) error {
	name := cg.g.Name(ident.ID(node.Name))
	info, err := cg.GenMethodIseq(name, node.Params, node.Body)
	if err != nil {
		return err
	}
	ref := cg.g.AddMethod(info)
	cg.cur().seq.EmitDef(iseq.OpDefMethod, node.Name, uint32(ref))
	return nil
}

// genClassMethodDef lowers `def self.name(params) body end` identically
// to genMethodDef but emits DEF_CLASS_METHOD, so internal/vm installs
// the method into the enclosing class's singleton table instead of its
// instance table.
func (cg *Codegen) genClassMethodDef(node *ast.ClassMethodDef) error {
	name := cg.g.Name(ident.ID(node.Name))
	info, err := cg.GenMethodIseq(name, node.Params, node.Body)
	if err != nil {
		return err
	}
	ref := cg.g.AddMethod(info)
	cg.cur().seq.EmitDef(iseq.OpDefClassMethod, node.Name, uint32(ref))
	return nil
}

// genClassDef lowers `class Name [< Super] body end`: the body is
// generated into its own fresh context (its own lvar scope, own ISeq) and
// registered as a synthetic no-parameter RubyFunc tagged with the
// superclass identifier; DEF_CLASS is emitted in the enclosing context.
// At execution time internal/vm runs that synthetic method's ISeq with
// self bound to the class being defined, so nested DEF_METHOD/
// DEF_CLASS_METHOD opcodes inside install directly onto it (spec.md
// §4.5: "recursively generate the body into its own context, register
// the result, and emit the matching DEF_ opcode with the new MethodRef").
func (cg *Codegen) genClassDef(node *ast.ClassDef) error {
	name := cg.g.Name(ident.ID(node.Name))
	info, err := cg.GenMethodIseq(name, nil, node.Body)
	if err != nil {
		return err
	}
	info.ClassSuper = ident.ID(node.Super)
	ref := cg.g.AddMethod(info)
	cg.cur().seq.EmitDef(iseq.OpDefClass, node.Name, uint32(ref))
	return nil
}
