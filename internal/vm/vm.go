// Package vm implements marble's interpreter: the operand stack, the
// call-frame stack, the opcode dispatch loop, and message-send
// resolution (spec.md §4.6).
//
// Execution model, following smog's pkg/vm/vm.go in spirit (a stack
// machine with an instruction pointer walked in a single dispatch loop)
// but replacing smog's "send() primitives handle everything, method
// tables are an afterthought" design with spec.md's class/instance
// method-table-first resolution: every SEND walks the receiver's class
// hierarchy through internal/globals, falling back to a registered
// BuiltinFunc only because that is how built-in classes' own methods are
// implemented, not as a bypass of dispatch.
package vm

import (
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/iseq"
	"github.com/marble-lang/marble/internal/value"
)

// frame is one call-frame activation record (spec.md §4.6: "{ iseq, pc,
// base, self, locals }"). Locals are kept in their own per-frame slice
// rather than inline on the shared operand stack at a `base` offset —
// an equivalent, simpler rendition in Go that sidesteps base-offset
// arithmetic entirely while preserving the same externally observable
// semantics the spec describes.
type frame struct {
	method  *globals.MethodInfo
	pc      int
	self    value.Value
	locals  []value.Value
	definee *value.Class // class currently being defined; nil means top-level (Object)
}

// VM is marble's single-threaded interpreter (spec.md §5: no suspension
// points, no scheduler; Globals is the only state shared across runs).
type VM struct {
	g      *globals.Globals
	stack  []value.Value
	frames []*frame
	out    io.Writer
	log    *zap.Logger
}

// New returns a VM bound to g, writing `puts`/`print` output to stdout.
// A nil logger becomes a no-op logger.
func New(g *globals.Globals, log *zap.Logger) *VM {
	if log == nil {
		log = zap.NewNop()
	}
	return &VM{g: g, out: os.Stdout, log: log}
}

// SetOutput redirects puts/print output away from stdout to w.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// WriteOutput writes s to the VM's configured output sink, used by
// internal/builtin's puts/print/p implementations.
func (vm *VM) WriteOutput(s string) { _, _ = io.WriteString(vm.out, s) }

// Dispatch exposes send resolution to internal/builtin, so Enumerator and
// other builtins can re-invoke a captured or derived method call without
// reaching into unexported VM internals.
func (vm *VM) Dispatch(recv value.Value, method ident.ID, args []value.Value) (value.Value, error) {
	var caller *frame
	if len(vm.frames) > 0 {
		caller = vm.curFrame()
	}
	return vm.dispatch(recv, method, args, false, caller)
}

// RuntimeErr exposes runtimeErr to internal/builtin so native methods can
// raise marble-shaped RuntimeErrors (with call-frame trace attached)
// instead of plain Go errors.
func (vm *VM) RuntimeErr(kind errs.RuntimeKind, format string, args ...interface{}) error {
	return vm.runtimeErr(kind, format, args...)
}

// Globals exposes the bound Globals, for internal/builtin's native
// methods to reach class/constant registration.
func (vm *VM) Globals() *globals.Globals { return vm.g }

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) popN(n int) []value.Value {
	start := len(vm.stack) - n
	out := make([]value.Value, n)
	copy(out, vm.stack[start:])
	vm.stack = vm.stack[:start]
	return out
}

// StackTop returns the current top-of-stack value without popping it,
// mirroring smog's StackTop() convenience used by tests to inspect a
// program's final result.
func (vm *VM) StackTop() value.Value {
	if len(vm.stack) == 0 {
		return value.Nil
	}
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) curFrame() *frame { return vm.frames[len(vm.frames)-1] }

// trace assembles the call-frame trace for a RuntimeError, in the same
// top-down-at-render-time order smog's errors.go builds from
// []StackFrame (spec.md §7: "an error unwinds all active frames").
func (vm *VM) trace() []errs.Frame {
	out := make([]errs.Frame, len(vm.frames))
	for i, f := range vm.frames {
		loc := errs.Loc{}
		for _, sm := range f.method.SourceMap {
			if sm.PC > f.pc {
				break
			}
			loc = errs.Loc{Start: sm.Loc[0], End: sm.Loc[1]}
		}
		out[i] = errs.Frame{Method: f.method.Name, PC: f.pc, Loc: loc}
	}
	return out
}

func (vm *VM) runtimeErr(kind errs.RuntimeKind, format string, args ...interface{}) error {
	loc := errs.Loc{}
	if len(vm.frames) > 0 {
		f := vm.curFrame()
		for _, sm := range f.method.SourceMap {
			if sm.PC > f.pc {
				break
			}
			loc = errs.Loc{Start: sm.Loc[0], End: sm.Loc[1]}
		}
	}
	return errs.NewRuntimeError(kind, loc, vm.trace(), format, args...)
}

// Eval runs method as the top-level program entry point, with self bound
// to the Object class (marble has no separate "main" object; top-level
// code executes with self == Object, matching Ruby's main-object-is-an-
// instance-of-Object convention closely enough for this subset).
func (vm *VM) Eval(method *globals.MethodInfo) (value.Value, error) {
	self := value.Heap(vm.g.Builtins.Object)
	return vm.Call(method, self, nil, nil)
}

// Call pushes a new frame for method, executes it to END, and returns
// the top of the operand stack (spec.md §4.6's RubyFunc calling
// convention). definee is the class new DEF_METHOD/DEF_CLASS_METHOD/
// DEF_CLASS opcodes inside method should install into; nil means
// top-level (installs onto Object).
func (vm *VM) Call(method *globals.MethodInfo, self value.Value, args []value.Value, definee *value.Class) (value.Value, error) {
	locals := make([]value.Value, method.Lvars)
	for i := range locals {
		locals[i] = value.Nil
	}
	for i := 0; i < len(args) && i < len(method.Params); i++ {
		locals[i] = args[i]
	}
	if definee == nil {
		definee = vm.g.Builtins.Object
	}
	f := &frame{method: method, self: self, locals: locals, definee: definee}
	vm.frames = append(vm.frames, f)
	defer func() {
		vm.frames = vm.frames[:len(vm.frames)-1]
	}()

	result, err := vm.run(f)
	if err != nil {
		return value.Nil, err
	}
	return result, nil
}

// run executes f's ISeq from pc=0 to the END opcode, returning the final
// operand-stack value.
func (vm *VM) run(f *frame) (value.Value, error) {
	seq := f.method.ISeq
	code := seq.Bytes()
	stackBase := len(vm.stack)

	for f.pc < len(code) {
		op := seq.ReadOp(iseq.Pos(f.pc))
		operandPos := iseq.Pos(f.pc + 1)

		switch op {
		case iseq.OpPushNil:
			vm.push(value.Nil)
		case iseq.OpPushTrue:
			vm.push(value.True)
		case iseq.OpPushFalse:
			vm.push(value.False)
		case iseq.OpPushSelf:
			vm.push(f.self)

		case iseq.OpPushFixnum:
			vm.push(value.Fixnum(int64(seq.ReadU64(operandPos))))
		case iseq.OpPushFlonum:
			bits := seq.ReadU64(operandPos)
			vm.push(value.Flonum(math.Float64frombits(bits)))
		case iseq.OpPushString:
			id := ident.ID(seq.ReadU32(operandPos))
			vm.push(value.Heap(value.NewString(vm.g.Name(id))))
		case iseq.OpPushSymbol:
			id := seq.ReadU32(operandPos)
			vm.push(value.Symbol(id))

		case iseq.OpAdd, iseq.OpSub, iseq.OpMul, iseq.OpDiv,
			iseq.OpShr, iseq.OpShl, iseq.OpBitOr, iseq.OpBitAnd, iseq.OpBitXor:
			rhs := vm.pop()
			lhs := vm.pop()
			res, err := vm.arith(op, lhs, rhs)
			if err != nil {
				return value.Nil, err
			}
			vm.push(res)

		case iseq.OpEq, iseq.OpNe, iseq.OpGe, iseq.OpGt:
			rhs := vm.pop()
			lhs := vm.pop()
			res, err := vm.compare(op, lhs, rhs)
			if err != nil {
				return value.Nil, err
			}
			vm.push(value.Bool(res))

		case iseq.OpConcatString:
			n := seq.ReadU32(operandPos)
			parts := vm.popN(int(n))
			var sb []byte
			for _, p := range parts {
				sb = append(sb, value.ToDisplayString(p)...)
			}
			vm.push(value.Heap(value.NewString(string(sb))))

		case iseq.OpToS:
			v := vm.pop()
			vm.push(value.Heap(value.NewString(value.ToDisplayString(v))))

		case iseq.OpCreateArray:
			n := seq.ReadU32(operandPos)
			elems := vm.popN(int(n))
			vm.push(value.Heap(value.NewArray(elems)))

		case iseq.OpGetArrayElem:
			n := seq.ReadU32(operandPos)
			idxs := vm.popN(int(n))
			arr := vm.pop()
			res, err := vm.getArrayElem(arr, idxs)
			if err != nil {
				return value.Nil, err
			}
			vm.push(res)

		case iseq.OpSetArrayElem:
			n := seq.ReadU32(operandPos)
			idxs := vm.popN(int(n))
			arr := vm.pop()
			// The assigned value stays on the stack as the assignment's value.
			if err := vm.setArrayElem(arr, append(idxs, vm.StackTop())); err != nil {
				return value.Nil, err
			}

		case iseq.OpCreateRange:
			excl := vm.pop()
			end := vm.pop()
			start := vm.pop()
			vm.push(value.Heap(value.NewRange(start, end, excl.Truthy())))

		case iseq.OpGetLocal:
			slot := seq.ReadU32(operandPos)
			vm.push(f.locals[slot])
		case iseq.OpSetLocal:
			slot := seq.ReadU32(operandPos)
			v := vm.pop()
			f.locals[slot] = v
			vm.push(v)

		case iseq.OpGetConst:
			id := ident.ID(seq.ReadU32(operandPos))
			v, ok := vm.g.Constant(id)
			if !ok {
				return value.Nil, vm.runtimeErr(errs.RuntimeNameError, "uninitialized constant %s", vm.g.Name(id))
			}
			vm.push(v)
		case iseq.OpSetConst:
			id := ident.ID(seq.ReadU32(operandPos))
			v := vm.pop()
			vm.g.SetConstant(id, v)
			vm.push(v)

		case iseq.OpGetInstanceVar:
			id := ident.ID(seq.ReadU32(operandPos))
			vm.push(vm.getInstanceVar(f.self, id))
		case iseq.OpSetInstanceVar:
			id := ident.ID(seq.ReadU32(operandPos))
			v := vm.pop()
			if err := vm.setInstanceVar(f.self, id, v); err != nil {
				return value.Nil, err
			}
			vm.push(v)

		case iseq.OpSend, iseq.OpSuperSend:
			method := ident.ID(seq.ReadU32(operandPos))
			argc := seq.ReadU32(operandPos + 4)
			recv := vm.pop()
			args := vm.popN(int(argc))
			res, err := vm.dispatch(recv, method, args, op == iseq.OpSuperSend, f)
			if err != nil {
				return value.Nil, err
			}
			vm.push(res)

		case iseq.OpJmp:
			disp := seq.ReadI32(operandPos)
			f.pc = int(operandPos) + 4 + int(disp)
			continue
		case iseq.OpJmpIfFalse:
			disp := seq.ReadI32(operandPos)
			cond := vm.pop()
			if !cond.Truthy() {
				f.pc = int(operandPos) + 4 + int(disp)
				continue
			}

		case iseq.OpDup:
			n := int(seq.ReadU32(operandPos))
			top := vm.stack[len(vm.stack)-n:]
			dup := make([]value.Value, n)
			copy(dup, top)
			vm.stack = append(vm.stack, dup...)

		case iseq.OpPop:
			vm.pop()

		case iseq.OpDefMethod:
			name := ident.ID(seq.ReadU32(operandPos))
			ref := globals.MethodRef(seq.ReadU32(operandPos + 4))
			vm.g.AddInstanceMethod(f.definee, name, ref)
		case iseq.OpDefClassMethod:
			name := ident.ID(seq.ReadU32(operandPos))
			ref := globals.MethodRef(seq.ReadU32(operandPos + 4))
			vm.g.AddClassMethod(f.definee, name, ref)
		case iseq.OpDefClass:
			name := ident.ID(seq.ReadU32(operandPos))
			ref := globals.MethodRef(seq.ReadU32(operandPos + 4))
			if err := vm.defineClass(name, ref); err != nil {
				return value.Nil, err
			}

		case iseq.OpEnd:
			if len(vm.stack) <= stackBase {
				return value.Nil, nil
			}
			return vm.stack[len(vm.stack)-1], nil

		default:
			return value.Nil, vm.runtimeErr(errs.InternalError, "unknown opcode %v", op)
		}

		f.pc = int(operandPos) + iseq.OperandWidth(op)
	}
	if len(vm.stack) <= stackBase {
		return value.Nil, nil
	}
	return vm.stack[len(vm.stack)-1], nil
}

// defineClass implements the DEF_CLASS opcode: look up or create the
// named class (defaulting its superclass to Object when none was named),
// then run the class body's synthetic method with self bound to the
// class itself, so nested DEF_METHOD/DEF_CLASS_METHOD opcodes install
// directly onto it.
func (vm *VM) defineClass(name ident.ID, ref globals.MethodRef) error {
	info := vm.g.Method(ref)
	var super *value.Class
	if info.ClassSuper != 0 {
		s, ok := vm.g.Class(info.ClassSuper)
		if !ok {
			return vm.runtimeErr(errs.RuntimeNameError, "uninitialized constant %s", vm.g.Name(info.ClassSuper))
		}
		super = s
	} else {
		super = vm.g.Builtins.Object
	}
	class := vm.g.DefineClass(name, super)
	vm.g.SetConstant(name, value.Heap(class))

	self := value.Heap(class)
	_, err := vm.Call(info, self, nil, class)
	return err
}

