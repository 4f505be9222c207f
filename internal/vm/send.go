package vm

import (
	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/iseq"
	"github.com/marble-lang/marble/internal/value"
)

// classFor returns v's receiver class for method-lookup purposes
// (spec.md §4.6 step (i)): the stored class for an Instance, the class
// object itself for a Class receiver (singleton dispatch is handled
// separately in dispatch), or the appropriate built-in singleton for
// every other shape.
func (vm *VM) classFor(v value.Value) *value.Class {
	b := vm.g.Builtins
	switch v.Kind() {
	case value.KindNil:
		return b.NilClass
	case value.KindTrue:
		return b.TrueClass
	case value.KindFalse:
		return b.FalseClass
	case value.KindFixnum:
		return b.Integer
	case value.KindFlonum:
		return b.Float
	case value.KindSymbol:
		return b.Symbol
	case value.KindHeap:
		h, _ := v.AsHeap()
		switch h.HeapKind() {
		case value.HeapKindString:
			return b.String
		case value.HeapKindArray:
			return b.Array
		case value.HeapKindRange:
			return b.Range
		case value.HeapKindEnumerator:
			return b.Enumerator
		case value.HeapKindRegexp:
			return b.Regexp
		case value.HeapKindInstance:
			return h.(*value.Instance).Class
		case value.HeapKindClass:
			return h.(*value.Class)
		}
	}
	return b.Object
}

// dispatch implements spec.md §4.6's send resolution: obtain the
// receiver's class, search its instance-method table walking the
// superclass chain, and invoke whichever MethodInfo kind is found. A
// Class receiver is resolved against its class-method (singleton) table
// first, per DEF_CLASS_METHOD's contract ("resolved when the receiver IS
// the class"); super sends begin the search one level above the current
// frame's defining class instead of the receiver's own class.
func (vm *VM) dispatch(recv value.Value, method ident.ID, args []value.Value, isSuper bool, caller *frame) (value.Value, error) {
	if isSuper {
		if caller.definee == nil || caller.definee.Super == nil {
			return value.Nil, vm.runtimeErr(errs.NoMethodError, "no superclass method %q", vm.g.Name(method))
		}
		if ref, ok := vm.g.LookupInstanceMethod(caller.definee.Super, method); ok {
			return vm.invoke(vm.g.Method(ref), recv, args)
		}
		return value.Nil, vm.runtimeErr(errs.NoMethodError, "undefined method %q for superclass", vm.g.Name(method))
	}

	if h, ok := recv.AsHeap(); ok {
		if class, isClass := h.(*value.Class); isClass {
			if ref, ok := vm.g.LookupClassMethod(class, method); ok {
				return vm.invoke(vm.g.Method(ref), recv, args)
			}
			if name := vm.g.Name(method); name == "new" {
				return vm.genericNew(class, args)
			}
		}
	}

	class := vm.classFor(recv)
	if ref, ok := vm.g.LookupInstanceMethod(class, method); ok {
		return vm.invoke(vm.g.Method(ref), recv, args)
	}
	return value.Nil, vm.runtimeErr(errs.NoMethodError, "undefined method %q for %s", vm.g.Name(method), class.Name)
}

// invoke calls a resolved MethodInfo, dispatching on its kind (spec.md
// §4.6's "Calling a method").
func (vm *VM) invoke(info *globals.MethodInfo, recv value.Value, args []value.Value) (value.Value, error) {
	switch info.Kind {
	case globals.MethodKindRubyFunc:
		definee := vm.classFor(recv)
		if h, ok := recv.AsHeap(); ok {
			if c, isClass := h.(*value.Class); isClass {
				definee = c
			}
		}
		return vm.Call(info, recv, args, definee)

	case globals.MethodKindBuiltinFunc:
		if info.Builtin == nil {
			return value.Nil, vm.runtimeErr(errs.InternalError, "builtin method %q has no implementation", info.Name)
		}
		return info.Builtin(vm, recv, args)

	case globals.MethodKindAttrReader:
		return vm.getInstanceVar(recv, info.AttrName), nil

	case globals.MethodKindAttrWriter:
		if len(args) != 1 {
			return value.Nil, vm.runtimeErr(errs.ArgumentError, "wrong number of arguments for %q (expected 1, got %d)", info.Name, len(args))
		}
		if err := vm.setInstanceVar(recv, info.AttrName, args[0]); err != nil {
			return value.Nil, err
		}
		return args[0], nil

	default:
		return value.Nil, vm.runtimeErr(errs.InternalError, "unknown method kind")
	}
}

// genericNew implements `Class#new` (ported from ruruby's
// vm/builtin.rs::builtin_new): allocate an Instance with enough field
// slots for class's full ancestor chain, then dispatch to `initialize`
// if class or an ancestor defines one.
func (vm *VM) genericNew(class *value.Class, args []value.Value) (value.Value, error) {
	n := vm.g.TotalFields(class)
	inst := value.NewInstance(class, n)
	recv := value.Heap(inst)
	if initID, ok := vm.g.Lookup("initialize"); ok {
		if ref, ok := vm.g.LookupInstanceMethod(class, initID); ok {
			if _, err := vm.invoke(vm.g.Method(ref), recv, args); err != nil {
				return value.Nil, err
			}
		}
	}
	return recv, nil
}

func (vm *VM) getInstanceVar(self value.Value, name ident.ID) value.Value {
	h, ok := self.AsHeap()
	if !ok {
		return value.Nil
	}
	inst, ok := h.(*value.Instance)
	if !ok {
		return value.Nil
	}
	off, ok := vm.g.FieldOffset(inst.Class, name)
	if !ok {
		return value.Nil
	}
	return inst.Fields[off]
}

func (vm *VM) setInstanceVar(self value.Value, name ident.ID, v value.Value) error {
	h, ok := self.AsHeap()
	if !ok {
		return vm.runtimeErr(errs.TypeError, "instance variables require an Instance receiver")
	}
	inst, ok := h.(*value.Instance)
	if !ok {
		return vm.runtimeErr(errs.TypeError, "instance variables require an Instance receiver")
	}
	off := vm.g.EnsureField(inst.Class, name)
	for off >= len(inst.Fields) {
		inst.Fields = append(inst.Fields, value.Nil)
	}
	inst.Fields[off] = v
	return nil
}

func (vm *VM) getArrayElem(arr value.Value, idxs []value.Value) (value.Value, error) {
	h, ok := arr.AsHeap()
	if !ok {
		return value.Nil, vm.runtimeErr(errs.TypeError, "indexing requires an Array receiver")
	}
	a, ok := h.(*value.HeapArray)
	if !ok {
		return value.Nil, vm.runtimeErr(errs.TypeError, "indexing requires an Array receiver")
	}
	if len(idxs) != 1 {
		return value.Nil, vm.runtimeErr(errs.ArgumentError, "multi-dimensional array indexing is not supported")
	}
	i, ok := idxs[0].AsFixnum()
	if !ok {
		return value.Nil, vm.runtimeErr(errs.TypeError, "array index must be an Integer")
	}
	idx := normalizeIndex(i, len(a.Elems))
	if idx < 0 || idx >= len(a.Elems) {
		return value.Nil, nil
	}
	return a.Elems[idx], nil
}

func (vm *VM) setArrayElem(arr value.Value, rhsAndIdx []value.Value) error {
	h, ok := arr.AsHeap()
	if !ok {
		return vm.runtimeErr(errs.TypeError, "indexing requires an Array receiver")
	}
	a, ok := h.(*value.HeapArray)
	if !ok {
		return vm.runtimeErr(errs.TypeError, "indexing requires an Array receiver")
	}
	if len(rhsAndIdx) != 2 {
		return vm.runtimeErr(errs.ArgumentError, "multi-dimensional array indexing is not supported")
	}
	i, ok := rhsAndIdx[0].AsFixnum()
	if !ok {
		return vm.runtimeErr(errs.TypeError, "array index must be an Integer")
	}
	rhs := rhsAndIdx[1]
	idx := normalizeIndex(i, len(a.Elems))
	for idx >= len(a.Elems) {
		a.Elems = append(a.Elems, value.Nil)
	}
	if idx < 0 {
		return vm.runtimeErr(errs.ArgumentError, "array index out of bounds")
	}
	a.Elems[idx] = rhs
	return nil
}

func normalizeIndex(i int64, n int) int {
	if i < 0 {
		return n + int(i)
	}
	return int(i)
}

// arith implements spec.md §4.6's arithmetic contract: fixnum/fixnum
// produces a wrapping fixnum; mixed fixnum/float promotes to float;
// non-numeric operands fall back to operator-method dispatch on the
// LHS using the identifier for the operator.
func (vm *VM) arith(op iseq.Op, lhs, rhs value.Value) (value.Value, error) {
	if lf, ok := lhs.AsFixnum(); ok {
		if rf, ok := rhs.AsFixnum(); ok {
			return vm.fixnumArith(op, lf, rf)
		}
		if rfl, ok := rhs.AsFlonum(); ok {
			return vm.floatArith(op, float64(lf), rfl)
		}
	}
	if lfl, ok := lhs.AsFlonum(); ok {
		if rf, ok := rhs.AsFixnum(); ok {
			return vm.floatArith(op, lfl, float64(rf))
		}
		if rfl, ok := rhs.AsFlonum(); ok {
			return vm.floatArith(op, lfl, rfl)
		}
	}
	return vm.operatorDispatch(op, lhs, rhs)
}

var arithOpName = map[iseq.Op]string{
	iseq.OpAdd: "+", iseq.OpSub: "-", iseq.OpMul: "*", iseq.OpDiv: "/",
	iseq.OpShr: ">>", iseq.OpShl: "<<",
	iseq.OpBitOr: "|", iseq.OpBitAnd: "&", iseq.OpBitXor: "^",
	iseq.OpGe: ">=", iseq.OpGt: ">",
}

func (vm *VM) operatorDispatch(op iseq.Op, lhs, rhs value.Value) (value.Value, error) {
	name, ok := arithOpName[op]
	if !ok {
		return value.Nil, vm.runtimeErr(errs.InternalError, "no operator name for opcode")
	}
	id := vm.g.Intern(name)
	return vm.dispatch(lhs, id, []value.Value{rhs}, false, vm.curFrame())
}

func (vm *VM) fixnumArith(op iseq.Op, l, r int64) (value.Value, error) {
	switch op {
	case iseq.OpAdd:
		return value.Fixnum(l + r), nil
	case iseq.OpSub:
		return value.Fixnum(l - r), nil
	case iseq.OpMul:
		return value.Fixnum(l * r), nil
	case iseq.OpDiv:
		if r == 0 {
			return value.Nil, vm.runtimeErr(errs.ZeroDivisionError, "divided by 0")
		}
		return value.Fixnum(l / r), nil
	case iseq.OpShr:
		return value.Fixnum(l >> uint(r)), nil
	case iseq.OpShl:
		return value.Fixnum(l << uint(r)), nil
	case iseq.OpBitOr:
		return value.Fixnum(l | r), nil
	case iseq.OpBitAnd:
		return value.Fixnum(l & r), nil
	case iseq.OpBitXor:
		return value.Fixnum(l ^ r), nil
	}
	return value.Nil, vm.runtimeErr(errs.InternalError, "unreachable fixnum arith opcode")
}

func (vm *VM) floatArith(op iseq.Op, l, r float64) (value.Value, error) {
	switch op {
	case iseq.OpAdd:
		return value.Flonum(l + r), nil
	case iseq.OpSub:
		return value.Flonum(l - r), nil
	case iseq.OpMul:
		return value.Flonum(l * r), nil
	case iseq.OpDiv:
		return value.Flonum(l / r), nil
	default:
		return value.Nil, vm.runtimeErr(errs.TypeError, "bitwise operators require Integer operands")
	}
}

// compare implements EQ/NE/GE/GT. LE/LT never reach the VM — codegen
// rewrites them to GE/GT with swapped operands (spec.md §4.5).
func (vm *VM) compare(op iseq.Op, lhs, rhs value.Value) (bool, error) {
	switch op {
	case iseq.OpEq:
		return lhs.Eq(rhs), nil
	case iseq.OpNe:
		return !lhs.Eq(rhs), nil
	}
	ln, lok := numericValue(lhs)
	rn, rok := numericValue(rhs)
	if !lok || !rok {
		res, err := vm.operatorDispatch(op, lhs, rhs)
		if err != nil {
			return false, err
		}
		return res.Truthy(), nil
	}
	switch op {
	case iseq.OpGe:
		return ln >= rn, nil
	case iseq.OpGt:
		return ln > rn, nil
	}
	return false, vm.runtimeErr(errs.InternalError, "unreachable comparison opcode")
}

func numericValue(v value.Value) (float64, bool) {
	if i, ok := v.AsFixnum(); ok {
		return float64(i), true
	}
	if f, ok := v.AsFlonum(); ok {
		return f, true
	}
	return 0, false
}
