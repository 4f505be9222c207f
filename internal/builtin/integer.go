package builtin

import (
	"fmt"

	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
)

// installInteger registers Integer's non-arithmetic instance methods.
// ADD/SUB/MUL/DIV/comparisons are opcodes handled directly by
// internal/vm's arith/compare (spec.md §4.6), not method dispatch; these
// are the remaining conversions a representative Integer needs.
func installInteger(g *globals.Globals) {
	c := g.Builtins.Integer
	register(g, c, "to_s", integerToS)
	register(g, c, "to_f", integerToF)
	register(g, c, "to_i", integerToI)
	register(g, c, "abs", integerAbs)
}

func integerToS(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	n, ok := self.AsFixnum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "to_s", "Integer")
	}
	return value.Heap(value.NewString(fmt.Sprintf("%d", n))), nil
}

func integerToF(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	n, ok := self.AsFixnum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "to_f", "Integer")
	}
	return value.Flonum(float64(n)), nil
}

func integerToI(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, ok := self.AsFixnum(); !ok {
		return value.Nil, typeErr(vmCtx, "to_i", "Integer")
	}
	return self, nil
}

func integerAbs(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	n, ok := self.AsFixnum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "abs", "Integer")
	}
	if n < 0 {
		n = -n
	}
	return value.Fixnum(n), nil
}

// installFloat registers Float's conversions, mirroring Integer's.
func installFloat(g *globals.Globals) {
	c := g.Builtins.Float
	register(g, c, "to_s", floatToS)
	register(g, c, "to_i", floatToI)
	register(g, c, "to_f", floatToF)
}

func floatToS(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	f, ok := self.AsFlonum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "to_s", "Float")
	}
	return value.Heap(value.NewString(fmt.Sprintf("%g", f))), nil
}

func floatToI(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	f, ok := self.AsFlonum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "to_i", "Float")
	}
	return value.Fixnum(int64(f)), nil
}

func floatToF(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if _, ok := self.AsFlonum(); !ok {
		return value.Nil, typeErr(vmCtx, "to_f", "Float")
	}
	return self, nil
}
