package builtin

import (
	"fmt"
	"os"

	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
)

// installKernel registers puts/print/p/chr/assert on Object (spec.md
// §4.8: "puts, print, chr, assert on the top-level receiver"). Every
// class inherits from Object, so these are reachable from any receiver
// with an implicit-self call, the same way top-level code's self is
// Object (internal/vm.Eval).
func installKernel(g *globals.Globals) {
	obj := g.Builtins.Object
	register(g, obj, "puts", builtinPuts)
	register(g, obj, "print", builtinPrint)
	register(g, obj, "p", builtinP)
	register(g, obj, "chr", builtinChr)
	register(g, obj, "assert", builtinAssert)
}

func writeLine(vmCtx interface{}, s string) {
	vmOf(vmCtx).WriteOutput(s)
	vmOf(vmCtx).WriteOutput("\n")
}

// builtinPuts writes each argument's display form on its own line,
// flattening a single Array argument's elements (Ruby's `puts` behavior);
// called with no arguments it writes a single blank line.
func builtinPuts(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		writeLine(vmCtx, "")
		return value.Nil, nil
	}
	for _, a := range args {
		if h, ok := a.AsHeap(); ok {
			if arr, ok := h.(*value.HeapArray); ok {
				for _, elem := range arr.Elems {
					writeLine(vmCtx, value.ToDisplayString(elem))
				}
				continue
			}
		}
		writeLine(vmCtx, value.ToDisplayString(a))
	}
	return value.Nil, nil
}

// builtinPrint writes each argument's display form with no trailing
// newline and no separator.
func builtinPrint(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	for _, a := range args {
		vmOf(vmCtx).WriteOutput(value.ToDisplayString(a))
	}
	return value.Nil, nil
}

// builtinP writes each argument's `inspect` form on its own line and
// returns the single argument (or an Array of them) unchanged, mirroring
// Ruby's `p`.
func builtinP(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	for _, a := range args {
		writeLine(vmCtx, value.Inspect(a))
	}
	switch len(args) {
	case 0:
		return value.Nil, nil
	case 1:
		return args[0], nil
	default:
		return value.Heap(value.NewArray(args)), nil
	}
}

// builtinChr converts a single Integer argument to a one-character
// string, treating it as a byte value (spec.md §4.8).
func builtinChr(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, argErr(vmCtx, "chr", 1, len(args))
	}
	n, ok := args[0].AsFixnum()
	if !ok {
		return value.Nil, typeErr(vmCtx, "chr", "Integer argument")
	}
	return value.Heap(value.NewString(string(rune(n)))), nil
}

// builtinAssert aborts the process when its two arguments are unequal
// (spec.md §7: "Assertions in assert that fail abort the process; they
// are a test affordance, not a language construct"). The idiom is
// `assert(expected, actual)`, compared with the same equality the
// language itself uses (value.Eq), not a truthiness check on either
// argument.
func builtinAssert(vmCtx interface{}, self value.Value, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Nil, argErr(vmCtx, "assert", 2, len(args))
	}
	if args[0].Eq(args[1]) {
		return value.Nil, nil
	}
	fmt.Fprintf(os.Stderr, "Assertion error: Expected: %s Actual: %s\n",
		value.Inspect(args[0]), value.Inspect(args[1]))
	os.Exit(1)
	return value.Nil, nil // unreachable
}
