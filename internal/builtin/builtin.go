// Package builtin installs marble's native method tables (spec.md §4.8's
// "representative contract") onto the class singletons internal/globals
// constructs: Kernel-style top-level methods on Object, conversions
// (to_s/to_i/to_f, plus Integer#abs) on Integer/Float, String's text-processing methods,
// Array's element/iteration methods, and Enumerator's capture-and-replay
// methods (spec.md §4.7).
//
// Every native method is registered as a globals.BuiltinFunc, the same
// native-callback convention smog's pkg/vm/primitives.go uses for its own
// stdlib surface (HTTP, crypto, JSON, regex, time primitives registered as
// Go functions callable from VM opcodes) — generalized here from smog's
// free Go-function-per-primitive style to spec.md's per-class method
// table so dispatch (internal/vm/send.go) can resolve them exactly like
// user-defined methods, with no special-casing at the call site.
package builtin

import (
	"go.uber.org/zap"

	"github.com/marble-lang/marble/internal/errs"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/value"
	"github.com/marble-lang/marble/internal/vm"
)

// vmOf asserts vmCtx back to *vm.VM. Every BuiltinFunc registered by this
// package receives the live VM as its vmCtx parameter (spec.md §4.6's
// BuiltinFunc calling convention), so this assertion cannot fail for a
// correctly wired call; a mismatch means a caller invoked a BuiltinFunc
// outside internal/vm, an internal invariant violation.
func vmOf(vmCtx interface{}) *vm.VM {
	return vmCtx.(*vm.VM)
}

func argErr(vmCtx interface{}, method string, want int, got int) error {
	return vmOf(vmCtx).RuntimeErr(errs.ArgumentError, "wrong number of arguments for %q (expected %d, got %d)", method, want, got)
}

func typeErr(vmCtx interface{}, method, expected string) error {
	return vmOf(vmCtx).RuntimeErr(errs.TypeError, "%q requires a %s receiver", method, expected)
}

func register(g *globals.Globals, class *value.Class, name string, fn globals.BuiltinFunc) {
	id := g.Intern(name)
	ref := g.AddMethod(globals.NewBuiltinMethod(name, fn))
	g.AddInstanceMethod(class, id, ref)
}

// Bootstrap installs every built-in method this package implements onto
// g's built-in class singletons. Call once per Globals, before running
// any user code (mirrors smog's VM construction time wiring its stdlib
// primitives, though smog does so implicitly via Go method receivers
// rather than an explicit registration pass).
func Bootstrap(g *globals.Globals, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	installKernel(g)
	installInteger(g)
	installFloat(g)
	installString(g)
	installArray(g)
	installEnumerator(g)
	log.Debug("builtins installed")
}
