// Package codegen lowers marble's AST into ISeq bytecode (spec.md §4.5).
//
// It keeps smog's pkg/compiler/compiler.go shape — a Compiler holding
// onto the in-progress instruction buffer and a constant/identifier
// table, with one compileExpression-style recursive-descent switch — but
// generalizes it substantially: smog's compiler emits a flat
// []Instruction with no jump-patching machinery (it has no loops or
// conditionals at all), while spec.md requires a context stack (one
// per nested method/class body), a loop-frame stack for break/next
// patching, and per-instruction source-map entries. Both of those are
// modeled explicitly here rather than left implicit the way a
// single-pass compiler without control flow can get away with.
package codegen

import (
	"go.uber.org/zap"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/ident"
	"github.com/marble-lang/marble/internal/iseq"
)

// context is one entry in the codegen's context stack: the in-progress
// ISeq and local-variable slot map for one method/block body, plus its
// source map under construction (spec.md §4.5).
type context struct {
	seq       *iseq.ISeq
	lvars     *lvarCollector
	sourceMap []globals.SourceMapEntry
}

func (c *context) note(loc ast.Loc) {
	pc := c.seq.Len()
	if n := len(c.sourceMap); n > 0 && c.sourceMap[n-1].PC == pc {
		return
	}
	c.sourceMap = append(c.sourceMap, globals.SourceMapEntry{PC: pc, Loc: [2]int{loc.Start, loc.End}})
}

// escapeKind discriminates a pending loop-exit patch.
type escapeKind int

const (
	escapeBreak escapeKind = iota
	escapeNext
)

type pendingEscape struct {
	pos  iseq.Pos
	kind escapeKind
}

// loopFrame tracks the break/next jumps emitted inside one active loop
// body, resolved once the loop's increment step and exit point are known
// (spec.md §4.5's For lowering rule; §9's deferred-patch-list design
// note).
type loopFrame struct {
	escapes []pendingEscape
}

// Codegen lowers AST to ISeq against a shared Globals (spec.md §4.3's
// "register method -> MethodRef").
type Codegen struct {
	g        *globals.Globals
	contexts []*context
	loops    []*loopFrame
	log      *zap.Logger
}

// New returns a Codegen targeting g. A nil logger becomes a no-op logger.
func New(g *globals.Globals, log *zap.Logger) *Codegen {
	if log == nil {
		log = zap.NewNop()
	}
	return &Codegen{g: g, log: log}
}

func (cg *Codegen) cur() *context { return cg.contexts[len(cg.contexts)-1] }

func (cg *Codegen) pushContext(c *context) { cg.contexts = append(cg.contexts, c) }

func (cg *Codegen) popContext() *context {
	n := len(cg.contexts)
	c := cg.contexts[n-1]
	cg.contexts = cg.contexts[:n-1]
	return c
}

func (cg *Codegen) pushLoop() *loopFrame {
	lf := &loopFrame{}
	cg.loops = append(cg.loops, lf)
	return lf
}

func (cg *Codegen) popLoop() *loopFrame {
	n := len(cg.loops)
	lf := cg.loops[n-1]
	cg.loops = cg.loops[:n-1]
	return lf
}

func (cg *Codegen) curLoop() (*loopFrame, bool) {
	if len(cg.loops) == 0 {
		return nil, false
	}
	return cg.loops[len(cg.loops)-1], true
}

// GenMethodIseq implements spec.md §4.5's contract: it produces a fresh
// MethodInfo whose ISeq resolves every local IdentId against a freshly
// collected lvar map, patches every emitted jump, ends in END, and
// carries a monotonically non-decreasing source map.
func (cg *Codegen) GenMethodIseq(name string, params []ast.Param, body ast.Node) (*globals.MethodInfo, error) {
	collector := collectLvars(params, body)
	ctx := &context{seq: iseq.New(), lvars: collector}
	cg.pushContext(ctx)

	if body == nil {
		ctx.seq.EmitSimple(iseq.OpPushNil)
	} else if err := cg.genStmt(body); err != nil {
		cg.popContext()
		return nil, err
	}
	ctx.seq.EmitSimple(iseq.OpEnd)

	cg.popContext()

	paramIDs := make([]ident.ID, len(params))
	for i, p := range params {
		paramIDs[i] = ident.ID(p.Ident)
	}
	return globals.NewRubyMethod(name, ctx.seq, paramIDs, collector.count(), ctx.sourceMap), nil
}

// GenProgram lowers a top-level script body the same way as a method
// body with no parameters, for use as the program's entry point.
func (cg *Codegen) GenProgram(body ast.Node) (*globals.MethodInfo, error) {
	return cg.GenMethodIseq("<main>", nil, body)
}
