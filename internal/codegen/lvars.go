package codegen

import (
	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/ident"
)

// lvarCollector assigns dense slot numbers to every local variable a
// method/block body can reference, mirroring spec.md §3's description of
// a pre-pass ("The pre-pass that produces the AST also produces a
// LvarCollector mapping IdentId -> slot. Parameters occupy the first
// slots in declaration order."). The parser itself is out of scope for
// this module, but the lvar-collection pre-pass is part of the code
// generator's contract (§4.5's "local-variable map for that method"), so
// it lives here rather than being assumed pre-computed.
type lvarCollector struct {
	slots map[ident.ID]int
	order []ident.ID
}

func newLvarCollector() *lvarCollector {
	return &lvarCollector{slots: make(map[ident.ID]int)}
}

func (c *lvarCollector) declare(id ident.ID) int {
	if slot, ok := c.slots[id]; ok {
		return slot
	}
	slot := len(c.order)
	c.slots[id] = slot
	c.order = append(c.order, id)
	return slot
}

func (c *lvarCollector) lookup(id ident.ID) (int, bool) {
	slot, ok := c.slots[id]
	return slot, ok
}

func (c *lvarCollector) count() int { return len(c.order) }

// collectLvars walks params (declared first, in order) then body,
// declaring a slot for every local-variable binding site: assignment
// targets, for-loop induction variables, and multi-assignment targets.
// Plain reads of an Ident never declare a slot — an undeclared read is a
// Name error, raised later when lowering actually emits GET_LOCAL.
func collectLvars(params []ast.Param, body ast.Node) *lvarCollector {
	c := newLvarCollector()
	for _, p := range params {
		c.declare(ident.ID(p.Ident))
	}
	if body != nil {
		walkDeclarations(body, c)
	}
	return c
}

func walkDeclarations(n ast.Node, c *lvarCollector) {
	switch node := n.(type) {
	case *ast.CompStmt:
		for _, item := range node.Items {
			walkDeclarations(item, c)
		}
	case *ast.If:
		walkDeclarations(node.Cond, c)
		walkDeclarations(node.Then, c)
		if node.Else != nil {
			walkDeclarations(node.Else, c)
		}
	case *ast.For:
		c.declare(ident.ID(node.Ident))
		walkDeclarations(node.Range, c)
		walkDeclarations(node.Body, c)
	case *ast.Assign:
		if id, ok := node.LHS.(*ast.Ident); ok {
			c.declare(ident.ID(id.Ident))
		}
		walkDeclarations(node.LHS, c)
		walkDeclarations(node.RHS, c)
	case *ast.MulAssign:
		for _, lhs := range node.LHSList {
			if id, ok := lhs.(*ast.Ident); ok {
				c.declare(ident.ID(id.Ident))
			}
			walkDeclarations(lhs, c)
		}
		for _, rhs := range node.RHSList {
			walkDeclarations(rhs, c)
		}
	case *ast.BinOp:
		walkDeclarations(node.LHS, c)
		walkDeclarations(node.RHS, c)
	case *ast.ArrayMember:
		walkDeclarations(node.ArrayNode, c)
		for _, idx := range node.Indices {
			walkDeclarations(idx, c)
		}
	case *ast.Array:
		for _, item := range node.Items {
			walkDeclarations(item, c)
		}
	case *ast.Range:
		walkDeclarations(node.StartNode, c)
		walkDeclarations(node.EndNode, c)
	case *ast.Send:
		if node.Recv != nil {
			walkDeclarations(node.Recv, c)
		}
		for _, a := range node.Args {
			walkDeclarations(a, c)
		}
	case *ast.InterpolatedString:
		for _, p := range node.Parts {
			walkDeclarations(p, c)
		}
	// MethodDef/ClassMethodDef/ClassDef introduce their own nested
	// contexts with their own lvar collection (done separately when
	// codegen recurses into them), so their bodies are not walked here.
	// Literal/leaf nodes (Nil, Bool, Number, Float, String, Symbol,
	// SelfValue, Ident, Const, InstanceVar, Break, Next) declare nothing.
	default:
	}
}
