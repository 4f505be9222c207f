// Package parser implements a recursive-descent parser for marble's
// Ruby-like surface syntax, producing the internal/ast node kinds
// spec.md §6 defines as the code generator's input contract. spec.md §1
// explicitly puts the parser itself out of scope for the core
// ("out of scope except for the shape of the AST it produces"), so this
// package exists only to drive internal/codegen end to end from source
// text rather than hand-built trees — adapted from smog's pkg/parser,
// which keeps the same curTok/peekTok two-token lookahead and
// accumulated-errors shape, generalized from Smalltalk's unary/binary/
// keyword message precedence to a conventional Pratt expression parser
// (literal/unary/binary precedence climbing) over Ruby-like statement
// forms (if/for/class/def) that spec.md's AST can actually represent.
//
// One syntactic decision this parser makes that smog's never had to:
// Ruby itself resolves the "bare identifier: local read, or method call"
// ambiguity by tracking which names have been assigned-to earlier in the
// same lexical scope. This parser does the same with a small per-scope
// set of known local names, so that `x = 1; x` parses x as Ident but
// `puts` (never assigned) parses as an implicit-self Send.
package parser

import (
	"fmt"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/globals"
	"github.com/marble-lang/marble/internal/lexer"
)

// Parser turns one source string into an ast.Node tree, given a Globals
// to intern identifiers into (the same Globals instance the resulting
// code generator run must use, since IdentIds are only meaningful within
// the Globals that minted them).
type Parser struct {
	g       *globals.Globals
	l       *lexer.Lexer
	cur     lexer.Token
	peek    lexer.Token
	errors  []string
	scopes  []map[string]bool // innermost last; one per active method/program body
}

// New returns a Parser over input, ready to parse against g's identifier
// table.
func New(input string, g *globals.Globals) *Parser {
	p := &Parser{g: g, l: lexer.New(input)}
	p.scopes = []map[string]bool{{}}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) addError(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// Errors returns every accumulated parse error.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) curLoc() ast.Loc { return ast.Loc{Start: p.cur.Offset, End: p.cur.Offset + len(p.cur.Lit)} }

func (p *Parser) scope() map[string]bool { return p.scopes[len(p.scopes)-1] }

func (p *Parser) declareLocal(name string) { p.scope()[name] = true }

func (p *Parser) isKnownLocal(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i][name] {
			return true
		}
	}
	return false
}

func (p *Parser) pushScope() { p.scopes = append(p.scopes, map[string]bool{}) }
func (p *Parser) popScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) skipSemis() {
	for p.cur.Type == lexer.TokenSemi {
		p.next()
	}
}

func (p *Parser) expect(tt lexer.TokenType, what string) bool {
	if p.cur.Type != tt {
		p.addError("expected %s, got %q", what, p.cur.Lit)
		return false
	}
	return true
}

// Parse parses the whole input as a top-level program body (a CompStmt),
// returning an error aggregating every accumulated syntax error.
func (p *Parser) Parse() (ast.Node, error) {
	body := p.parseStmtList(lexer.TokenEOF)
	if len(p.errors) > 0 {
		return body, fmt.Errorf("parse errors: %v", p.errors)
	}
	return body, nil
}

// parseStmtList parses statements, separated by one or more SEMI tokens,
// until the cur token is `until` (EOF, end, else, then, do -- whatever
// the caller's enclosing construct terminates on).
func (p *Parser) parseStmtList(until lexer.TokenType) *ast.CompStmt {
	return p.parseStmtListUntilAny(until)
}

// parseStmtListUntilAny is parseStmtList generalized to several possible
// terminators, needed by `if`/`else` where the same statement list can
// end at either `else` or `end`.
func (p *Parser) parseStmtListUntilAny(stops ...lexer.TokenType) *ast.CompStmt {
	start := p.curLoc()
	var items []ast.Node
	p.skipSemis()
	for !p.atAny(stops) && p.cur.Type != lexer.TokenEOF {
		stmt := p.parseStmt()
		if stmt != nil {
			items = append(items, stmt)
		}
		if !p.atAny(stops) && p.cur.Type != lexer.TokenEOF {
			if p.cur.Type != lexer.TokenSemi {
				p.addError("expected statement separator, got %q", p.cur.Lit)
				p.next()
			}
			p.skipSemis()
		}
	}
	return ast.NewCompStmt(ast.Loc{Start: start.Start, End: p.curLoc().End}, items)
}

func (p *Parser) atAny(stops []lexer.TokenType) bool {
	for _, s := range stops {
		if p.cur.Type == s {
			return true
		}
	}
	return false
}

func (p *Parser) parseStmt() ast.Node {
	switch p.cur.Type {
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenClass:
		return p.parseClassDef()
	case lexer.TokenDef:
		return p.parseMethodDef()
	case lexer.TokenBreak:
		loc := p.curLoc()
		p.next()
		return ast.NewBreak(loc)
	case lexer.TokenNext:
		loc := p.curLoc()
		p.next()
		return ast.NewNext(loc)
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseExprStmt() ast.Node {
	start := p.curLoc()

	// A bare `name =` is always an assignment target, even the first
	// time `name` is seen — the assignment itself is what declares it
	// as a local, mirroring Ruby's own parser.
	if p.cur.Type == lexer.TokenIdent && p.peek.Type == lexer.TokenAssign {
		name := p.cur.Lit
		id := p.g.Intern(name)
		lhsLoc := p.curLoc()
		p.next() // consume ident
		p.next() // consume =
		p.declareLocal(name)
		rhs := p.parseExpr()
		lhs := ast.NewIdent(lhsLoc, uint32(id))
		return ast.NewAssign(ast.Loc{Start: start.Start, End: p.curLoc().End}, lhs, rhs)
	}

	lhs := p.parseExpr()
	if lhs == nil {
		return nil
	}
	if p.cur.Type == lexer.TokenAssign {
		p.next()
		rhs := p.parseExpr()
		return ast.NewAssign(ast.Loc{Start: start.Start, End: p.curLoc().End}, lhs, rhs)
	}
	return lhs
}
