package parser

import (
	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/lexer"
)

// parseIf parses `if cond then? stmts (else stmts)? end`. `then` is
// optional when the condition is followed directly by a statement
// separator, matching Ruby's own grammar.
func (p *Parser) parseIf() ast.Node {
	start := p.curLoc()
	p.next() // consume 'if'
	cond := p.parseExpr()
	if p.cur.Type == lexer.TokenThen {
		p.next()
	}
	p.skipSemis()
	then := p.parseStmtListUntilAny(lexer.TokenElse, lexer.TokenEnd)
	var elseNode ast.Node
	if p.cur.Type == lexer.TokenElse {
		p.next()
		elseNode = p.parseStmtList(lexer.TokenEnd)
	}
	if p.cur.Type == lexer.TokenEnd {
		p.next()
	}
	return ast.NewIf(ast.Loc{Start: start.Start, End: p.curLoc().End}, cond, then, elseNode)
}

// parseFor parses `for ident in range do stmts end`.
func (p *Parser) parseFor() ast.Node {
	start := p.curLoc()
	p.next() // consume 'for'
	if !p.expect(lexer.TokenIdent, "loop variable") {
		return nil
	}
	name := p.cur.Lit
	id := p.g.Intern(name)
	p.next()
	if !p.expect(lexer.TokenIn, "'in'") {
		return nil
	}
	p.next()
	p.declareLocal(name)
	rangeExpr := p.parseExpr()
	if p.cur.Type == lexer.TokenDo {
		p.next()
	}
	p.skipSemis()
	body := p.parseStmtList(lexer.TokenEnd)
	if p.cur.Type == lexer.TokenEnd {
		p.next()
	}
	return ast.NewFor(ast.Loc{Start: start.Start, End: p.curLoc().End}, uint32(id), rangeExpr, body)
}

// parseClassDef parses `class Name [< Super] body end`.
func (p *Parser) parseClassDef() ast.Node {
	start := p.curLoc()
	p.next() // consume 'class'
	if !p.expect(lexer.TokenConst, "class name") {
		return nil
	}
	nameID := p.g.Intern(p.cur.Lit)
	p.next()
	var superID uint32
	if p.cur.Type == lexer.TokenLt {
		p.next()
		if p.expect(lexer.TokenConst, "superclass name") {
			superID = uint32(p.g.Intern(p.cur.Lit))
			p.next()
		}
	}
	p.skipSemis()
	p.pushScope()
	body := p.parseStmtList(lexer.TokenEnd)
	p.popScope()
	if p.cur.Type == lexer.TokenEnd {
		p.next()
	}
	return ast.NewClassDef(ast.Loc{Start: start.Start, End: p.curLoc().End}, uint32(nameID), superID, body, 0)
}

// parseMethodDef parses `def name(params) body end` and `def self.name
// (params) body end` (the latter producing a ClassMethodDef).
func (p *Parser) parseMethodDef() ast.Node {
	start := p.curLoc()
	p.next() // consume 'def'

	isClassMethod := false
	if p.cur.Type == lexer.TokenSelf {
		isClassMethod = true
		p.next()
		if !p.expect(lexer.TokenDot, "'.' after self") {
			return nil
		}
		p.next()
	}
	if p.cur.Type != lexer.TokenIdent {
		p.addError("expected method name, got %q", p.cur.Lit)
		return nil
	}
	nameID := p.g.Intern(p.cur.Lit)
	p.next()

	p.pushScope()
	var params []ast.Param
	if p.cur.Type == lexer.TokenLParen {
		p.next()
		for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
			if p.cur.Type != lexer.TokenIdent {
				p.addError("expected parameter name, got %q", p.cur.Lit)
				break
			}
			pid := p.g.Intern(p.cur.Lit)
			p.declareLocal(p.cur.Lit)
			params = append(params, *ast.NewParam(p.curLoc(), uint32(pid)))
			p.next()
			if p.cur.Type == lexer.TokenComma {
				p.next()
			}
		}
		if p.cur.Type == lexer.TokenRParen {
			p.next()
		}
	}
	p.skipSemis()
	body := p.parseStmtList(lexer.TokenEnd)
	p.popScope()
	if p.cur.Type == lexer.TokenEnd {
		p.next()
	}

	loc := ast.Loc{Start: start.Start, End: p.curLoc().End}
	if isClassMethod {
		return ast.NewClassMethodDef(loc, uint32(nameID), params, body, 0)
	}
	return ast.NewMethodDef(loc, uint32(nameID), params, body, 0)
}
