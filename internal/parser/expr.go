package parser

import (
	"strconv"

	"github.com/marble-lang/marble/internal/ast"
	"github.com/marble-lang/marble/internal/lexer"
)

// binOpInfo gives every binary operator token its textual operator
// symbol (the string ast.BinOp.Op expects) and its Pratt-parser binding
// power; spec.md §4.5 already specifies Le/Lt are lowered by swapping
// operands and using Ge/Gt, so this parser just emits the literal
// operator text and leaves that swap to internal/codegen.
type binOpInfo struct {
	op    string
	power int
}

var binOps = map[lexer.TokenType]binOpInfo{
	lexer.TokenOr:      {"||", 1},
	lexer.TokenAnd:     {"&&", 2},
	lexer.TokenEq:      {"==", 3},
	lexer.TokenNe:      {"!=", 3},
	lexer.TokenLt:      {"<", 4},
	lexer.TokenGt:      {">", 4},
	lexer.TokenLe:      {"<=", 4},
	lexer.TokenGe:      {">=", 4},
	lexer.TokenPipeOp:  {"|", 5},
	lexer.TokenCaret:   {"^", 5},
	lexer.TokenAmp:     {"&", 6},
	lexer.TokenShl:     {"<<", 7},
	lexer.TokenShr:     {">>", 7},
	lexer.TokenPlus:    {"+", 8},
	lexer.TokenMinus:   {"-", 8},
	lexer.TokenStar:    {"*", 9},
	lexer.TokenSlash:   {"/", 9},
	lexer.TokenPercent: {"%", 9},
}

// parseExpr is the full expression entry point: a range (lowest-binding,
// non-chaining) wrapped around the Pratt-parsed binary-operator chain.
func (p *Parser) parseExpr() ast.Node {
	left := p.parseBinary(0)
	if left == nil {
		return nil
	}
	if p.cur.Type == lexer.TokenDotDot || p.cur.Type == lexer.TokenDotDotDot {
		exclusive := p.cur.Type == lexer.TokenDotDotDot
		start := ast.Locate(left)
		p.next()
		right := p.parseBinary(0)
		return ast.NewRange(ast.Loc{Start: start.Start, End: p.curLoc().End}, left, right, exclusive)
	}
	return left
}

// parseBinary implements precedence-climbing over binOps.
func (p *Parser) parseBinary(minPower int) ast.Node {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		info, ok := binOps[p.cur.Type]
		if !ok || info.power < minPower {
			return left
		}
		p.next()
		right := p.parseBinary(info.power + 1)
		if right == nil {
			return left
		}
		start := ast.Locate(left)
		left = ast.NewBinOp(ast.Loc{Start: start.Start, End: p.curLoc().End}, info.op, left, right)
	}
}

func (p *Parser) parseUnary() ast.Node {
	if p.cur.Type == lexer.TokenMinus {
		loc := p.curLoc()
		p.next()
		operand := p.parseUnary()
		zero := ast.NewNumber(loc, 0)
		return ast.NewBinOp(loc, "-", zero, operand)
	}
	if p.cur.Type == lexer.TokenNot {
		loc := p.curLoc()
		p.next()
		operand := p.parseUnary()
		return ast.NewBinOp(loc, "==", operand, ast.NewBool(loc, false))
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by zero or more
// `.method`/`.method(args)`/`[indices]` suffixes. The one parenless call
// form this grammar supports (`puts i`) is parsed by parsePrimary.
func (p *Parser) parsePostfix() ast.Node {
	node := p.parsePrimary()
	if node == nil {
		return nil
	}
	for {
		switch p.cur.Type {
		case lexer.TokenDot:
			p.next()
			if p.cur.Type != lexer.TokenIdent {
				p.addError("expected method name after '.', got %q", p.cur.Lit)
				return node
			}
			name := p.cur.Lit
			loc := p.curLoc()
			methodID := p.g.Intern(name)
			p.next()
			var args []ast.Node
			if p.cur.Type == lexer.TokenLParen {
				args = p.parseCallArgs()
			}
			node = ast.NewSend(loc, node, uint32(methodID), args)
		case lexer.TokenLBracket:
			loc := p.curLoc()
			p.next()
			var idxs []ast.Node
			for p.cur.Type != lexer.TokenRBracket && p.cur.Type != lexer.TokenEOF {
				idxs = append(idxs, p.parseExpr())
				if p.cur.Type == lexer.TokenComma {
					p.next()
				}
			}
			if p.cur.Type == lexer.TokenRBracket {
				p.next()
			}
			node = ast.NewArrayMember(loc, node, idxs)
		default:
			return node
		}
	}
}

func (p *Parser) parseCallArgs() []ast.Node {
	p.next() // consume (
	var args []ast.Node
	for p.cur.Type != lexer.TokenRParen && p.cur.Type != lexer.TokenEOF {
		args = append(args, p.parseExpr())
		if p.cur.Type == lexer.TokenComma {
			p.next()
		}
	}
	if p.cur.Type == lexer.TokenRParen {
		p.next()
	}
	return args
}

// startsPrimary reports whether tt can begin a primary expression, used
// to decide if a bare identifier is followed by a parenless argument.
func startsPrimary(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenInteger, lexer.TokenFloat, lexer.TokenString, lexer.TokenSymbol,
		lexer.TokenIdent, lexer.TokenConst, lexer.TokenIVar, lexer.TokenTrue,
		lexer.TokenFalse, lexer.TokenNil, lexer.TokenSelf, lexer.TokenLParen,
		lexer.TokenLBracket, lexer.TokenMinus:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimary() ast.Node {
	loc := p.curLoc()
	switch p.cur.Type {
	case lexer.TokenInteger:
		n, err := strconv.ParseInt(p.cur.Lit, 10, 64)
		if err != nil {
			p.addError("invalid integer literal %q", p.cur.Lit)
		}
		p.next()
		return ast.NewNumber(loc, n)
	case lexer.TokenFloat:
		f, err := strconv.ParseFloat(p.cur.Lit, 64)
		if err != nil {
			p.addError("invalid float literal %q", p.cur.Lit)
		}
		p.next()
		return ast.NewFloat(loc, f)
	case lexer.TokenString:
		s := p.cur.Lit
		p.next()
		return ast.NewString(loc, s)
	case lexer.TokenSymbol:
		id := p.g.Intern(p.cur.Lit)
		p.next()
		return ast.NewSymbol(loc, uint32(id))
	case lexer.TokenTrue:
		p.next()
		return ast.NewBool(loc, true)
	case lexer.TokenFalse:
		p.next()
		return ast.NewBool(loc, false)
	case lexer.TokenNil:
		p.next()
		return ast.NewNil(loc)
	case lexer.TokenSelf:
		p.next()
		return ast.NewSelfValue(loc)
	case lexer.TokenIVar:
		id := p.g.Intern(p.cur.Lit)
		p.next()
		return ast.NewInstanceVar(loc, uint32(id))
	case lexer.TokenConst:
		id := p.g.Intern(p.cur.Lit)
		p.next()
		// A `.method` suffix (e.g. C.new) is handled uniformly by
		// parsePostfix once this Const node is returned.
		return ast.NewConst(loc, uint32(id))
	case lexer.TokenIdent:
		name := p.cur.Lit
		id := p.g.Intern(name)
		p.next()
		if p.isKnownLocal(name) {
			return ast.NewIdent(loc, uint32(id))
		}
		// Unknown bare name: an implicit-self method call.
		var args []ast.Node
		if p.cur.Type == lexer.TokenLParen {
			args = p.parseCallArgs()
		} else if startsPrimary(p.cur.Type) {
			args = append(args, p.parseBinary(binOps[lexer.TokenPlus].power))
		}
		return ast.NewSend(loc, nil, uint32(id), args)
	case lexer.TokenLParen:
		p.next()
		node := p.parseExpr()
		if p.cur.Type == lexer.TokenRParen {
			p.next()
		} else {
			p.addError("expected ')' , got %q", p.cur.Lit)
		}
		return node
	case lexer.TokenLBracket:
		p.next()
		var items []ast.Node
		for p.cur.Type != lexer.TokenRBracket && p.cur.Type != lexer.TokenEOF {
			items = append(items, p.parseExpr())
			if p.cur.Type == lexer.TokenComma {
				p.next()
			}
		}
		if p.cur.Type == lexer.TokenRBracket {
			p.next()
		}
		return ast.NewArray(loc, items)
	default:
		p.addError("unexpected token %q", p.cur.Lit)
		p.next()
		return nil
	}
}
