package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marble-lang/marble/internal/lexer"
)

func tokenTypes(t *testing.T, input string) []lexer.TokenType {
	t.Helper()
	l := lexer.New(input)
	toks, err := l.Tokenize()
	require.NoError(t, err)
	types := make([]lexer.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestArithmeticExpression(t *testing.T) {
	types := tokenTypes(t, "1 + 2 * 3")
	assert.Equal(t, []lexer.TokenType{
		lexer.TokenInteger, lexer.TokenPlus, lexer.TokenInteger,
		lexer.TokenStar, lexer.TokenInteger, lexer.TokenEOF,
	}, types)
}

func TestStringAndSymbol(t *testing.T) {
	l := lexer.New(`"ruby" :sym`)
	tok1 := l.NextToken()
	assert.Equal(t, lexer.TokenString, tok1.Type)
	assert.Equal(t, "ruby", tok1.Lit)
	tok2 := l.NextToken()
	assert.Equal(t, lexer.TokenSymbol, tok2.Type)
	assert.Equal(t, "sym", tok2.Lit)
}

func TestInstanceVarAndConst(t *testing.T) {
	l := lexer.New("@x C")
	tok1 := l.NextToken()
	assert.Equal(t, lexer.TokenIVar, tok1.Type)
	assert.Equal(t, "x", tok1.Lit)
	tok2 := l.NextToken()
	assert.Equal(t, lexer.TokenConst, tok2.Type)
	assert.Equal(t, "C", tok2.Lit)
}

func TestRangeOperators(t *testing.T) {
	types := tokenTypes(t, "0..3 0...3")
	assert.Equal(t, []lexer.TokenType{
		lexer.TokenInteger, lexer.TokenDotDot, lexer.TokenInteger,
		lexer.TokenInteger, lexer.TokenDotDotDot, lexer.TokenInteger,
		lexer.TokenEOF,
	}, types)
}

func TestKeywords(t *testing.T) {
	types := tokenTypes(t, "if then else end for in do class def break next")
	want := []lexer.TokenType{
		lexer.TokenIf, lexer.TokenThen, lexer.TokenElse, lexer.TokenEnd,
		lexer.TokenFor, lexer.TokenIn, lexer.TokenDo, lexer.TokenClass,
		lexer.TokenDef, lexer.TokenBreak, lexer.TokenNext, lexer.TokenEOF,
	}
	assert.Equal(t, want, types)
}

func TestCommentsAreSkipped(t *testing.T) {
	types := tokenTypes(t, "1 # this is a comment\n+ 2")
	assert.Equal(t, []lexer.TokenType{
		lexer.TokenInteger, lexer.TokenSemi, lexer.TokenPlus,
		lexer.TokenInteger, lexer.TokenEOF,
	}, types)
}

func TestIllegalTokenReported(t *testing.T) {
	l := lexer.New("$")
	_, err := l.Tokenize()
	require.Error(t, err)
}
