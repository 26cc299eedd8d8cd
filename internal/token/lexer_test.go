package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pktfmt.dev/pktfmt/internal/ast"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var out []Token
	for {
		tok, err := l.Next()
		require.Nil(t, err)
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestLexerKeywordsAndPunct(t *testing.T) {
	toks := lexAll(t, `packet Icmp { header = [], length = {} }`)
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		KwPacket, Ident, LBrace,
		KwHeader, Eq, LBracket, RBracket, Comma,
		KwLength, Eq, LBrace, RBrace,
		RBrace, EOF,
	}, kinds)
}

func TestLexerNumberDecimalAndHex(t *testing.T) {
	toks := lexAll(t, `10 0x1f 0xFF`)
	require.Len(t, toks, 4)
	assert.Equal(t, uint64(10), toks[0].Num)
	assert.Equal(t, uint64(0x1f), toks[1].Num)
	assert.Equal(t, uint64(0xff), toks[2].Num)
}

func TestLexerHexWithNoDigitsDegradesToZeroThenIdent(t *testing.T) {
	toks := lexAll(t, `0x`)
	require.Len(t, toks, 3)
	assert.Equal(t, Number, toks[0].Kind)
	assert.Equal(t, uint64(0), toks[0].Num)
	assert.Equal(t, Ident, toks[1].Kind)
	assert.Equal(t, "x", toks[1].Text)
}

func TestLexerDocCommentMergesConsecutiveLines(t *testing.T) {
	toks := lexAll(t, "/// first line\n/// second line\nfield")
	require.Len(t, toks, 3)
	require.Equal(t, DocString, toks[0].Kind)
	assert.Equal(t, "first line\nsecond line", toks[0].Text)
}

func TestLexerDocCommentStopsAtBlankLineFollowedByNonDoc(t *testing.T) {
	toks := lexAll(t, "/// only line\n\nfield")
	require.Len(t, toks, 3)
	assert.Equal(t, "only line", toks[0].Text)
	assert.Equal(t, Ident, toks[1].Kind)
}

func TestLexerCodeSegment(t *testing.T) {
	toks := lexAll(t, `%% foo.Bar %%`)
	require.Len(t, toks, 2)
	assert.Equal(t, Code, toks[0].Kind)
	assert.Equal(t, "foo.Bar", toks[0].Text)
}

func TestLexerUnclosedCodeSegmentErrors(t *testing.T) {
	l := New(`%% unterminated`)
	_, err := l.Next()
	require.NotNil(t, err)
	assert.Equal(t, ast.ErrUnclosedCodeSegment, err.Code)
}

func TestLexerByteSliceRefType(t *testing.T) {
	toks := lexAll(t, `&[u8]`)
	require.Len(t, toks, 2)
	assert.Equal(t, TyByteSliceRef, toks[0].Kind)
}

func TestLexerLineCommentSkipped(t *testing.T) {
	toks := lexAll(t, "// plain comment\npacket")
	require.Len(t, toks, 2)
	assert.Equal(t, KwPacket, toks[0].Kind)
}

func TestLexerInvalidTokenErrors(t *testing.T) {
	l := New(`$`)
	_, err := l.Next()
	require.NotNil(t, err)
}

func TestLexerComparisonOperators(t *testing.T) {
	toks := lexAll(t, `== != <= >= && || < >`)
	kinds := make([]Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{EqEq, NotEq, Le, Ge, AndAnd, OrOr, Lt, Gt, EOF}, kinds)
}
