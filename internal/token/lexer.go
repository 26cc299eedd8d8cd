package token

import (
	"strconv"
	"strings"

	"go.pktfmt.dev/pktfmt/internal/ast"
)

// Lexer is a single-pass, non-restartable scanner over a UTF-8 source
// string. It is the hand-written front end named in §4.1; nothing in this
// repo reaches for a generated or library tokenizer for it, since tokenizing
// this grammar is the core the spec asks for.
type Lexer struct {
	src  string
	pos  int
	done bool
}

// New returns a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token, or an *ast.Error on the first invalid
// character or unterminated foreign-code segment. Once an error (or EOF) is
// returned, every later call returns EOF.
func (l *Lexer) Next() (Token, *ast.Error) {
	if l.done {
		return Token{Kind: EOF, Span: ast.Span{Start: l.pos, End: l.pos}}, nil
	}

	l.skipWhitespaceAndComments()
	if l.pos >= len(l.src) {
		l.done = true
		return Token{Kind: EOF, Span: ast.Span{Start: l.pos, End: l.pos}}, nil
	}

	c := l.src[l.pos]

	var tok Token
	var err *ast.Error
	switch {
	case c == '/' && l.peekAt(1) == '/' && l.peekAt(2) == '/':
		tok, err = l.lexDoc()
	case c == '%' && l.peekAt(1) == '%':
		tok, err = l.lexCode()
	case isDigit(c):
		tok, err = l.lexNumber()
	case isIdentStart(c):
		tok, err = l.lexIdent()
	default:
		tok, err = l.lexPunct()
	}
	if err != nil {
		l.done = true
	}
	return tok, err
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.peekAt(1) == '/' && l.peekAt(2) != '/':
			// a plain line comment; doc comments ("///") are handled by
			// the caller and never reach here.
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// lexDoc consumes a run of one or more consecutive `///` lines. A
// whitespace-only line does not get absorbed into the run, but another
// `///` line immediately following one does (§4.1 "Doc blocks").
func (l *Lexer) lexDoc() (Token, *ast.Error) {
	start := l.pos
	var lines []string
	for {
		// consume "///"
		l.pos += 3
		lineStart := l.pos
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		lines = append(lines, strings.TrimSpace(l.src[lineStart:l.pos]))
		if l.pos < len(l.src) {
			l.pos++ // consume '\n'
		}

		// Look ahead, skipping only blank (whitespace-only) lines, to see
		// if another doc line immediately follows.
		save := l.pos
		for l.pos < len(l.src) {
			lineEnd := l.pos
			for lineEnd < len(l.src) && l.src[lineEnd] != '\n' {
				lineEnd++
			}
			if strings.TrimSpace(l.src[l.pos:lineEnd]) == "" {
				l.pos = lineEnd
				if l.pos < len(l.src) {
					l.pos++
				}
				continue
			}
			break
		}
		if l.pos+2 < len(l.src) && l.src[l.pos] == '/' && l.src[l.pos+1] == '/' && l.src[l.pos+2] == '/' {
			continue
		}
		l.pos = save
		break
	}
	return Token{Kind: DocString, Text: strings.Join(lines, "\n"), Span: ast.Span{Start: start, End: l.pos}}, nil
}

// lexCode consumes a %% ... %% verbatim foreign-code segment.
func (l *Lexer) lexCode() (Token, *ast.Error) {
	start := l.pos
	l.pos += 2
	bodyStart := l.pos
	for {
		if l.pos >= len(l.src) {
			return Token{}, ast.NewError(ast.ErrUnclosedCodeSegment, ast.Span{Start: start, End: l.pos},
				"unclosed %%...%% code segment")
		}
		if l.src[l.pos] == '%' && l.peekAt(1) == '%' {
			body := l.src[bodyStart:l.pos]
			l.pos += 2
			return Token{Kind: Code, Text: strings.TrimSpace(body), Span: ast.Span{Start: start, End: l.pos}}, nil
		}
		l.pos++
	}
}

// lexNumber handles decimal and 0x-prefixed hex numbers, including the two
// documented edge cases: a bare "0" is valid, and "0x" with no following
// hex digit degrades to the token 0 followed by the identifier "x" rather
// than a lexical error.
func (l *Lexer) lexNumber() (Token, *ast.Error) {
	start := l.pos
	if l.src[l.pos] == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		hexStart := l.pos + 2
		i := hexStart
		for i < len(l.src) && isHexDigit(l.src[i]) {
			i++
		}
		if i == hexStart {
			// "0x" with no hex digits: emit "0", leave "x..." for the
			// next call to lex as an identifier.
			l.pos++
			return Token{Kind: Number, Num: 0, Span: ast.Span{Start: start, End: l.pos}}, nil
		}
		text := l.src[hexStart:i]
		v, err := strconv.ParseUint(text, 16, 64)
		if err != nil {
			return Token{}, ast.NewError(ast.ErrInvalidToken, ast.Span{Start: start, End: i}, "invalid hex literal")
		}
		l.pos = i
		return Token{Kind: Number, Num: v, Span: ast.Span{Start: start, End: l.pos}}, nil
	}

	i := l.pos
	for i < len(l.src) && isDigit(l.src[i]) {
		i++
	}
	text := l.src[l.pos:i]
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return Token{}, ast.NewError(ast.ErrInvalidToken, ast.Span{Start: start, End: i}, "invalid decimal literal")
	}
	l.pos = i
	return Token{Kind: Number, Num: v, Span: ast.Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) lexIdent() (Token, *ast.Error) {
	start := l.pos
	i := l.pos
	for i < len(l.src) && isIdentCont(l.src[i]) {
		i++
	}
	text := l.src[l.pos:i]
	l.pos = i

	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Text: text, Span: ast.Span{Start: start, End: l.pos}}, nil
	}
	return Token{Kind: Ident, Text: text, Span: ast.Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) lexPunct() (Token, *ast.Error) {
	start := l.pos
	two := func(a, b byte) bool { return l.src[l.pos] == a && l.peekAt(1) == b }

	switch {
	case l.src[l.pos] == '&' && l.peekAt(1) == '[':
		// &[u8] byte-slice-reference type literal.
		i := l.pos + 2
		for i < len(l.src) && l.src[i] != ']' {
			i++
		}
		if i < len(l.src) && strings.TrimSpace(l.src[l.pos+2:i]) == "u8" {
			l.pos = i + 1
			return Token{Kind: TyByteSliceRef, Span: ast.Span{Start: start, End: l.pos}}, nil
		}
		return Token{}, ast.NewError(ast.ErrInvalidToken, ast.Span{Start: start, End: start + 1}, "expected &[u8]")
	case two('=', '='):
		l.pos += 2
		return Token{Kind: EqEq, Span: ast.Span{Start: start, End: l.pos}}, nil
	case two('!', '='):
		l.pos += 2
		return Token{Kind: NotEq, Span: ast.Span{Start: start, End: l.pos}}, nil
	case two('<', '='):
		l.pos += 2
		return Token{Kind: Le, Span: ast.Span{Start: start, End: l.pos}}, nil
	case two('>', '='):
		l.pos += 2
		return Token{Kind: Ge, Span: ast.Span{Start: start, End: l.pos}}, nil
	case two('&', '&'):
		l.pos += 2
		return Token{Kind: AndAnd, Span: ast.Span{Start: start, End: l.pos}}, nil
	case two('|', '|'):
		l.pos += 2
		return Token{Kind: OrOr, Span: ast.Span{Start: start, End: l.pos}}, nil
	}

	single := map[byte]Kind{
		'+': Plus, '-': Minus, '*': Star, '/': Slash,
		'(': LParen, ')': RParen, '{': LBrace, '}': RBrace,
		'[': LBracket, ']': RBracket, ',': Comma, '@': At,
		'=': Eq, '<': Lt, '>': Gt, '!': Not,
	}
	if kind, ok := single[l.src[l.pos]]; ok {
		l.pos++
		return Token{Kind: kind, Span: ast.Span{Start: start, End: l.pos}}, nil
	}

	l.pos++
	return Token{}, ast.NewError(ast.ErrInvalidToken, ast.Span{Start: start, End: l.pos},
		"invalid token %q", l.src[start:l.pos])
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool  { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
