// Package parse turns a token stream into an AST (§4.2 of the spec). It is
// a hand-written recursive-descent parser: Go's own tooling (go/parser) is
// itself hand-written recursive descent rather than table-driven, and that
// is the idiomatic choice here too — see DESIGN.md for why no generated- or
// library-parser dependency was reached for instead.
package parse

import (
	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/token"
)

// Parser holds one token of lookahead over a Lexer.
type Parser struct {
	lex  *token.Lexer
	tok  token.Token
	err  *ast.Error
	done bool
}

func newParser(src string) *Parser {
	p := &Parser{lex: token.New(src)}
	p.advance()
	return p
}

func (p *Parser) advance() {
	if p.done {
		return
	}
	tok, err := p.lex.Next()
	if err != nil {
		p.err = err
		p.done = true
		return
	}
	p.tok = tok
	if tok.Kind == token.EOF {
		p.done = true
	}
}

func (p *Parser) at(k token.Kind) bool { return !p.failed() && p.tok.Kind == k }
func (p *Parser) failed() bool         { return p.err != nil }

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.failed() {
		return token.Token{}
	}
	if p.tok.Kind != k {
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected %s", what)
		return token.Token{}
	}
	t := p.tok
	p.advance()
	return t
}

// expectIdentText expects an identifier token whose text equals want (used
// for the grammar's contextual, non-reserved keywords: "members", "on",
// "iterator").
func (p *Parser) expectIdentText(want string) token.Token {
	if p.failed() {
		return token.Token{}
	}
	if p.tok.Kind != token.Ident || p.tok.Text != want {
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected %q", want)
		return token.Token{}
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) skipComma() {
	if p.at(token.Comma) {
		p.advance()
	}
}

// ParseFile parses every top-level definition in src. A syntax error in one
// definition is recorded and tokens are skipped up to the next 'packet',
// 'message' or 'message_group' keyword so the parser can continue with the next definition in
// the file (§7: "the core ... may continue with the next definition in the
// same file").
func ParseFile(src string) ([]ast.Def, []*ast.Error) {
	p := newParser(src)
	var defs []ast.Def
	var errs []*ast.Error

	for {
		if p.failed() {
			errs = append(errs, p.err)
			if !p.recoverToNextDef() {
				break
			}
			continue
		}
		if p.tok.Kind == token.EOF {
			break
		}
		var doc ast.Doc
		if p.tok.Kind == token.DocString {
			doc = splitDoc(p.tok.Text)
			p.advance()
		}
		start := p.tok.Span
		switch p.tok.Kind {
		case token.KwPacket:
			pkt := p.parsePacket(doc)
			if p.failed() {
				errs = append(errs, p.err)
				p.recoverToNextDef()
				continue
			}
			defs = append(defs, ast.Def{Packet: pkt})
		case token.KwMessage:
			msg := p.parseMessage(doc)
			if p.failed() {
				errs = append(errs, p.err)
				p.recoverToNextDef()
				continue
			}
			defs = append(defs, ast.Def{Message: msg})
		case token.KwMessageGroup:
			grp := p.parseGroup(doc)
			if p.failed() {
				errs = append(errs, p.err)
				p.recoverToNextDef()
				continue
			}
			defs = append(defs, ast.Def{Group: grp})
		default:
			errs = append(errs, ast.NewError(ast.ErrSyntax, start,
				"expected 'packet', 'message', or 'message_group'"))
			if !p.recoverToNextDef() {
				return defs, errs
			}
		}
	}
	return defs, errs
}

// recoverToNextDef skips forward to the next 'packet', 'message' or
// 'message_group' keyword, so parsing can resume at the next top-level
// definition. Returns false if EOF or a lexer error was reached.
func (p *Parser) recoverToNextDef() bool {
	p.err = nil
	p.done = false
	for {
		tok, lexErr := p.lex.Next()
		if lexErr != nil || tok.Kind == token.EOF {
			p.tok = token.Token{Kind: token.EOF, Span: tok.Span}
			return false
		}
		switch tok.Kind {
		case token.KwPacket, token.KwMessage, token.KwMessageGroup:
			p.tok = tok
			return true
		}
	}
}

func splitDoc(merged string) ast.Doc {
	if merged == "" {
		return nil
	}
	var lines ast.Doc
	start := 0
	for i := 0; i <= len(merged); i++ {
		if i == len(merged) || merged[i] == '\n' {
			lines = append(lines, merged[start:i])
			start = i + 1
		}
	}
	return lines
}

func (p *Parser) parsePacket(doc ast.Doc) *ast.Packet {
	start := p.tok.Span
	p.advance() // 'packet'
	name := p.expect(token.Ident, "packet name")
	p.expect(token.LBrace, "'{'")

	p.expect(token.KwHeader, "'header'")
	p.expect(token.Eq, "'='")
	p.expect(token.LBracket, "'['")
	header := p.parseFieldList()
	p.expect(token.RBracket, "']'")
	p.expect(token.Comma, "','")

	p.expect(token.KwLength, "'length'")
	p.expect(token.Eq, "'='")
	p.expect(token.LBrace, "'{'")
	length := p.parseLengthBody(true)
	p.expect(token.RBrace, "'}'")

	iter := p.maybeIteratorFlag()
	p.expect(token.RBrace, "'}'")
	if p.failed() {
		return nil
	}
	return &ast.Packet{
		Name:     name.Text,
		Span:     ast.Span{Start: start.Start, End: p.tok.Span.Start},
		Header:   ast.Header{Fields: header},
		Length:   length,
		Iterator: iter,
		Doc:      doc,
	}
}

func (p *Parser) parseMessage(doc ast.Doc) *ast.Message {
	start := p.tok.Span
	p.advance() // 'message'
	name := p.expect(token.Ident, "message name")
	p.expect(token.LBrace, "'{'")

	p.expect(token.KwHeader, "'header'")
	p.expect(token.Eq, "'='")
	p.expect(token.LBracket, "'['")
	header := p.parseFieldList()
	p.expect(token.RBracket, "']'")
	p.expect(token.Comma, "','")

	p.expect(token.KwLength, "'length'")
	p.expect(token.Eq, "'='")
	p.expect(token.LBrace, "'{'")
	length := p.parseLengthBody(false)
	p.expect(token.RBrace, "'}'")

	iter := p.maybeIteratorFlag()
	p.expect(token.RBrace, "'}'")
	if p.failed() {
		return nil
	}
	return &ast.Message{
		Name:     name.Text,
		Span:     ast.Span{Start: start.Start, End: p.tok.Span.Start},
		Header:   ast.Header{Fields: header},
		Length:   length,
		Iterator: iter,
		Doc:      doc,
	}
}

// maybeIteratorFlag recognizes an optional trailing ", iterator = true" used
// to opt a container into iterator codegen (§4.6 "Iterator codegen
// (optional)"). Not part of the core grammar in §6, so the lookahead is a
// single token and, since the lexer is non-restartable (§4.1), once a
// comma is consumed the grammar commits to it being the iterator flag.
func (p *Parser) maybeIteratorFlag() bool {
	if !p.at(token.Comma) {
		return false
	}
	p.advance()
	p.expectIdentText("iterator")
	p.expect(token.Eq, "'='")
	v := p.parseBool()
	p.skipComma()
	return v
}

func (p *Parser) parseGroup(doc ast.Doc) *ast.MessageGroup {
	start := p.tok.Span
	p.advance() // 'message_group'
	name := p.expect(token.Ident, "group name")
	p.expect(token.LBrace, "'{'")

	p.expectIdentText("members")
	p.expect(token.Eq, "'='")
	p.expect(token.LBracket, "'['")
	members := p.parseIdentList()
	p.expect(token.RBracket, "']'")
	p.expect(token.Comma, "','")

	p.expectIdentText("on")
	p.expect(token.Eq, "'='")
	p.expect(token.LBracket, "'['")
	on := p.parseIdentList()
	p.expect(token.RBracket, "']'")
	p.skipComma()

	condByMember := map[string]map[string]ast.CondSet{}
	if p.tok.Kind == token.KwCond {
		p.advance()
		p.expect(token.Eq, "'='")
		p.expect(token.LBrace, "'{'")
		for !p.failed() && p.tok.Kind != token.RBrace {
			memberName := p.expect(token.Ident, "member name")
			p.expect(token.Eq, "'='")
			p.expect(token.LBrace, "'{'")
			conds := map[string]ast.CondSet{}
			for !p.failed() && p.tok.Kind != token.RBrace {
				fieldName := p.expect(token.Ident, "condition field name")
				p.expect(token.Eq, "'='")
				p.expect(token.LBracket, "'['")
				conds[fieldName.Text] = p.parseValueRanges()
				p.expect(token.RBracket, "']'")
				p.skipComma()
			}
			p.expect(token.RBrace, "'}'")
			condByMember[memberName.Text] = conds
			p.skipComma()
		}
		p.expect(token.RBrace, "'}'")
	}
	p.skipComma()
	p.expect(token.RBrace, "'}'")
	if p.failed() {
		return nil
	}

	var mem []ast.Member
	for _, m := range members {
		mem = append(mem, ast.Member{Name: m.Text, Span: m.Span, Conds: condByMember[m.Text]})
	}
	var onNames []string
	for _, o := range on {
		onNames = append(onNames, o.Text)
	}
	return &ast.MessageGroup{
		Name:    name.Text,
		Span:    ast.Span{Start: start.Start, End: p.tok.Span.Start},
		Members: mem,
		On:      onNames,
		Doc:     doc,
	}
}

func (p *Parser) parseIdentList() []token.Token {
	var out []token.Token
	for !p.failed() && p.tok.Kind == token.Ident {
		out = append(out, p.tok)
		p.advance()
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	return out
}

func (p *Parser) parseValueRanges() ast.CondSet {
	var out ast.CondSet
	for !p.failed() && p.tok.Kind == token.Number {
		lo := p.tok.Num
		p.advance()
		hi := lo
		if p.at(token.Minus) {
			p.advance()
			hiTok := p.expect(token.Number, "range upper bound")
			hi = hiTok.Num
		}
		out = append(out, ast.ValueRange{Lo: lo, Hi: hi})
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	return out
}

func (p *Parser) parseFieldList() []ast.Field {
	var fields []ast.Field
	for !p.failed() && p.tok.Kind != token.RBracket {
		var doc ast.Doc
		if p.tok.Kind == token.DocString {
			doc = splitDoc(p.tok.Text)
			p.advance()
		}
		f := p.parseField(doc)
		if p.failed() {
			return nil
		}
		fields = append(fields, f)
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	return fields
}

func (p *Parser) parseField(doc ast.Doc) ast.Field {
	start := p.tok.Span
	name := p.expect(token.Ident, "field name")
	p.expect(token.Eq, "'='")
	p.expect(token.KwField, "'Field'")
	p.expect(token.LBrace, "'{'")

	f := ast.Field{Name: name.Text, Gen: true, Repr: ast.ReprInvalid, Doc: doc}
	bitSet := false
	reprSet := false
	argSet := false
	defaultSet := false

	for !p.failed() && p.tok.Kind != token.RBrace {
		switch {
		case p.tok.Kind == token.KwBit:
			p.advance()
			p.expect(token.Eq, "'='")
			n := p.expect(token.Number, "bit width")
			f.Bit = int(n.Num)
			bitSet = true
		case p.tok.Kind == token.KwRepr:
			p.advance()
			p.expect(token.Eq, "'='")
			f.Repr = p.parseReprType()
			reprSet = true
		case p.tok.Kind == token.KwArg:
			p.advance()
			p.expect(token.Eq, "'='")
			if p.tok.Kind == token.Code {
				f.Arg = ast.ArgExternal
				f.ArgType = p.tok.Text
				p.advance()
			} else if p.tok.Kind == token.TyBool {
				f.Arg = ast.ArgBool
				p.advance()
			} else {
				p.parseReprType() // same as repr; arg==repr case needs no storage
				f.Arg = ast.ArgRepr
			}
			argSet = true
		case p.tok.Kind == token.KwDefault:
			p.advance()
			p.expect(token.Eq, "'='")
			f.Default = p.parseDefaultLiteral()
			defaultSet = true
		case p.tok.Kind == token.KwGen:
			p.advance()
			p.expect(token.Eq, "'='")
			f.Gen = p.parseBool()
		case p.tok.Kind == token.Ident && p.tok.Text == "default_fix":
			p.advance()
			p.expect(token.Eq, "'='")
			f.FixedDefault = p.parseBool()
		default:
			p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "unexpected field key")
			return ast.Field{}
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RBrace, "'}'")
	if p.failed() {
		return ast.Field{}
	}
	if !bitSet {
		p.err = ast.NewError(ast.ErrSyntax, start, "field %q is missing required key 'bit'", f.Name)
		return ast.Field{}
	}
	if !reprSet {
		f.Repr = ast.ReprForBits(f.Bit)
	}
	if !argSet {
		f.Arg = ast.ArgRepr
		if f.Bit == 1 && f.Repr == ast.ReprU8 {
			f.Arg = ast.ArgBool
		}
	}
	if !defaultSet {
		switch f.Arg {
		case ast.ArgBool:
			f.Default = ast.Default{Kind: ast.DefaultBool}
		default:
			if f.Repr == ast.ReprByteSlice {
				f.Default = ast.Default{Kind: ast.DefaultBytes, Bytes: make([]byte, f.Bit/8)}
			} else {
				f.Default = ast.Default{Kind: ast.DefaultNum}
			}
		}
	}
	f.Span = ast.Span{Start: start.Start, End: p.tok.Span.End}
	return f
}

func (p *Parser) parseReprType() ast.Repr {
	switch p.tok.Kind {
	case token.TyU8:
		p.advance()
		return ast.ReprU8
	case token.TyU16:
		p.advance()
		return ast.ReprU16
	case token.TyU32:
		p.advance()
		return ast.ReprU32
	case token.TyU64:
		p.advance()
		return ast.ReprU64
	case token.TyByteSliceRef:
		p.advance()
		return ast.ReprByteSlice
	default:
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected a repr type (u8/u16/u32/u64/&[u8])")
		return ast.ReprInvalid
	}
}

func (p *Parser) parseBool() bool {
	switch p.tok.Kind {
	case token.True:
		p.advance()
		return true
	case token.False:
		p.advance()
		return false
	default:
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected 'true' or 'false'")
		return false
	}
}

func (p *Parser) parseDefaultLiteral() ast.Default {
	switch p.tok.Kind {
	case token.Number:
		v := p.tok.Num
		p.advance()
		return ast.Default{Kind: ast.DefaultNum, Num: v}
	case token.True:
		p.advance()
		return ast.Default{Kind: ast.DefaultBool, Bool: true}
	case token.False:
		p.advance()
		return ast.Default{Kind: ast.DefaultBool, Bool: false}
	default:
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected a default literal")
		return ast.Default{}
	}
}

// parseLengthBody parses the body of a `length = { ... }` block. Any slot
// key may be omitted (slot kind None); a present slot is either the bare
// identifier "undefined" or an algebraic expression.
func (p *Parser) parseLengthBody(allowAll bool) ast.Length {
	var length ast.Length
	for !p.failed() && p.tok.Kind != token.RBrace {
		var slot ast.Slot
		switch p.tok.Kind {
		case token.KwHeaderLen:
			slot = ast.SlotHeaderLen
		case token.KwPayloadLen:
			if !allowAll {
				p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "message definitions may not set 'payload_len'")
				return length
			}
			slot = ast.SlotPayloadLen
		case token.KwPacketLen:
			if !allowAll {
				p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "message definitions may not set 'packet_len'")
				return length
			}
			slot = ast.SlotPacketLen
		default:
			p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected a length slot name")
			return length
		}
		p.advance()
		p.expect(token.Eq, "'='")

		if p.tok.Kind == token.Ident && p.tok.Text == "undefined" {
			p.advance()
			length.Slots[slot] = ast.LengthSlot{Kind: ast.SlotUndefined}
		} else {
			e := p.parseExpr()
			if p.failed() {
				return length
			}
			usable, nerr := Normalize(e)
			if nerr != nil {
				p.err = nerr
				return length
			}
			length.Slots[slot] = ast.LengthSlot{Kind: ast.SlotExpr, Raw: e, Expr: usable}
		}
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	return length
}

// parseExpr / parseTerm / parseFactor build the general AlgExpr tree
// (§4.2): `AlgExpr = Num | Ident | Binary(AlgExpr, {+,-,*,/}, AlgExpr)`.
// Shape restriction happens later, in normalize.go.
func (p *Parser) parseExpr() *ast.AlgExpr {
	lhs := p.parseTerm()
	for !p.failed() && (p.tok.Kind == token.Plus || p.tok.Kind == token.Minus) {
		op := ast.OpAdd
		if p.tok.Kind == token.Minus {
			op = ast.OpSub
		}
		p.advance()
		rhs := p.parseTerm()
		if p.failed() {
			return nil
		}
		lhs = &ast.AlgExpr{Kind: ast.AlgBinary, Op: op, LHS: lhs, RHS: rhs,
			Span: ast.Span{Start: lhs.Span.Start, End: rhs.Span.End}}
	}
	return lhs
}

func (p *Parser) parseTerm() *ast.AlgExpr {
	lhs := p.parseFactor()
	for !p.failed() && (p.tok.Kind == token.Star || p.tok.Kind == token.Slash) {
		op := ast.OpMul
		if p.tok.Kind == token.Slash {
			op = ast.OpDiv
		}
		p.advance()
		rhs := p.parseFactor()
		if p.failed() {
			return nil
		}
		lhs = &ast.AlgExpr{Kind: ast.AlgBinary, Op: op, LHS: lhs, RHS: rhs,
			Span: ast.Span{Start: lhs.Span.Start, End: rhs.Span.End}}
	}
	return lhs
}

func (p *Parser) parseFactor() *ast.AlgExpr {
	switch p.tok.Kind {
	case token.Number:
		t := p.tok
		p.advance()
		return &ast.AlgExpr{Kind: ast.AlgNum, Num: t.Num, Span: t.Span}
	case token.Ident:
		t := p.tok
		p.advance()
		return &ast.AlgExpr{Kind: ast.AlgIdent, Ident: t.Text, Span: t.Span}
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen, "')'")
		return e
	default:
		p.err = ast.NewError(ast.ErrSyntax, p.tok.Span, "expected a number, identifier, or '('")
		return nil
	}
}

