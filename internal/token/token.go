// Package token defines the token set the lexer produces (§4.1 of the
// spec) and the spanned Token type the parser consumes.
package token

import "go.pktfmt.dev/pktfmt/internal/ast"

// Kind is the category of a single token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	DocString
	Code // a %% ... %% foreign-code segment, text holds the interior

	// Keywords.
	KwPacket
	KwMessage
	KwMessageGroup
	KwHeader
	KwField
	KwBit
	KwRepr
	KwArg
	KwDefault
	KwGen
	KwLength
	KwHeaderLen
	KwPayloadLen
	KwPacketLen
	KwCond

	// Not reserved keywords (they lex as plain identifiers and are
	// recognized contextually by the parser): "members", "on",
	// "default_fix". Kept here only as documentation of the grammar's
	// vocabulary, matching §4.1's remark that the reserved set is small
	// and target-specific.

	// Built-in type literals.
	TyU8
	TyU16
	TyU32
	TyU64
	TyBool
	TyByteSliceRef // &[u8]

	// Boolean literals.
	True
	False

	// Punctuation / operators.
	Plus
	Minus
	Star
	Slash
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	At
	Eq
	EqEq
	NotEq
	Lt
	Le
	Gt
	Ge
	Not
	AndAnd
	OrOr
)

var keywords = map[string]Kind{
	"packet":        KwPacket,
	"message":       KwMessage,
	"message_group": KwMessageGroup,
	"header":        KwHeader,
	"Field":         KwField,
	"bit":           KwBit,
	"repr":          KwRepr,
	"arg":           KwArg,
	"default":       KwDefault,
	"gen":           KwGen,
	"length":        KwLength,
	"header_len":    KwHeaderLen,
	"payload_len":   KwPayloadLen,
	"packet_len":    KwPacketLen,
	"cond":          KwCond,
	"u8":            TyU8,
	"u16":           TyU16,
	"u32":           TyU32,
	"u64":           TyU64,
	"bool":          TyBool,
	"true":          True,
	"false":         False,
}

// Token is a single lexical token with its byte span in the source.
type Token struct {
	Kind Kind
	Text string // raw text for Ident/DocString/Code; empty for fixed punctuation
	Num  uint64 // populated for Number
	Span ast.Span
}
