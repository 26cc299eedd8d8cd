// Package ast holds the data model shared by every compiler stage: the
// byte spans the lexer's tokens carry, the tree the parser builds, and the
// typed, positioned diagnostics every later stage reports.
package ast

import "fmt"

// Span is a half-open byte range into the original source text.
type Span struct {
	Start int
	End   int
}

// Code identifies the kind of a diagnostic. The numeric values are part of
// the external contract (§7 of the spec): tools consuming diagnostics may
// switch on Code, so existing values are never renumbered.
type Code int

const (
	_ Code = iota

	// Lexical errors.
	ErrInvalidToken
	ErrUnclosedCodeSegment

	// Syntax errors.
	ErrSyntax
	ErrExprTooComplex

	// Header layout errors (§4.3 "Header validation").
	ErrDuplicateField
	ErrMisalignedField
	ErrNonOctetHeader
	ErrMTUOverflow
	ErrReservedName

	// Length-contract errors (§4.3 "Length validation"); the numbering
	// below matches the order the bullets appear in the spec, and code 7
	// is load-bearing: it is the code the "length-expression rejection"
	// scenario names explicitly.
	ErrUnknownFieldInLength  // 1
	ErrOversizeField         // 2
	ErrGenFieldInLength      // 3
	ErrWrongReprForLength    // 4
	ErrFixedDefaultMisuse    // 5
	ErrMaxLengthOverMTU      // 6
	ErrReverseImageFailure   // 7
	ErrDefaultBelowFixedHdr  // 8
	ErrInvalidSlotPattern    // 9

	// Group errors.
	ErrEmptyCondSet
	ErrOverlappingTags
	ErrMissingCondField
)

// lengthContractOrdinal is the small, stable "code N" numbering referenced
// by prose and tests (e.g. "LengthContractError code 7").
var lengthContractOrdinal = map[Code]int{
	ErrUnknownFieldInLength: 1,
	ErrOversizeField:        2,
	ErrGenFieldInLength:     3,
	ErrWrongReprForLength:   4,
	ErrFixedDefaultMisuse:   5,
	ErrMaxLengthOverMTU:     6,
	ErrReverseImageFailure:  7,
	ErrDefaultBelowFixedHdr: 8,
	ErrInvalidSlotPattern:   9,
}

// Ordinal returns the stable small integer a LengthContractError is known
// by, or 0 if c is not a length-contract code.
func (c Code) Ordinal() int { return lengthContractOrdinal[c] }

// Category groups a Code into one of the §7 error kinds.
func (c Code) Category() string {
	switch {
	case c == ErrInvalidToken || c == ErrUnclosedCodeSegment:
		return "LexicalError"
	case c == ErrSyntax:
		return "SyntaxError"
	case c == ErrExprTooComplex:
		return "ExprTooComplex"
	case c == ErrDuplicateField || c == ErrMisalignedField || c == ErrNonOctetHeader ||
		c == ErrMTUOverflow || c == ErrReservedName:
		return "HeaderLayoutError"
	case c.Ordinal() != 0:
		return "LengthContractError"
	case c == ErrEmptyCondSet || c == ErrOverlappingTags || c == ErrMissingCondField:
		return "GroupError"
	default:
		return "Error"
	}
}

// Error is the single diagnostic type every stage returns. It always
// carries the byte span of the offending source text (or the whole header,
// when the culprit is a layout-wide property) and a short human sentence.
type Error struct {
	Code Code
	Span Span
	Path string // source file path; no stage sets it (the driver's Diagnostic carries the path)
	Msg  string
}

func (e *Error) Error() string {
	if e.Code.Ordinal() != 0 {
		return fmt.Sprintf("%s: %s code %d: %s (at %d..%d)",
			e.Path, e.Code.Category(), e.Code.Ordinal(), e.Msg, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%s: %s: %s (at %d..%d)", e.Path, e.Code.Category(), e.Msg, e.Span.Start, e.Span.End)
}

// NewError builds an *Error with the given code, span and formatted message.
func NewError(code Code, span Span, format string, args ...any) *Error {
	return &Error{Code: code, Span: span, Msg: fmt.Sprintf(format, args...)}
}
