package codegen

import (
	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

// EmitField writes the getter and setter for one field (§4.5), either or
// both suppressed when the field says gen=false. recv is the receiver
// expression already in scope (e.g. "t"); chunkExpr/mutChunkExpr are the
// Go expressions that yield the header's read-only and mutable byte
// slices.
func EmitField(s *Source, cfg backend.Config, recv, typ string, f ast.Field, pos ast.Pos, chunkExpr, mutChunkExpr string) {
	if !f.Gen {
		return
	}
	EmitGetter(s, cfg, recv, typ, f, pos, chunkExpr)
	EmitSetter(s, cfg, recv, typ, f, pos, mutChunkExpr)
}

// EmitGetter writes one field's read accessor against the read-only
// capability typ carries (runtime.ReadBuffer is enough for every repr).
func EmitGetter(s *Source, cfg backend.Config, recv, typ string, f ast.Field, pos ast.Pos, chunkExpr string) {
	if !f.Gen {
		return
	}
	s.Doc(f.Doc)
	emitGetter(s, cfg, recv, typ, f, pos, chunkExpr)
	s.Blank()
}

// EmitSetter writes one field's write accessor; typ must carry the
// runtime.MutableBuffer capability (mutChunkExpr calls MutChunk()).
func EmitSetter(s *Source, cfg backend.Config, recv, typ string, f ast.Field, pos ast.Pos, mutChunkExpr string) {
	if !f.Gen {
		return
	}
	s.Doc(f.Doc)
	emitSetter(s, cfg, recv, typ, f, pos, mutChunkExpr)
	s.Blank()
}

func emitGetter(s *Source, cfg backend.Config, recv, typ string, f ast.Field, pos ast.Pos, chunkExpr string) {
	name := FieldName(f.Name)

	if f.Repr == ast.ReprByteSlice {
		start, end := pos.Start.BytePos, pos.Start.BytePos+ast.IOByteLen(f.Bit)
		s.Open("func (%s %s) %s() []byte", recv, typ, name)
		s.Line("return %s[%d:%d]", chunkExpr, start, end)
		s.Close()
		return
	}

	if f.Arg == ast.ArgBool && f.Bit == 1 {
		s.Open("func (%s %s) %s() bool", recv, typ, name)
		s.Line("return %s[%d]&(1<<%d) != 0", chunkExpr, pos.Start.BytePos, 7-pos.Start.BitInByte)
		s.Close()
		return
	}

	goType := cfg.GoType(reprDSLName(f.Repr))
	retType := goType
	if f.Arg == ast.ArgExternal {
		retType = f.ArgType
	}

	s.Open("func (%s %s) %s() %s", recv, typ, name, retType)
	emitWindowRead(s, "raw", chunkExpr, pos.Start.BytePos, pos.Start.BitInByte, f.Bit, goType)
	if f.Arg == ast.ArgExternal {
		s.Line("return %s.From%s(raw)", f.ArgType, exportedReprName(f.Repr))
	} else {
		s.Line("return raw")
	}
	s.Close()
}

func emitSetter(s *Source, cfg backend.Config, recv, typ string, f ast.Field, pos ast.Pos, mutChunkExpr string) {
	name := FieldName(f.Name)
	arg := ArgName(f.Name)

	if f.Repr == ast.ReprByteSlice {
		start, end := pos.Start.BytePos, pos.Start.BytePos+ast.IOByteLen(f.Bit)
		s.Open("func (%s %s) Set%s(%s []byte)", recv, typ, name, arg)
		s.Line("copy(%s[%d:%d], %s)", mutChunkExpr, start, end, arg)
		s.Close()
		return
	}

	if f.Arg == ast.ArgBool && f.Bit == 1 {
		mask := uint8(1) << uint(7-pos.Start.BitInByte)
		s.Open("func (%s %s) Set%s(%s bool)", recv, typ, name, arg)
		s.Open("if %s", arg)
		s.Line("%s[%d] |= %#02x", mutChunkExpr, pos.Start.BytePos, mask)
		s.indent--
		s.Open("} else")
		s.Line("%s[%d] &^= %#02x", mutChunkExpr, pos.Start.BytePos, mask)
		s.Close()
		s.Close()
		return
	}

	goType := cfg.GoType(reprDSLName(f.Repr))
	argType := goType
	if f.Arg == ast.ArgExternal {
		argType = f.ArgType
	}

	s.Open("func (%s %s) Set%s(%s %s)", recv, typ, name, arg, argType)
	raw := arg
	if f.Arg == ast.ArgExternal {
		s.Line("raw := %s.As%s()", arg, exportedReprName(f.Repr))
		raw = "raw"
	}
	if f.FixedDefault {
		s.Line("if %s != %d {", raw, defaultOf(f))
		s.indent++
		s.Line(`panic("%s: set value must equal the protocol-fixed default")`, f.Name)
		s.indent--
		s.Line("}")
	}
	if f.Bit%8 != 0 {
		s.Line(`if uint64(%s) > %d {`, raw, ast.MaxUintValue(f.Bit))
		s.indent++
		s.Line(`panic("%s: value does not fit in %d bits")`, f.Name, f.Bit)
		s.indent--
		s.Line("}")
	}
	emitWindowWrite(s, mutChunkExpr, pos.Start.BytePos, pos.Start.BitInByte, f.Bit, raw, goType)
	s.Close()
}

// emitWindowRead emits a read-modify-extract of a bitWidth-wide field
// staged through a uint64 window, binding the result to varName as
// goType. This is one textual formulation of the same arithmetic
// internal/template's writeBits performs at compile time: read the
// ceil((startBitInByte+bitWidth)/8) bytes the field spans into a window,
// shift right to land the field at bit 0, mask off anything above it.
func emitWindowRead(s *Source, varName, chunkExpr string, startByte, startBitInByte, bitWidth int, goType string) {
	spanBytes := (startBitInByte+bitWidth-1)/8 + 1
	shift := spanBytes*8 - startBitInByte - bitWidth

	if spanBytes == 1 && startBitInByte == 0 && bitWidth == 8 {
		s.Line("%s := %s(%s[%d])", varName, goType, chunkExpr, startByte)
		return
	}

	s.Line("var window uint64")
	s.Open("for i := 0; i < %d; i++", spanBytes)
	s.Line("window = window<<8 | uint64(%s[%d+i])", chunkExpr, startByte)
	s.Close()
	mask := FieldMask(spanBytes, bitWidth, shift)
	s.Line("%s := %s((window & %s) >> %d)", varName, goType, mask, shift)
}

// emitWindowWrite is writeBits (internal/template) re-expressed as Go
// source text instead of executed arithmetic: read the field's byte span
// into a window, clear the field's bits, OR in the new value shifted into
// place, write the window back.
func emitWindowWrite(s *Source, mutChunkExpr string, startByte, startBitInByte, bitWidth int, valueExpr, goType string) {
	spanBytes := (startBitInByte+bitWidth-1)/8 + 1
	shift := spanBytes*8 - startBitInByte - bitWidth

	if spanBytes == 1 && startBitInByte == 0 && bitWidth == 8 {
		s.Line("%s[%d] = byte(%s)", mutChunkExpr, startByte, valueExpr)
		return
	}

	s.Line("var window uint64")
	s.Open("for i := 0; i < %d; i++", spanBytes)
	s.Line("window = window<<8 | uint64(%s[%d+i])", mutChunkExpr, startByte)
	s.Close()
	clearMask := ClearMask(spanBytes, bitWidth, shift)
	fieldMask := FieldMask(spanBytes, bitWidth, shift)
	s.Line("window = (window & %s) | ((uint64(%s) << %d) & %s)", clearMask, valueExpr, shift, fieldMask)
	s.Open("for i := %d; i >= 0; i--", spanBytes-1)
	s.Line("%s[%d+i] = byte(window)", mutChunkExpr, startByte)
	s.Line("window >>= 8")
	s.Close()
}

func reprDSLName(r ast.Repr) string {
	switch r {
	case ast.ReprU8:
		return "u8"
	case ast.ReprU16:
		return "u16"
	case ast.ReprU32:
		return "u32"
	case ast.ReprU64:
		return "u64"
	default:
		return ""
	}
}

func exportedReprName(r ast.Repr) string {
	switch r {
	case ast.ReprU8:
		return "U8"
	case ast.ReprU16:
		return "U16"
	case ast.ReprU32:
		return "U32"
	case ast.ReprU64:
		return "U64"
	default:
		return ""
	}
}

func defaultOf(f ast.Field) uint64 {
	switch f.Default.Kind {
	case ast.DefaultNum:
		return f.Default.Num
	case ast.DefaultBool:
		if f.Default.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}
