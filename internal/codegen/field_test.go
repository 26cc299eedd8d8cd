package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

func TestEmitFieldBoolSingleBit(t *testing.T) {
	f := ast.Field{Name: "flag", Bit: 1, Repr: ast.ReprU8, Arg: ast.ArgBool, Gen: true}
	pos := ast.Pos{Start: ast.BitPos{BytePos: 0, BitInByte: 0}}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "Icmp", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	out := s.String()
	assert.Contains(t, out, "func (t Icmp) Flag() bool")
	assert.Contains(t, out, "func (t Icmp) SetFlag(flag bool)")
	assert.Contains(t, out, "if flag")
	assert.Contains(t, out, "} else")
	assert.Equal(t, strings.Count(out, "}"), strings.Count(out, "{"))
}

func TestEmitFieldSuppressedWhenGenFalse(t *testing.T) {
	f := ast.Field{Name: "reserved", Bit: 8, Repr: ast.ReprU8, Gen: false}
	pos := ast.Pos{}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "Icmp", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	assert.Empty(t, s.String())
}

func TestEmitFieldByteSlice(t *testing.T) {
	f := ast.Field{Name: "payload_magic", Bit: 24, Repr: ast.ReprByteSlice, Gen: true}
	pos := ast.Pos{Start: ast.BitPos{BytePos: 4, BitInByte: 0}}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "Ipv4", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	out := s.String()
	assert.Contains(t, out, "func (t Ipv4) PayloadMagic() []byte")
	assert.Contains(t, out, "t.buf.Chunk()[4:7]")
	assert.Contains(t, out, "func (t Ipv4) SetPayloadMagic(payloadMagic []byte)")
}

func TestEmitFieldCrossByteFieldScenario4(t *testing.T) {
	f := ast.Field{Name: "six", Bit: 6, Repr: ast.ReprU8, Arg: ast.ArgRepr, Gen: true,
		Default: ast.Default{Kind: ast.DefaultNum, Num: 0}}
	pos := ast.Pos{Start: ast.BitPos{BytePos: 0, BitInByte: 4}}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "P", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	out := s.String()
	assert.Contains(t, out, "func (t P) Six() uint8")
	assert.Contains(t, out, "window")
	assert.Contains(t, out, FieldMask(2, 6, 6))
	assert.Contains(t, out, ClearMask(2, 6, 6))
}

func TestEmitFieldFullByteFastPath(t *testing.T) {
	f := ast.Field{Name: "code", Bit: 8, Repr: ast.ReprU8, Arg: ast.ArgRepr, Gen: true}
	pos := ast.Pos{Start: ast.BitPos{BytePos: 1, BitInByte: 0}}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "Icmp", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	out := s.String()
	assert.Contains(t, out, "uint8(t.buf.Chunk()[1])")
	assert.NotContains(t, out, "window", "a whole-byte field should use the direct-index fast path")
}

func TestEmitFieldFixedDefaultPanicsOnMismatch(t *testing.T) {
	f := ast.Field{Name: "version", Bit: 4, Repr: ast.ReprU8, Arg: ast.ArgRepr, Gen: true,
		FixedDefault: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 4}}
	pos := ast.Pos{Start: ast.BitPos{BytePos: 0, BitInByte: 0}}
	s := NewSource()
	EmitField(s, backend.DefaultGo(), "t", "Ipv4", f, pos, "t.buf.Chunk()", "t.buf.MutChunk()")
	out := s.String()
	assert.Contains(t, out, "if version != 4")
	assert.Contains(t, out, "panic(")
}
