package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
	"go.pktfmt.dev/pktfmt/internal/sema"
	"go.pktfmt.dev/pktfmt/internal/template"
)

func icmpContainerHeader(t *testing.T) Header {
	t.Helper()
	h := ast.Header{Fields: []ast.Field{
		{Name: "type_", Bit: 8, Repr: ast.ReprU8, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
		{Name: "code", Bit: 8, Repr: ast.ReprU8, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
		{Name: "checksum", Bit: 16, Repr: ast.ReprU16, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
		{Name: "identifier", Bit: 16, Repr: ast.ReprU16, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
		{Name: "sequence", Bit: 16, Repr: ast.ReprU16, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
	}}
	positions, hlen, errs := sema.AnalyzeHeader(&h, backend.DefaultGo())
	require.Empty(t, errs)
	tmpl := template.Build(&h, positions, hlen)
	return Header{
		Name: "icmp", Header: h,
		Length:         ast.Length{},
		Positions:      positions,
		HeaderLenBytes: hlen,
		Template:       tmpl,
		IsPacket:       true,
	}
}

func TestEmitContainerScenario1IcmpIsTrivial(t *testing.T) {
	h := icmpContainerHeader(t)
	h.Length = ast.Length{Slots: [3]ast.LengthSlot{
		ast.SlotHeaderLen: {Kind: ast.SlotNone},
	}}
	assert.True(t, isTrivial(h))

	s := NewSource()
	EmitContainer(s, backend.DefaultGo(), h)
	out := s.String()

	assert.Contains(t, out, "type Icmp[B runtime.ReadBuffer] struct")
	assert.Contains(t, out, "type IcmpMut[B runtime.MutableBuffer] struct")
	assert.Contains(t, out, "const IcmpFixedHeaderLen = 8")
	assert.Contains(t, out, "func NewIcmp[B runtime.MutableBuffer](buf B) IcmpMut[B]")
	assert.Contains(t, out, "func ParseIcmpUnchecked[B runtime.MutableBuffer](buf B) IcmpMut[B]")
	assert.Contains(t, out, "func ParseIcmp[B runtime.MutableBuffer](buf B) (t IcmpMut[B], ok bool)")
	assert.Contains(t, out, "func (t Icmp[B]) HeaderLen() int { return IcmpFixedHeaderLen }")
	assert.NotContains(t, out, "VarHeaderSlice", "a trivial header has no variable-length portion")
	assert.Contains(t, out, "func (t Icmp[B]) Payload() []byte")
	assert.Contains(t, out, "func PrependIcmpHeader[B runtime.MutableBuffer](")
	assert.Contains(t, out, "func ParseIcmpFromCursor(")
	assert.Contains(t, out, "func FromIcmpHeaderArray(")
	assert.Contains(t, out, "func PayloadIcmpAsCursor(b []byte) ([]byte, bool)")
}

func TestEmitContainerIpv4HasComputedHeaderLen(t *testing.T) {
	h := ast.Header{Fields: []ast.Field{
		{Name: "version", Bit: 4, Repr: ast.ReprU8, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 4}},
		{Name: "ihl", Bit: 4, Repr: ast.ReprU8, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 5}},
		{Name: "tos", Bit: 8, Repr: ast.ReprU8, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 0}},
		{Name: "total_length", Bit: 16, Repr: ast.ReprU16, Gen: true, Default: ast.Default{Kind: ast.DefaultNum, Num: 20}},
	}}
	positions, hlen, errs := sema.AnalyzeHeader(&h, backend.DefaultGo())
	require.Empty(t, errs)
	tmpl := template.Build(&h, positions, hlen)

	cont := Header{
		Name: "ipv4", Header: h,
		Length: ast.Length{Slots: [3]ast.LengthSlot{
			ast.SlotHeaderLen: {Kind: ast.SlotExpr, Expr: ast.UsableAlgExpr{Shape: ast.ShapeIdentTimes, Field: "ihl", M: 4}},
			ast.SlotPacketLen: {Kind: ast.SlotExpr, Expr: ast.UsableAlgExpr{Shape: ast.ShapeIdent, Field: "total_length"}},
		}},
		Positions: positions, HeaderLenBytes: hlen, Template: tmpl, IsPacket: true,
	}

	s := NewSource()
	EmitContainer(s, backend.DefaultGo(), cont)
	out := s.String()

	assert.Contains(t, out, "func (t Ipv4[B]) HeaderLen() int { return int(uint64(t.Ihl()) * 4) }")
	assert.Contains(t, out, "hl := t.HeaderLen()")
	assert.Contains(t, out, "pl := t.PacketLen()")
	assert.Contains(t, out, "VarHeaderSlice")
	assert.Contains(t, out, "func PayloadIpv4AsCursor(b []byte) ([]byte, bool)")
}

func TestEmitContainerIteratorScenario6(t *testing.T) {
	h := icmpContainerHeader(t)
	h.Iterator = true
	h.Length = ast.Length{Slots: [3]ast.LengthSlot{ast.SlotHeaderLen: {Kind: ast.SlotNone}}}

	s := NewSource()
	EmitContainer(s, backend.DefaultGo(), h)
	out := s.String()

	assert.Contains(t, out, "type IcmpIter struct")
	assert.Contains(t, out, "func NewIcmpIter(b []byte) IcmpIter")
	assert.Contains(t, out, "func (it *IcmpIter) Next() (Icmp[*runtime.Bytes], bool)")
	assert.Contains(t, out, "it.rest = it.rest[IcmpFixedHeaderLen:]")
}

func TestIsTrivialFalseWhenHeaderLenDisagreesWithFixed(t *testing.T) {
	h := icmpContainerHeader(t)
	h.Length = ast.Length{Slots: [3]ast.LengthSlot{
		ast.SlotHeaderLen: {Kind: ast.SlotExpr, Expr: ast.UsableAlgExpr{Shape: ast.ShapeIdent, Field: "type_"}},
	}}
	assert.False(t, isTrivial(h))
}

func TestExecExprAllShapes(t *testing.T) {
	assert.Equal(t, "x", execExpr(ast.UsableAlgExpr{Shape: ast.ShapeIdent}, "x"))
	assert.Equal(t, "x + 4", execExpr(ast.UsableAlgExpr{Shape: ast.ShapeIdentPlus, A: 4}, "x"))
	assert.Equal(t, "x * 4", execExpr(ast.UsableAlgExpr{Shape: ast.ShapeIdentTimes, M: 4}, "x"))
	assert.Equal(t, "(x + 1) * 4", execExpr(ast.UsableAlgExpr{Shape: ast.ShapePlusTimes, A: 1, M: 4}, "x"))
	assert.Equal(t, "x*4 + 1", execExpr(ast.UsableAlgExpr{Shape: ast.ShapeTimesPlus, A: 1, M: 4}, "x"))
}

func TestTemplateVarNameLowersFirstRune(t *testing.T) {
	assert.Equal(t, "icmpTemplate", templateVarName("Icmp"))
	assert.Equal(t, "ipv4Template", templateVarName("Ipv4"))
	assert.Equal(t, "", templateVarName(""))
}
