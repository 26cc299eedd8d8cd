package codegen

import (
	"fmt"

	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

// Header is the narrow view EmitContainer needs of a Packet or Message —
// the two AST node types carry identical shapes but aren't interchangeable
// in Go without an explicit adapter, since the spec (unlike the rest of
// the pack's Rust ancestor) gives them separate struct types rather than
// one shared trait object.
type Header struct {
	Name           string
	Header         ast.Header
	Length         ast.Length
	Iterator       bool
	Doc            ast.Doc
	Positions      ast.FieldPos
	HeaderLenBytes int
	Template       []byte
	IsPacket       bool // false for a Message: no payload()/packet_len
}

// FromPacket adapts a *ast.Packet.
func FromPacket(p *ast.Packet) Header {
	return Header{
		Name: p.Name, Header: p.Header, Length: p.Length, Iterator: p.Iterator,
		Doc: p.Doc, Positions: p.Positions, HeaderLenBytes: p.HeaderLenBytes,
		Template: p.Template, IsPacket: true,
	}
}

// FromMessage adapts a *ast.Message.
func FromMessage(m *ast.Message) Header {
	return Header{
		Name: m.Name, Header: m.Header, Length: m.Length, Iterator: m.Iterator,
		Doc: m.Doc, Positions: m.Positions, HeaderLenBytes: m.HeaderLenBytes,
		Template: m.Template, IsPacket: false,
	}
}

// mutTypeName is the generated name of the owning/exclusive capability
// tier, the one carrying Set* methods and the New/Parse constructors.
func mutTypeName(typ string) string { return typ + "Mut" }

// EmitContainer writes the two generated types for one Packet/Message
// (§4.6): %s[B runtime.ReadBuffer], the cursor-shared read-only view every
// getter and the payload/prepend_header pair needs, and %sMut[B
// runtime.MutableBuffer], which embeds it and adds the write surface plus
// the New/Parse constructors. Both are generic over the caller's buffer
// capability rather than boxed behind one dynamically-dispatched
// interface, per §9's "avoid deep dynamic dispatch — monomorphize".
func EmitContainer(s *Source, cfg backend.Config, h Header) {
	typ := TypeName(h.Name)
	mutTyp := mutTypeName(typ)
	fixed := h.HeaderLenBytes
	trivial := isTrivial(h)

	s.Doc(h.Doc)
	s.Line("type %s[B runtime.ReadBuffer] struct {", typ)
	s.indent++
	s.Line("buf B")
	s.indent--
	s.Line("}")
	s.Blank()

	s.Line("// %s embeds %s's read-only surface and adds the write", mutTyp, typ)
	s.Line("// accessors and constructors a MutableBuffer-backed caller needs.")
	s.Line("type %s[B runtime.MutableBuffer] struct {", mutTyp)
	s.indent++
	s.Line("%s[B]", typ)
	s.indent--
	s.Line("}")
	s.Blank()

	s.Line("const %sFixedHeaderLen = %d", typ, fixed)
	s.Blank()

	emitTemplateVar(s, typ, h.Template)
	s.Blank()

	s.Line("// New%s copies the bit-exact default header template into buf and", typ)
	s.Line("// wraps it; every field starts at its declared default.")
	s.Line("func New%s[B runtime.MutableBuffer](buf B) %s[B] {", typ, mutTyp)
	s.indent++
	s.Line("copy(buf.MutChunk()[:%sFixedHeaderLen], %s[:])", typ, templateVarName(typ))
	s.Line("return %s[B]{%s: %s[B]{buf: buf}}", mutTyp, typ, typ)
	s.indent--
	s.Line("}")
	s.Blank()

	s.Line("// Parse%sUnchecked wraps buf without validating header or length bounds.", typ)
	s.Line("func Parse%sUnchecked[B runtime.MutableBuffer](buf B) %s[B] {", typ, mutTyp)
	s.indent++
	s.Line("return %s[B]{%s: %s[B]{buf: buf}}", mutTyp, typ, typ)
	s.indent--
	s.Line("}")
	s.Blank()

	emitParse(s, cfg, h, typ, mutTyp)
	s.Blank()

	s.Line("func (t %s[B]) Buf() []byte { return t.buf.Chunk() }", typ)
	s.Line("func (t %s[B]) Release() B { return t.buf }", mutTyp)
	s.Blank()

	s.Line("func (t %s[B]) FixHeaderSlice() []byte { return t.buf.Chunk()[:%sFixedHeaderLen] }", typ, typ)
	if !trivial {
		s.Line("func (t %s[B]) VarHeaderSlice() []byte { return t.buf.Chunk()[%sFixedHeaderLen:t.HeaderLen()] }", typ, typ)
		s.Line("func (t %s[B]) VarHeaderSliceMut() []byte { return t.buf.MutChunk()[%sFixedHeaderLen:t.HeaderLen()] }", mutTyp, typ)
	}
	s.Blank()

	emitLengthSlots(s, h, typ)

	for _, f := range h.Header.Fields {
		pos := h.Positions[f.Name]
		EmitGetter(s, cfg, "t", fmt.Sprintf("%s[B]", typ), f, pos, "t.buf.Chunk()")
		EmitSetter(s, cfg, "t", fmt.Sprintf("%s[B]", mutTyp), f, pos, "t.buf.MutChunk()")
	}

	if h.IsPacket {
		emitPayload(s, h, typ)
		emitPrependHeader(s, cfg, h, typ, mutTyp)
	}

	emitCursorVariants(s, h, typ, mutTyp)

	if h.Iterator {
		emitIterator(s, h, typ)
	}
}

// templateVarName is the unexported package-level variable name holding a
// definition's baked header template, e.g. "Icmp" -> "icmpTemplate".
func templateVarName(typ string) string {
	if typ == "" {
		return typ
	}
	r := []rune(typ)
	r[0] = toLower(r[0])
	return string(r) + "Template"
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func emitTemplateVar(s *Source, typ string, template []byte) {
	s.Open("var %s = [%d]byte", templateVarName(typ), len(template))
	for i := 0; i < len(template); i += 12 {
		end := i + 12
		if end > len(template) {
			end = len(template)
		}
		row := ""
		for _, b := range template[i:end] {
			row += fmt.Sprintf("0x%02x, ", b)
		}
		s.Line("%s", row)
	}
	s.Close()
}

// isTrivial reports the §4.6 trivialization condition: the header_len slot
// evaluated at its field's default equals exactly the fixed header length,
// and (per DESIGN.md's resolution of spec.md §9's Open Question) that
// field additionally has default_fix=true, so it can never disagree with
// the fixed length at runtime.
func isTrivial(h Header) bool {
	slot := h.Length.Slot(ast.SlotHeaderLen)
	if slot.Kind != ast.SlotExpr {
		return slot.Kind == ast.SlotNone
	}
	f, ok := fieldByName(h.Header, slot.Expr.Field)
	if !ok || !f.FixedDefault {
		return false
	}
	def := defaultOf(*f)
	y, ok := slot.Expr.Exec(def)
	return ok && int(y) == h.HeaderLenBytes
}

func fieldByName(h ast.Header, name string) (*ast.Field, bool) {
	for i := range h.Fields {
		if h.Fields[i].Name == name {
			return &h.Fields[i], true
		}
	}
	return nil, false
}

// emitLengthSlots writes the computed accessor for every Expr length slot;
// a None header_len slot gets a HeaderLen accessor that returns the fixed
// header length constant, and an Undefined slot is left to code outside this generator
// entirely (§3 "computed by custom code elsewhere") so no method is
// emitted for it either. These are pure reads, so they live on the
// read-only type.
func emitLengthSlots(s *Source, h Header, typ string) {
	for slot, name := range map[ast.Slot]string{
		ast.SlotHeaderLen:  "HeaderLen",
		ast.SlotPayloadLen: "PayloadLen",
		ast.SlotPacketLen:  "PacketLen",
	} {
		ls := h.Length.Slot(slot)
		switch ls.Kind {
		case ast.SlotNone:
			if slot == ast.SlotHeaderLen {
				s.Line("func (t %s[B]) %s() int { return %sFixedHeaderLen }", typ, name, typ)
			}
		case ast.SlotExpr:
			fieldExpr := fmt.Sprintf("uint64(t.%s())", FieldName(ls.Expr.Field))
			s.Line("func (t %s[B]) %s() int { return int(%s) }", typ, name, execExpr(ls.Expr, fieldExpr))
		}
	}
}

// execExpr renders UsableAlgExpr.Exec as the equivalent Go expression text.
func execExpr(u ast.UsableAlgExpr, x string) string {
	switch u.Shape {
	case ast.ShapeIdent:
		return x
	case ast.ShapeIdentPlus:
		return fmt.Sprintf("%s + %d", x, u.A)
	case ast.ShapeIdentTimes:
		return fmt.Sprintf("%s * %d", x, u.M)
	case ast.ShapePlusTimes:
		return fmt.Sprintf("(%s + %d) * %d", x, u.A, u.M)
	case ast.ShapeTimesPlus:
		return fmt.Sprintf("%s*%d + %d", x, u.M, u.A)
	default:
		return x
	}
}

// emitParse writes the generic, capability-checked constructor every
// other parse path (cursor, group dispatch, iterator) funnels through. It
// returns (zero, false) instead of the old nil-sentinel convention, since
// a bare type-parameter value cannot be compared against nil without
// narrowing its constraint to a nilable core type.
func emitParse(s *Source, cfg backend.Config, h Header, typ, mutTyp string) {
	s.Line("// Parse%s enforces the length contract in order: the buffer holds at", typ)
	s.Line("// least the fixed header, the computed header length is in range, and")
	s.Line("// (for packets with a packet_len slot) the packet length is in range.")
	s.Line("// ok is false on any failure, with buf left untouched by this call.")
	s.Line("func Parse%s[B runtime.MutableBuffer](buf B) (t %s[B], ok bool) {", typ, mutTyp)
	s.indent++
	s.Line("if len(buf.Chunk()) < %sFixedHeaderLen {", typ)
	s.indent++
	s.Line("return t, false")
	s.indent--
	s.Line("}")
	s.Line("t = %s[B]{%s: %s[B]{buf: buf}}", mutTyp, typ, typ)

	hl := h.Length.Slot(ast.SlotHeaderLen)
	if hl.Kind == ast.SlotExpr {
		s.Line("hl := t.HeaderLen()")
		s.Line("if hl < %sFixedHeaderLen || hl > len(buf.Chunk()) {", typ)
		s.indent++
		s.Line("return %s[B]{}, false", mutTyp)
		s.indent--
		s.Line("}")
	}

	if h.IsPacket {
		pl := h.Length.Slot(ast.SlotPacketLen)
		if pl.Kind == ast.SlotExpr {
			s.Line("pl := t.PacketLen()")
			s.Line("if pl < t.HeaderLen() || pl > buf.Remaining() {")
			s.indent++
			s.Line("return %s[B]{}, false", mutTyp)
			s.indent--
			s.Line("}")
		}
	}

	s.Line("return t, true")
	s.indent--
	s.Line("}")
}

func emitPayload(s *Source, h Header, typ string) {
	s.Blank()
	s.Line("// Payload returns the bytes after the header, ending at the computed")
	s.Line("// packet (or payload) length when one is defined, else at the chunk's end.")
	s.Line("func (t %s[B]) Payload() []byte {", typ)
	s.indent++
	s.Line("chunk := t.buf.Chunk()")
	switch {
	case h.Length.Slot(ast.SlotPacketLen).Kind == ast.SlotExpr:
		s.Line("return chunk[t.HeaderLen():t.PacketLen()]")
	case h.Length.Slot(ast.SlotPayloadLen).Kind == ast.SlotExpr:
		s.Line("return chunk[t.HeaderLen() : t.HeaderLen()+t.PayloadLen()]")
	default:
		s.Line("return chunk[t.HeaderLen():]")
	}
	s.indent--
	s.Line("}")
}

func emitPrependHeader(s *Source, cfg backend.Config, h Header, typ, mutTyp string) {
	pl := h.Length.Slot(ast.SlotPacketLen)
	s.Blank()
	s.Line("// Prepend%sHeader moves buf's head back by the fixed header length,", typ)
	s.Line("// copies header in, and (if this definition has a packet_len slot) sets")
	s.Line("// it to the buffer's new total remaining length.")
	s.Line("func Prepend%sHeader[B runtime.MutableBuffer](buf B, header [%sFixedHeaderLen]byte) (%s[B], bool) {", typ, typ, mutTyp)
	s.indent++
	s.Line("if !buf.Prepend(%sFixedHeaderLen) {", typ)
	s.indent++
	s.Line("return %s[B]{}, false", mutTyp)
	s.indent--
	s.Line("}")
	s.Line("copy(buf.MutChunk()[:%sFixedHeaderLen], header[:])", typ)
	s.Line("t := %s[B]{%s: %s[B]{buf: buf}}", mutTyp, typ, typ)
	if pl.Kind == ast.SlotExpr {
		goType := "uint32"
		if f, ok := fieldByName(h.Header, pl.Expr.Field); ok {
			goType = cfg.GoType(reprDSLName(f.Repr))
		}
		s.Line("t.Set%s(%s(buf.Remaining()))", FieldName(pl.Expr.Field), goType)
	}
	s.Line("return t, true")
	s.indent--
	s.Line("}")
}

// emitCursorVariants writes the cursor-specialized operations §4.6 calls
// for, all instantiated over *runtime.Bytes so a caller working from a
// borrowed []byte never needs to name a type parameter itself:
// parse_from_cursor, from_header_array, and payload_as_cursor. The
// cursor-parsed value is the plain read-only %s[*runtime.Bytes], not the
// Mut tier, so it carries no Set* methods even though *runtime.Bytes
// itself happens to satisfy MutableBuffer.
func emitCursorVariants(s *Source, h Header, typ, mutTyp string) {
	s.Blank()
	s.Line("// Parse%sFromCursor parses from a borrowed, read-only byte slice.", typ)
	s.Line("func Parse%sFromCursor(b []byte) (%s[*runtime.Bytes], []byte) {", typ, typ)
	s.indent++
	s.Line("t, ok := Parse%s(runtime.NewBytes(b))", typ)
	s.Line("if ok {")
	s.indent++
	s.Line("return t.%s, nil", typ)
	s.indent--
	s.Line("}")
	s.Line("return %s[*runtime.Bytes]{}, b", typ)
	s.indent--
	s.Line("}")
	s.Blank()
	s.Line("// From%sHeaderArray wraps a fixed-size header array directly, with no", typ)
	s.Line("// payload beyond it.")
	s.Line("func From%sHeaderArray(header [%sFixedHeaderLen]byte) %s[*runtime.Bytes] {", typ, typ, typ)
	s.indent++
	s.Line("return %s[*runtime.Bytes]{buf: runtime.NewBytes(header[:])}", typ)
	s.indent--
	s.Line("}")

	if !h.IsPacket {
		return
	}
	s.Blank()
	s.Line("// Payload%sAsCursor parses just enough of b to locate %s's payload and", typ, typ)
	s.Line("// returns it as a further borrowed cursor, without retaining the parse.")
	s.Line("func Payload%sAsCursor(b []byte) ([]byte, bool) {", typ)
	s.indent++
	s.Line("t, rest := Parse%sFromCursor(b)", typ)
	s.Line("if rest != nil {")
	s.indent++
	s.Line("return nil, false")
	s.indent--
	s.Line("}")
	s.Line("return t.Payload(), true")
	s.indent--
	s.Line("}")
}

func emitIterator(s *Source, h Header, typ string) {
	s.Blank()
	s.Line("// %sIter yields successive %s values parsed from a shared slice,", typ, typ)
	s.Line("// splitting at each one's computed length; it stops at the first parse")
	s.Line("// failure or when fewer bytes remain than the fixed header.")
	s.Line("type %sIter struct {", typ)
	s.indent++
	s.Line("rest []byte")
	s.indent--
	s.Line("}")
	s.Blank()
	s.Line("func New%sIter(b []byte) %sIter { return %sIter{rest: b} }", typ, typ, typ)
	s.Blank()
	s.Line("func (it *%sIter) Next() (%s[*runtime.Bytes], bool) {", typ, typ)
	s.indent++
	s.Line("if len(it.rest) < %sFixedHeaderLen {", typ)
	s.indent++
	s.Line("return %s[*runtime.Bytes]{}, false", typ)
	s.indent--
	s.Line("}")
	s.Line("t, rest := Parse%sFromCursor(it.rest)", typ)
	s.Line("if rest != nil {")
	s.indent++
	s.Line("return %s[*runtime.Bytes]{}, false", typ)
	s.indent--
	s.Line("}")
	length := iterSplitExpr(h, typ)
	s.Line("it.rest = it.rest[%s:]", length)
	s.Line("return t, true")
	s.indent--
	s.Line("}")
}

func iterSplitExpr(h Header, typ string) string {
	if h.IsPacket {
		if h.Length.Slot(ast.SlotPacketLen).Kind == ast.SlotExpr {
			return "t.PacketLen()"
		}
	}
	if h.Length.Slot(ast.SlotHeaderLen).Kind == ast.SlotExpr {
		return "t.HeaderLen()"
	}
	return fmt.Sprintf("%sFixedHeaderLen", typ)
}
