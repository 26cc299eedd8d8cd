package codegen

import (
	"fmt"
	"sort"

	"go.pktfmt.dev/pktfmt/internal/ast"
)

// MemberHeader is what EmitGroup needs about one resolved member: its
// condition fields' positions (read before it is known which member
// matched) and whether it is a Packet or Message, to call the right
// Parse*/Parse*FromCursor pair.
type MemberHeader struct {
	Header
}

// EmitGroup writes the tagged union for a MessageGroup (§4.6 "Group
// codegen"): an enum-shaped struct with one pointer field per member,
// group_parse reading the shared condition fields and dispatching on the
// first member whose match-set contains every one of them, and the
// group-level iterator/iterator-mut pair that repeats that same dispatch
// once per slice element, splitting at whichever member matched's parsed
// length.
//
// The group struct is itself generic over the member types' Mut tier,
// since dispatch only succeeds by actually parsing a member, which always
// yields a %sMut[B] value.
func EmitGroup(s *Source, g *ast.MessageGroup, members map[string]MemberHeader) {
	typ := TypeName(g.Name)

	s.Doc(g.Doc)
	s.Line("type %s[B runtime.MutableBuffer] struct {", typ)
	s.indent++
	for _, m := range g.Members {
		mh := members[m.Name]
		s.Line("%s *%s[B]", TypeName(m.Name), mutTypeName(TypeName(mh.Name)))
	}
	s.indent--
	s.Line("}")
	s.Blank()

	maxCondByte := maxConditionByteOffset(g, members)

	s.Line("// %sParse reads %s's shared condition fields, matches the tuple", typ, typ)
	s.Line("// against each member's declared ranges in declaration order, and")
	s.Line("// delegates to the first match's own Parse. ok is false when nothing")
	s.Line("// matches or the buffer is too short to hold the condition fields, and")
	s.Line("// buf is left untouched by this call.")
	s.Line("func %sParse[B runtime.MutableBuffer](buf B) (%s[B], bool) {", typ, typ)
	s.indent++
	s.Line("if len(buf.Chunk()) < %d {", maxCondByte)
	s.indent++
	s.Line("return %s[B]{}, false", typ)
	s.indent--
	s.Line("}")
	s.Blank()
	s.Line("chunk := buf.Chunk()")
	for _, field := range g.On {
		emitCondFieldRead(s, field, members, g)
	}
	s.Blank()

	for _, m := range g.Members {
		mh := members[m.Name]
		cond := condExpr(g.On, m)
		memberTyp := TypeName(mh.Name)
		s.Line("if %s {", cond)
		s.indent++
		s.Line("if t, ok := Parse%s(buf); ok {", memberTyp)
		s.indent++
		s.Line("return %s[B]{%s: &t}, true", typ, TypeName(m.Name))
		s.indent--
		s.Line("}")
		s.Line("return %s[B]{}, false", typ)
		s.indent--
		s.Line("}")
	}
	s.Line("return %s[B]{}, false", typ)
	s.indent--
	s.Line("}")

	emitGroupIterator(s, g, members, typ)
}

// emitGroupIterator writes the group's read-only iterator over a borrowed
// slice (%sIter) and its buffer-advancing counterpart (%sIterMut[B]). Both
// re-run %sParse per step and then split at whichever member matched's
// own parsed length — the same "slice split at the matched member's
// parsed length" rule EmitContainer's single-type iterator already
// follows, just dispatched per member instead of fixed to one type.
func emitGroupIterator(s *Source, g *ast.MessageGroup, members map[string]MemberHeader, typ string) {
	s.Blank()
	s.Line("// %sIter yields successive %s values parsed from a shared,", typ, typ)
	s.Line("// read-only slice, splitting at each one's matched member's parsed")
	s.Line("// length; it stops at the first dispatch failure.")
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
	s.Line("t, ok := %sParse[*runtime.Bytes](runtime.NewBytes(it.rest))", typ)
	s.Line("if !ok {")
	s.indent++
	s.Line("return %s[*runtime.Bytes]{}, false", typ)
	s.indent--
	s.Line("}")
	emitGroupIterSwitch(s, g, members, "t", "it.rest", false)
	s.Line("return t, true")
	s.indent--
	s.Line("}")
	s.Blank()

	s.Line("// %sIterMut walks a single MutableBuffer in place, advancing past", typ)
	s.Line("// each matched member as it goes rather than reslicing a borrowed")
	s.Line("// []byte.")
	s.Line("type %sIterMut[B runtime.MutableBuffer] struct {", typ)
	s.indent++
	s.Line("buf B")
	s.indent--
	s.Line("}")
	s.Blank()
	s.Line("func New%sIterMut[B runtime.MutableBuffer](buf B) %sIterMut[B] {", typ, typ)
	s.indent++
	s.Line("return %sIterMut[B]{buf: buf}", typ)
	s.indent--
	s.Line("}")
	s.Blank()
	s.Line("func (it *%sIterMut[B]) Next() (%s[B], bool) {", typ, typ)
	s.indent++
	s.Line("t, ok := %sParse[B](it.buf)", typ)
	s.Line("if !ok {")
	s.indent++
	s.Line("return %s[B]{}, false", typ)
	s.indent--
	s.Line("}")
	emitGroupIterSwitch(s, g, members, "t", "", true)
	s.Line("return t, true")
	s.indent--
	s.Line("}")
}

// emitGroupIterSwitch writes the per-member dispatch that decides how far
// this iteration advanced: a chain of "t.<Member> != nil" checks, each
// computing n from that member's own length-slot contract (exactly
// iterSplitExpr's rule, reused per member), then either reslicing rest or
// calling buf.Advance(n) depending on which iterator variant is emitting.
func emitGroupIterSwitch(s *Source, g *ast.MessageGroup, members map[string]MemberHeader, recv, restExpr string, mut bool) {
	s.Line("var n int")
	s.Line("switch {")
	for _, m := range g.Members {
		mh := members[m.Name]
		field := TypeName(m.Name)
		accessor := fmt.Sprintf("%s.%s", recv, field)
		s.Line("case %s != nil:", accessor)
		s.indent++
		s.Line("n = %s", groupMemberLengthExpr(mh.Header, TypeName(mh.Name), accessor))
		s.indent--
	}
	s.Line("}")
	if mut {
		s.Line("it.buf.Advance(n)")
	} else {
		s.Line("%s = %s[n:]", restExpr, restExpr)
	}
}

// groupMemberLengthExpr mirrors iterSplitExpr's length-slot priority
// (packet_len, then header_len, then the fixed constant) but rendered
// against a matched member pointer field instead of a bare receiver,
// since the group iterator doesn't know which member matched until
// runtime.
func groupMemberLengthExpr(h Header, typ, accessor string) string {
	if h.IsPacket && h.Length.Slot(ast.SlotPacketLen).Kind == ast.SlotExpr {
		return accessor + ".PacketLen()"
	}
	if h.Length.Slot(ast.SlotHeaderLen).Kind == ast.SlotExpr {
		return accessor + ".HeaderLen()"
	}
	return fmt.Sprintf("%sFixedHeaderLen", typ)
}

// emitCondFieldRead reads one shared condition field as a plain uint64
// local, using the byte position every member agrees it sits at
// (sema.ValidateGroup already enforced that agreement).
func emitCondFieldRead(s *Source, field string, members map[string]MemberHeader, g *ast.MessageGroup) {
	var pos ast.Pos
	for _, m := range g.Members {
		if p, ok := members[m.Name].Positions[field]; ok {
			pos = p
			break
		}
	}
	bit := fieldBitWidth(members, g, field)
	spanBytes := (pos.Start.BitInByte+bit-1)/8 + 1
	name := localCondName(field)
	s.Line("var %s uint64", name)
	s.Open("for i := 0; i < %d; i++", spanBytes)
	s.Line("%s = %s<<8 | uint64(chunk[%d+i])", name, name, pos.Start.BytePos)
	s.Close()
	if shift := spanBytes*8 - pos.Start.BitInByte - bit; shift != 0 || bit != spanBytes*8 {
		s.Line("%s = (%s >> %d) & %#x", name, name, shift, ast.MaxUintValue(bit))
	}
}

func fieldBitWidth(members map[string]MemberHeader, g *ast.MessageGroup, field string) int {
	for _, m := range g.Members {
		mh := members[m.Name]
		if f, ok := fieldByName(mh.Header.Header, field); ok {
			return f.Bit
		}
	}
	return 8
}

func localCondName(field string) string {
	return "cond" + TypeName(field)
}

// condExpr renders the boolean Go expression testing whether a member's
// declared ranges contain the condition tuple just read.
func condExpr(on []string, m ast.Member) string {
	expr := ""
	for _, field := range on {
		set := m.Conds[field]
		part := condSetExpr(localCondName(field), set)
		if expr == "" {
			expr = part
		} else {
			expr = expr + " && " + part
		}
	}
	if expr == "" {
		return "true"
	}
	return expr
}

func condSetExpr(varName string, set ast.CondSet) string {
	ranges := append(ast.CondSet{}, set...)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	expr := ""
	for _, r := range ranges {
		var part string
		if r.Lo == r.Hi {
			part = fmt.Sprintf("%s == %d", varName, r.Lo)
		} else {
			part = fmt.Sprintf("(%s >= %d && %s <= %d)", varName, r.Lo, varName, r.Hi)
		}
		if expr == "" {
			expr = part
		} else {
			expr = expr + " || " + part
		}
	}
	if expr == "" {
		return "false"
	}
	return "(" + expr + ")"
}

// maxConditionByteOffset returns one past the highest byte index any shared
// condition field reaches, across every member, so group_parse can bounds-check the
// buffer once before reading any of them.
func maxConditionByteOffset(g *ast.MessageGroup, members map[string]MemberHeader) int {
	max := 0
	for _, field := range g.On {
		for _, m := range g.Members {
			mh := members[m.Name]
			pos, ok := mh.Positions[field]
			if !ok {
				continue
			}
			end := pos.End.BytePos + 1
			if end > max {
				max = end
			}
		}
	}
	return max
}
