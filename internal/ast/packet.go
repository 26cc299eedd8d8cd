package ast

// FieldPos maps a field name to its resolved bit position, built by the
// semantic analyzer during header validation.
type FieldPos map[string]Pos

// Packet couples a Header and a Length triple. It carries no condition
// block: conditions are declared on the MessageGroup a packet belongs to.
type Packet struct {
	Name     string
	Span     Span
	Header   Header
	Length   Length
	Iterator bool // emit TIter/TIterMut
	Doc      Doc

	// Populated by the semantic analyzer.
	Positions      FieldPos
	HeaderLenBytes int
	Template       []byte
}

// Message is a Packet without a packet-length slot: total length is the
// header length only, and parsing never truncates a payload.
type Message struct {
	Name     string
	Span     Span
	Header   Header
	Length   Length
	Iterator bool
	Doc      Doc

	Positions      FieldPos
	HeaderLenBytes int
	Template       []byte
}

// ValueRange is an inclusive range of accepted condition-field values; a
// single accepted value is represented as Lo == Hi.
type ValueRange struct {
	Lo, Hi uint64
}

// CondSet is the set of value ranges a MessageGroup member accepts for one
// condition field.
type CondSet []ValueRange

// Contains reports whether v falls in any range of the set.
func (c CondSet) Contains(v uint64) bool {
	for _, r := range c {
		if v >= r.Lo && v <= r.Hi {
			return true
		}
	}
	return false
}

// Overlaps reports whether c and other share any value.
func (c CondSet) Overlaps(other CondSet) bool {
	for _, a := range c {
		for _, b := range other {
			if a.Lo <= b.Hi && b.Lo <= a.Hi {
				return true
			}
		}
	}
	return false
}

// Member is one arm of a MessageGroup: either a Packet or a Message name,
// plus the per-condition-field match sets that select it.
type Member struct {
	Name  string
	Span  Span
	Conds map[string]CondSet // keyed by condition field name
}

// MessageGroup is a tagged union over several Packets/Messages disambiguated
// by one or more shared condition fields.
type MessageGroup struct {
	Name    string
	Span    Span
	Members []Member
	On      []string // shared condition field names, in declared order
	Doc     Doc
}

// Def is one top-level definition parsed from a source file: exactly one
// of Packet, Message, or Group is non-nil.
type Def struct {
	Packet  *Packet
	Message *Message
	Group   *MessageGroup
}

// Name returns the definition's declared name regardless of its kind.
func (d Def) Name() string {
	switch {
	case d.Packet != nil:
		return d.Packet.Name
	case d.Message != nil:
		return d.Message.Name
	case d.Group != nil:
		return d.Group.Name
	default:
		return ""
	}
}
