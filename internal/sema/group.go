package sema

import "go.pktfmt.dev/pktfmt/internal/ast"

// MemberInfo is what ValidateGroup needs to know about one resolved member
// definition: whether each shared condition field exists in its header
// (and, if so, its resolved position — used to confirm every member agrees
// on where to find it, since group dispatch reads each condition field
// once, before it is known which member matched).
type MemberInfo struct {
	FieldPos ast.FieldPos
}

// ValidateGroup runs §4.3 "Condition validation": every shared condition
// field must exist, with a consistent position, in every member's header;
// every member's match-set for every condition field must be non-empty;
// and the tuples of values accepted by distinct members must be disjoint
// (testable property 7, §8).
func ValidateGroup(g *ast.MessageGroup, members map[string]MemberInfo) []*ast.Error {
	var errs []*ast.Error

	for _, field := range g.On {
		var first *ast.Pos
		for _, m := range g.Members {
			info, ok := members[m.Name]
			if !ok {
				continue // unresolvable member name reported by Analyze
			}
			pos, ok := info.FieldPos[field]
			if !ok {
				errs = append(errs, ast.NewError(ast.ErrMissingCondField, m.Span,
					"member %q has no field %q, a shared condition field of group %q", m.Name, field, g.Name))
				continue
			}
			if first == nil {
				p := pos
				first = &p
			} else if *first != pos {
				errs = append(errs, ast.NewError(ast.ErrMissingCondField, m.Span,
					"member %q's field %q is not at the same position as in other members", m.Name, field))
			}
		}
	}

	for _, m := range g.Members {
		for _, field := range g.On {
			set, ok := m.Conds[field]
			if !ok {
				errs = append(errs, ast.NewError(ast.ErrMissingCondField, m.Span,
					"member %q does not declare a cond entry for %q", m.Name, field))
				continue
			}
			if len(set) == 0 {
				errs = append(errs, ast.NewError(ast.ErrEmptyCondSet, m.Span,
					"member %q's cond set for %q is empty", m.Name, field))
			}
		}
	}

	for i := 0; i < len(g.Members); i++ {
		for j := i + 1; j < len(g.Members); j++ {
			if membersOverlap(g.Members[i], g.Members[j], g.On) {
				errs = append(errs, ast.NewError(ast.ErrOverlappingTags, g.Members[j].Span,
					"members %q and %q have overlapping condition tags", g.Members[i].Name, g.Members[j].Name))
			}
		}
	}
	return errs
}

// membersOverlap reports whether two members' accepted tuples intersect:
// true iff every shared condition field's value sets overlap (axis-aligned
// boxes are disjoint as soon as they are disjoint on any one axis).
func membersOverlap(a, b ast.Member, on []string) bool {
	for _, field := range on {
		sa, oka := a.Conds[field]
		sb, okb := b.Conds[field]
		if !oka || !okb {
			return false
		}
		if !sa.Overlaps(sb) {
			return false
		}
	}
	return true
}
