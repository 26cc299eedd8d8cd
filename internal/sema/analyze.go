package sema

import (
	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

// Analyze runs the full §4.3 analysis pass over one file's definitions: it
// resolves each Packet/Message's field positions and header length, checks
// its length triple, resolves MessageGroup member references against their
// sibling definitions, and validates each group's condition sets. Analysis
// does not stop at the first failing definition — it continues with the
// next one in the same file, matching the core's no-cross-definition-
// recovery rule from §7.
func Analyze(defs []ast.Def, cfg backend.Config) []*ast.Error {
	var errs []*ast.Error
	members := make(map[string]MemberInfo, len(defs))

	for i := range defs {
		d := &defs[i]
		switch {
		case d.Packet != nil:
			errs = append(errs, analyzeHeaderLike(d.Packet.Header, &d.Packet.Length, &d.Packet.Positions,
				&d.Packet.HeaderLenBytes, cfg, false)...)
			members[d.Packet.Name] = MemberInfo{FieldPos: d.Packet.Positions}
		case d.Message != nil:
			errs = append(errs, analyzeHeaderLike(d.Message.Header, &d.Message.Length, &d.Message.Positions,
				&d.Message.HeaderLenBytes, cfg, true)...)
			members[d.Message.Name] = MemberInfo{FieldPos: d.Message.Positions}
		}
	}

	for i := range defs {
		g := defs[i].Group
		if g == nil {
			continue
		}
		resolved := make(map[string]MemberInfo, len(g.Members))
		for _, m := range g.Members {
			info, ok := members[m.Name]
			if !ok {
				errs = append(errs, ast.NewError(ast.ErrMissingCondField, m.Span,
					"group %q member %q does not refer to a packet or message defined in this file",
					g.Name, m.Name))
				continue
			}
			resolved[m.Name] = info
		}
		errs = append(errs, ValidateGroup(g, resolved)...)
	}

	return errs
}

// analyzeHeaderLike runs header and length validation for one Packet or
// Message, writing the resolved positions and header length back into the
// caller's AST node.
func analyzeHeaderLike(h ast.Header, length *ast.Length, positions *ast.FieldPos,
	headerLenBytes *int, cfg backend.Config, isMessage bool) []*ast.Error {

	pos, hlen, errs := AnalyzeHeader(&h, cfg)
	*positions = pos
	*headerLenBytes = hlen

	errs = append(errs, ValidateLength(*length, pos, h.Fields, hlen, cfg, isMessage)...)
	return errs
}
