// Package sema is the semantic analyzer (component A, §4.3): it validates
// header layout and length-expression arithmetic against bit-packing and
// MTU constraints, and builds the field-position table used by codegen.
package sema

import (
	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

// AnalyzeHeader validates a Header's layout (§3 invariants 1-4, §4.3
// "Header validation") and returns the resolved field-position table and
// the header's byte length. It always returns as complete a FieldPos as it
// can, even when errors are present, so later stages (which may tolerate
// partial information for diagnostics) are not starved of positions.
func AnalyzeHeader(h *ast.Header, cfg backend.Config) (ast.FieldPos, int, []*ast.Error) {
	var errs []*ast.Error
	seen := make(map[string]bool, len(h.Fields))
	positions := make(ast.FieldPos, len(h.Fields))
	bitOffset := 0

	for i, f := range h.Fields {
		if seen[f.Name] {
			errs = append(errs, ast.NewError(ast.ErrDuplicateField, f.Span,
				"duplicate field name %q", f.Name))
		}
		seen[f.Name] = true

		if cfg.IsReserved(f.Name) {
			errs = append(errs, ast.NewError(ast.ErrReservedName, f.Span,
				"field name %q is reserved for the %q backend", f.Name, cfg.Name))
		}

		start := ast.BitPos{BytePos: bitOffset / 8, BitInByte: bitOffset % 8}
		end := start.End(f.Bit)
		if f.Bit > 8 && start.BitInByte != 0 && end.BitInByte != 7 {
			errs = append(errs, ast.NewError(ast.ErrMisalignedField, f.Span,
				"field %q is %d bits wide and must start or end on a byte boundary", f.Name, f.Bit))
		}

		positions[f.Name] = ast.Pos{Start: start, End: end, Index: i}
		bitOffset += f.Bit
	}

	if bitOffset%8 != 0 {
		errs = append(errs, ast.NewError(ast.ErrNonOctetHeader, headerSpan(h),
			"header bit length %d is not a multiple of 8", bitOffset))
		return positions, 0, errs
	}

	headerLenBytes := bitOffset / 8
	if headerLenBytes > cfg.MTU {
		errs = append(errs, ast.NewError(ast.ErrMTUOverflow, headerSpan(h),
			"header length %d bytes exceeds the MTU ceiling of %d", headerLenBytes, cfg.MTU))
	}
	return positions, headerLenBytes, errs
}

func headerSpan(h *ast.Header) ast.Span {
	if len(h.Fields) == 0 {
		return ast.Span{}
	}
	return ast.Span{Start: h.Fields[0].Span.Start, End: h.Fields[len(h.Fields)-1].Span.End}
}
