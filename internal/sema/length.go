package sema

import (
	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

// ValidateLength runs the §4.3 "Length validation" checks against an
// already-position-resolved header. isMessage restricts the allowed slot
// pattern to {all None, header-only} per §4.3's cross-slot sanity rule.
func ValidateLength(length ast.Length, positions ast.FieldPos, header []ast.Field,
	fixedHeaderLen int, cfg backend.Config, isMessage bool) []*ast.Error {

	var errs []*ast.Error
	byName := make(map[string]*ast.Field, len(header))
	for i := range header {
		byName[header[i].Name] = &header[i]
	}

	for slotIdx := 0; slotIdx < 3; slotIdx++ {
		slot := length.Slots[slotIdx]
		if slot.Kind != ast.SlotExpr {
			continue
		}
		errs = append(errs, validateSlot(ast.Slot(slotIdx), slot, byName, fixedHeaderLen, cfg)...)
	}

	errs = append(errs, validateSlotPattern(length, isMessage)...)
	return errs
}

func validateSlot(slot ast.Slot, ls ast.LengthSlot, byName map[string]*ast.Field,
	fixedHeaderLen int, cfg backend.Config) []*ast.Error {

	var errs []*ast.Error
	u := ls.Expr
	span := u.Span

	field, ok := byName[u.Field]
	if !ok {
		return []*ast.Error{ast.NewError(ast.ErrUnknownFieldInLength, span,
			"%s: %q is not a field of this header", slot, u.Field)}
	}

	if field.Bit > 64 {
		errs = append(errs, ast.NewError(ast.ErrOversizeField, span,
			"%s: field %q is %d bits wide, exceeding the target's usize width", slot, field.Name, field.Bit))
	}
	if field.Gen {
		errs = append(errs, ast.NewError(ast.ErrGenFieldInLength, span,
			"%s: field %q must have gen=false to be used in a length expression", slot, field.Name))
	}
	if field.Arg != ast.ArgRepr || field.Repr == ast.ReprByteSlice || field.Repr == ast.ReprInvalid {
		errs = append(errs, ast.NewError(ast.ErrWrongReprForLength, span,
			"%s: field %q must have an integer repr and arg == repr", slot, field.Name))
	}
	if field.FixedDefault && slot != ast.SlotHeaderLen {
		errs = append(errs, ast.NewError(ast.ErrFixedDefaultMisuse, span,
			"%s: field %q has default_fix=true and may only be used in the header_len slot", slot, field.Name))
	}

	maxVal := ast.MaxUintValue(field.Bit)
	if y, ok := u.Exec(maxVal); !ok || y > uint64(cfg.MTU) {
		errs = append(errs, ast.NewError(ast.ErrMaxLengthOverMTU, span,
			"%s: expression evaluated at the field's maximum value exceeds the MTU (%d)", slot, cfg.MTU))
	}

	if slot == ast.SlotHeaderLen || slot == ast.SlotPacketLen {
		def := fieldDefaultNum(field)
		if y, ok := u.Exec(def); !ok || y < uint64(fixedHeaderLen) {
			errs = append(errs, ast.NewError(ast.ErrDefaultBelowFixedHdr, span,
				"%s: expression at the field's default value must be >= the fixed header length (%d)",
				slot, fixedHeaderLen))
		}
		if _, ok := u.ReverseExec(uint64(fixedHeaderLen)); !ok {
			errs = append(errs, ast.NewError(ast.ErrReverseImageFailure, span,
				"%s: the fixed header length (%d) is not in the expression's integer image", slot, fixedHeaderLen))
		}
	}

	return errs
}

func fieldDefaultNum(f *ast.Field) uint64 {
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

// validateSlotPattern checks the allowed (header, payload, packet)
// engagement triples for packets; messages restrict this further below.
func validateSlotPattern(length ast.Length, isMessage bool) []*ast.Error {
	h := length.Slots[ast.SlotHeaderLen].Kind != ast.SlotNone
	p := length.Slots[ast.SlotPayloadLen].Kind != ast.SlotNone
	k := length.Slots[ast.SlotPacketLen].Kind != ast.SlotNone

	if isMessage {
		if p || k {
			return []*ast.Error{ast.NewError(ast.ErrInvalidSlotPattern, ast.Span{},
				"message definitions may only set header_len")}
		}
		return nil
	}

	switch {
	case !h && !p && !k, h && !p && !k, !h && p && !k, !h && !p && k, h && p && !k, h && !p && k:
		return nil
	default:
		return []*ast.Error{ast.NewError(ast.ErrInvalidSlotPattern, ast.Span{},
			"length slot pattern (header=%v, payload=%v, packet=%v) is not one of the allowed combinations", h, p, k)}
	}
}
