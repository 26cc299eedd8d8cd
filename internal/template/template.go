// Package template is the header-template builder (component C, §4.4): it
// bakes every field's default value into a zero-initialized byte buffer
// ahead of time, so the generated `new()` constructor can start from a
// memcpy of a static template instead of writing each field's default at
// runtime.
package template

import "go.pktfmt.dev/pktfmt/internal/ast"

// Build bakes one header's field defaults into a headerLen-byte template.
// positions must already be resolved (sema.AnalyzeHeader's output); fields
// with Gen == false still contribute their default, since a non-generated
// field is still part of the wire layout.
func Build(h *ast.Header, positions ast.FieldPos, headerLen int) []byte {
	buf := make([]byte, headerLen)
	for _, f := range h.Fields {
		pos := positions[f.Name]
		writeDefault(buf, f, pos)
	}
	return buf
}

// writeDefault stages one field's default value into buf at its resolved
// position. Every integer-repr shape — the single-bit bool fast path, a
// sub-byte field crossing a byte boundary, and a multi-byte field whose
// span isn't a whole number of bytes at one end — reduces to the same
// operation: read the bytes the field spans into a uint64 window, clear the
// bits the field owns, OR in the default shifted to line up with the
// field's bit offset, and write the window back. A ReprByteSlice field is a
// raw copy instead, since it has no bit-level packing within its bytes.
func writeDefault(buf []byte, f ast.Field, pos ast.Pos) {
	if f.Repr == ast.ReprByteSlice {
		if f.Default.Kind == ast.DefaultBytes {
			copy(buf[pos.Start.BytePos:pos.Start.BytePos+len(f.Default.Bytes)], f.Default.Bytes)
		}
		return
	}
	writeBits(buf, pos.Start.BytePos, pos.Start.BitInByte, f.Bit, defaultValue(f))
}

// defaultValue extracts a field's default as the raw unsigned integer that
// belongs in its bit range, regardless of whether the DSL literal was
// numeric or boolean.
func defaultValue(f ast.Field) uint64 {
	switch f.Default.Kind {
	case ast.DefaultBool:
		if f.Default.Bool {
			return 1
		}
		return 0
	case ast.DefaultNum:
		return f.Default.Num
	default:
		return 0
	}
}

// writeBits ORs a bitWidth-wide value into buf, starting startByte bytes and
// startBitInByte bits in (bit 0 is the MSB of a byte). The field's span is
// always ceil((startBitInByte+bitWidth)/8) bytes by the time this runs,
// since the analyzer already rejected any header whose layout would need
// more — which keeps the window within a uint64 for every field width this
// compiler supports (up to 64 bits).
func writeBits(buf []byte, startByte, startBitInByte, bitWidth int, value uint64) {
	endBitGlobal := startBitInByte + bitWidth - 1
	spanBytes := endBitGlobal/8 + 1

	var window uint64
	for i := 0; i < spanBytes; i++ {
		window = window<<8 | uint64(buf[startByte+i])
	}

	shift := uint(spanBytes*8 - startBitInByte - bitWidth)
	mask := ((uint64(1) << uint(bitWidth)) - 1) << shift
	window = (window &^ mask) | ((value << shift) & mask)

	for i := spanBytes - 1; i >= 0; i-- {
		buf[startByte+i] = byte(window)
		window >>= 8
	}
}
