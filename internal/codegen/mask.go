package codegen

import "fmt"

// ReprByteWidth picks the native storage width, in {1, 2, 4, 8} bytes, for
// a field bit bits wide — the Go integer type's size, not necessarily the
// number of wire bytes a get/set touches (see ast.IOByteLen for that).
func ReprByteWidth(bit int) int {
	switch {
	case bit <= 8:
		return 1
	case bit <= 16:
		return 2
	case bit <= 32:
		return 4
	default:
		return 8
	}
}

// FieldMask returns the hex literal, byteWidth bytes wide, for a
// bitWidth-bit run of 1s starting shift bits up from the low end of the
// window — the bits a field occupies once its bytes are staged into a
// byteWidth-byte big-endian window (§4.5 "mask generators").
//
// spec.md §9 flags the original's large-field mask branch as buggy
// without saying how; rather than guess at and reproduce an unspecified
// defect, this builds the mask by OR-accumulating one bit at a time,
// which has no single shift-by-bit-width edge case to get wrong.
func FieldMask(byteWidth, bitWidth, shift int) string {
	var m uint64
	for i := 0; i < bitWidth; i++ {
		m |= 1 << uint(shift+i)
	}
	return fmt.Sprintf("0x%0*x", byteWidth*2, m)
}

// ClearMask is FieldMask's complement within byteWidth bytes: 0 over the
// field's bits, 1 everywhere else. ANDing a staged window with this mask
// clears exactly the field's bits while preserving its neighbors, ahead
// of a read-modify-write set.
func ClearMask(byteWidth, bitWidth, shift int) string {
	var full, field uint64
	for i := 0; i < byteWidth*8; i++ {
		full |= 1 << uint(i)
	}
	for i := 0; i < bitWidth; i++ {
		field |= 1 << uint(shift+i)
	}
	return fmt.Sprintf("0x%0*x", byteWidth*2, full&^field)
}
