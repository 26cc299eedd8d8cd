package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseHex(t *testing.T, hex string) uint64 {
	t.Helper()
	var v uint64
	_, err := fmt.Sscanf(strings.TrimPrefix(hex, "0x"), "%x", &v)
	assert.NoError(t, err)
	return v
}

func TestReprByteWidth(t *testing.T) {
	assert.Equal(t, 1, ReprByteWidth(1))
	assert.Equal(t, 1, ReprByteWidth(8))
	assert.Equal(t, 2, ReprByteWidth(9))
	assert.Equal(t, 2, ReprByteWidth(16))
	assert.Equal(t, 4, ReprByteWidth(17))
	assert.Equal(t, 4, ReprByteWidth(32))
	assert.Equal(t, 8, ReprByteWidth(33))
	assert.Equal(t, 8, ReprByteWidth(64))
}

func TestFieldMaskTopAligned(t *testing.T) {
	// An 8-bit field occupying the full single byte: shift 0.
	assert.Equal(t, "0xff", FieldMask(1, 8, 0))
}

func TestFieldMaskCrossByteScenario4(t *testing.T) {
	// six-bit field within a 2-byte window, shifted 6 bits up from the
	// bottom (bits 6..11 of a 16-bit window).
	assert.Equal(t, "0x0fc0", FieldMask(2, 6, 6))
}

func TestClearMaskIsFieldMaskComplement(t *testing.T) {
	field := FieldMask(2, 6, 6)
	clear := ClearMask(2, 6, 6)
	assert.Equal(t, "0x0fc0", field)
	assert.Equal(t, "0xf03f", clear)
}

func TestFieldMaskAndClearMaskPartitionFullWindow(t *testing.T) {
	for _, tc := range []struct{ byteWidth, bitWidth, shift int }{
		{1, 1, 0}, {1, 1, 7}, {1, 8, 0}, {2, 6, 6}, {2, 6, 0}, {4, 20, 4}, {8, 64, 0},
	} {
		field := parseHex(t, FieldMask(tc.byteWidth, tc.bitWidth, tc.shift))
		clear := parseHex(t, ClearMask(tc.byteWidth, tc.bitWidth, tc.shift))
		assert.Zero(t, field&clear, "field and clear masks must not overlap")
		assert.Equal(t, ^uint64(0)>>uint(64-8*tc.byteWidth), field|clear, "field and clear masks must cover the whole window")
	}
}
