package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsableAlgExprIdentity(t *testing.T) {
	u := UsableAlgExpr{Shape: ShapeIdent}
	y, ok := u.Exec(20)
	assert.True(t, ok)
	assert.Equal(t, uint64(20), y)
	x, ok := u.ReverseExec(20)
	assert.True(t, ok)
	assert.Equal(t, uint64(20), x)
}

func TestUsableAlgExprPlusTimesReverseExecScenario3(t *testing.T) {
	// (x+1)*4 with a 6-byte fixed header: reverse_exec(6) has no image
	// since 6%4 != 0 -- this is the spec's length-expression rejection
	// scenario.
	u := UsableAlgExpr{Shape: ShapePlusTimes, A: 1, M: 4}
	y, ok := u.Exec(4)
	assert.True(t, ok)
	assert.Equal(t, uint64(20), y)

	_, ok = u.ReverseExec(6)
	assert.False(t, ok)

	x, ok := u.ReverseExec(20)
	assert.True(t, ok)
	assert.Equal(t, uint64(4), x)
}

func TestUsableAlgExprShapeTimesPlus(t *testing.T) {
	u := UsableAlgExpr{Shape: ShapeTimesPlus, M: 4, A: 20}
	y, ok := u.Exec(0)
	assert.True(t, ok)
	assert.Equal(t, uint64(20), y)

	x, ok := u.ReverseExec(20)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), x)

	_, ok = u.ReverseExec(21)
	assert.False(t, ok)
}

func TestUsableAlgExprIdentPlusOverflow(t *testing.T) {
	u := UsableAlgExpr{Shape: ShapeIdentPlus, A: 1}
	_, ok := u.Exec(^uint64(0))
	assert.False(t, ok)
}

func TestUsableAlgExprIdentTimesOverflow(t *testing.T) {
	u := UsableAlgExpr{Shape: ShapeIdentTimes, M: 2}
	_, ok := u.Exec(^uint64(0))
	assert.False(t, ok)
}

func TestMaxUintValue(t *testing.T) {
	assert.Equal(t, uint64(0xff), MaxUintValue(8))
	assert.Equal(t, uint64(0x3f), MaxUintValue(6))
	assert.Equal(t, ^uint64(0), MaxUintValue(64))
}

func TestIOByteLen(t *testing.T) {
	assert.Equal(t, 1, IOByteLen(1))
	assert.Equal(t, 1, IOByteLen(6))
	assert.Equal(t, 1, IOByteLen(8))
	assert.Equal(t, 2, IOByteLen(9))
	assert.Equal(t, 2, IOByteLen(16))
}

func TestBitPosEnd(t *testing.T) {
	p := BitPos{BytePos: 0, BitInByte: 4}
	end := p.End(6)
	assert.Equal(t, BitPos{BytePos: 1, BitInByte: 1}, end)
}
