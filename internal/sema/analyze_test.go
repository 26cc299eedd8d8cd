package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

func TestAnalyzeResolvesPositionsAndHeaderLen(t *testing.T) {
	defs := []ast.Def{
		{Packet: &ast.Packet{
			Name:   "Icmp",
			Header: icmpHeader(),
			Length: ast.Length{Slots: [3]ast.LengthSlot{
				{Kind: ast.SlotUndefined}, {}, {},
			}},
		}},
	}
	errs := Analyze(defs, backend.DefaultGo())
	require.Empty(t, errs)
	assert.Equal(t, 8, defs[0].Packet.HeaderLenBytes)
	assert.Equal(t, ast.BitPos{BytePos: 4, BitInByte: 0}, defs[0].Packet.Positions["identifier"].Start)
}

func TestAnalyzeGroupRejectsUnresolvedMember(t *testing.T) {
	defs := []ast.Def{
		{Group: &ast.MessageGroup{
			Name:    "Demux",
			On:      []string{"type_"},
			Members: []ast.Member{{Name: "Ghost", Conds: map[string]ast.CondSet{"type_": {{Lo: 0, Hi: 0}}}}},
		}},
	}
	errs := Analyze(defs, backend.DefaultGo())
	require.NotEmpty(t, errs)
	assert.Equal(t, ast.ErrMissingCondField, errs[0].Code)
}

func TestAnalyzeContinuesAfterOneDefinitionFails(t *testing.T) {
	defs := []ast.Def{
		{Packet: &ast.Packet{
			Name:   "Bad",
			Header: ast.Header{Fields: []ast.Field{{Name: "a", Bit: 3}}},
		}},
		{Packet: &ast.Packet{
			Name:   "Good",
			Header: icmpHeader(),
		}},
	}
	errs := Analyze(defs, backend.DefaultGo())
	require.NotEmpty(t, errs)
	assert.Equal(t, 8, defs[1].Packet.HeaderLenBytes)
}
