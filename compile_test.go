package pktfmt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoSrc = `
packet Icmp {
	header = [
		type_ = Field { bit = 8, default = 0 },
		code = Field { bit = 8, default = 0 },
		checksum = Field { bit = 16, default = 0 },
	],
	length = {
		header_len = undefined,
	}
}
`

func TestCompileProducesSourceWithNoDiagnostics(t *testing.T) {
	src, diags, err := Compile("icmp.pkt", echoSrc)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Contains(t, src, "type Icmp[B runtime.ReadBuffer] struct")
}

func TestCompileWithMTURejectsOversizedHeader(t *testing.T) {
	_, diags, err := Compile("icmp.pkt", echoSrc, WithMTU(2))
	require.NoError(t, err)
	assert.NotEmpty(t, diags, "a 4-byte header exceeds a 2-byte MTU ceiling")
}

func TestCompileWithReservedNamesRejectsCollidingFieldName(t *testing.T) {
	const src = `
packet Bad {
	header = [
		widget = Field { bit = 8, default = 0 },
	],
	length = {
		header_len = undefined,
	}
}
`
	_, diags, err := Compile("bad.pkt", src, WithReservedNames("widget"))
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
}

func TestCompileWithFormatRunsGoimports(t *testing.T) {
	src, diags, err := Compile("icmp.pkt", echoSrc, WithFormat(true))
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Contains(t, src, "type Icmp[B runtime.ReadBuffer] struct")
}

func TestCompileFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icmp.pkt")
	require.NoError(t, os.WriteFile(path, []byte(echoSrc), 0o644))

	src, diags, err := CompileFile(path)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Contains(t, src, "type Icmp[B runtime.ReadBuffer] struct")
}

func TestCompileFileMissingPathReturnsError(t *testing.T) {
	_, _, err := CompileFile(filepath.Join(t.TempDir(), "missing.pkt"))
	assert.Error(t, err)
}

func TestDiagnosticsJoinsOnePerLine(t *testing.T) {
	const src = `
packet Bad {
	header = [
		a = Field { bit = 8, default = 0 },
		a = Field { bit = 8, default = 0 },
	],
	length = {
		header_len = undefined,
	}
}
`
	_, diags, err := Compile("bad.pkt", src)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	report := Diagnostics(diags)
	assert.Contains(t, report, "bad.pkt")
}
