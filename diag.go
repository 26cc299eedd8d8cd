package pktfmt

import "strings"

// Diagnostics joins a slice of Diagnostic into the multi-line report a
// CLI would print, one Diagnostic.Format() per line.
func Diagnostics(diags []Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.Format()
	}
	return strings.Join(lines, "\n")
}
