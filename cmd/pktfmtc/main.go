// Command pktfmtc reads one packet-format definition file and writes the
// generated Go accessor source to a destination file, or reports
// diagnostics and exits non-zero.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"go.pktfmt.dev/pktfmt"
	"go.pktfmt.dev/pktfmt/internal/backend"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("pktfmtc", pflag.ContinueOnError)
	backendPath := flags.String("backend", "", "path to a YAML backend.Config (default: the built-in Go target)")
	fmtOut := flags.Bool("fmt", false, "run the generated source through goimports before writing it")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: pktfmtc [flags] <src.pkt> <dst.go>")
		return 2
	}
	src, dst := flags.Arg(0), flags.Arg(1)

	var opts []pktfmt.CompileOption
	if *backendPath != "" {
		cfg, err := backend.Load(*backendPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		opts = append(opts, pktfmt.WithBackendConfig(cfg))
	}
	if *fmtOut {
		opts = append(opts, pktfmt.WithFormat(true))
	}

	out, diags, err := pktfmt.CompileFile(src, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, pktfmt.Diagnostics(diags))
		return 1
	}

	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
