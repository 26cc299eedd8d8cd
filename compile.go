package pktfmt

import (
	"os"

	"github.com/pkg/errors"

	"go.pktfmt.dev/pktfmt/internal/backend"
	"go.pktfmt.dev/pktfmt/internal/driver"
)

// Diagnostic is one user-visible compilation error: the source path, a
// byte offset range, a stable numeric code, and a short sentence (§7).
type Diagnostic = driver.Diagnostic

// Compile runs the full pipeline over src, a definition file's text. name
// is used only to label diagnostics; it need not be a real path. The
// returned source is valid only when diagnostics is empty — per §7, the
// emitted code is only produced once every definition in the unit
// compiles clean.
func Compile(name, src string, opts ...CompileOption) (string, []Diagnostic, error) {
	o := compileOptions{cfg: backend.DefaultGo()}
	for _, opt := range opts {
		opt(&o)
	}

	var driverOpts []driver.Option
	if o.format {
		driverOpts = append(driverOpts, driver.WithFormat(true))
	}

	result, err := driver.Compile(name, src, o.cfg, driverOpts...)
	if err != nil {
		return "", nil, errors.Wrapf(err, "compiling %s", name)
	}
	return result.Source, result.Diagnostics, nil
}

// CompileFile reads path and runs Compile over its contents.
func CompileFile(path string, opts ...CompileOption) (string, []Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "reading %s", path)
	}
	return Compile(path, string(src), opts...)
}
