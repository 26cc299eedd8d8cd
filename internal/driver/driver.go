// Package driver is the compiler's entry point (component D, §4.7): it
// walks a parsed file's definitions, runs semantic analysis, bakes each
// header template, streams generated Go source for every definition, and
// collects diagnostics. A compilation unit is small enough that the whole
// pipeline runs synchronously with no cancellation or background work
// (§5 "Concurrency & resource model").
package driver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
	"golang.org/x/tools/imports"

	"go.pktfmt.dev/pktfmt/internal/ast"
	"go.pktfmt.dev/pktfmt/internal/backend"
	"go.pktfmt.dev/pktfmt/internal/codegen"
	"go.pktfmt.dev/pktfmt/internal/parse"
	"go.pktfmt.dev/pktfmt/internal/sema"
	"go.pktfmt.dev/pktfmt/internal/template"
)

// Result is one run's output: the generated Go source for the whole
// file, plus every diagnostic collected across it. Source is empty
// whenever any diagnostic was reported — §7 "the emitted code is only written
// if every definition in the unit compiles".
type Result struct {
	Source      string
	Diagnostics []Diagnostic
	BuildID     string
}

// Diagnostic is one user-facing error, positioned in the original source.
type Diagnostic struct {
	Path string
	Code int
	Span ast.Span
	Msg  string
}

// Option adjusts a Compile call's behavior beyond the per-target backend
// config, the way the root package's CompileOption adjusts backend.Config
// itself.
type Option func(*options)

type options struct {
	format bool
}

// WithFormat toggles running the generated source through goimports
// (import-cleanup plus gofmt) before it's returned. Off by default: the
// emitted preamble's runtime import is always genuinely used by the
// generic container types, so nothing here depends on goimports to drop
// an unused import, and skipping it keeps Compile a pure string-builder
// pass with no external process dependency unless the caller opts in.
func WithFormat(format bool) Option {
	return func(o *options) { o.format = format }
}

// Compile runs L→P→A→C→G+S over src and returns the emitted module body
// (without a package clause — the caller supplies that) plus any
// diagnostics. cfg is cloned per call via go-deepcopy so concurrent
// callers sharing one loaded Config can't observe each other's mutations,
// even though nothing in this package mutates it today.
func Compile(path, src string, cfg backend.Config, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var unitCfg backend.Config
	if err := deepcopy.Copy(&unitCfg, &cfg); err != nil {
		return Result{}, errors.Wrapf(err, "%s: cloning backend config", path)
	}

	defs, lexErrs := parse.ParseFile(src)
	var diags []Diagnostic
	for _, e := range lexErrs {
		diags = append(diags, toDiagnostic(path, e))
	}

	semaErrs := sema.Analyze(defs, unitCfg)
	for _, e := range semaErrs {
		diags = append(diags, toDiagnostic(path, e))
	}

	if len(diags) > 0 {
		return Result{Diagnostics: diags}, nil
	}

	buildID := uuid.New().String()
	s := codegen.NewSource()
	s.Line("// Code generated by pktfmtc. DO NOT EDIT.")
	s.Line("// build: %s", buildID)
	s.Blank()
	s.Line(`import "go.pktfmt.dev/pktfmt/runtime"`)
	s.Blank()

	members := make(map[string]codegen.MemberHeader, len(defs))
	for i := range defs {
		d := &defs[i]
		switch {
		case d.Packet != nil:
			d.Packet.Template = template.Build(&d.Packet.Header, d.Packet.Positions, d.Packet.HeaderLenBytes)
			h := codegen.FromPacket(d.Packet)
			codegen.EmitContainer(s, unitCfg, h)
			members[d.Packet.Name] = codegen.MemberHeader{Header: h}
		case d.Message != nil:
			d.Message.Template = template.Build(&d.Message.Header, d.Message.Positions, d.Message.HeaderLenBytes)
			h := codegen.FromMessage(d.Message)
			codegen.EmitContainer(s, unitCfg, h)
			members[d.Message.Name] = codegen.MemberHeader{Header: h}
		}
	}

	for i := range defs {
		if g := defs[i].Group; g != nil {
			codegen.EmitGroup(s, g, members)
		}
	}

	out := s.String()
	if o.format {
		formatted, err := imports.Process(path, []byte(out), nil)
		if err != nil {
			return Result{}, errors.Wrapf(err, "%s: formatting generated source", path)
		}
		out = string(formatted)
	}

	return Result{Source: out, BuildID: buildID}, nil
}

func toDiagnostic(path string, e *ast.Error) Diagnostic {
	code := e.Code.Ordinal()
	if code == 0 {
		code = int(e.Code)
	}
	return Diagnostic{Path: path, Code: code, Span: e.Span, Msg: e.Msg}
}

// Format renders a Diagnostic the way §7 prescribes: source path, byte
// offset range, a stable numeric code, and a short human sentence.
func (d Diagnostic) Format() string {
	return fmt.Sprintf("%s:%d-%d: E%03d: %s", d.Path, d.Span.Start, d.Span.End, d.Code, d.Msg)
}
