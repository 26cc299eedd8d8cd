package pktfmt

import "go.pktfmt.dev/pktfmt/internal/backend"

// compileOptions bundles the per-target backend config alongside
// driver-level switches (currently just output formatting) that aren't
// themselves part of a target's Config.
type compileOptions struct {
	cfg    backend.Config
	format bool
}

// CompileOption customizes a Compile call: the per-target backend
// configuration (reserved identifiers, the MTU ceiling, Repr-to-Go-type
// names — §9 Open Question 2's per-target resolution) or driver-level
// switches like output formatting.
type CompileOption func(*compileOptions)

// WithBackendConfig uses cfg instead of the built-in Go default.
func WithBackendConfig(cfg backend.Config) CompileOption {
	return func(o *compileOptions) { o.cfg = cfg }
}

// WithMTU overrides the MTU ceiling a header or packet may not exceed.
func WithMTU(mtu int) CompileOption {
	return func(o *compileOptions) { o.cfg.MTU = mtu }
}

// WithReservedNames adds to the set of identifiers a field or definition
// name may not collide with, beyond the backend default.
func WithReservedNames(names ...string) CompileOption {
	return func(o *compileOptions) { o.cfg.ReservedNames = append(o.cfg.ReservedNames, names...) }
}

// WithFormat runs the generated source through goimports before it's
// returned. Off by default (§1, §2).
func WithFormat(format bool) CompileOption {
	return func(o *compileOptions) { o.format = format }
}
