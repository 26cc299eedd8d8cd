// Package pktfmt compiles a packet-format definition language into
// zero-copy, allocation-free Go accessor code for network protocol
// headers. A definition file declares packets, messages, and tagged
// message groups as fixed-arity sequences of bit-packed fields; Compile
// runs the lexer, parser, semantic analyzer, header-template builder, and
// field/container codegen stages over it and returns the generated Go
// source for every definition, or the diagnostics explaining why it did
// not compile.
package pktfmt
