package codegen

import (
	"go/token"

	"github.com/stoewer/go-strcase"
)

// TypeName turns a DSL definition name into an exported Go type name
// (packet/message/group names are already written UpperCamelCase by
// convention in the DSL, but this normalizes names coming from
// less disciplined definition files).
func TypeName(name string) string {
	return strcase.UpperCamelCase(name)
}

// FieldName turns a DSL field name (snake_case by convention) into an
// exported Go method/argument name, e.g. "header_len" -> "HeaderLen".
func FieldName(name string) string {
	return strcase.UpperCamelCase(name)
}

// ArgName turns a field name into an unexported Go parameter name for use
// inside a generated setter's signature, e.g. "header_len" -> "headerLen".
// A result that is a Go keyword gets a trailing underscore ("type_" -> "type_").
func ArgName(name string) string {
	arg := strcase.LowerCamelCase(name)
	if token.IsKeyword(arg) {
		return arg + "_"
	}
	return arg
}
