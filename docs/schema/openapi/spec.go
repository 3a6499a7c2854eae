// Package openapi embeds the HTTP API schema for runtime distribution.
package openapi

import _ "embed"

// APISpec contains the OpenAPI 3 document for the scan and document API.
//
//go:embed openapi.json
var APISpec []byte

// Spec returns a defensive copy of the embedded OpenAPI JSON.
func Spec() []byte {
	return append([]byte(nil), APISpec...)
}
