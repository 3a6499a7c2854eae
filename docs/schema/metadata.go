// Package schema exposes metadata from the embedded API schema for runtime use.
package schema

import (
	"encoding/json"
	"sync"

	"nmrcore/docs/schema/openapi"
)

// Info is the identity block of the API schema.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type specDoc struct {
	Info Info `json:"info"`
}

var (
	infoOnce sync.Once
	apiInfo  Info
	infoErr  error
)

// APIInfo returns the title and version declared in the embedded OpenAPI
// document. The parse happens once; every caller sees the same values.
func APIInfo() (Info, error) {
	infoOnce.Do(func() {
		var doc specDoc
		infoErr = json.Unmarshal(openapi.APISpec, &doc)
		if infoErr == nil {
			apiInfo = doc.Info
		}
	})
	return apiInfo, infoErr
}

// APIVersion returns the version declared in the embedded OpenAPI document.
func APIVersion() (string, error) {
	info, err := APIInfo()
	return info.Version, err
}
