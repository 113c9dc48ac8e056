// Package api holds the OpenAPI description of the HTTP interface and the request and
// response bodies exchanged over it.
package api

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed api.yaml
var spec []byte

// RawSpec returns the OpenAPI document as written.
func RawSpec() []byte {
	return spec
}

// GetSwagger parses and validates the embedded OpenAPI document. Servers are dropped so
// that routes match on path alone, whatever host the service runs behind.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("error loading openapi spec: %w", err)
	}

	err = doc.Validate(context.Background())
	if err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}

	doc.Servers = nil

	return doc, nil
}
