package handlers

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
)

//go:embed openapi.yaml
var openapiSpec []byte

// LoadAPISpec parses and validates the embedded OpenAPI document. A broken
// contract fails router construction instead of being served as-is.
func LoadAPISpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, errors.Wrap(err, "parse openapi document")
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "validate openapi document")
	}
	return doc, nil
}

// ServeAPISpec serves the contract as JSON at /api/openapi.json.
func ServeAPISpec(doc *openapi3.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := doc.MarshalJSON()
		if err != nil {
			http.Error(w, "unable to encode openapi document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}
