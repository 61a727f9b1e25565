// Package openapi synthesizes an OpenAPI-style view from extracted
// endpoints. The output is a convenience document for humans and agents,
// not a validated OpenAPI spec: there is no parameter modeling and, unless
// explicitly enriched, no schema inference from observed bodies.
package openapi

import (
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"

	"github.com/usetrace/harmcp/pkg/extract"
	"github.com/usetrace/harmcp/pkg/har"
	"github.com/usetrace/harmcp/pkg/jsonschema"
)

// Spec is the synthesized document.
type Spec struct {
	OpenAPI string              `json:"openapi"`
	Info    Info                `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// Info carries the document title and version.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathItem maps a lower-cased HTTP method to its operation.
type PathItem map[string]Operation

// Operation is a minimal operation descriptor: a summary plus a single
// response keyed by the observed status code.
type Operation struct {
	Summary   string              `json:"summary"`
	Responses map[string]Response `json:"responses"`
}

// Response describes one observed response status.
type Response struct {
	Description string          `json:"description"`
	Schema      *invopop.Schema `json:"schema,omitempty"`
}

// Synthesize groups endpoints by path (query string stripped) and
// lower-cased method. Each occurrence fully overwrites the path+method
// slot, so the last endpoint wins when several share a combination.
func Synthesize(endpoints []extract.Endpoint) *Spec {
	spec := &Spec{
		OpenAPI: "3.0.0",
		Info:    Info{Title: "Observed API", Version: "0.0.0"},
		Paths:   make(map[string]PathItem),
	}
	for _, ep := range endpoints {
		spec.add(ep, nil)
	}
	return spec
}

// SynthesizeWithBodies behaves like Synthesize but additionally infers a
// JSON Schema for each operation from the source entry's response body,
// when that body is JSON. Endpoint IDs are resolved back to entries by
// their encoded input position.
func SynthesizeWithBodies(doc *har.Document, endpoints []extract.Endpoint) *Spec {
	spec := &Spec{
		OpenAPI: "3.0.0",
		Info:    Info{Title: "Observed API", Version: "0.0.0"},
		Paths:   make(map[string]PathItem),
	}
	for _, ep := range endpoints {
		spec.add(ep, responseSchema(doc, ep))
	}
	return spec
}

func (s *Spec) add(ep extract.Endpoint, schema *invopop.Schema) {
	path := stripQuery(ep.Path)
	method := strings.ToLower(ep.Method)

	item, ok := s.Paths[path]
	if !ok {
		item = make(PathItem)
		s.Paths[path] = item
	}

	status := fmt.Sprintf("%d", ep.Status)
	item[method] = Operation{
		Summary: fmt.Sprintf("%s %s", ep.Method, path),
		Responses: map[string]Response{
			status: {
				Description: statusDescription(ep.Status),
				Schema:      schema,
			},
		},
	}
}

func statusDescription(status int) string {
	if status >= 200 && status < 300 {
		return "Success"
	}
	return "Error"
}

func stripQuery(p string) string {
	if i := strings.Index(p, "?"); i >= 0 {
		return p[:i]
	}
	return p
}

// responseSchema infers a schema from the endpoint's response body, or nil
// when the entry is out of range, non-JSON, or undecodable.
func responseSchema(doc *har.Document, ep extract.Endpoint) *invopop.Schema {
	idx := ep.EntryIndex()
	if doc == nil || idx < 0 || idx >= len(doc.Log.Entries) {
		return nil
	}
	content := &doc.Log.Entries[idx].Response.Content
	if !strings.Contains(strings.ToLower(content.MimeType), "json") {
		return nil
	}
	body, err := content.Decode()
	if err != nil || len(body) == 0 {
		return nil
	}
	return jsonschema.Infer(body)
}
