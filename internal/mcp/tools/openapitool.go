package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/pkg/extract"
	"github.com/usetrace/harmcp/pkg/openapi"
)

// OpenAPISpecInput is the input for har_openapi_spec.
type OpenAPISpecInput struct {
	TraceID      string `json:"trace_id" jsonschema:"Trace ID"`
	InferSchemas bool   `json:"infer_schemas,omitempty" jsonschema:"Infer response body JSON Schemas from observed payloads. Default: false"`
}

// OpenAPISpecOutput is the output for har_openapi_spec.
type OpenAPISpecOutput struct {
	Spec          *openapi.Spec `json:"spec"`
	EndpointCount int           `json:"endpoint_count"`
	PathCount     int           `json:"path_count"`
}

// ToolOpenAPISpec synthesizes an OpenAPI spec from a trace's API calls.
func ToolOpenAPISpec(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenAPISpecInput) (*sdkmcp.CallToolResult, OpenAPISpecOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenAPISpecInput) (*sdkmcp.CallToolResult, OpenAPISpecOutput, error) {
		t, err := d.ResolveTrace(input.TraceID)
		if err != nil {
			return nil, OpenAPISpecOutput{}, err
		}

		result, err := extract.Extract(t.Doc)
		if err != nil {
			return nil, OpenAPISpecOutput{}, WrapHarError(err)
		}

		var spec *openapi.Spec
		if input.InferSchemas {
			spec = openapi.SynthesizeWithBodies(t.Doc, result.Endpoints)
		} else {
			spec = openapi.Synthesize(result.Endpoints)
		}

		return nil, OpenAPISpecOutput{
			Spec:          spec,
			EndpointCount: len(result.Endpoints),
			PathCount:     len(spec.Paths),
		}, nil
	}
}
