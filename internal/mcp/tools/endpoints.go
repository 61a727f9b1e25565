package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/pkg/extract"
)

// ExtractEndpointsInput is the input for har_extract_endpoints.
type ExtractEndpointsInput struct {
	TraceID string `json:"trace_id" jsonschema:"Trace ID from har_list_traces or har_load_trace"`
}

// ExtractEndpointsOutput is the output for har_extract_endpoints.
type ExtractEndpointsOutput struct {
	Endpoints []extract.Endpoint `json:"endpoints,omitzero"`
	Skipped   int                `json:"skipped,omitempty"`
	Hint      string             `json:"hint,omitempty"`
}

// ToolExtractEndpoints extracts API endpoints from a trace.
func ToolExtractEndpoints(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractEndpointsInput) (*sdkmcp.CallToolResult, ExtractEndpointsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractEndpointsInput) (*sdkmcp.CallToolResult, ExtractEndpointsOutput, error) {
		t, err := d.ResolveTrace(input.TraceID)
		if err != nil {
			return nil, ExtractEndpointsOutput{}, err
		}

		result, err := extract.Extract(t.Doc)
		if err != nil {
			return nil, ExtractEndpointsOutput{}, WrapHarError(err)
		}

		output := ExtractEndpointsOutput{
			Endpoints: result.Endpoints,
			Skipped:   result.Skipped,
		}
		if len(result.Endpoints) == 0 {
			output.Hint = "no API calls found: nothing matched /api/ paths or application/json content types"
		}
		return nil, output, nil
	}
}
