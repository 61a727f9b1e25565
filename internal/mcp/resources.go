package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/mcp/tools"
	"github.com/usetrace/harmcp/internal/store"
	"github.com/usetrace/harmcp/pkg/extract"
	"github.com/usetrace/harmcp/pkg/openapi"
)

// Resource URI scheme: har://
// Supported URIs:
//   har://traces/{trace}/endpoints
//   har://traces/{trace}/openapi

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "har://traces/{trace}/endpoints",
		Name:        "Extracted Endpoints",
		Description: "API endpoints extracted from a trace, in capture order. Same data as the har_extract_endpoints tool.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.8,
		},
	}, s.handleResourceEndpoints)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "har://traces/{trace}/openapi",
		Name:        "Synthesized OpenAPI Spec",
		Description: "OpenAPI 3.0 document synthesized from a trace's API calls, with response body schemas inferred from observed payloads.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceOpenAPI)
}

// Resource handlers

func (s *Server) handleResourceEndpoints(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	t, _, err := s.resolveTraceURI(req.Params.URI, "endpoints")
	if err != nil {
		return nil, err
	}

	result, err := extract.Extract(t.Doc)
	if err != nil {
		return nil, tools.WrapHarError(err)
	}

	content := map[string]any{
		"trace_id":  t.ID,
		"endpoints": result.Endpoints,
		"skipped":   result.Skipped,
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceOpenAPI(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	t, _, err := s.resolveTraceURI(req.Params.URI, "openapi")
	if err != nil {
		return nil, err
	}

	result, err := extract.Extract(t.Doc)
	if err != nil {
		return nil, tools.WrapHarError(err)
	}

	spec := openapi.SynthesizeWithBodies(t.Doc, result.Endpoints)
	return toResourceResult(req.Params.URI, spec)
}

// Helper functions

// resolveTraceURI parses a har://traces/{trace}/{kind} URI and loads the
// trace it names.
func (s *Server) resolveTraceURI(uri, wantKind string) (*store.Trace, string, error) {
	if !strings.HasPrefix(uri, "har://") {
		return nil, "", tools.ErrInvalidInput("invalid URI scheme: expected har://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "har://"), "/")
	if len(parts) != 3 || parts[0] != "traces" {
		return nil, "", tools.ErrInvalidInput("resource URI must be har://traces/{trace}/{endpoints|openapi}")
	}
	if parts[2] != wantKind {
		return nil, "", tools.ErrInvalidInput(fmt.Sprintf("unknown resource kind: %s", parts[2]))
	}

	trace, ok := s.deps.Store.Get(parts[1])
	if !ok {
		return nil, "", sdkmcp.ResourceNotFoundError(uri)
	}
	return trace, parts[2], nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
