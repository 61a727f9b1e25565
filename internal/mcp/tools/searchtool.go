package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/search"
)

// SearchEntriesInput is the input for har_search_entries.
type SearchEntriesInput struct {
	TraceID string                `json:"trace_id" jsonschema:"Trace ID"`
	Query   string                `json:"query,omitempty" jsonschema:"Free text search across URLs, headers, and methods. Tokens are ANDed: all terms must match somewhere."`
	Filters *SearchEntriesFilters `json:"filters,omitempty" jsonschema:"Structured filters"`
	Limit   int                   `json:"limit,omitempty" jsonschema:"Max results (default: 20, max: 100)"`
	Offset  int                   `json:"offset,omitempty" jsonschema:"Pagination offset"`
}

// SearchEntriesFilters contains filter criteria for search.
type SearchEntriesFilters struct {
	Method       string `json:"method,omitempty" jsonschema:"HTTP method"`
	Status       int    `json:"status,omitempty" jsonschema:"HTTP status code"`
	Host         string `json:"host,omitempty" jsonschema:"Request host"`
	HeaderName   string `json:"header_name,omitempty" jsonschema:"Filter by header presence (name only, e.g., authorization)"`
	PathContains string `json:"path_contains,omitempty" jsonschema:"Path substring match"`
}

// SearchEntriesOutput is the output for har_search_entries.
type SearchEntriesOutput struct {
	Results   []search.EntrySummary `json:"results,omitzero"`
	TotalHint int                   `json:"total_hint"`
	Hint      string                `json:"hint,omitempty"`
}

// ToolSearchEntries searches the entries of one trace.
func ToolSearchEntries(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchEntriesInput) (*sdkmcp.CallToolResult, SearchEntriesOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchEntriesInput) (*sdkmcp.CallToolResult, SearchEntriesOutput, error) {
		if input.TraceID == "" {
			return nil, SearchEntriesOutput{}, ErrInvalidInput("trace_id is required")
		}

		limit := input.Limit
		if limit <= 0 {
			limit = d.Config.DefaultSearchLimit
		}

		searchReq := &search.Request{
			Query:  input.Query,
			Limit:  limit,
			Offset: input.Offset,
		}
		if input.Filters != nil {
			searchReq.Filters = &search.Filters{
				Method:       input.Filters.Method,
				Status:       input.Filters.Status,
				Host:         input.Filters.Host,
				HeaderName:   input.Filters.HeaderName,
				PathContains: input.Filters.PathContains,
			}
		}

		resp, ok := d.Search.Search(input.TraceID, searchReq)
		if !ok {
			return nil, SearchEntriesOutput{}, ErrNotFound("trace", input.TraceID)
		}

		output := SearchEntriesOutput{
			Results:   resp.Results,
			TotalHint: resp.TotalHint,
		}
		if len(resp.Results) == 0 {
			output.Hint = "no entries matched: loosen filters or drop query terms"
		}
		return nil, output, nil
	}
}
