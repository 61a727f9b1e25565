package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/pkg/har"
)

// QueryBodyInput is the input for har_query_body.
type QueryBodyInput struct {
	TraceID      string `json:"trace_id" jsonschema:"Trace ID"`
	EntryIndexes []int  `json:"entry_indexes,omitempty" jsonschema:"Entry indexes to query; empty means every JSON response in the trace"`
	Expression   string `json:"expression" jsonschema:"JQ expression applied to each JSON response body, e.g. '.items[].id'"`
	Target       string `json:"target,omitempty" jsonschema:"Which body to query: request or response (default)"`
	Deduplicate  bool   `json:"deduplicate,omitempty" jsonschema:"Drop duplicate values from the result. Default: false"`
	MaxResults   int    `json:"max_results,omitempty" jsonschema:"Cap on returned values (default from server config)"`
}

// QueryBodyOutput is the output for har_query_body.
type QueryBodyOutput struct {
	Values   []any    `json:"values,omitzero"`
	Errors   []string `json:"errors,omitzero"`
	RawCount int      `json:"raw_count"`
	Queried  int      `json:"queried"`
	Hint     string   `json:"hint,omitempty"`
}

// ToolQueryBody runs a JQ expression over JSON bodies in a trace.
func ToolQueryBody(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBodyInput) (*sdkmcp.CallToolResult, QueryBodyOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryBodyInput) (*sdkmcp.CallToolResult, QueryBodyOutput, error) {
		if input.Expression == "" {
			return nil, QueryBodyOutput{}, ErrInvalidInput("expression is required")
		}
		target := input.Target
		switch target {
		case "":
			target = "response"
		case "request", "response":
		default:
			return nil, QueryBodyOutput{}, ErrInvalidInput("target must be request or response")
		}

		t, err := d.ResolveTrace(input.TraceID)
		if err != nil {
			return nil, QueryBodyOutput{}, err
		}

		indexes := input.EntryIndexes
		if len(indexes) == 0 {
			for i := range t.Doc.Log.Entries {
				indexes = append(indexes, i)
			}
		}

		var inputs [][]byte
		for _, idx := range indexes {
			if idx < 0 || idx >= len(t.Doc.Log.Entries) {
				return nil, QueryBodyOutput{}, ErrNotFound("entry", fmt.Sprintf("%s[%d]", input.TraceID, idx))
			}
			entry := &t.Doc.Log.Entries[idx]
			body, mimeType := bodyFor(entry, target)
			if len(body) == 0 || !strings.Contains(strings.ToLower(mimeType), "json") {
				continue
			}
			inputs = append(inputs, body)
		}

		if len(inputs) == 0 {
			return nil, QueryBodyOutput{
				Hint: "no JSON bodies to query: check entry_indexes and target",
			}, nil
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = d.Config.DefaultQueryLimit
		}

		result, err := d.Query.QueryMultiple(inputs, input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryBodyOutput{}, ErrInvalidInput(err.Error())
		}

		return nil, QueryBodyOutput{
			Values:   result.Values,
			Errors:   result.Errors,
			RawCount: result.RawCount,
			Queried:  len(inputs),
		}, nil
	}
}

// bodyFor returns the requested body and its MIME type.
func bodyFor(entry *har.Entry, target string) ([]byte, string) {
	if target == "request" {
		if entry.Request.PostData == nil {
			return nil, ""
		}
		return []byte(entry.Request.PostData.Text), entry.Request.PostData.MimeType
	}
	body, err := entry.Response.Content.Decode()
	if err != nil {
		return nil, ""
	}
	return body, entry.Response.Content.MimeType
}
