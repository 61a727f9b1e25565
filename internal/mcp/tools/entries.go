package tools

import (
	"context"
	"unicode/utf8"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/pkg/har"
)

// GetEntryInput is the input for har_get_entry.
type GetEntryInput struct {
	TraceID        string `json:"trace_id" jsonschema:"Trace ID"`
	EntryIndex     int    `json:"entry_index" jsonschema:"Zero-based entry index, matching the N in endpoint-N IDs"`
	IncludeHeaders bool   `json:"include_headers,omitempty" jsonschema:"Include request and response headers. Default: false"`
	Target         string `json:"target,omitempty" jsonschema:"Which body to return: request, response, or both (default)"`
	MaxBodyBytes   int    `json:"max_body_bytes,omitempty" jsonschema:"Truncate bodies beyond this size (default from server config)"`
}

// GetEntryOutput is the output for har_get_entry.
type GetEntryOutput struct {
	Method          string       `json:"method"`
	URL             string       `json:"url"`
	Status          int          `json:"status"`
	StatusText      string       `json:"status_text,omitempty"`
	StartedAt       string       `json:"started_at,omitempty"`
	TimeMs          float64      `json:"time_ms,omitempty"`
	RequestHeaders  []har.NVPair `json:"request_headers,omitzero"`
	ResponseHeaders []har.NVPair `json:"response_headers,omitzero"`
	RequestBody     *BodyView    `json:"request_body,omitempty"`
	ResponseBody    *BodyView    `json:"response_body,omitempty"`
}

// BodyView is a possibly-truncated body with its metadata.
type BodyView struct {
	MimeType  string `json:"mime_type,omitempty"`
	Size      int    `json:"size"`
	Text      string `json:"text,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// ToolGetEntry returns one HAR entry with optional headers and bodies.
func ToolGetEntry(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetEntryInput) (*sdkmcp.CallToolResult, GetEntryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetEntryInput) (*sdkmcp.CallToolResult, GetEntryOutput, error) {
		_, entry, err := d.ResolveEntry(input.TraceID, input.EntryIndex)
		if err != nil {
			return nil, GetEntryOutput{}, err
		}

		target := input.Target
		switch target {
		case "", "both", "request", "response":
		default:
			return nil, GetEntryOutput{}, ErrInvalidInput("target must be request, response, or both")
		}

		maxBytes := input.MaxBodyBytes
		if maxBytes <= 0 {
			maxBytes = d.Config.ToolMaxBodyBytes
		}

		output := GetEntryOutput{
			Method:     entry.Request.Method,
			URL:        entry.Request.URL,
			Status:     entry.Response.Status,
			StatusText: entry.Response.StatusText,
			StartedAt:  entry.StartedDateTime,
			TimeMs:     entry.Time,
		}
		if input.IncludeHeaders {
			output.RequestHeaders = entry.Request.Headers
			output.ResponseHeaders = entry.Response.Headers
		}

		if target == "" || target == "both" || target == "request" {
			output.RequestBody = requestBodyView(entry, maxBytes)
		}
		if target == "" || target == "both" || target == "response" {
			output.ResponseBody = responseBodyView(entry, maxBytes)
		}

		return nil, output, nil
	}
}

func requestBodyView(entry *har.Entry, maxBytes int) *BodyView {
	if entry.Request.PostData == nil || entry.Request.PostData.Text == "" {
		return nil
	}
	return truncateBody(entry.Request.PostData.MimeType, []byte(entry.Request.PostData.Text), maxBytes)
}

func responseBodyView(entry *har.Entry, maxBytes int) *BodyView {
	body, err := entry.Response.Content.Decode()
	if err != nil || len(body) == 0 {
		return nil
	}
	return truncateBody(entry.Response.Content.MimeType, body, maxBytes)
}

// truncateBody cuts the body at maxBytes without splitting a UTF-8 rune.
func truncateBody(mimeType string, body []byte, maxBytes int) *BodyView {
	view := &BodyView{MimeType: mimeType, Size: len(body)}
	if len(body) <= maxBytes {
		view.Text = string(body)
		return view
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	view.Text = string(body[:cut])
	view.Truncated = true
	return view
}
