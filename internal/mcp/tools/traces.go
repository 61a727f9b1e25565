package tools

import (
	"context"
	"errors"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/store"
)

// ListTracesInput is the input for har_list_traces.
type ListTracesInput struct{}

// ListTracesOutput is the output for har_list_traces.
type ListTracesOutput struct {
	Traces []TraceInfo `json:"traces,omitzero"`
}

// TraceInfo is a summary of a loaded trace.
type TraceInfo struct {
	TraceID    string `json:"trace_id"`
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	EntryCount int    `json:"entry_count"`
	LoadedAt   string `json:"loaded_at"`
}

// LoadTraceInput is the input for har_load_trace.
type LoadTraceInput struct {
	Path    string `json:"path,omitempty" jsonschema:"Filesystem path of a HAR file to load"`
	Content string `json:"content,omitempty" jsonschema:"Raw HAR JSON to load directly, alternative to path"`
	Name    string `json:"name,omitempty" jsonschema:"Display name for the trace (default: file base name)"`
}

// LoadTraceOutput is the output for har_load_trace.
type LoadTraceOutput struct {
	Trace TraceInfo `json:"trace"`
}

func toTraceInfo(t *store.Trace) TraceInfo {
	return TraceInfo{
		TraceID:    t.ID,
		Name:       t.Name,
		Path:       t.Path,
		EntryCount: t.EntryCount(),
		LoadedAt:   t.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ToolListTraces lists all loaded traces, newest first.
func ToolListTraces(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListTracesInput) (*sdkmcp.CallToolResult, ListTracesOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListTracesInput) (*sdkmcp.CallToolResult, ListTracesOutput, error) {
		traces := d.Store.List()
		output := ListTracesOutput{Traces: make([]TraceInfo, len(traces))}
		for i, t := range traces {
			output.Traces[i] = toTraceInfo(t)
		}
		return nil, output, nil
	}
}

// ToolLoadTrace loads a HAR file into the store, by path or raw content.
func ToolLoadTrace(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LoadTraceInput) (*sdkmcp.CallToolResult, LoadTraceOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LoadTraceInput) (*sdkmcp.CallToolResult, LoadTraceOutput, error) {
		switch {
		case input.Path != "" && input.Content != "":
			return nil, LoadTraceOutput{}, ErrInvalidInput("provide path or content, not both")

		case input.Path != "":
			t, err := d.Store.Load(input.Path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil, LoadTraceOutput{}, ErrNotFound("HAR file", input.Path)
				}
				return nil, LoadTraceOutput{}, WrapHarError(err)
			}
			return nil, LoadTraceOutput{Trace: toTraceInfo(t)}, nil

		case input.Content != "":
			name := input.Name
			if name == "" {
				name = "inline"
			}
			t, err := d.Store.Add(name, []byte(input.Content))
			if err != nil {
				return nil, LoadTraceOutput{}, WrapHarError(err)
			}
			return nil, LoadTraceOutput{Trace: toTraceInfo(t)}, nil

		default:
			return nil, LoadTraceOutput{}, ErrInvalidInput("path or content is required")
		}
	}
}
