package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: har_list_traces
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_list_traces",
		Description: "List loaded HAR traces with their entry counts, newest first",
	}, ToolListTraces(d))

	// Tool 2: har_load_trace
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_load_trace",
		Description: "Load a HAR file into the trace store, from a filesystem path or raw HAR JSON content. Returns the trace_id used by every other tool.",
	}, ToolLoadTrace(d))

	// Tool 3: har_extract_endpoints
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_extract_endpoints",
		Description: "Extract API endpoints from a trace. An entry counts as an API call when its path contains /api/ or its request or response declares application/json. Returns endpoints with id (endpoint-N where N is the entry index), method, path (with query string), and status, in capture order. Entries with unparseable URLs are skipped and counted.",
	}, ToolExtractEndpoints(d))

	// Tool 4: har_search_entries
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_search_entries",
		Description: "Search the entries of a trace with structured filters and free text query. Free-text tokens are ANDed across URLs, headers, and methods. Returns entry summaries whose entry_index feeds har_get_entry, har_query_body, and har_validate_body.",
	}, ToolSearchEntries(d))

	// Tool 5: har_get_entry
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_get_entry",
		Description: "Get one HTTP entry of a trace by index. Returns method, URL, status, timings, and request/response bodies truncated to max_body_bytes. Set include_headers=true for headers; set target to request or response to fetch a single body.",
	}, ToolGetEntry(d))

	// Tool 6: har_openapi_spec
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_openapi_spec",
		Description: "Synthesize an OpenAPI 3.0 spec from the API calls in a trace, grouped by path and method with observed response statuses. Set infer_schemas=true to include response body JSON Schemas inferred from observed payloads.",
	}, ToolOpenAPISpec(d))

	// Tool 7: har_query_body
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_query_body",
		Description: "Extract values from JSON bodies across trace entries with a JQ expression, e.g. '.items[].id'. Defaults to every JSON response in the trace; narrow with entry_indexes from har_search_entries. Per-entry evaluation errors are collected, not fatal.",
	}, ToolQueryBody(d))

	// Tool 8: har_validate_body
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_validate_body",
		Description: "Validate entry bodies against a JSON Schema. Returns per-entry valid/errors plus an aggregate count. Entries without a body are marked skipped.",
	}, ToolValidateBody(d))

	// Tool 9: har_generate_server
	AddTool(srv, &sdkmcp.Tool{
		Name:        "har_generate_server",
		Description: "Generate a runnable MCP server from HAR captures by delegating to the configured coding agent. Accepts trace_ids of file-backed traces or direct har_paths. The agent's outcome is passed through verbatim: on failure the output carries the agent's error and log tail instead of a tool error.",
	}, ToolGenerateServer(d))
}
