package agent

import (
	"fmt"
	"strings"
)

// buildPrompt composes the instruction handed to the agent CLI. The prompt
// pins down the deliverable (a FastMCP server file), the input HAR files,
// and the exact completion line the runner watches for.
func buildPrompt(harPaths []string, serverName, serverPath, outputDir string, port int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are building an MCP server named %q from recorded HTTP traffic.\n\n", serverName)

	b.WriteString("Input HAR files:\n")
	for _, p := range harPaths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\n")

	b.WriteString("Steps:\n")
	fmt.Fprintf(&b, "1. Read each HAR file and identify the API endpoints it records: entries whose request path contains /api/, or whose request or response carries an application/json content type.\n")
	fmt.Fprintf(&b, "2. For every distinct endpoint (method plus path), design an MCP tool that replays that call, with parameters for path variables, query parameters, and JSON request bodies you observe.\n")
	fmt.Fprintf(&b, "3. Write a Python FastMCP server implementing those tools to %s. The module must expose the server object as `mcp`.\n", serverPath)
	fmt.Fprintf(&b, "4. Keep every generated file inside %s.\n", outputDir)
	fmt.Fprintf(&b, "5. Verify the file parses and the tool definitions are complete.\n\n")

	b.WriteString("When everything is in place, print exactly this line and nothing after it:\n")
	fmt.Fprintf(&b, "done MCP created and running on http://127.0.0.1:%d\n", port)

	return b.String()
}
