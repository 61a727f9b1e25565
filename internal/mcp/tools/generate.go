package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/agent"
)

// GenerateServerInput is the input for har_generate_server.
type GenerateServerInput struct {
	TraceIDs   []string `json:"trace_ids,omitempty" jsonschema:"Loaded trace IDs whose HAR files seed the generation. Traces loaded from content rather than a file are rejected."`
	HarPaths   []string `json:"har_paths,omitempty" jsonschema:"HAR file paths to use directly, alternative to trace_ids"`
	ServerName string   `json:"server_name,omitempty" jsonschema:"Display name for the generated MCP server"`
	Port       int      `json:"port,omitempty" jsonschema:"Port the generated server should listen on"`
	OutputDir  string   `json:"output_dir,omitempty" jsonschema:"Directory for generated files"`
	AllowBash  bool     `json:"allow_bash,omitempty" jsonschema:"Let the agent run shell commands. Default: false"`
	MaxTurns   int      `json:"max_turns,omitempty" jsonschema:"Turn budget for the agent"`
}

// GenerateServerOutput is the output for har_generate_server. Agent
// failures are reported in the error field, not as tool errors.
type GenerateServerOutput struct {
	Success      bool     `json:"success"`
	FinalMessage string   `json:"final_message,omitempty"`
	Logs         []string `json:"logs,omitzero"`
	ServerPath   string   `json:"mcp_server_path,omitempty"`
	RunCommand   string   `json:"run_command,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ToolGenerateServer asks the coding agent to build an MCP server from
// HAR captures.
func ToolGenerateServer(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateServerInput) (*sdkmcp.CallToolResult, GenerateServerOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateServerInput) (*sdkmcp.CallToolResult, GenerateServerOutput, error) {
		harPaths := input.HarPaths
		for _, id := range input.TraceIDs {
			t, err := d.ResolveTrace(id)
			if err != nil {
				return nil, GenerateServerOutput{}, err
			}
			if t.Path == "" {
				return nil, GenerateServerOutput{}, ErrInvalidInput("trace " + id + " has no backing HAR file")
			}
			harPaths = append(harPaths, t.Path)
		}
		if len(harPaths) == 0 {
			return nil, GenerateServerOutput{}, ErrInvalidInput("trace_ids or har_paths is required")
		}

		result, err := d.Agent.Generate(ctx, &agent.Request{
			HarPaths:   harPaths,
			ServerName: input.ServerName,
			Port:       input.Port,
			OutputDir:  input.OutputDir,
			AllowBash:  input.AllowBash,
			MaxTurns:   input.MaxTurns,
		})
		if err != nil {
			return nil, GenerateServerOutput{}, &CodedError{
				Code:    ErrCodeAgentError,
				Message: "running generation agent",
				Cause:   err,
			}
		}

		return nil, GenerateServerOutput{
			Success:      result.Success,
			FinalMessage: result.FinalMessage,
			Logs:         result.Logs,
			ServerPath:   result.ServerPath,
			RunCommand:   result.RunCommand,
			Instructions: result.Instructions,
			Error:        result.Error,
		}, nil
	}
}
