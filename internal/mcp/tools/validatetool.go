package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usetrace/harmcp/internal/schema"
)

// ValidateBodyInput is the input for har_validate_body.
type ValidateBodyInput struct {
	TraceID      string `json:"trace_id" jsonschema:"Trace ID"`
	EntryIndexes []int  `json:"entry_indexes" jsonschema:"Entry indexes whose bodies are validated"`
	Schema       string `json:"schema" jsonschema:"JSON Schema as raw JSON text"`
	Target       string `json:"target,omitempty" jsonschema:"Which body to validate: request or response (default)"`
}

// EntryValidation is the validation outcome for one entry.
type EntryValidation struct {
	EntryIndex int      `json:"entry_index"`
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors,omitzero"`
	Skipped    bool     `json:"skipped,omitempty"` // entry had no body to validate
}

// ValidateBodyOutput is the output for har_validate_body.
type ValidateBodyOutput struct {
	Results    []EntryValidation `json:"results,omitzero"`
	ValidCount int               `json:"valid_count"`
	Total      int               `json:"total"`
}

// ToolValidateBody validates entry bodies against a JSON Schema.
func ToolValidateBody(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBodyInput) (*sdkmcp.CallToolResult, ValidateBodyOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBodyInput) (*sdkmcp.CallToolResult, ValidateBodyOutput, error) {
		if input.Schema == "" {
			return nil, ValidateBodyOutput{}, ErrInvalidInput("schema is required")
		}
		if len(input.EntryIndexes) == 0 {
			return nil, ValidateBodyOutput{}, ErrInvalidInput("entry_indexes is required")
		}
		target := input.Target
		switch target {
		case "":
			target = "response"
		case "request", "response":
		default:
			return nil, ValidateBodyOutput{}, ErrInvalidInput("target must be request or response")
		}

		t, err := d.ResolveTrace(input.TraceID)
		if err != nil {
			return nil, ValidateBodyOutput{}, err
		}

		validator, err := schema.NewValidator(input.Schema)
		if err != nil {
			return nil, ValidateBodyOutput{}, ErrInvalidInput(fmt.Sprintf("compiling schema: %v", err))
		}

		output := ValidateBodyOutput{Results: make([]EntryValidation, 0, len(input.EntryIndexes))}
		for _, idx := range input.EntryIndexes {
			if idx < 0 || idx >= len(t.Doc.Log.Entries) {
				return nil, ValidateBodyOutput{}, ErrNotFound("entry", fmt.Sprintf("%s[%d]", input.TraceID, idx))
			}
			entry := &t.Doc.Log.Entries[idx]
			body, _ := bodyFor(entry, target)
			if len(body) == 0 {
				output.Results = append(output.Results, EntryValidation{EntryIndex: idx, Skipped: true})
				continue
			}

			res := validator.Validate(body)
			output.Results = append(output.Results, EntryValidation{
				EntryIndex: idx,
				Valid:      res.Valid,
				Errors:     res.Errors,
			})
			if res.Valid {
				output.ValidCount++
			}
		}
		output.Total = len(output.Results)

		return nil, output, nil
	}
}
