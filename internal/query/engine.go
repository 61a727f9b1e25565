// Package query provides JQ-based extraction from HAR entry bodies.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Engine compiles and runs JQ expressions against JSON bodies.
type Engine struct{}

// NewEngine creates a query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result carries the extracted values and per-input errors.
type Result struct {
	Values   []any    `json:"values"`
	Errors   []string `json:"errors,omitempty"`
	RawCount int      `json:"raw_count"` // values seen before dedup and caps
}

// Query runs a JQ expression against one JSON document. Type errors from
// individual outputs are collected, not fatal; a bad expression or invalid
// JSON fails the call.
func (e *Engine) Query(data []byte, expression string, deduplicate bool, maxResults int) (*Result, error) {
	return e.QueryMultiple([][]byte{data}, expression, deduplicate, maxResults)
}

// QueryMultiple runs a JQ expression against several JSON documents,
// combining values across all of them. Documents that fail to parse
// contribute an error instead of failing the batch.
func (e *Engine) QueryMultiple(inputs [][]byte, expression string, deduplicate bool, maxResults int) (*Result, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compiling jq expression: %w", err)
	}

	result := &Result{Values: []any{}}
	seen := make(map[string]bool)

	for i, data := range inputs {
		var input any
		if err := json.Unmarshal(data, &input); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("input %d: invalid JSON: %v", i, err))
			continue
		}

		iter := code.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if qerr, isErr := v.(error); isErr {
				result.Errors = append(result.Errors, fmt.Sprintf("input %d: %v", i, qerr))
				continue
			}
			if v == nil {
				continue
			}

			result.RawCount++
			if deduplicate {
				key := valueKey(v)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			result.Values = append(result.Values, v)

			if maxResults > 0 && len(result.Values) >= maxResults {
				return result, nil
			}
		}
	}

	return result, nil
}

// valueKey builds a dedup key from a value's JSON form.
func valueKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
