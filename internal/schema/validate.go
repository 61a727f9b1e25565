// Package schema validates JSON bodies against JSON Schema documents.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer renders validation errors as English text.
var printer = message.NewPrinter(language.English)

// Validator validates JSON data against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Result holds the outcome of one validation.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidator compiles a JSON Schema given as raw JSON text.
func NewValidator(schemaJSON string) (*Validator, error) {
	var schemaValue any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaValue); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate checks one JSON document against the schema. Invalid JSON is
// reported as a validation failure, not an error.
func (v *Validator) Validate(data []byte) *Result {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &Result{Valid: false, Errors: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}

	err := v.schema.Validate(value)
	if err == nil {
		return &Result{Valid: true}
	}

	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return &Result{Valid: false, Errors: flatten(verr)}
	}
	return &Result{Valid: false, Errors: []string{err.Error()}}
}

// flatten collects leaf error messages with their instance paths.
func flatten(err *jsonschema.ValidationError) []string {
	var out []string
	collect(err, &out)
	return out
}

func collect(err *jsonschema.ValidationError, out *[]string) {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		// Schema-reference messages restate the leaf errors, skip them.
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			if len(err.InstanceLocation) > 0 {
				msg = "/" + strings.Join(err.InstanceLocation, "/") + ": " + msg
			}
			*out = append(*out, msg)
		}
	}
	for _, cause := range err.Causes {
		collect(cause, out)
	}
}
