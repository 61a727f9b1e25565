// Package jsonschema infers JSON Schema documents from sample JSON data.
// Schemas follow JSON Schema Draft 2020-12 via invopop/jsonschema types.
package jsonschema

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
)

// Infer generates a JSON Schema from one or more JSON samples. Samples that
// fail to parse are ignored; with no parseable samples the result is nil.
// When multiple samples are given their schemas are merged: a property is
// required only if present in every sample, and conflicting types widen to
// an untyped schema.
func Infer(samples ...[]byte) *jsonschema.Schema {
	var parsed []any
	for _, data := range samples {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	if len(parsed) == 0 {
		return nil
	}

	schema := inferValue(parsed[0])
	for _, v := range parsed[1:] {
		schema = merge(schema, inferValue(v))
	}
	return schema
}

// inferValue builds a schema for a single decoded JSON value.
func inferValue(v any) *jsonschema.Schema {
	switch val := v.(type) {
	case nil:
		return &jsonschema.Schema{Type: "null"}
	case bool:
		return &jsonschema.Schema{Type: "boolean"}
	case string:
		return &jsonschema.Schema{Type: "string"}
	case float64:
		if val == float64(int64(val)) {
			return &jsonschema.Schema{Type: "integer"}
		}
		return &jsonschema.Schema{Type: "number"}
	case []any:
		return inferArray(val)
	case map[string]any:
		return inferObject(val)
	default:
		return &jsonschema.Schema{}
	}
}

func inferArray(items []any) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "array"}
	if len(items) == 0 {
		return schema
	}
	merged := inferValue(items[0])
	for _, item := range items[1:] {
		merged = merge(merged, inferValue(item))
	}
	schema.Items = merged
	return schema
}

func inferObject(obj map[string]any) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		schema.Properties.Set(k, inferValue(obj[k]))
		schema.Required = append(schema.Required, k)
	}
	return schema
}

// merge combines two inferred schemas. Integer widens to number; any other
// type conflict drops the type constraint entirely.
func merge(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if a.Type != b.Type {
		if isNumeric(a.Type) && isNumeric(b.Type) {
			return &jsonschema.Schema{Type: "number"}
		}
		return &jsonschema.Schema{}
	}

	switch a.Type {
	case "object":
		return mergeObjects(a, b)
	case "array":
		return &jsonschema.Schema{Type: "array", Items: merge(a.Items, b.Items)}
	default:
		return &jsonschema.Schema{Type: a.Type}
	}
}

func mergeObjects(a, b *jsonschema.Schema) *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	// Union of properties, merging where both sides carry the key.
	if a.Properties != nil {
		for pair := a.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if other, ok := propLookup(b, pair.Key); ok {
				out.Properties.Set(pair.Key, merge(pair.Value, other))
			} else {
				out.Properties.Set(pair.Key, pair.Value)
			}
		}
	}
	if b.Properties != nil {
		for pair := b.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := propLookup(a, pair.Key); !ok {
				out.Properties.Set(pair.Key, pair.Value)
			}
		}
	}

	// Required is the intersection: a field missing from any sample is
	// optional.
	inB := make(map[string]bool, len(b.Required))
	for _, k := range b.Required {
		inB[k] = true
	}
	for _, k := range a.Required {
		if inB[k] {
			out.Required = append(out.Required, k)
		}
	}
	return out
}

func propLookup(s *jsonschema.Schema, key string) (*jsonschema.Schema, bool) {
	if s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(key)
}

func isNumeric(t string) bool {
	return t == "integer" || t == "number"
}
