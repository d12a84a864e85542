package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// JSONSchemaDraft2020_12 is the URI for the JSON Schema draft 2020-12
const JSONSchemaDraft2020_12 = "https://json-schema.org/draft/2020-12/schema"

// Schema represents the subset of JSON Schema that tool hosts advertise for
// tool arguments
type Schema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties any                 `json:"additionalProperties,omitempty"`
	SchemaURI            string              `json:"$schema,omitempty"`
}

type Property struct {
	Type                 string              `json:"type,omitempty"`
	Description          string              `json:"description,omitempty"`
	Items                *Schema             `json:"items,omitempty"`
	Format               string              `json:"format,omitempty"`
	Enum                 []any               `json:"enum,omitempty"`
	AdditionalProperties any                 `json:"additionalProperties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
}

// Parse decodes a raw JSON schema. An empty document is treated as an
// object schema that accepts anything.
func Parse(raw json.RawMessage) (Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Schema{Type: "object"}, nil
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return Schema{}, fmt.Errorf("decoding schema: %w", err)
	}
	if s.Type == "" {
		s.Type = "object"
	}
	if s.Type != "object" {
		return Schema{}, fmt.Errorf("schema type must be object, got %q", s.Type)
	}
	return s, nil
}

// ValidateJSON decodes raw tool arguments and validates them
func (s Schema) ValidateJSON(raw json.RawMessage) error {
	input := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &input); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	return s.Validate(input)
}

func (s Schema) Validate(input map[string]any) error {
	// Check required fields
	for _, requiredField := range s.Required {
		if _, ok := input[requiredField]; !ok {
			return fmt.Errorf("missing required field: %s", requiredField)
		}
	}

	for fieldName, value := range input {
		property, ok := s.Properties[fieldName]
		if !ok {
			if s.AdditionalProperties == false {
				return fmt.Errorf("unexpected field: %s", fieldName)
			}
			// If additionalProperties is true or a schema, field is allowed
			continue
		}
		if err := property.validate(fieldName, value); err != nil {
			return err
		}
	}

	return nil
}

func (p Property) validate(fieldName string, value any) error {
	if len(p.Enum) > 0 && !slices.Contains(p.Enum, value) {
		return fmt.Errorf("field %s must be one of %v", fieldName, p.Enum)
	}

	switch p.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s must be a string", fieldName)
		}
	case "number":
		if !isNumber(value) {
			return fmt.Errorf("field %s must be a number", fieldName)
		}
	case "integer":
		if !isInteger(value) {
			return fmt.Errorf("field %s must be an integer", fieldName)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %s must be a boolean", fieldName)
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("field %s must be an array", fieldName)
		}
		if p.Items != nil {
			for i, item := range arr {
				if itemObj, ok := item.(map[string]any); ok {
					if err := p.Items.Validate(itemObj); err != nil {
						return fmt.Errorf("array item %d in field %s: %w", i, fieldName, err)
					}
				}
			}
		}
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("field %s must be an object", fieldName)
		}
		if len(p.Properties) > 0 {
			nested := Schema{
				Type:                 "object",
				Properties:           p.Properties,
				Required:             p.Required,
				AdditionalProperties: p.AdditionalProperties,
			}
			if err := nested.Validate(obj); err != nil {
				return fmt.Errorf("in nested object %s: %w", fieldName, err)
			}
		}
	}
	return nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64, json.Number:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

// NewSchema creates a new Schema with the latest JSON Schema draft
func NewSchema(schemaType string) *Schema {
	return &Schema{
		Type:      schemaType,
		SchemaURI: JSONSchemaDraft2020_12,
	}
}
