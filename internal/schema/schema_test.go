package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentByID = `{
	"type": "object",
	"properties": {
		"id": {"type": "integer", "description": "The ID of the student"}
	},
	"required": ["id"],
	"additionalProperties": false
}`

func TestParse(t *testing.T) {
	s, err := Parse(json.RawMessage(studentByID))
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"id"}, s.Required)
	assert.Equal(t, "integer", s.Properties["id"].Type)

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "object", empty.Type)

	_, err = Parse(json.RawMessage(`{"type":"string"}`))
	assert.ErrorContains(t, err, "must be object")

	_, err = Parse(json.RawMessage(`{oops`))
	assert.Error(t, err)
}

func TestSchema_ValidateJSON(t *testing.T) {
	s, err := Parse(json.RawMessage(studentByID))
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    string
		wantErr string
	}{
		{name: "valid", args: `{"id": 5}`},
		{name: "missing required", args: `{}`, wantErr: "missing required field: id"},
		{name: "fractional id", args: `{"id": 5.5}`, wantErr: "must be an integer"},
		{name: "string id", args: `{"id": "5"}`, wantErr: "must be an integer"},
		{name: "unexpected field", args: `{"id": 5, "name": "x"}`, wantErr: "unexpected field: name"},
		{name: "not an object", args: `[1]`, wantErr: "must be a JSON object"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := s.ValidateJSON(json.RawMessage(tc.args))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestSchema_ValidateNestedAndEnum(t *testing.T) {
	s := Schema{
		Type: "object",
		Properties: map[string]Property{
			"school": {Type: "string", Enum: []any{"North", "South"}},
			"filter": {
				Type:       "object",
				Properties: map[string]Property{"limit": {Type: "number"}},
				Required:   []string{"limit"},
			},
			"tags": {Type: "array"},
		},
	}

	assert.NoError(t, s.Validate(map[string]any{"school": "North", "filter": map[string]any{"limit": 3.0}, "tags": []any{"a"}}))
	assert.ErrorContains(t, s.Validate(map[string]any{"school": "East"}), "must be one of")
	assert.ErrorContains(t, s.Validate(map[string]any{"filter": map[string]any{}}), "in nested object filter")
	assert.ErrorContains(t, s.Validate(map[string]any{"tags": "a"}), "must be an array")
}
