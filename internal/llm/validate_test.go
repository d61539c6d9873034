package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-object",
		Description: "A child profile",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 5},
				"grade": map[string]any{"type": "string", "enum": []string{"K", "1", "2"}},
			},
			"required":             []string{"name", "age"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Alice","age":10,"grade":"2"}`, false},
		{"optional omitted", `{"name":"Bob","age":8}`, false},
		{"missing required", `{"name":"Charlie"}`, true},
		{"wrong type", `{"name":"Dave","age":"ten"}`, true},
		{"below minimum", `{"name":"Eli","age":4}`, true},
		{"bad enum", `{"name":"Eve","age":9,"grade":"D"}`, true},
		{"extra property", `{"name":"Fay","age":9,"pet":"cat"}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`"free text"`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_ArrayBounds(t *testing.T) {
	schema := &Schema{
		Name: "test-steps",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"steps": map[string]any{
					"type":     "array",
					"minItems": 2,
					"maxItems": 2,
					"items":    map[string]any{"type": "integer"},
				},
			},
			"required": []string{"steps"},
		},
	}
	if err := validateResponse(schema, json.RawMessage(`{"steps":[1,2]}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"steps":[1,2,3]}`)); err == nil {
		t.Fatal("expected error for too many items")
	}
	if err := validateResponse(schema, json.RawMessage(`{"steps":["a","b"]}`)); err == nil {
		t.Fatal("expected error for wrong item type")
	}
}
