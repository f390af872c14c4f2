package schema

import (
	"encoding/json"
	"testing"
)

var personSchema = &Schema{
	Name: "test-person",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"name", "age"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			"age":  map[string]any{"type": "integer", "minimum": 0},
		},
	},
}

func TestValidate_Accepts(t *testing.T) {
	err := Validate(personSchema, json.RawMessage(`{"name": "Ada", "age": 36}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsMissingRequired(t *testing.T) {
	err := Validate(personSchema, json.RawMessage(`{"name": "Ada"}`))
	if err == nil {
		t.Fatalf("expected validation error for missing field")
	}
}

func TestValidate_RejectsWrongType(t *testing.T) {
	err := Validate(personSchema, json.RawMessage(`{"name": "Ada", "age": "old"}`))
	if err == nil {
		t.Fatalf("expected validation error for wrong type")
	}
}

func TestValidate_RejectsInvalidJSON(t *testing.T) {
	err := Validate(personSchema, json.RawMessage(`{not json`))
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestValidate_CachesCompiledSchema(t *testing.T) {
	// Two validations against the same named schema must reuse the
	// compiled form. Behavior check only: both succeed.
	for i := 0; i < 2; i++ {
		if err := Validate(personSchema, json.RawMessage(`{"name": "Ada", "age": 36}`)); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if _, ok := compiled.Load(personSchema.Name); !ok {
		t.Errorf("compiled schema not cached")
	}
}
