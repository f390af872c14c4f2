package testgen

import "examly/internal/schema"

// generationSchema constrains the model's test output before any typed
// decoding happens. Structural problems are rejected here with a clear
// validation error instead of surfacing as partial unmarshal results.
var generationSchema = &schema.Schema{
	Name: "test-generation",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"required": []any{
						"question_id",
						"question_text",
						"question_type",
						"correct_answer",
					},
					"properties": map[string]any{
						"question_id":   map[string]any{"type": "string", "minLength": 1},
						"question_text": map[string]any{"type": "string", "minLength": 1},
						"question_type": map[string]any{
							"type": "string",
							"enum": []any{"mcq", "short", "numerical"},
						},
						"mcq_options": map[string]any{
							"type": []any{"array", "null"},
							"items": map[string]any{
								"type":     "object",
								"required": []any{"option", "label"},
								"properties": map[string]any{
									"option": map[string]any{"type": "string"},
									"label":  map[string]any{"type": "string"},
								},
							},
						},
						"correct_answer": map[string]any{"type": "string", "minLength": 1},
						"explanation":    map[string]any{"type": "string"},
						"concept_tag":    map[string]any{"type": "string"},
						"points":         map[string]any{"type": "integer"},
					},
				},
			},
		},
	},
}
