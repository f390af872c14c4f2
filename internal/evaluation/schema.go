package evaluation

import "examly/internal/schema"

// rubricSchema constrains the model's rubric grading output. Scores
// outside 0-5 are rejected rather than clamped.
var rubricSchema = &schema.Schema{
	Name: "rubric-evaluation",
	Definition: map[string]any{
		"type": "object",
		"required": []any{
			"accuracy_score",
			"clarity_score",
			"explanation_score",
			"feedback",
		},
		"properties": map[string]any{
			"accuracy_score":          map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			"clarity_score":           map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			"explanation_score":       map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			"feedback":                map[string]any{"type": "string"},
			"is_conceptually_correct": map[string]any{"type": "boolean"},
		},
	},
}
