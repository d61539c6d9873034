package questiongen

import "github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"

// BatchSchema defines the JSON schema for question batch responses.
var BatchSchema = &llm.Schema{
	Name:        "question-batch",
	Description: "A batch of short diagnostic math questions with expected answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_text": map[string]any{
							"type":        "string",
							"description": "The question shown to the child, in plain ASCII text",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The exact expected answer",
						},
						"construct": map[string]any{
							"type":        "string",
							"description": "The cognitive construct the question probes, named exactly as listed",
						},
						"difficulty_level": map[string]any{
							"type":        "integer",
							"minimum":     1,
							"maximum":     5,
							"description": "Difficulty from 1 (easy) to 5 (hard)",
						},
					},
					"required":             []any{"question_text", "correct_answer", "construct", "difficulty_level"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
