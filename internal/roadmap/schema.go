package roadmap

import (
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// Schema defines the JSON schema for remediation roadmap responses.
var Schema = &llm.Schema{
	Name:        "remediation-roadmap",
	Description: "A five-step remediation plan for a child after a dyscalculia screening",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_severity": map[string]any{
				"type": "string",
				"enum": []any{
					string(diagnostic.SeverityNone),
					string(diagnostic.SeverityMild),
					string(diagnostic.SeverityModerate),
					string(diagnostic.SeveritySevere),
				},
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 sentence plain-language summary of the results",
			},
			"steps": map[string]any{
				"type":     "array",
				"minItems": diagnostic.RoadmapLength,
				"maxItems": diagnostic.RoadmapLength,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"step_number": map[string]any{
							"type":    "integer",
							"minimum": 1,
							"maximum": diagnostic.RoadmapLength,
						},
						"title": map[string]any{
							"type":        "string",
							"description": "Short name of the step",
						},
						"execution_plan": map[string]any{
							"type":        "string",
							"description": "What the caregiver does, how often and for how long",
						},
						"resources": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []any{"step_number", "title", "execution_plan", "resources"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"overall_severity", "summary", "steps"},
		"additionalProperties": false,
	},
}
