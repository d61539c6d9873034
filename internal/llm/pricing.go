package llm

import "regexp"

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.InputPerMTok + float64(outputTokens)*c.OutputPerMTok) / 1_000_000
}

// dateSuffix matches dated snapshot IDs such as "-20251001" or "-2024-08-06".
var dateSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2})$`)

// LookupCost returns pricing for a model ID, trying the undated alias when
// the exact snapshot is not listed. OpenRouter vendor prefixes are ignored.
func LookupCost(modelID string) *ModelCost {
	for _, id := range []string{modelID, stripVendor(modelID)} {
		if c, ok := modelCosts[id]; ok {
			return &c
		}
		if c, ok := modelCosts[dateSuffix.ReplaceAllString(id, "")]; ok {
			return &c
		}
	}
	return nil
}

func stripVendor(id string) string {
	for i := range id {
		if id[i] == '/' {
			return id[i+1:]
		}
	}
	return id
}

// modelCosts lists the models this service is configured for. Prices as
// published by the vendors in early 2026.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4-5": {3, 15},
	"claude-sonnet-4":   {3, 15},
	"claude-opus-4-1":   {15, 75},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-5-mini":   {0.25, 2},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-001":  {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}
