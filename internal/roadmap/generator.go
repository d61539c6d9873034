package roadmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// Generator produces remediation roadmaps with an LLM provider.
type Generator struct {
	provider llm.Provider
	cfg      Config
}

var _ diagnostic.RoadmapSource = (*Generator)(nil)

// New creates a roadmap generator.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, cfg: cfg}
}

type roadmapOutput struct {
	OverallSeverity string       `json:"overall_severity"`
	Summary         string       `json:"summary"`
	Steps           []stepOutput `json:"steps"`
}

type stepOutput struct {
	StepNumber    int      `json:"step_number"`
	Title         string   `json:"title"`
	ExecutionPlan string   `json:"execution_plan"`
	Resources     []string `json:"resources"`
}

// Generate returns a five-step roadmap. Output with the wrong number or
// order of steps is reported as *llm.ErrInvalidResponse.
func (g *Generator) Generate(ctx context.Context, req diagnostic.RoadmapRequest) (*diagnostic.Roadmap, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeRoadmap)

	r := llm.Prompt(systemPrompt, buildUserMessage(req, g.cfg), Schema, g.cfg.MaxTokens)
	r.Temperature = g.cfg.Temperature

	resp, err := g.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("roadmap generation: %w", err)
	}

	var out roadmapOutput
	if err := llm.Decode(resp, &out); err != nil {
		return nil, err
	}

	rm := &diagnostic.Roadmap{
		OverallSeverity: strings.TrimSpace(out.OverallSeverity),
		Summary:         strings.TrimSpace(out.Summary),
		Steps:           make([]diagnostic.RoadmapStep, len(out.Steps)),
	}
	for i, s := range out.Steps {
		rm.Steps[i] = diagnostic.RoadmapStep{
			StepNumber:    s.StepNumber,
			Title:         strings.TrimSpace(s.Title),
			ExecutionPlan: strings.TrimSpace(s.ExecutionPlan),
			Resources:     s.Resources,
		}
	}
	if err := rm.Validate(); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	return rm, nil
}
