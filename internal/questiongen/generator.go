package questiongen

import (
	"context"
	"fmt"
	"strings"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/construct"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// Generator produces diagnostic question batches with an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
}

var _ diagnostic.QuestionSource = (*Generator)(nil)

// New creates a Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// batchOutput is the raw LLM response before validation.
type batchOutput struct {
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	QuestionText  string `json:"question_text"`
	CorrectAnswer string `json:"correct_answer"`
	Construct     string `json:"construct"`
	Difficulty    int    `json:"difficulty_level"`
}

// FetchBatch asks for exactly req.Count questions. A response that fails a
// validator is reported as *llm.ErrInvalidResponse.
func (g *Generator) FetchBatch(ctx context.Context, req diagnostic.BatchRequest) ([]diagnostic.Question, error) {
	purpose := llm.PurposeQuestionBatch
	if len(req.ErrorHistory) > 0 {
		purpose = llm.PurposeConfirmatoryBatch
	}
	ctx = llm.WithPurpose(ctx, purpose)

	r := llm.Prompt(systemPrompt, buildUserMessage(req, g.config), BatchSchema, g.config.MaxTokens)
	r.Temperature = g.config.Temperature

	resp, err := g.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("generate question batch: %w", err)
	}

	var raw batchOutput
	if err := llm.Decode(resp, &raw); err != nil {
		return nil, err
	}

	batch := make([]diagnostic.Question, len(raw.Questions))
	for i, q := range raw.Questions {
		batch[i] = diagnostic.Question{
			Text:            strings.TrimSpace(q.QuestionText),
			ReferenceAnswer: strings.TrimSpace(q.CorrectAnswer),
			Construct:       construct.Canonical(q.Construct),
			Difficulty:      q.Difficulty,
		}
	}

	// Run validators in order.
	for _, v := range g.config.Validators {
		if verr := v.Validate(batch, req); verr != nil {
			return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: verr}
		}
	}
	return batch, nil
}
