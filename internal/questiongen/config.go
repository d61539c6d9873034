package questiongen

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run in order on every batch; the first failure stops
	// the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response. A main-test
	// batch of ten questions needs roughly 1500 tokens.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxFocusConstructs caps the error-history constructs named in the prompt.
	MaxFocusConstructs int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&CountValidator{},
			&StructuralValidator{},
			&DuplicateValidator{},
			&ArithmeticValidator{},
		},
		MaxTokens:          4096,
		Temperature:        0.7,
		MaxFocusConstructs: 3,
	}
}
