package roadmap

// Config holds roadmap generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxResponses caps the response lines sent in the prompt. Older lines
	// are folded into a per-construct tally.
	MaxResponses int
}

// DefaultConfig returns sensible defaults for roadmap generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    2048,
		Temperature:  0.5,
		MaxResponses: 15,
	}
}
