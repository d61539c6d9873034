package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the generation backend.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single logical request including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the Anthropic backend with conservative retries.
// Question batches are larger than single items, so the timeout is longer
// than a typical chat call.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv overlays NEUROMATH_* variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "NEUROMATH_LLM_PROVIDER")

	setString(&cfg.Anthropic.APIKey, "NEUROMATH_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "NEUROMATH_ANTHROPIC_MODEL")
	setString(&cfg.Anthropic.BaseURL, "NEUROMATH_ANTHROPIC_BASE_URL")

	setString(&cfg.OpenAI.APIKey, "NEUROMATH_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "NEUROMATH_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "NEUROMATH_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "NEUROMATH_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "NEUROMATH_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "NEUROMATH_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "NEUROMATH_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.BaseURL, "NEUROMATH_OPENROUTER_BASE_URL")

	if v := os.Getenv("NEUROMATH_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("NEUROMATH_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig looks for a vendor's standard API key variable
// (Gemini, OpenAI, Anthropic, then OpenRouter) and selects the first found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "NEUROMATH_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "NEUROMATH_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "NEUROMATH_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "NEUROMATH_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
