package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NewProvider builds the configured backend wrapped as
// caller -> timeout -> retry -> logging -> vendor.
// Each attempt is logged, the timeout bounds all attempts together.
func NewProvider(ctx context.Context, cfg Config, sink EventSink, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, cfg.Provider, sink, logger)
	p = WithRetry(p, cfg.Retry, logger)
	return WithTimeout(p, cfg.Timeout), nil
}

// NewProviderFromEnv resolves configuration from NEUROMATH_* variables,
// falling back to the vendors' standard API key variables.
func NewProviderFromEnv(ctx context.Context, sink EventSink, logger *slog.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if cfg.Validate() != nil {
		if discovered, ok := DiscoverConfig(); ok {
			discovered.Timeout = cfg.Timeout
			discovered.Retry = cfg.Retry
			cfg = discovered
		}
	}
	return NewProvider(ctx, cfg, sink, logger)
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call. A zero timeout returns p as is.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: timeout}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
