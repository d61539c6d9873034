package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// RetryProvider retries transient failures with exponential backoff.
// Throttling and quota errors are returned immediately so the caller can
// surface them and decide when to try again.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *slog.Logger
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidSeen := false

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err, &invalidSeen) || attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt)
		r.logger.DebugContext(ctx, "retrying LLM request",
			"purpose", PurposeFrom(ctx), "attempt", attempt+1, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable decides whether another attempt can help. A schema violation
// gets exactly one more try.
func retryable(err error, invalidSeen *bool) bool {
	var (
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case IsRateLimited(err), IsQuotaExceeded(err):
		return false
	case errors.As(err, &maxTok):
		return false
	case errors.As(err, &invalid):
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
		return true
	}
	return true
}

func (r *RetryProvider) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
