package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryConfig(), nil)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("still down")}},
	)
	p := WithRetry(mock, retryConfig(), nil)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil || mock.CallCount() != 3 {
		t.Fatalf("expected failure after 3 calls, got err=%v calls=%d", err, mock.CallCount())
	}
}

func TestRetry_NotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rate limit", &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
		{"quota", &ErrQuotaExceeded{Err: errors.New("402")}},
		{"max tokens", &ErrMaxTokensExceeded{}},
		{"canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(
				MockResponse{Err: tt.err},
				MockResponse{Content: json.RawMessage(`{}`)},
			)
			_, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v to surface, got %v", tt.err, err)
			}
			if mock.CallCount() != 1 {
				t.Fatalf("expected 1 call, got %d", mock.CallCount())
			}
		})
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}},
		MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad again")}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	_, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	cfg := retryConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := WithRetry(mock, cfg, nil).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if WithTimeout(slow, 0) == nil {
		t.Fatal("zero timeout should return the provider")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(" 12 "); got != 12*time.Second {
		t.Fatalf("parseRetryAfter = %s", got)
	}
	if got := parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); got != 0 {
		t.Fatalf("HTTP dates are not supported, got %s", got)
	}
}

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }
func (f providerFunc) ModelID() string { return "func" }
