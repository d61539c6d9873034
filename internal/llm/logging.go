package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RequestEvent is the audit record of one generation call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
	CreatedAt    time.Time
}

// EventSink stores request events.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

// LoggingProvider records every call to an EventSink and to slog.
type LoggingProvider struct {
	inner    Provider
	provider string
	sink     EventSink
	logger   *slog.Logger
}

// WithLogging wraps a Provider with event logging. sink may be nil.
func WithLogging(p Provider, providerName string, sink EventSink, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: providerName, sink: sink, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
		CreatedAt:   start.UTC(),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	attrs := []any{
		"provider", ev.Provider, "model", ev.Model, "purpose", ev.Purpose,
		"latency_ms", ev.LatencyMs, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens,
	}
	if err != nil {
		l.logger.WarnContext(ctx, "llm request failed", append(attrs, "error", err)...)
	} else {
		l.logger.DebugContext(ctx, "llm request", attrs...)
	}

	if l.sink != nil {
		// Audit failures never fail the request.
		if logErr := l.sink.AppendLLMRequest(ctx, ev); logErr != nil {
			l.logger.WarnContext(ctx, "failed to record llm request event", "error", logErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders the request as readable text for the audit log.
func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
