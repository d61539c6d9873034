package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini"}
}

func openAICompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func openAIError(status int, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": code, "message": code, "code": code},
		})
	}
}

func TestOpenAIProvider_StructuredOutput(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAICompletion(`{"name":"Leo","age":9}`, "stop"))
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Prompt("system text", "user text", testSchema(), 256))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 65 || resp.StopReason != "end" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("system prompt not sent first: %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.JSONSchema == nil || got.ResponseFormat.JSONSchema.Name != "test-object" {
		t.Fatalf("json schema response format not set: %+v", got.ResponseFormat)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openAICompletion(`{"name":"Le`, "length"))
	}
	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Prompt("", "x", nil, 4))
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, IsRateLimited},
		{"quota", http.StatusPaymentRequired, IsQuotaExceeded},
		{"server error", http.StatusBadGateway, func(err error) bool {
			var u *ErrProviderUnavailable
			return errors.As(err, &u)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, openAIError(tt.status, "err"))
			_, err := p.Generate(context.Background(), Prompt("", "test", nil, 100))
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error mapping: %T (%v)", err, err)
			}
		})
	}
}

func TestOpenAIProvider_ModelMapping(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("expected 'gpt-4o-mini', got %q", p.ModelID())
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
