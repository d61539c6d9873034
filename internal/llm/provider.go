package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider generates structured content from a prompt. Question batches and
// remediation roadmaps are both produced through this interface.
type Provider interface {
	// Generate runs one request. When req.Schema is set the returned
	// Content is JSON that has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model identifier.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the vendor's structured output mode. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in 0.0..1.0. Zero leaves the vendor default in place.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output. Name doubles as the
// validation cache key, so one name must always map to one definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the generated output plus accounting.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Prompt builds a single-turn request.
func Prompt(system, user string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: user}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

// Decode unmarshals structured content into v. A payload that does not fit
// v is reported as *ErrInvalidResponse.
func Decode(resp *Response, v any) error {
	if resp == nil {
		return &ErrInvalidResponse{Err: fmt.Errorf("nil response")}
	}
	if resp.StopReason == "max_tokens" {
		return &ErrMaxTokensExceeded{Content: resp.Content}
	}
	if err := json.Unmarshal(resp.Content, v); err != nil {
		return &ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
