package questiongen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

func batchJSON(n int, construct string) llm.MockResponse {
	qs := make([]map[string]any, n)
	for i := range qs {
		qs[i] = map[string]any{
			"question_text":    fmt.Sprintf("What is %d + 1?", i+2),
			"correct_answer":   fmt.Sprint(i + 3),
			"construct":        construct,
			"difficulty_level": i%5 + 1,
		}
	}
	return llm.MockJSON(map[string]any{"questions": qs})
}

func TestFetchBatch_MainTest(t *testing.T) {
	mock := llm.NewMockProvider(batchJSON(10, "arithmetic facts"))
	gen := New(mock, DefaultConfig())

	batch, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 8, Count: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 10 {
		t.Fatalf("got %d questions, want 10", len(batch))
	}
	if batch[0].Text != "What is 2 + 1?" || batch[0].ReferenceAnswer != "3" {
		t.Errorf("unexpected first question: %+v", batch[0])
	}
	if batch[0].Construct != "Arithmetic Facts" {
		t.Errorf("construct = %q, want canonical name", batch[0].Construct)
	}

	req := mock.Calls[0]
	if req.Schema != BatchSchema {
		t.Error("request should carry the batch schema")
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Child's age: 8") || !strings.Contains(msg, "Number of questions: 10") {
		t.Errorf("prompt missing age or count:\n%s", msg)
	}
	if !strings.Contains(msg, "Focus constructs (the child made repeated errors here):\nNone") {
		t.Errorf("main batch should have no focus constructs:\n%s", msg)
	}
}

func TestFetchBatch_ConfirmatoryFocus(t *testing.T) {
	mock := llm.NewMockProvider(batchJSON(5, "Place Value"))
	gen := New(mock, DefaultConfig())

	_, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{
		Age:          9,
		Count:        5,
		ErrorHistory: []diagnostic.ErrorHint{{Construct: "place value"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := mock.Calls[0].Messages[0].Content
	if !strings.Contains(msg, "1. Place Value") {
		t.Errorf("prompt should name the focus construct:\n%s", msg)
	}
}

func TestFetchBatch_PartialBatchIsInvalid(t *testing.T) {
	mock := llm.NewMockProvider(batchJSON(9, "Number Sense"))
	gen := New(mock, DefaultConfig())

	_, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 8, Count: 10})
	var invalid *llm.ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *llm.ErrInvalidResponse, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Validator != "count" {
		t.Fatalf("expected count validation error, got %v", err)
	}
}

func TestFetchBatch_WrongArithmetic(t *testing.T) {
	resp := llm.MockJSON(map[string]any{"questions": []map[string]any{
		{"question_text": "What is 7 + 5?", "correct_answer": "13", "construct": "Arithmetic Facts", "difficulty_level": 1},
	}})
	gen := New(llm.NewMockProvider(resp), DefaultConfig())

	_, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 7, Count: 1})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Validator != "arithmetic" {
		t.Fatalf("expected arithmetic validation error, got %v", err)
	}
}

func TestFetchBatch_SchemaViolation(t *testing.T) {
	resp := llm.MockJSON(map[string]any{"questions": []map[string]any{
		{"question_text": "What is 1 + 1?", "correct_answer": "2", "construct": "Arithmetic Facts", "difficulty_level": 9},
	}})
	gen := New(llm.NewMockProvider(resp), DefaultConfig())

	_, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 7, Count: 1})
	var invalid *llm.ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *llm.ErrInvalidResponse, got %v", err)
	}
}

func TestFetchBatch_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}})
	gen := New(mock, DefaultConfig())

	_, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 8, Count: 10})
	if !llm.IsRateLimited(err) {
		t.Fatalf("rate limit should pass through, got %v", err)
	}
}

func TestFetchBatch_NoValidators(t *testing.T) {
	mock := llm.NewMockProvider(batchJSON(3, "Estimation"))
	gen := New(mock, Config{MaxTokens: 100})

	batch, err := gen.FetchBatch(context.Background(), diagnostic.BatchRequest{Age: 8, Count: 10})
	if err != nil {
		t.Fatalf("without validators the batch is returned as-is: %v", err)
	}
	if len(batch) != 3 {
		t.Errorf("got %d questions, want 3", len(batch))
	}
	if mock.Calls[0].MaxTokens != 100 {
		t.Errorf("max tokens = %d, want 100", mock.Calls[0].MaxTokens)
	}
}
