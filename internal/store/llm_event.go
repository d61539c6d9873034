package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/llm"
)

// eventRepo implements EventRepo over the llm_request_events table.
type eventRepo struct {
	s *Store
}

var llmEventColumns = []string{
	"id", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body", "created_at",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := exec(ctx, r.s.db, r.s.builder().Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
			ev.LatencyMs, ev.Success, ev.ErrorMessage, ev.RequestBody, ev.ResponseBody, createdAt.UTC()))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	b := r.s.builder()
	sel := b.Select(llmEventColumns...).From(b.Table(tableLLMEvents))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("id", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("id", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UTC()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	b := r.s.builder()
	row := queryRow(ctx, r.s.db, b.Select(llmEventColumns...).
		From(b.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)))
	e, err := scanLLMEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("llm event %d: %w", id, ErrNotFound)
	}
	return e, err
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]UsageStats, error) {
	return r.usage(ctx, "model")
}

func (r *eventRepo) usage(ctx context.Context, key string) ([]UsageStats, error) {
	b := r.s.builder()
	sel := b.Select(
		key,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency_ms"),
	).
		From(b.Table(tableLLMEvents)).
		GroupBy(key).
		OrderBy(entsql.Desc(entsql.Count("*")), key)

	rows, err := query(ctx, r.s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query usage by %s: %w", key, err)
	}
	defer rows.Close()

	var out []UsageStats
	for rows.Next() {
		var (
			u        UsageStats
			failures sql.NullInt64
			in, outT sql.NullInt64
			latency  sql.NullFloat64
		)
		if err := rows.Scan(&u.Key, &u.Calls, &failures, &in, &outT, &latency); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.Failures = int(failures.Int64)
		u.InputTokens = int(in.Int64)
		u.OutputTokens = int(outT.Int64)
		u.AvgLatencyMs = int64(math.Round(latency.Float64))
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(row rowScanner) (*LLMEvent, error) {
	var e LLMEvent
	err := row.Scan(&e.ID, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	return &e, nil
}
