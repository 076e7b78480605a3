package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// AppendSessionEvent adds an entry to the session audit log.
func (c conn) AppendSessionEvent(ctx context.Context, ev SessionEvent) error {
	seq, err := c.nextSeq(ctx)
	if err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Payload == "" {
		ev.Payload = "{}"
	}

	query, args := c.builder().Insert(tableEvents).
		Columns("sequence", "timestamp", "session_id", "user_id", "action", "payload").
		Values(seq, ev.Timestamp.UnixMilli(), ev.SessionID, ev.UserID, ev.Action, ev.Payload).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}

// ListSessionEvents returns the audit log of a session in sequence order.
func (c conn) ListSessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	b := c.builder()
	query, args := b.Select("sequence", "timestamp", "session_id", "user_id", "action", "payload").
		From(b.Table(tableEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			ev SessionEvent
			ts int64
		)
		if err := rows.Scan(&ev.Sequence, &ts, &ev.SessionID, &ev.UserID, &ev.Action, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		ev.Timestamp = fromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

var llmCallColumns = []string{
	"sequence", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

// AppendLLMCall records an LLM API call.
func (c conn) AppendLLMCall(ctx context.Context, call LLMCall) error {
	seq, err := c.nextSeq(ctx)
	if err != nil {
		return err
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}

	query, args := c.builder().Insert(tableLLMCalls).
		Columns(llmCallColumns...).
		Values(seq, call.Timestamp.UnixMilli(), call.Provider, call.Model, call.Purpose,
			call.InputTokens, call.OutputTokens, call.LatencyMs, call.Success,
			call.Error, call.Request, call.Response).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("append llm call: %w", err)
	}
	return nil
}

// ListLLMCalls returns logged calls matching opts, newest first.
func (c conn) ListLLMCalls(ctx context.Context, opts QueryOpts) ([]LLMCall, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UnixMilli()))
	}

	b := c.builder()
	sel := b.Select(llmCallColumns...).
		From(b.Table(tableLLMCalls)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()
	return c.scanLLMCalls(ctx, query, args)
}

// GetLLMCall returns the call with the given sequence or ErrNotFound.
func (c conn) GetLLMCall(ctx context.Context, seq int64) (*LLMCall, error) {
	b := c.builder()
	query, args := b.Select(llmCallColumns...).
		From(b.Table(tableLLMCalls)).
		Where(entsql.EQ("sequence", seq)).
		Query()

	calls, err := c.scanLLMCalls(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("llm call %d: %w", seq, ErrNotFound)
	}
	return &calls[0], nil
}

func (c conn) scanLLMCalls(ctx context.Context, query string, args []any) ([]LLMCall, error) {
	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query llm calls: %w", err)
	}
	defer rows.Close()

	var out []LLMCall
	for rows.Next() {
		var (
			call LLMCall
			ts   int64
		)
		if err := rows.Scan(&call.Sequence, &ts, &call.Provider, &call.Model, &call.Purpose,
			&call.InputTokens, &call.OutputTokens, &call.LatencyMs, &call.Success,
			&call.Error, &call.Request, &call.Response); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		call.Timestamp = fromMillis(ts)
		out = append(out, call)
	}
	return out, rows.Err()
}

// Usage groupings accepted by LLMUsage.
const (
	UsageByPurpose = "purpose"
	UsageByModel   = "model"
)

// LLMUsage aggregates the call log by purpose or model, ordered by key.
func (c conn) LLMUsage(ctx context.Context, by string) ([]LLMUsageStats, error) {
	if by != UsageByPurpose && by != UsageByModel {
		return nil, fmt.Errorf("llm usage: unknown grouping %q", by)
	}

	b := c.builder()
	query, args := b.Select(
		by,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	).
		From(b.Table(tableLLMCalls)).
		GroupBy(by).
		OrderBy(by).
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query llm usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var (
			st      LLMUsageStats
			in, res int64
			latency float64
		)
		if err := rows.Scan(&st.Key, &st.Calls, &in, &res, &latency); err != nil {
			return nil, fmt.Errorf("scan llm usage: %w", err)
		}
		st.InputTokens, st.OutputTokens = int(in), int(res)
		st.AvgLatencyMs = int64(latency)
		out = append(out, st)
	}
	return out, rows.Err()
}
