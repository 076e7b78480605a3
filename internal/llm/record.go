package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/quizforge/internal/store"
)

// RecordingProvider appends every call to the LLM call log.
type RecordingProvider struct {
	inner    Provider
	provider string
	repo     store.LLMCallWriter
	log      *slog.Logger
}

// WithRecording wraps p so each call is stored under the provider name.
// A failure to record is logged and never fails the call.
func WithRecording(p Provider, provider string, repo store.LLMCallWriter, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &RecordingProvider{inner: p, provider: provider, repo: repo, log: log}
}

func (r *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	call := store.LLMCall{
		Provider:  r.provider,
		Model:     r.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		Request:   transcript(req),
	}
	if resp != nil {
		call.Model = resp.Model
		call.InputTokens = resp.Usage.InputTokens
		call.OutputTokens = resp.Usage.OutputTokens
		call.Response = string(resp.Content)
	}
	if err != nil {
		call.Error = err.Error()
	}

	if recErr := r.repo.AppendLLMCall(context.WithoutCancel(ctx), call); recErr != nil {
		r.log.Warn("record llm call", "provider", r.provider, "err", recErr)
	}
	return resp, err
}

func (r *RecordingProvider) ModelID() string { return r.inner.ModelID() }

// transcript renders req as readable text for the call log.
func transcript(req Request) string {
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
