package questiongen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/quizforge/internal/quiz"
)

// TemplateSource produces deterministic placeholder questions. It never
// fails and always returns req.Count questions (at least one).
type TemplateSource struct{}

func (TemplateSource) Name() string { return SourceFallback }

func (TemplateSource) Generate(_ context.Context, req Request) (*Batch, error) {
	return &Batch{Questions: Templated(req), Source: SourceFallback}, nil
}

// Templated builds the fallback question set for req.
func Templated(req Request) []quiz.QuestionRecord {
	count := max(req.Count, 1)
	tier := req.Tier
	if !tier.Valid() {
		tier = quiz.TierBeginner
	}
	subject := req.Subject
	if subject == "" {
		subject = "general"
	}

	out := make([]quiz.QuestionRecord, count)
	for i := range out {
		out[i] = quiz.QuestionRecord{
			ID:           fmt.Sprintf("fallback_%d", i+1),
			Category:     subject,
			Prompt:       fmt.Sprintf("%s question %d (%s level)", subject, i+1, tier),
			Options:      []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectIndex: 0,
			Tier:         tier,
			Explanation:  "This is a basic concept that forms the foundation of the subject.",
			Points:       quiz.DefaultPoints,
		}
	}
	return out
}

// FallbackSource tries primary first and switches to fallback when primary
// fails or returns nothing.
type FallbackSource struct {
	primary  Source
	fallback Source
	log      *slog.Logger
}

// WithFallback wraps primary so callers always get questions from one of
// the two sources.
func WithFallback(primary, fallback Source, log *slog.Logger) *FallbackSource {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackSource{primary: primary, fallback: fallback, log: log}
}

func (f *FallbackSource) Name() string { return f.primary.Name() }

func (f *FallbackSource) Generate(ctx context.Context, req Request) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	batch, err := f.primary.Generate(ctx, req)
	if err == nil && batch != nil && len(batch.Questions) > 0 {
		return batch, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err == nil {
		err = errors.New("empty batch")
	}
	f.log.Warn("question source failed, using fallback",
		"source", f.primary.Name(), "fallback", f.fallback.Name(),
		"subject", req.Subject, "tier", req.Tier, "err", err)

	batch, fbErr := f.fallback.Generate(ctx, req)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %w", ErrGenerationFailed, err, fbErr)
	}
	if batch == nil || len(batch.Questions) == 0 {
		return nil, fmt.Errorf("%w: primary: %v; fallback returned no questions", ErrGenerationFailed, err)
	}
	return batch, nil
}
