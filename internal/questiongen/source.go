// Package questiongen supplies quiz questions from an LLM, the static bank,
// or a templated fallback.
package questiongen

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/quizforge/internal/quiz"
)

// ErrGenerationFailed is returned when a source produced no usable
// questions.
var ErrGenerationFailed = errors.New("question generation failed")

// Source names recorded on sessions.
const (
	SourceLLM      = "llm"
	SourceBank     = "bank"
	SourceFallback = "fallback"
)

// Request asks for Count questions on Subject at Tier. Topic narrows the
// subject and may be empty.
type Request struct {
	Subject string
	Topic   string
	Tier    quiz.Tier
	Count   int
}

// Batch is the output of a source, tagged with the source that produced it.
type Batch struct {
	Questions []quiz.QuestionRecord
	Source    string
}

// Source produces questions.
type Source interface {
	// Name identifies the source, e.g. "llm".
	Name() string

	// Generate returns up to req.Count questions. An empty batch is treated
	// as a failure by WithFallback.
	Generate(ctx context.Context, req Request) (*Batch, error)
}

// Validate checks the request shape before any source runs.
func (r Request) Validate() error {
	if r.Subject == "" {
		return &ValidationError{Field: "subject", Message: "is required"}
	}
	if !r.Tier.Valid() {
		return &ValidationError{Field: "difficulty", Message: fmt.Sprintf("unknown tier %q", r.Tier)}
	}
	if r.Count <= 0 {
		return &ValidationError{Field: "count", Message: "must be positive"}
	}
	return nil
}

// ValidationError describes why a request or a generated question was
// rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
