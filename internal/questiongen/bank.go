package questiongen

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/selection"
)

//go:embed bank.json
var bankJSON []byte

// BuiltinBank returns the embedded question bank.
func BuiltinBank() ([]quiz.QuestionRecord, error) {
	qs, err := LoadBank(bytes.NewReader(bankJSON))
	if err != nil {
		return nil, fmt.Errorf("builtin bank: %w", err)
	}
	return qs, nil
}

// LoadBank decodes a JSON array of questions and rejects the whole set if
// any record is malformed or an id repeats.
func LoadBank(r io.Reader) ([]quiz.QuestionRecord, error) {
	var qs []quiz.QuestionRecord
	if err := json.NewDecoder(r).Decode(&qs); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	seen := make(map[string]struct{}, len(qs))
	for i, q := range qs {
		if verr := CheckQuestion(q); verr != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, q.ID, verr)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return qs, nil
}

// CheckQuestion reports the first structural problem with a stored question.
func CheckQuestion(q quiz.QuestionRecord) *ValidationError {
	switch {
	case q.ID == "":
		return &ValidationError{Field: "id", Message: "is empty"}
	case strings.TrimSpace(q.Category) == "":
		return &ValidationError{Field: "category", Message: "is empty"}
	case !q.Tier.Valid():
		return &ValidationError{Field: "difficulty", Message: fmt.Sprintf("unknown tier %q", q.Tier)}
	}
	correct := q.CorrectIndex
	return checkItem(questionOutput{
		Question:      q.Prompt,
		Options:       q.Options,
		CorrectAnswer: &correct,
		Explanation:   q.Explanation,
	})
}

// PoolReader fetches the stored question pool of a category.
type PoolReader interface {
	QuestionPool(ctx context.Context, category string) ([]quiz.QuestionRecord, error)
}

// BankSource serves questions from the stored bank through the selector.
type BankSource struct {
	pool     PoolReader
	selector *selection.Selector
}

// NewBankSource creates a BankSource.
func NewBankSource(pool PoolReader, selector *selection.Selector) *BankSource {
	return &BankSource{pool: pool, selector: selector}
}

func (s *BankSource) Name() string { return SourceBank }

// Generate selects up to req.Count questions near req.Tier. An unknown
// category yields an empty batch.
func (s *BankSource) Generate(ctx context.Context, req Request) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pool, err := s.pool.QuestionPool(ctx, req.Subject)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", req.Subject, err)
	}
	return &Batch{
		Questions: s.selector.Select(pool, req.Tier, req.Count),
		Source:    SourceBank,
	}, nil
}
