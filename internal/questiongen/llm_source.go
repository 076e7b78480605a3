package questiongen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/quiz"
)

// Config controls the LLM source.
type Config struct {
	// MaxCount caps the questions requested in one call.
	MaxCount int

	// TokensPerQuestion sizes the response budget.
	TokensPerQuestion int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns the recommended LLM source settings.
func DefaultConfig() Config {
	return Config{
		MaxCount:          30,
		TokensPerQuestion: 300,
		Temperature:       0.7,
	}
}

// LLMSource generates questions with a language model.
type LLMSource struct {
	provider llm.Provider
	config   Config
}

// NewLLMSource creates an LLMSource over provider.
func NewLLMSource(provider llm.Provider, cfg Config) *LLMSource {
	return &LLMSource{provider: provider, config: cfg}
}

func (s *LLMSource) Name() string { return SourceLLM }

// batchOutput is the raw LLM response before validation.
type batchOutput struct {
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Generate asks the model for a batch, drops malformed items, and fails with
// ErrGenerationFailed when nothing usable is left.
func (s *LLMSource) Generate(ctx context.Context, req Request) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.config.MaxCount > 0 && req.Count > s.config.MaxCount {
		req.Count = s.config.MaxCount
	}

	ctx = llm.WithPurpose(ctx, "question-gen")

	r := llm.UserPrompt(systemPrompt, buildUserMessage(req))
	r.Schema = QuestionSchema
	r.MaxTokens = 256 + req.Count*s.config.TokensPerQuestion
	r.Temperature = s.config.Temperature

	resp, err := s.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var raw batchOutput
	if err := json.Unmarshal(stripFences(resp.Content), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrGenerationFailed, err)
	}

	var out []quiz.QuestionRecord
	for _, item := range raw.Questions {
		if checkItem(item) != nil {
			continue
		}
		out = append(out, quiz.QuestionRecord{
			ID:           uuid.NewString(),
			Category:     req.Subject,
			Prompt:       strings.TrimSpace(item.Question),
			Options:      item.Options,
			CorrectIndex: *item.CorrectAnswer,
			Tier:         req.Tier,
			Explanation:  strings.TrimSpace(item.Explanation),
			Points:       quiz.DefaultPoints,
		})
		if len(out) == req.Count {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in response", ErrGenerationFailed)
	}

	return &Batch{Questions: out, Source: SourceLLM}, nil
}

// checkItem reports the first structural problem with a generated question.
func checkItem(q questionOutput) *ValidationError {
	switch {
	case strings.TrimSpace(q.Question) == "":
		return &ValidationError{Field: "question", Message: "is empty"}
	case len(q.Options) != quiz.OptionCount:
		return &ValidationError{Field: "options", Message: fmt.Sprintf("has %d entries, want %d", len(q.Options), quiz.OptionCount)}
	case q.CorrectAnswer == nil:
		return &ValidationError{Field: "correct_answer", Message: "is missing"}
	case *q.CorrectAnswer < 0 || *q.CorrectAnswer >= quiz.OptionCount:
		return &ValidationError{Field: "correct_answer", Message: fmt.Sprintf("%d is out of range", *q.CorrectAnswer)}
	case strings.TrimSpace(q.Explanation) == "":
		return &ValidationError{Field: "explanation", Message: "is empty"}
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return &ValidationError{Field: "options", Message: "contains an empty option"}
		}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(content []byte) []byte {
	text := bytes.TrimSpace(content)
	if !bytes.HasPrefix(text, []byte("```")) {
		return text
	}
	if nl := bytes.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = text[3:]
	}
	text = bytes.TrimSpace(text)
	text = bytes.TrimSuffix(text, []byte("```"))
	return bytes.TrimSpace(text)
}
