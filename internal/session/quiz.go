package session

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/scoring"
)

// bankScorer grades stateless bank quizzes.
var bankScorer = scoring.Scorer{
	Grades:    scoring.GradeLenient,
	Bonus:     scoring.BonusFlat,
	Allowance: quiz.DefaultTimeAllowance(),
}

// Quiz draws up to count questions of category from the bank. An empty
// tier shuffles the whole category.
func (s *Service) Quiz(ctx context.Context, category, tier string, count int) ([]quiz.QuestionRecord, error) {
	var target quiz.Tier
	if tier != "" {
		t, err := quiz.ParseTier(tier)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		target = t
	}
	pool, err := s.store.QuestionPool(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, category)
	}
	if count <= 0 {
		count = s.rules.questionCount(quiz.TierBeginner, 0)
	}
	return s.selector.Select(pool, target, count), nil
}

// QuizAnswers is a stateless answer sheet for bank questions.
type QuizAnswers struct {
	Category    string   `json:"category"`
	QuestionIDs []string `json:"question_ids"`
	Answers     []int    `json:"answers"`
	TimeSpent   int      `json:"time_spent"`
}

// ScoreQuiz grades a bank quiz without touching progression.
func (s *Service) ScoreQuiz(ctx context.Context, in QuizAnswers) (quiz.SessionResult, error) {
	if in.Category == "" || len(in.QuestionIDs) == 0 {
		return quiz.SessionResult{}, fmt.Errorf("%w: category and question ids are required", ErrInvalidRequest)
	}
	pool, err := s.store.QuestionPool(ctx, in.Category)
	if err != nil {
		return quiz.SessionResult{}, err
	}
	byID := make(map[string]quiz.QuestionRecord, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}

	questions := make([]quiz.QuestionRecord, 0, len(in.QuestionIDs))
	for _, id := range in.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			return quiz.SessionResult{}, fmt.Errorf("%w: unknown question %q", ErrInvalidRequest, id)
		}
		questions = append(questions, q)
	}

	res, err := bankScorer.Score(questions, scoring.Submission{
		Answers:   in.Answers,
		TimeSpent: time.Duration(in.TimeSpent) * time.Second,
	})
	if err != nil {
		return quiz.SessionResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return res, nil
}
