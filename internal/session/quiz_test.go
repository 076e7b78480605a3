package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/quiz"
)

func TestQuiz_Selection(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	qs, err := h.svc.Quiz(ctx, "python", "beginner", 3)
	require.NoError(t, err)
	assert.Len(t, qs, 3)

	all, err := h.svc.Quiz(ctx, "python", "", 100)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	_, err = h.svc.Quiz(ctx, "cobol", "", 3)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.svc.Quiz(ctx, "python", "legendary", 3)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScoreQuiz_LenientGradeAndFlatBonus(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	qs, err := h.svc.Quiz(ctx, "javascript", "", 5)
	require.NoError(t, err)
	require.Len(t, qs, 5)

	ids := make([]string, len(qs))
	answers := make([]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
		answers[i] = q.CorrectIndex
	}
	answers[4] = quiz.Unanswered

	res, err := h.svc.ScoreQuiz(ctx, QuizAnswers{
		Category: "javascript", QuestionIDs: ids, Answers: answers, TimeSpent: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.CorrectCount)
	assert.Equal(t, 80, res.AccuracyPercent)
	assert.Equal(t, "A", res.Grade)
	// 10s per question is 20s under target, two points per second.
	assert.Equal(t, 40, res.TimeBonus)

	profile, err := h.svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, profile.Stats.TotalQuizzes)
}

func TestScoreQuiz_Rejections(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.ScoreQuiz(ctx, QuizAnswers{Category: "javascript"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.svc.ScoreQuiz(ctx, QuizAnswers{Category: "javascript", QuestionIDs: []string{"nope"}, Answers: []int{0}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	qs, err := h.svc.Quiz(ctx, "javascript", "", 2)
	require.NoError(t, err)
	_, err = h.svc.ScoreQuiz(ctx, QuizAnswers{Category: "javascript", QuestionIDs: []string{qs[0].ID, qs[1].ID}, Answers: []int{0}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
