package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/quiz"
)

func question(id string, correct, points int) quiz.QuestionRecord {
	return quiz.QuestionRecord{
		ID:           id,
		Category:     "javascript",
		Prompt:       "prompt " + id,
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: correct,
		Tier:         quiz.TierBeginner,
		Points:       points,
	}
}

func TestScore_MixedAnswers(t *testing.T) {
	qs := []quiz.QuestionRecord{question("q1", 1, 10), question("q2", 0, 10)}

	res, err := Score(qs, []int{1, 1})
	require.NoError(t, err)

	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, 50, res.AccuracyPercent)
	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, 10, res.FinalScore)
	assert.True(t, res.Answers[0].Correct)
	assert.False(t, res.Answers[1].Correct)
	assert.Equal(t, 0, res.Answers[1].Points)
}

func TestScore_LengthMismatch(t *testing.T) {
	qs := []quiz.QuestionRecord{question("q1", 1, 10)}
	_, err := Score(qs, []int{1, 2})
	if !errors.Is(err, ErrMalformedSubmission) {
		t.Fatalf("expected ErrMalformedSubmission, got %v", err)
	}
}

func TestScore_Empty(t *testing.T) {
	res, err := Score(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AccuracyPercent)
	assert.Equal(t, "D", res.Grade)
}

func TestScore_DefaultPointsAndUnanswered(t *testing.T) {
	qs := []quiz.QuestionRecord{question("q1", 2, 0), question("q2", 3, 0), question("q3", 0, 0)}

	res, err := Score(qs, []int{2, quiz.Unanswered, 9})
	require.NoError(t, err)
	assert.Equal(t, 10, res.PointsAwarded)
	assert.Equal(t, quiz.Unanswered, res.Answers[1].Selected)
	assert.Equal(t, quiz.Unanswered, res.Answers[2].Selected, "out of range selection counts as unanswered")
	assert.Equal(t, 33, res.AccuracyPercent)
}

func TestScore_AccuracyBounds(t *testing.T) {
	qs := make([]quiz.QuestionRecord, 7)
	for i := range qs {
		qs[i] = question("q", i%4, 10)
	}
	for correct := 0; correct <= len(qs); correct++ {
		answers := make([]int, len(qs))
		for i := range answers {
			answers[i] = quiz.Unanswered
			if i < correct {
				answers[i] = qs[i].CorrectIndex
			}
		}
		res, err := Score(qs, answers)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.AccuracyPercent, 0)
		assert.LessOrEqual(t, res.AccuracyPercent, 100)
		assert.LessOrEqual(t, res.CorrectCount, res.TotalCount)
		assert.GreaterOrEqual(t, res.FinalScore, res.PointsAwarded)
	}
}

func TestGradeScales(t *testing.T) {
	tests := []struct {
		scale GradeScale
		ratio float64
		want  string
	}{
		{GradeStandard, 1.0, "A+"},
		{GradeStandard, 0.9, "A+"},
		{GradeStandard, 0.895, "A"},
		{GradeStandard, 0.8, "A"},
		{GradeStandard, 0.7, "B"},
		{GradeStandard, 0.6, "C"},
		{GradeStandard, 0.59, "D"},
		{GradeLenient, 0.95, "A"},
		{GradeLenient, 0.6, "B"},
		{GradeLenient, 0.4, "C"},
		{GradeLenient, 0.39, "D"},
		{GradeScale("unknown"), 0.92, "A+"},
	}
	for _, tt := range tests {
		if got := tt.scale.Grade(tt.ratio); got != tt.want {
			t.Errorf("%s.Grade(%v) = %q, want %q", tt.scale, tt.ratio, got, tt.want)
		}
	}
}

func TestTimeBonus_Paced(t *testing.T) {
	s := Default()
	qs := []quiz.QuestionRecord{question("q1", 0, 10), question("q2", 0, 10)}

	// Advanced allows 45s per question; 10s average is under 31.5s.
	res, err := s.Score(qs, Submission{Answers: []int{0, 0}, TimeSpent: 20 * time.Second, Tier: quiz.TierAdvanced})
	require.NoError(t, err)
	assert.Equal(t, 105, res.TimeBonus) // (45-10)*3
	assert.Equal(t, 125, res.FinalScore)
	assert.Equal(t, 20, res.TimeSpentSeconds)

	// 40s average is too slow for a bonus.
	res, err = s.Score(qs, Submission{Answers: []int{0, 0}, TimeSpent: 80 * time.Second, Tier: quiz.TierAdvanced})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TimeBonus)
}

func TestTimeBonus_Flat(t *testing.T) {
	s := Default()
	s.Bonus = BonusFlat
	qs := []quiz.QuestionRecord{question("q1", 0, 10)}

	res, err := s.Score(qs, Submission{Answers: []int{0}, TimeSpent: 20 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 20, res.TimeBonus)

	res, err = s.Score(qs, Submission{Answers: []int{0}, TimeSpent: 31 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TimeBonus)
}

func TestTimeBonus_UnknownTiming(t *testing.T) {
	s := Default()
	qs := []quiz.QuestionRecord{question("q1", 0, 10)}
	res, err := s.Score(qs, Submission{Answers: []int{0}, Tier: quiz.TierMaster})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TimeBonus)
}

func TestParsePolicies(t *testing.T) {
	p, err := ParseTimeBonusPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BonusPaced, p)
	_, err = ParseTimeBonusPolicy("turbo")
	assert.Error(t, err)

	g, err := ParseGradeScale("lenient")
	require.NoError(t, err)
	assert.Equal(t, GradeLenient, g)
	_, err = ParseGradeScale("curve")
	assert.Error(t, err)
}
