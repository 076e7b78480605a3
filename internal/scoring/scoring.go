// Package scoring turns a submitted answer sheet into a SessionResult.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
)

// ErrMalformedSubmission is returned when the answer count does not match
// the question count. Nothing is scored in that case.
var ErrMalformedSubmission = errors.New("malformed submission")

// Scorer scores sessions under a grade scale and time-bonus policy.
type Scorer struct {
	Grades    GradeScale
	Bonus     TimeBonusPolicy
	Allowance quiz.TimeAllowance
}

// Default returns a Scorer with the standard grade scale and paced bonus.
func Default() Scorer {
	return Scorer{
		Grades:    GradeStandard,
		Bonus:     BonusPaced,
		Allowance: quiz.DefaultTimeAllowance(),
	}
}

// Submission is the raw answer sheet for a session.
type Submission struct {
	// Answers holds one selected option index per question; -1 means unanswered.
	Answers   []int
	TimeSpent time.Duration
	Tier      quiz.Tier
}

// Score scores answers against questions with the default Scorer and no
// timing information.
func Score(questions []quiz.QuestionRecord, answers []int) (quiz.SessionResult, error) {
	return Default().Score(questions, Submission{Answers: answers})
}

// Score computes the SessionResult for a submission.
func (s Scorer) Score(questions []quiz.QuestionRecord, sub Submission) (quiz.SessionResult, error) {
	if len(questions) != len(sub.Answers) {
		return quiz.SessionResult{}, fmt.Errorf("%w: %d answers for %d questions",
			ErrMalformedSubmission, len(sub.Answers), len(questions))
	}

	res := quiz.SessionResult{
		Answers:    make([]quiz.AnswerRecord, len(questions)),
		TotalCount: len(questions),
	}

	for i, q := range questions {
		selected := sub.Answers[i]
		if selected < 0 || selected >= quiz.OptionCount {
			selected = quiz.Unanswered
		}
		rec := quiz.AnswerRecord{
			QuestionID: q.ID,
			Selected:   selected,
			Correct:    selected != quiz.Unanswered && selected == q.CorrectIndex,
		}
		if rec.Correct {
			rec.Points = q.PointValue()
			res.CorrectCount++
			res.PointsAwarded += rec.Points
		}
		res.Answers[i] = rec
	}

	res.AccuracyPercent = int(math.Round(res.Ratio() * 100))
	res.TimeSpentSeconds = int(math.Round(sub.TimeSpent.Seconds()))
	res.TimeBonus = s.timeBonus(sub.Tier, res.TotalCount, sub.TimeSpent)
	res.FinalScore = res.PointsAwarded + res.TimeBonus
	res.Grade = s.Grades.Grade(res.Ratio())

	return res, nil
}
