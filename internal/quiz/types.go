package quiz

import (
	"slices"
	"time"
)

const (
	// OptionCount is the number of answer options every question carries.
	OptionCount = 4

	// DefaultPoints is awarded for a correct answer when a question has no
	// point value of its own.
	DefaultPoints = 10

	// Unanswered marks a question with no selected option.
	Unanswered = -1
)

// QuestionRecord is a single multiple-choice question. It is never mutated
// after the source produced it.
type QuestionRecord struct {
	ID           string   `json:"id"`
	Category     string   `json:"category"`
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer"`
	Tier         Tier     `json:"difficulty"`
	Explanation  string   `json:"explanation"`
	Points       int      `json:"points,omitempty"`
}

// PointValue returns the points for a correct answer.
func (q QuestionRecord) PointValue() int {
	if q.Points <= 0 {
		return DefaultPoints
	}
	return q.Points
}

// AnswerRecord is the scored outcome of one question in a session.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

// SessionResult is computed once at submission and never changed.
type SessionResult struct {
	Answers          []AnswerRecord `json:"answers"`
	CorrectCount     int            `json:"correct_count"`
	TotalCount       int            `json:"total_count"`
	AccuracyPercent  int            `json:"accuracy_percent"`
	PointsAwarded    int            `json:"points_awarded"`
	TimeBonus        int            `json:"time_bonus"`
	FinalScore       int            `json:"final_score"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	Grade            string         `json:"grade"`
}

// Ratio returns correct/total, or 0 for an empty session.
func (r SessionResult) Ratio() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.TotalCount)
}

// UserPerformance is the per-category running record for a user.
type UserPerformance struct {
	UserID             string    `json:"user_id"`
	Category           string    `json:"category"`
	CorrectAnswers     int       `json:"correct_answers"`
	TotalAnswers       int       `json:"total_answers"`
	AverageTimeSeconds float64   `json:"average_time_seconds"`
	Tier               Tier      `json:"current_difficulty"`
	LastAttempt        time.Time `json:"last_attempt"`
}

// Accuracy returns correct/total, or 0 when nothing was answered.
func (p UserPerformance) Accuracy() float64 {
	if p.TotalAnswers == 0 {
		return 0
	}
	return float64(p.CorrectAnswers) / float64(p.TotalAnswers)
}

// UserStats is the global progression state of a user.
type UserStats struct {
	UserID         string   `json:"user_id"`
	TotalXP        int      `json:"total_xp"`
	Level          int      `json:"level"`
	QuizStreak     int      `json:"quiz_streak"`
	TotalQuizzes   int      `json:"total_quizzes_completed"`
	TotalCorrect   int      `json:"total_correct_answers"`
	TotalQuestions int      `json:"total_questions_answered"`
	Achievements   []string `json:"achievements"`

	// Version is the optimistic concurrency token owned by the store.
	Version int64 `json:"-"`
}

// NewUserStats returns the zero state for a user.
func NewUserStats(userID string) UserStats {
	return UserStats{UserID: userID, Level: 1}
}

// HasAchievement reports whether the badge has been granted.
func (s UserStats) HasAchievement(id string) bool {
	return slices.Contains(s.Achievements, id)
}

// Clone returns a deep copy.
func (s UserStats) Clone() UserStats {
	s.Achievements = slices.Clone(s.Achievements)
	return s
}

// TierProgress aggregates a user's sessions for one subject and tier.
type TierProgress struct {
	UserID         string `json:"user_id"`
	Subject        string `json:"subject"`
	Tier           Tier   `json:"difficulty"`
	QuizCount      int    `json:"quiz_count"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	TotalXP        int    `json:"total_xp"`
	BestScore      int    `json:"best_score"`
	LastAccuracy   int    `json:"last_session_accuracy"`
}

// Accuracy returns the lifetime correct/total for the tier.
func (p TierProgress) Accuracy() float64 {
	if p.TotalQuestions == 0 {
		return 0
	}
	return float64(p.CorrectAnswers) / float64(p.TotalQuestions)
}
