// Package progress folds scored sessions into persistent user state.
//
// Every function here is pure: it takes the current state and returns a new
// value. Reading and writing the state is the caller's job.
package progress

import (
	"slices"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/xp"
)

// DefaultStreakThreshold is the accuracy percent a session needs to extend
// the quiz streak.
const DefaultStreakThreshold = 70

// Tracker applies session results to UserStats.
type Tracker struct {
	XP              xp.Calculator
	LevelDivisor    int
	StreakThreshold int

	// ExtraBadges enables the knowledge_seeker and rising_star milestones.
	ExtraBadges bool
}

// NewTracker returns a Tracker with the canonical rules.
func NewTracker() Tracker {
	return Tracker{
		XP:              xp.NewCalculator(),
		LevelDivisor:    xp.DefaultLevelDivisor,
		StreakThreshold: DefaultStreakThreshold,
	}
}

// Outcome is the result of applying one session.
type Outcome struct {
	Stats        quiz.UserStats
	XPEarned     int
	LevelUp      bool
	StreakBroken bool
	Unlocked     []Achievement
}

// Apply returns the stats after res, played at tier, is folded into stats.
// The input is never modified.
func (t Tracker) Apply(stats quiz.UserStats, res quiz.SessionResult, tier quiz.Tier) Outcome {
	next := stats.Clone()
	earned := t.XP.Award(res, tier)

	next.TotalXP = max(stats.TotalXP, 0) + earned
	next.Level = xp.Level(next.TotalXP, t.LevelDivisor)
	next.TotalQuizzes = stats.TotalQuizzes + 1
	next.TotalCorrect = stats.TotalCorrect + res.CorrectCount
	next.TotalQuestions = stats.TotalQuestions + res.TotalCount

	threshold := t.StreakThreshold
	if threshold <= 0 {
		threshold = DefaultStreakThreshold
	}
	broken := false
	if res.AccuracyPercent >= threshold {
		next.QuizStreak = stats.QuizStreak + 1
	} else {
		broken = stats.QuizStreak > 0
		next.QuizStreak = 0
	}

	candidates := CoreAchievements()
	if t.ExtraBadges {
		candidates = append(candidates, ExtraAchievements()...)
	}
	var unlocked []Achievement
	for _, a := range candidates {
		if next.HasAchievement(string(a)) || !a.qualifies(stats, next, res) {
			continue
		}
		next.Achievements = append(next.Achievements, string(a))
		unlocked = append(unlocked, a)
	}
	slices.Sort(next.Achievements)

	return Outcome{
		Stats:        next,
		XPEarned:     earned,
		LevelUp:      next.Level > max(stats.Level, 1),
		StreakBroken: broken,
		Unlocked:     unlocked,
	}
}
