package session

import (
	"time"

	"github.com/abhisek/quizforge/internal/progress"
	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/scoring"
)

// Rules bundles the engine configuration a Service runs under.
type Rules struct {
	Tiers     quiz.TierSet
	Scorer    scoring.Scorer
	Tracker   progress.Tracker
	Unlock    progress.UnlockPolicy
	Allowance quiz.TimeAllowance

	// Counts is the default question count per tier.
	Counts map[quiz.Tier]int

	// MaxCount caps any requested question count.
	MaxCount int

	// Grace is added to the time limit before the sweeper expires a session.
	Grace time.Duration
}

// DefaultRules returns the canonical engine configuration.
func DefaultRules() Rules {
	return Rules{
		Tiers:     quiz.ExtendedTiers,
		Scorer:    scoring.Default(),
		Tracker:   progress.NewTracker(),
		Unlock:    progress.DefaultUnlockPolicy(),
		Allowance: quiz.DefaultTimeAllowance(),
		Counts:    quiz.DefaultQuestionCounts(),
		MaxCount:  50,
		Grace:     30 * time.Second,
	}
}

// questionCount resolves the number of questions for a session.
func (r Rules) questionCount(tier quiz.Tier, requested int) int {
	n := requested
	if n <= 0 {
		n = r.Counts[tier]
	}
	if n <= 0 {
		n = 10
	}
	if r.MaxCount > 0 && n > r.MaxCount {
		n = r.MaxCount
	}
	return n
}
