package quiz

import (
	"fmt"
	"time"
)

// TimerMode selects how a session's time limit is derived.
type TimerMode string

const (
	TimerPerQuestion TimerMode = "per_question"
	TimerPerSession  TimerMode = "per_session"
)

// TimeAllowance holds the per-tier timer tables. It only drives the session
// timer; scoring reads it through the paced time-bonus policy.
type TimeAllowance struct {
	Mode        TimerMode
	PerQuestion map[Tier]time.Duration
	PerSession  map[Tier]time.Duration
}

// DefaultTimeAllowance returns the standard tables.
func DefaultTimeAllowance() TimeAllowance {
	return TimeAllowance{
		Mode: TimerPerQuestion,
		PerQuestion: map[Tier]time.Duration{
			TierBeginner:     30 * time.Second,
			TierIntermediate: 35 * time.Second,
			TierAdvanced:     45 * time.Second,
			TierExpert:       60 * time.Second,
			TierMaster:       90 * time.Second,
		},
		PerSession: map[Tier]time.Duration{
			TierBeginner:     300 * time.Second,
			TierIntermediate: 450 * time.Second,
			TierAdvanced:     600 * time.Second,
			TierExpert:       750 * time.Second,
			TierMaster:       900 * time.Second,
		},
	}
}

// QuestionTime returns the per-question allowance for a tier, falling back
// to the beginner value.
func (a TimeAllowance) QuestionTime(t Tier) time.Duration {
	if d, ok := a.PerQuestion[t]; ok {
		return d
	}
	return a.PerQuestion[TierBeginner]
}

// SessionLimit returns the time limit for a session of count questions.
func (a TimeAllowance) SessionLimit(t Tier, count int) time.Duration {
	if a.Mode == TimerPerSession {
		if d, ok := a.PerSession[t]; ok {
			return d
		}
		return a.PerSession[TierBeginner]
	}
	return time.Duration(count) * a.QuestionTime(t)
}

// ParseTimerMode validates a timer mode string.
func ParseTimerMode(s string) (TimerMode, error) {
	switch TimerMode(s) {
	case "", TimerPerQuestion:
		return TimerPerQuestion, nil
	case TimerPerSession:
		return TimerPerSession, nil
	default:
		return "", fmt.Errorf("unknown timer mode %q", s)
	}
}

// DefaultQuestionCounts returns the number of questions a session holds for
// each tier when the caller does not ask for a specific count.
func DefaultQuestionCounts() map[Tier]int {
	return map[Tier]int{
		TierBeginner:     10,
		TierIntermediate: 15,
		TierAdvanced:     20,
		TierExpert:       25,
		TierMaster:       30,
	}
}
