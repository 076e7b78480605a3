package progress

import (
	"fmt"

	"github.com/abhisek/quizforge/internal/quiz"
)

// UnlockMode selects which accuracy the tier gate reads.
type UnlockMode string

const (
	// UnlockLifetime gates on the previous tier's cumulative accuracy.
	UnlockLifetime UnlockMode = "lifetime"

	// UnlockLastSession gates on the previous tier's most recent session.
	UnlockLastSession UnlockMode = "last_session"
)

// DefaultUnlockThreshold is the accuracy percent the previous tier needs.
const DefaultUnlockThreshold = 70

// ParseUnlockMode validates an unlock mode name.
func ParseUnlockMode(s string) (UnlockMode, error) {
	switch UnlockMode(s) {
	case "", UnlockLifetime:
		return UnlockLifetime, nil
	case UnlockLastSession:
		return UnlockLastSession, nil
	default:
		return "", fmt.Errorf("unknown unlock mode %q", s)
	}
}

// UnlockPolicy decides which tiers of a subject a user may play.
type UnlockPolicy struct {
	Mode      UnlockMode
	Threshold int
	Tiers     quiz.TierSet

	// XPRequirements, when set, adds a minimum total XP per tier.
	XPRequirements map[quiz.Tier]int
}

// DefaultUnlockPolicy returns the lifetime policy at 70% over the extended set.
func DefaultUnlockPolicy() UnlockPolicy {
	return UnlockPolicy{
		Mode:      UnlockLifetime,
		Threshold: DefaultUnlockThreshold,
		Tiers:     quiz.ExtendedTiers,
	}
}

// DefaultXPRequirements returns the optional XP gate per tier.
func DefaultXPRequirements() map[quiz.Tier]int {
	return map[quiz.Tier]int{
		quiz.TierBeginner:     0,
		quiz.TierIntermediate: 100,
		quiz.TierAdvanced:     300,
		quiz.TierExpert:       600,
		quiz.TierMaster:       1000,
	}
}

// TierState is the unlock status of one tier.
type TierState struct {
	Tier     quiz.Tier         `json:"difficulty"`
	Unlocked bool              `json:"unlocked"`
	Progress quiz.TierProgress `json:"progress"`
	Reason   string            `json:"reason,omitempty"`
}

// Unlocked reports whether tier is playable given the user's per-tier
// progress for the subject and their total XP.
func (p UnlockPolicy) Unlocked(tier quiz.Tier, byTier map[quiz.Tier]quiz.TierProgress, totalXP int) bool {
	ok, _ := p.check(tier, byTier, totalXP)
	return ok
}

// States returns the unlock state of every tier in the policy's set.
func (p UnlockPolicy) States(byTier map[quiz.Tier]quiz.TierProgress, totalXP int) []TierState {
	out := make([]TierState, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		ok, reason := p.check(t, byTier, totalXP)
		out = append(out, TierState{Tier: t, Unlocked: ok, Progress: byTier[t], Reason: reason})
	}
	return out
}

func (p UnlockPolicy) check(tier quiz.Tier, byTier map[quiz.Tier]quiz.TierProgress, totalXP int) (bool, string) {
	if len(p.Tiers) > 0 && !p.Tiers.Contains(tier) {
		return false, fmt.Sprintf("%s is not offered", tier.DisplayName())
	}
	if need, ok := p.XPRequirements[tier]; ok && totalXP < need {
		return false, fmt.Sprintf("requires %d XP", need)
	}
	prev, ok := tier.Previous()
	if !ok {
		return tier == quiz.TierBeginner, ""
	}

	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultUnlockThreshold
	}

	pp := byTier[prev]
	if pp.QuizCount == 0 {
		return false, fmt.Sprintf("complete a %s quiz first", prev.DisplayName())
	}

	var percent float64
	switch p.Mode {
	case UnlockLastSession:
		percent = float64(pp.LastAccuracy)
	default:
		percent = pp.Accuracy() * 100
	}
	if percent < float64(threshold) {
		return false, fmt.Sprintf("reach %d%% accuracy in %s", threshold, prev.DisplayName())
	}
	return true, ""
}
