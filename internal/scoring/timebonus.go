package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
)

// TimeBonusPolicy selects how fast answering is rewarded.
type TimeBonusPolicy string

const (
	// BonusPaced rewards sessions whose average time per question is under
	// 70% of the tier's per-question allowance, scaled by tier rank.
	BonusPaced TimeBonusPolicy = "paced"

	// BonusFlat rewards an average under 30 seconds per question at two
	// points per second saved, regardless of tier.
	BonusFlat TimeBonusPolicy = "flat"

	BonusNone TimeBonusPolicy = "none"
)

const (
	pacedFraction = 0.7
	flatTarget    = 30.0
	flatFactor    = 2.0
)

// ParseTimeBonusPolicy validates a policy name.
func ParseTimeBonusPolicy(s string) (TimeBonusPolicy, error) {
	switch TimeBonusPolicy(s) {
	case "", BonusPaced:
		return BonusPaced, nil
	case BonusFlat:
		return BonusFlat, nil
	case BonusNone:
		return BonusNone, nil
	default:
		return "", fmt.Errorf("unknown time bonus policy %q", s)
	}
}

// timeBonus returns a non-negative bonus. Unknown timing (spent <= 0) and
// empty sessions earn nothing.
func (s Scorer) timeBonus(tier quiz.Tier, total int, spent time.Duration) int {
	if total == 0 || spent <= 0 {
		return 0
	}
	avg := spent.Seconds() / float64(total)

	switch s.Bonus {
	case BonusFlat:
		if avg < flatTarget {
			return int(math.Round((flatTarget - avg) * flatFactor))
		}
	case BonusPaced:
		expected := s.Allowance.QuestionTime(tier).Seconds()
		if avg < expected*pacedFraction {
			return int(math.Round((expected - avg) * float64(tier.Rank())))
		}
	}
	return 0
}
