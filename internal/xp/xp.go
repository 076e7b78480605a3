// Package xp converts session results into experience points and levels.
package xp

import (
	"fmt"
	"math"

	"github.com/abhisek/quizforge/internal/quiz"
)

const (
	// PointsPerCorrect is the base XP for each correct answer.
	PointsPerCorrect = 10

	// DefaultLevelDivisor is the XP needed per level.
	DefaultLevelDivisor = 100
)

// Formula names an XP formula.
type Formula string

const (
	// FormulaAdditive is round(correct*10*multiplier + timeBonus).
	FormulaAdditive Formula = "additive"

	// FormulaWeighted is round(10*correct*multiplier*performanceBonus*timeMultiplier).
	FormulaWeighted Formula = "weighted"
)

// ParseFormula validates a formula name.
func ParseFormula(s string) (Formula, error) {
	switch Formula(s) {
	case "", FormulaAdditive:
		return FormulaAdditive, nil
	case FormulaWeighted:
		return FormulaWeighted, nil
	default:
		return "", fmt.Errorf("unknown xp formula %q", s)
	}
}

var multipliers = map[quiz.Tier]float64{
	quiz.TierBeginner:     1.0,
	quiz.TierIntermediate: 1.5,
	quiz.TierAdvanced:     2.0,
	quiz.TierExpert:       2.5,
	quiz.TierMaster:       3.0,
}

// Calculator computes XP awards for the active tier set.
type Calculator struct {
	Tiers   quiz.TierSet
	Formula Formula
}

// NewCalculator returns an additive calculator over the extended tier set.
func NewCalculator() Calculator {
	return Calculator{Tiers: quiz.ExtendedTiers, Formula: FormulaAdditive}
}

// Multiplier returns the difficulty multiplier. Tiers outside the active set
// count as 1.0.
func (c Calculator) Multiplier(t quiz.Tier) float64 {
	if !c.Tiers.Contains(t) {
		return 1.0
	}
	return multipliers[t]
}

// Award computes XP for a scored session using the configured formula.
// timeBonus feeds the additive formula; the weighted formula uses the raw
// time spent instead.
func (c Calculator) Award(res quiz.SessionResult, t quiz.Tier) int {
	if c.Formula == FormulaWeighted {
		return c.Weighted(res.CorrectCount, res.TotalCount, t, res.TimeSpentSeconds)
	}
	return c.Calculate(res.CorrectCount, res.TotalCount, t, float64(res.TimeBonus))
}

// Calculate is the canonical additive formula. totalQuestions is accepted
// for call-shape parity with Weighted and does not affect the result.
func (c Calculator) Calculate(correct, totalQuestions int, t quiz.Tier, timeBonus float64) int {
	base := float64(max(correct, 0) * PointsPerCorrect)
	return clamp(math.Round(base*c.Multiplier(t) + math.Max(timeBonus, 0)))
}

// Weighted folds a performance bonus and a time multiplier into the award.
func (c Calculator) Weighted(correct, totalQuestions int, t quiz.Tier, timeTakenSeconds int) int {
	if totalQuestions <= 0 || correct <= 0 {
		return 0
	}
	correct = min(correct, totalQuestions)
	performance := 0.5 + 1.5*float64(correct)/float64(totalQuestions)
	raw := PointsPerCorrect * float64(correct) * c.Multiplier(t) * performance * TimeMultiplier(timeTakenSeconds)
	return clamp(math.Round(raw))
}

// TimeMultiplier steps down from 1.2 to 1.0 as a session takes longer.
// Unknown timing (seconds <= 0) earns no boost.
func TimeMultiplier(seconds int) float64 {
	switch {
	case seconds <= 0:
		return 1.0
	case seconds <= 120:
		return 1.2
	case seconds <= 180:
		return 1.1
	case seconds <= 240:
		return 1.05
	default:
		return 1.0
	}
}

func clamp(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v)
}

// Level returns the level for a total XP. divisor <= 0 means DefaultLevelDivisor.
func Level(totalXP, divisor int) int {
	if divisor <= 0 {
		divisor = DefaultLevelDivisor
	}
	return max(totalXP, 0)/divisor + 1
}

// ToNextLevel returns the XP still needed to reach the next level.
func ToNextLevel(totalXP, divisor int) int {
	if divisor <= 0 {
		divisor = DefaultLevelDivisor
	}
	return Level(totalXP, divisor)*divisor - max(totalXP, 0)
}
