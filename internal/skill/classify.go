// Package skill classifies a user's cumulative performance into a tier.
package skill

import "github.com/abhisek/quizforge/internal/quiz"

// Thresholds holds the accuracy and volume gates for classification.
type Thresholds struct {
	AdvancedAccuracy     float64
	AdvancedMinAnswers   int
	IntermediateAccuracy float64
	IntermediateMin      int
}

// DefaultThresholds returns 80%/10 answers for advanced and 60%/5 answers
// for intermediate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AdvancedAccuracy:     0.8,
		AdvancedMinAnswers:   10,
		IntermediateAccuracy: 0.6,
		IntermediateMin:      5,
	}
}

// Classify returns the tier a user should practise next using the default
// thresholds.
func Classify(p quiz.UserPerformance) quiz.Tier {
	return DefaultThresholds().Classify(p)
}

// Classify returns the tier for p. A user with no answers is a beginner.
func (th Thresholds) Classify(p quiz.UserPerformance) quiz.Tier {
	if p.TotalAnswers <= 0 {
		return quiz.TierBeginner
	}
	acc := p.Accuracy()
	switch {
	case acc >= th.AdvancedAccuracy && p.TotalAnswers >= th.AdvancedMinAnswers:
		return quiz.TierAdvanced
	case acc >= th.IntermediateAccuracy && p.TotalAnswers >= th.IntermediateMin:
		return quiz.TierIntermediate
	default:
		return quiz.TierBeginner
	}
}

// Recommendations returns study hints for the user's accuracy band.
func Recommendations(p quiz.UserPerformance) []string {
	acc := p.Accuracy()
	switch {
	case acc < 0.5:
		return []string{
			"Focus on fundamental concepts",
			"Start with easier questions",
			"Read each explanation carefully",
		}
	case acc < 0.7:
		return []string{
			"Practise more intermediate questions",
			"Work on your pace",
			"Revisit the questions you missed",
		}
	default:
		return []string{
			"Take on advanced topics",
			"Try timed quizzes",
			"Explore related subjects",
		}
	}
}
