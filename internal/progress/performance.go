package progress

import (
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/skill"
)

// FoldPerformance returns the category record after res. The average time is
// a running mean of seconds per question weighted by questions answered.
func FoldPerformance(p quiz.UserPerformance, res quiz.SessionResult, at time.Time) quiz.UserPerformance {
	next := p
	next.CorrectAnswers = p.CorrectAnswers + res.CorrectCount
	next.TotalAnswers = p.TotalAnswers + res.TotalCount

	if res.TotalCount > 0 && res.TimeSpentSeconds > 0 {
		prevWeight := float64(max(p.TotalAnswers, 0))
		total := prevWeight + float64(res.TotalCount)
		next.AverageTimeSeconds = (p.AverageTimeSeconds*prevWeight + float64(res.TimeSpentSeconds)) / total
	}

	next.Tier = skill.Classify(next)
	next.LastAttempt = at
	return next
}

// FoldTierProgress returns the per-tier aggregate after a session that
// earned xpEarned.
func FoldTierProgress(p quiz.TierProgress, res quiz.SessionResult, xpEarned int) quiz.TierProgress {
	next := p
	next.QuizCount = p.QuizCount + 1
	next.CorrectAnswers = p.CorrectAnswers + res.CorrectCount
	next.TotalQuestions = p.TotalQuestions + res.TotalCount
	next.TotalXP = p.TotalXP + xpEarned
	next.BestScore = max(p.BestScore, res.AccuracyPercent)
	next.LastAccuracy = res.AccuracyPercent
	return next
}
