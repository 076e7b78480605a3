package progress

import "github.com/abhisek/quizforge/internal/quiz"

// Achievement identifies a one-way badge.
type Achievement string

const (
	AchFirstQuiz       Achievement = "first_quiz"
	AchPerfectScore    Achievement = "perfect_score"
	AchStreak5         Achievement = "streak_5"
	AchLevel5          Achievement = "level_5"
	AchKnowledgeSeeker Achievement = "knowledge_seeker"
	AchRisingStar      Achievement = "rising_star"
)

// CoreAchievements returns the badges every deployment awards, in display order.
func CoreAchievements() []Achievement {
	return []Achievement{AchFirstQuiz, AchPerfectScore, AchStreak5, AchLevel5}
}

// ExtraAchievements returns the optional milestone badges.
func ExtraAchievements() []Achievement {
	return []Achievement{AchKnowledgeSeeker, AchRisingStar}
}

// DisplayName returns a human-readable label for the badge.
func (a Achievement) DisplayName() string {
	switch a {
	case AchFirstQuiz:
		return "First Steps"
	case AchPerfectScore:
		return "Perfectionist"
	case AchStreak5:
		return "On Fire"
	case AchLevel5:
		return "Rising Scholar"
	case AchKnowledgeSeeker:
		return "Knowledge Seeker"
	case AchRisingStar:
		return "Rising Star"
	default:
		return string(a)
	}
}

// Description explains how the badge is earned.
func (a Achievement) Description() string {
	switch a {
	case AchFirstQuiz:
		return "Complete your first quiz"
	case AchPerfectScore:
		return "Score 100% on a quiz"
	case AchStreak5:
		return "Pass 5 quizzes in a row"
	case AchLevel5:
		return "Reach level 5"
	case AchKnowledgeSeeker:
		return "Earn 100 XP"
	case AchRisingStar:
		return "Reach level 3"
	default:
		return ""
	}
}

// Icon returns the display icon for the badge.
func (a Achievement) Icon() string {
	switch a {
	case AchFirstQuiz:
		return "🎯"
	case AchPerfectScore:
		return "💯"
	case AchStreak5:
		return "🔥"
	case AchLevel5:
		return "⭐"
	case AchKnowledgeSeeker:
		return "📚"
	case AchRisingStar:
		return "🌟"
	default:
		return "✦"
	}
}

// qualifies reports whether the badge is earned by a session. prev is the
// state before the session and next the state after it.
func (a Achievement) qualifies(prev, next quiz.UserStats, res quiz.SessionResult) bool {
	switch a {
	case AchFirstQuiz:
		return prev.TotalQuizzes == 0
	case AchPerfectScore:
		return res.TotalCount > 0 && res.AccuracyPercent == 100
	case AchStreak5:
		return next.QuizStreak >= 5
	case AchLevel5:
		return next.Level >= 5
	case AchKnowledgeSeeker:
		return next.TotalXP >= 100
	case AchRisingStar:
		return next.Level >= 3
	default:
		return false
	}
}
