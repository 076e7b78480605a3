package session

import (
	"context"
	"fmt"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/report"
	"github.com/abhisek/quizforge/internal/skill"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/xp"
)

// Profile is a user's progression at a glance.
type Profile struct {
	Stats       quiz.UserStats `json:"stats"`
	XPToNext    int            `json:"xp_to_next_level"`
	Accuracy    int            `json:"accuracy_percent"`
	Performance []Category     `json:"performance"`
}

// Category is the per-category record plus its classification.
type Category struct {
	quiz.UserPerformance
	AccuracyPercent int       `json:"accuracy_percent"`
	Recommended     quiz.Tier `json:"recommended_difficulty"`
	Recommendations []string  `json:"recommendations"`
}

// Stats returns the user's stats and per-category performance.
func (s *Service) Stats(ctx context.Context, userID string) (*Profile, error) {
	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	perf, err := s.store.ListPerformance(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Stats:    stats,
		XPToNext: xp.ToNextLevel(stats.TotalXP, s.rules.Tracker.LevelDivisor),
	}
	if stats.TotalQuestions > 0 {
		p.Accuracy = stats.TotalCorrect * 100 / stats.TotalQuestions
	}
	for _, up := range perf {
		p.Performance = append(p.Performance, describe(up))
	}
	return p, nil
}

// Performance returns the record for one category. A category the user never
// played yields a zero record.
func (s *Service) Performance(ctx context.Context, userID, category string) (Category, error) {
	up, _, err := s.store.GetPerformance(ctx, userID, category)
	if err != nil {
		return Category{}, err
	}
	return describe(up), nil
}

func describe(up quiz.UserPerformance) Category {
	return Category{
		UserPerformance: up,
		AccuracyPercent: int(up.Accuracy() * 100),
		Recommended:     skill.Classify(up),
		Recommendations: skill.Recommendations(up),
	}
}

// History returns a user's sessions, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]store.Session, error) {
	return s.store.ListSessions(ctx, userID, limit)
}

// Events returns the audit trail of a session.
func (s *Service) Events(ctx context.Context, sessionID string) ([]store.SessionEvent, error) {
	return s.store.ListSessionEvents(ctx, sessionID)
}

// Subjects lists the categories of the question bank with their sizes.
func (s *Service) Subjects(ctx context.Context) ([]store.CategoryCount, error) {
	return s.store.Categories(ctx)
}

// Export collects a user's stats, categories, and full history.
func (s *Service) Export(ctx context.Context, userID string) (report.Data, error) {
	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		return report.Data{}, err
	}
	perf, err := s.store.ListPerformance(ctx, userID)
	if err != nil {
		return report.Data{}, err
	}
	sessions, err := s.store.ListSessions(ctx, userID, 0)
	if err != nil {
		return report.Data{}, err
	}
	return report.Data{
		UserID:      userID,
		Stats:       stats,
		Categories:  perf,
		Sessions:    sessions,
		GeneratedAt: s.now(),
	}, nil
}

// Reset deletes every piece of progress recorded for a user.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user progress reset", "user", userID)
	return nil
}
