package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizforge/internal/quiz"
)

var performanceColumns = []string{
	"user_id", "category", "correct_answers", "total_answers", "average_time", "tier", "last_attempt",
}

func scanPerformance(rows *entsql.Rows) (quiz.UserPerformance, error) {
	var (
		p    quiz.UserPerformance
		tier string
		last int64
	)
	if err := rows.Scan(&p.UserID, &p.Category, &p.CorrectAnswers, &p.TotalAnswers,
		&p.AverageTimeSeconds, &tier, &last); err != nil {
		return p, fmt.Errorf("scan performance: %w", err)
	}
	p.Tier = quiz.Tier(tier)
	p.LastAttempt = fromMillis(last)
	return p, nil
}

// GetPerformance returns the record for (userID, category). The bool is
// false when the user has never played the category.
func (c conn) GetPerformance(ctx context.Context, userID, category string) (quiz.UserPerformance, bool, error) {
	b := c.builder()
	query, args := b.Select(performanceColumns...).
		From(b.Table(tablePerformance)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("category", category))).
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return quiz.UserPerformance{}, false, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return quiz.UserPerformance{UserID: userID, Category: category}, false, rows.Err()
	}
	p, err := scanPerformance(rows)
	if err != nil {
		return p, false, err
	}
	return p, true, nil
}

// ListPerformance returns every category record of a user ordered by
// category.
func (c conn) ListPerformance(ctx context.Context, userID string) ([]quiz.UserPerformance, error) {
	b := c.builder()
	query, args := b.Select(performanceColumns...).
		From(b.Table(tablePerformance)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("category").
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query performance: %w", err)
	}
	defer rows.Close()

	var out []quiz.UserPerformance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SavePerformance upserts a category record.
func (c conn) SavePerformance(ctx context.Context, p quiz.UserPerformance) error {
	query, args := c.builder().Insert(tablePerformance).
		Columns(performanceColumns...).
		Values(p.UserID, p.Category, p.CorrectAnswers, p.TotalAnswers,
			p.AverageTimeSeconds, string(p.Tier), toMillis(p.LastAttempt)).
		OnConflict(entsql.ConflictColumns("user_id", "category"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("save performance: %w", err)
	}
	return nil
}

var tierColumns = []string{
	"user_id", "subject", "tier", "quiz_count", "correct_answers",
	"total_questions", "total_xp", "best_score", "last_accuracy",
}

// TierProgress returns the per-tier aggregates of a user for one subject.
// Tiers never played are absent from the map.
func (c conn) TierProgress(ctx context.Context, userID, subject string) (map[quiz.Tier]quiz.TierProgress, error) {
	b := c.builder()
	query, args := b.Select(tierColumns...).
		From(b.Table(tableTiers)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("subject", subject))).
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query tier progress: %w", err)
	}
	defer rows.Close()

	out := make(map[quiz.Tier]quiz.TierProgress)
	for rows.Next() {
		var (
			p    quiz.TierProgress
			tier string
		)
		if err := rows.Scan(&p.UserID, &p.Subject, &tier, &p.QuizCount, &p.CorrectAnswers,
			&p.TotalQuestions, &p.TotalXP, &p.BestScore, &p.LastAccuracy); err != nil {
			return nil, fmt.Errorf("scan tier progress: %w", err)
		}
		p.Tier = quiz.Tier(tier)
		out[p.Tier] = p
	}
	return out, rows.Err()
}

// SaveTierProgress upserts one tier aggregate.
func (c conn) SaveTierProgress(ctx context.Context, p quiz.TierProgress) error {
	query, args := c.builder().Insert(tableTiers).
		Columns(tierColumns...).
		Values(p.UserID, p.Subject, string(p.Tier), p.QuizCount, p.CorrectAnswers,
			p.TotalQuestions, p.TotalXP, p.BestScore, p.LastAccuracy).
		OnConflict(entsql.ConflictColumns("user_id", "subject", "tier"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("save tier progress: %w", err)
	}
	return nil
}
