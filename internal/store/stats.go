package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizforge/internal/quiz"
)

// GetStats returns the stored stats for userID, or the zero state when the
// user has none yet.
func (c conn) GetStats(ctx context.Context, userID string) (quiz.UserStats, error) {
	b := c.builder()
	query, args := b.Select("total_xp", "level", "quiz_streak", "total_quizzes",
		"total_correct", "total_questions", "achievements", "version").
		From(b.Table(tableStats)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return quiz.UserStats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := quiz.NewUserStats(userID)
	if !rows.Next() {
		return stats, rows.Err()
	}

	var achievements string
	if err := rows.Scan(&stats.TotalXP, &stats.Level, &stats.QuizStreak, &stats.TotalQuizzes,
		&stats.TotalCorrect, &stats.TotalQuestions, &achievements, &stats.Version); err != nil {
		return quiz.UserStats{}, fmt.Errorf("scan stats: %w", err)
	}
	if err := json.Unmarshal([]byte(achievements), &stats.Achievements); err != nil {
		return quiz.UserStats{}, fmt.Errorf("decode achievements: %w", err)
	}
	return stats, nil
}

// SaveStats writes stats if its Version still matches the stored row and
// returns the stats with the bumped version. A stale version yields
// ErrConflict.
func (c conn) SaveStats(ctx context.Context, stats quiz.UserStats) (quiz.UserStats, error) {
	achievements := stats.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	encoded, err := json.Marshal(achievements)
	if err != nil {
		return stats, fmt.Errorf("encode achievements: %w", err)
	}
	now := time.Now().UnixMilli()
	next := stats.Version + 1

	b := c.builder()
	var (
		query string
		args  []any
	)
	if stats.Version == 0 {
		query, args = b.Insert(tableStats).
			Columns("user_id", "total_xp", "level", "quiz_streak", "total_quizzes",
				"total_correct", "total_questions", "achievements", "version", "updated_at").
			Values(stats.UserID, stats.TotalXP, stats.Level, stats.QuizStreak, stats.TotalQuizzes,
				stats.TotalCorrect, stats.TotalQuestions, string(encoded), next, now).
			OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing()).
			Query()
	} else {
		query, args = b.Update(tableStats).
			Set("total_xp", stats.TotalXP).
			Set("level", stats.Level).
			Set("quiz_streak", stats.QuizStreak).
			Set("total_quizzes", stats.TotalQuizzes).
			Set("total_correct", stats.TotalCorrect).
			Set("total_questions", stats.TotalQuestions).
			Set("achievements", string(encoded)).
			Set("version", next).
			Set("updated_at", now).
			Where(entsql.And(
				entsql.EQ("user_id", stats.UserID),
				entsql.EQ("version", stats.Version),
			)).
			Query()
	}

	res, err := c.exec(ctx, query, args)
	if err != nil {
		return stats, fmt.Errorf("save stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return stats, fmt.Errorf("save stats: %w", err)
	}
	if n == 0 {
		return stats, fmt.Errorf("save stats for %s at version %d: %w", stats.UserID, stats.Version, ErrConflict)
	}

	stats.Version = next
	return stats, nil
}

// DeleteUser removes all progression, sessions, and session events of a
// user. The question bank and LLM call log are shared and left intact.
func (c conn) DeleteUser(ctx context.Context, userID string) error {
	b := c.builder()
	for _, table := range []string{tableStats, tablePerformance, tableTiers, tableSessions, tableEvents} {
		query, args := b.Delete(table).Where(entsql.EQ("user_id", userID)).Query()
		if _, err := c.exec(ctx, query, args); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
