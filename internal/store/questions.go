package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizforge/internal/quiz"
)

var questionColumns = []string{
	"id", "category", "prompt", "options", "correct_index", "tier", "explanation", "points", "source",
}

// UpsertQuestions inserts or replaces bank questions, tagging them with
// source.
func (c conn) UpsertQuestions(ctx context.Context, source string, qs []quiz.QuestionRecord) error {
	if len(qs) == 0 {
		return nil
	}
	ins := c.builder().Insert(tableQuestions).Columns(questionColumns...)
	for _, q := range qs {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options for %s: %w", q.ID, err)
		}
		ins.Values(q.ID, q.Category, q.Prompt, string(opts), q.CorrectIndex,
			string(q.Tier), q.Explanation, q.Points, source)
	}
	query, args := ins.
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("upsert questions: %w", err)
	}
	return nil
}

// ListQuestions returns bank questions ordered by id. An empty category
// lists the whole bank.
func (c conn) ListQuestions(ctx context.Context, category string) ([]StoredQuestion, error) {
	b := c.builder()
	sel := b.Select(questionColumns...).From(b.Table(tableQuestions)).OrderBy("category", "id")
	if category != "" {
		sel.Where(entsql.EQ("category", category))
	}
	query, args := sel.Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []StoredQuestion
	for rows.Next() {
		var (
			q    StoredQuestion
			opts string
			tier string
		)
		if err := rows.Scan(&q.ID, &q.Category, &q.Prompt, &opts, &q.CorrectIndex,
			&tier, &q.Explanation, &q.Points, &q.Source); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for %s: %w", q.ID, err)
		}
		q.Tier = quiz.Tier(tier)
		out = append(out, q)
	}
	return out, rows.Err()
}

// QuestionPool returns every bank question of a category.
func (c conn) QuestionPool(ctx context.Context, category string) ([]quiz.QuestionRecord, error) {
	stored, err := c.ListQuestions(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.QuestionRecord, len(stored))
	for i, q := range stored {
		out[i] = q.QuestionRecord
	}
	return out, nil
}

// Categories returns each bank category with its question count.
func (c conn) Categories(ctx context.Context) ([]CategoryCount, error) {
	b := c.builder()
	query, args := b.Select("category", entsql.Count("*")).
		From(b.Table(tableQuestions)).
		GroupBy("category").
		OrderBy("category").
		Query()

	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}
