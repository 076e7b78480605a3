package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizforge/internal/quiz"
)

var sessionColumns = []string{
	"id", "user_id", "subject", "topic", "tier", "source", "questions", "answers",
	"status", "result", "xp_earned", "time_limit_ms", "started_at", "completed_at",
}

// CreateSession stores a new active session.
func (c conn) CreateSession(ctx context.Context, s *Session) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	answers, err := encodeAnswers(s.Answers)
	if err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = SessionActive
	}

	query, args := c.builder().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(s.ID, s.UserID, s.Subject, s.Topic, string(s.Tier), s.Source, string(questions), answers,
			string(s.Status), "", s.XPEarned, s.TimeLimit.Milliseconds(),
			toMillis(s.StartedAt), toMillis(s.CompletedAt)).
		Query()
	if _, err := c.exec(ctx, query, args); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns the session with id or ErrNotFound.
func (c conn) GetSession(ctx context.Context, id string) (*Session, error) {
	query, args := c.sessionQuery(id, false)
	return c.getSession(ctx, id, query, args)
}

// LockSession is GetSession that holds a row lock until the transaction
// ends. SQLite runs on a single connection and needs no lock clause.
func (tx *Tx) LockSession(ctx context.Context, id string) (*Session, error) {
	query, args := tx.sessionQuery(id, tx.dialect == dialect.Postgres)
	return tx.getSession(ctx, id, query, args)
}

func (c conn) sessionQuery(id string, lock bool) (string, []any) {
	b := c.builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("id", id))
	if lock {
		sel.ForUpdate()
	}
	return sel.Query()
}

func (c conn) getSession(ctx context.Context, id, query string, args []any) (*Session, error) {
	sessions, err := c.scanSessions(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &sessions[0], nil
}

// SaveAnswers replaces the in-progress answers of an active session.
func (c conn) SaveAnswers(ctx context.Context, id string, answers []int) error {
	encoded, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	query, args := c.builder().Update(tableSessions).
		Set("answers", encoded).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(SessionActive)))).
		Query()
	return c.execOne(ctx, query, args, "save answers", id)
}

// CompleteSession records the result of an active session. The stored
// status is SessionExpired when s.Status says so and SessionCompleted
// otherwise. A session that is no longer active yields ErrConflict.
func (c conn) CompleteSession(ctx context.Context, s *Session) error {
	status := SessionCompleted
	if s.Status == SessionExpired {
		status = SessionExpired
	}
	answers, err := encodeAnswers(s.Answers)
	if err != nil {
		return err
	}
	result := ""
	if s.Result != nil {
		raw, err := json.Marshal(s.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = string(raw)
	}

	query, args := c.builder().Update(tableSessions).
		Set("answers", answers).
		Set("status", string(status)).
		Set("result", result).
		Set("xp_earned", s.XPEarned).
		Set("completed_at", toMillis(s.CompletedAt)).
		Where(entsql.And(entsql.EQ("id", s.ID), entsql.EQ("status", string(SessionActive)))).
		Query()
	if err := c.execOne(ctx, query, args, "complete session", s.ID); err != nil {
		return err
	}
	s.Status = status
	return nil
}

// ExpireSession marks an active session as expired without a result.
func (c conn) ExpireSession(ctx context.Context, id string, at time.Time) error {
	query, args := c.builder().Update(tableSessions).
		Set("status", string(SessionExpired)).
		Set("completed_at", toMillis(at)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(SessionActive)))).
		Query()
	return c.execOne(ctx, query, args, "expire session", id)
}

// ListSessions returns a user's sessions, newest first. limit <= 0 returns
// all of them.
func (c conn) ListSessions(ctx context.Context, userID string, limit int) ([]Session, error) {
	b := c.builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return c.scanSessions(ctx, query, args)
}

// ListExpired returns active sessions whose time limit ran out before
// cutoff. Sessions without a limit never expire.
func (c conn) ListExpired(ctx context.Context, cutoff time.Time) ([]Session, error) {
	b := c.builder()
	query, args := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("status", string(SessionActive)),
			entsql.GT("time_limit_ms", 0),
			entsql.LT("started_at", cutoff.UnixMilli()),
		)).
		OrderBy("started_at").
		Query()

	candidates, err := c.scanSessions(ctx, query, args)
	if err != nil {
		return nil, err
	}
	var out []Session
	for _, s := range candidates {
		if s.Deadline().Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c conn) scanSessions(ctx context.Context, query string, args []any) ([]Session, error) {
	rows, err := c.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s                      Session
			tier, status           string
			questions, answers     string
			result                 string
			limitMs, started, done int64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Subject, &s.Topic, &tier, &s.Source,
			&questions, &answers, &status, &result, &s.XPEarned, &limitMs, &started, &done); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Tier = quiz.Tier(tier)
		s.Status = SessionStatus(status)
		s.TimeLimit = time.Duration(limitMs) * time.Millisecond
		s.StartedAt = fromMillis(started)
		s.CompletedAt = fromMillis(done)

		if err := json.Unmarshal([]byte(questions), &s.Questions); err != nil {
			return nil, fmt.Errorf("decode questions of %s: %w", s.ID, err)
		}
		if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", s.ID, err)
		}
		if result != "" {
			s.Result = new(quiz.SessionResult)
			if err := json.Unmarshal([]byte(result), s.Result); err != nil {
				return nil, fmt.Errorf("decode result of %s: %w", s.ID, err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// execOne runs a single-row update and maps zero affected rows to
// ErrConflict.
func (c conn) execOne(ctx context.Context, query string, args []any, op, id string) error {
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrConflict)
	}
	return nil
}

func encodeAnswers(answers []int) (string, error) {
	if answers == nil {
		answers = []int{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(raw), nil
}
