// Package session runs quiz sessions end to end: it loads questions, records
// answers, scores submissions, and folds the result into stored progress.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizforge/internal/cache"
	"github.com/abhisek/quizforge/internal/events"
	"github.com/abhisek/quizforge/internal/progress"
	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/scoring"
	"github.com/abhisek/quizforge/internal/selection"
	"github.com/abhisek/quizforge/internal/skill"
	"github.com/abhisek/quizforge/internal/store"
)

var (
	// ErrInvalidRequest wraps caller mistakes: bad tier, index, or option.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTierLocked is returned when the user has not unlocked the tier.
	ErrTierLocked = errors.New("tier locked")

	// ErrSessionClosed is returned for answers or submissions on a session
	// that is no longer active.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnknownSource is returned for an unregistered question source.
	ErrUnknownSource = errors.New("unknown question source")
)

// maxSubmitAttempts bounds retries after a lost optimistic stats update.
const maxSubmitAttempts = 3

// Options configures a Service. Zero values select no-op collaborators.
type Options struct {
	// Sources maps a source name to its implementation.
	Sources map[string]questiongen.Source

	// DefaultSource is used when a start request names no source.
	DefaultSource string

	Cache     cache.SessionCache
	Publisher events.Publisher
	Rules     Rules

	// Selector draws stateless bank quizzes.
	Selector *selection.Selector

	Clock  func() time.Time
	Logger *slog.Logger
}

// Service orchestrates sessions over the store.
type Service struct {
	store         *store.Store
	sources       map[string]questiongen.Source
	defaultSource string
	cache         cache.SessionCache
	publisher     events.Publisher
	rules         Rules
	selector      *selection.Selector
	now           func() time.Time
	log           *slog.Logger

	// statsRead, when set, runs inside a submission between reading and
	// saving the user's stats.
	statsRead func(ctx context.Context, tx *store.Tx, stats quiz.UserStats) error
}

// NewService creates a Service.
func NewService(st *store.Store, opts Options) *Service {
	s := &Service{
		store:         st,
		sources:       opts.Sources,
		defaultSource: opts.DefaultSource,
		cache:         opts.Cache,
		publisher:     opts.Publisher,
		rules:         opts.Rules,
		selector:      opts.Selector,
		now:           opts.Clock,
		log:           opts.Logger,
	}
	if s.sources == nil {
		s.sources = map[string]questiongen.Source{}
	}
	if s.defaultSource == "" {
		s.defaultSource = questiongen.SourceBank
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.rules.Tiers == nil {
		s.rules = DefaultRules()
	}
	if s.selector == nil {
		s.selector = selection.NewRandom()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Rules returns the engine configuration in use.
func (s *Service) Rules() Rules { return s.rules }

// StartRequest describes a new session.
type StartRequest struct {
	UserID  string `json:"user_id"`
	Subject string `json:"subject"`
	Topic   string `json:"topic,omitempty"`
	Tier    string `json:"difficulty"`
	Count   int    `json:"count,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Start checks the tier gate, loads questions, and stores a new active
// session.
func (s *Service) Start(ctx context.Context, req StartRequest) (*store.Session, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if req.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}
	tier, err := quiz.ParseTier(req.Tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !s.rules.Tiers.Contains(tier) {
		return nil, fmt.Errorf("%w: %s is not offered", ErrInvalidRequest, tier)
	}

	sourceName := req.Source
	if sourceName == "" {
		sourceName = s.defaultSource
	}
	src, ok := s.sources[sourceName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}

	if err := s.checkUnlocked(ctx, req.UserID, req.Subject, tier); err != nil {
		return nil, err
	}

	count := s.rules.questionCount(tier, req.Count)
	batch, err := src.Generate(ctx, questiongen.Request{
		Subject: req.Subject,
		Topic:   req.Topic,
		Tier:    tier,
		Count:   count,
	})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(batch.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for %s", questiongen.ErrGenerationFailed, req.Subject)
	}

	now := s.now()
	answers := make([]int, len(batch.Questions))
	for i := range answers {
		answers[i] = quiz.Unanswered
	}
	sess := &store.Session{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Subject:   req.Subject,
		Topic:     req.Topic,
		Tier:      tier,
		Source:    batch.Source,
		Questions: batch.Questions,
		Answers:   answers,
		Status:    store.SessionActive,
		TimeLimit: s.rules.Allowance.SessionLimit(tier, len(batch.Questions)),
		StartedAt: now,
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.CreateSession(ctx, sess); err != nil {
			return err
		}
		return tx.AppendSessionEvent(ctx, s.event(sess, "start", map[string]any{
			"source": sess.Source, "count": len(sess.Questions), "time_limit_ms": sess.TimeLimit.Milliseconds(),
		}))
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	ttl := 24 * time.Hour
	if sess.TimeLimit > 0 {
		ttl = sess.TimeLimit + s.rules.Grace
	}
	if err := s.cache.Put(ctx, sess.ID, sess.Questions, ttl); err != nil {
		s.log.Warn("cache session questions", "session", sess.ID, "err", err)
	}

	s.log.Info("session started", "session", sess.ID, "user", sess.UserID,
		"subject", sess.Subject, "tier", tier, "source", sess.Source, "questions", len(sess.Questions))
	return sess, nil
}

func (s *Service) checkUnlocked(ctx context.Context, userID, subject string, tier quiz.Tier) error {
	if tier == quiz.TierBeginner {
		return nil
	}
	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		return err
	}
	byTier, err := s.store.TierProgress(ctx, userID, subject)
	if err != nil {
		return err
	}
	if s.rules.Unlock.Unlocked(tier, byTier, stats.TotalXP) {
		return nil
	}
	for _, st := range s.rules.Unlock.States(byTier, stats.TotalXP) {
		if st.Tier == tier && st.Reason != "" {
			return fmt.Errorf("%w: %s", ErrTierLocked, st.Reason)
		}
	}
	return fmt.Errorf("%w: %s", ErrTierLocked, tier)
}

// Tiers returns the unlock state of every tier of subject for a user.
func (s *Service) Tiers(ctx context.Context, userID, subject string) ([]progress.TierState, error) {
	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	byTier, err := s.store.TierProgress(ctx, userID, subject)
	if err != nil {
		return nil, err
	}
	return s.rules.Unlock.States(byTier, stats.TotalXP), nil
}

// Get returns a stored session.
func (s *Service) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// Answer records option for question index of an active session.
// quiz.Unanswered clears a previous selection. The session row stays locked
// between the read and the write so concurrent answers do not overwrite
// each other.
func (s *Service) Answer(ctx context.Context, sessionID string, index, option int) (*store.Session, error) {
	if option < quiz.Unanswered || option >= quiz.OptionCount {
		return nil, fmt.Errorf("%w: option %d out of range", ErrInvalidRequest, option)
	}

	var sess *store.Session
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		sess, err = tx.LockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status != store.SessionActive {
			return ErrSessionClosed
		}
		if index < 0 || index >= len(sess.Questions) {
			return fmt.Errorf("%w: question %d out of range", ErrInvalidRequest, index)
		}

		sess.Answers = padAnswers(sess.Answers, len(sess.Questions))
		sess.Answers[index] = option
		if err := tx.SaveAnswers(ctx, sessionID, sess.Answers); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSessionClosed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Abandon closes an active session without scoring it.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.ExpireSession(ctx, sessionID, s.now()); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSessionClosed
			}
			return err
		}
		return tx.AppendSessionEvent(ctx, s.event(sess, "abandon", nil))
	})
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn("evict session questions", "session", sessionID, "err", err)
	}
	return nil
}

// SubmitRequest finishes a session. A nil Answers submits the answers
// recorded so far.
type SubmitRequest struct {
	SessionID string
	Answers   []int
	TimeSpent time.Duration
}

// Summary is everything a client shows after a submission.
type Summary struct {
	Session         *store.Session         `json:"session"`
	Result          quiz.SessionResult     `json:"result"`
	XPEarned        int                    `json:"xp_earned"`
	LevelUp         bool                   `json:"level_up"`
	StreakBroken    bool                   `json:"streak_broken"`
	Achievements    []progress.Achievement `json:"new_achievements"`
	Stats           quiz.UserStats         `json:"stats"`
	Performance     quiz.UserPerformance   `json:"performance"`
	TierProgress    quiz.TierProgress      `json:"tier_progress"`
	Tiers           []progress.TierState   `json:"tiers"`
	Recommendations []string               `json:"recommendations"`
}

// Submit scores the session and folds the result into stats, category
// performance, and tier progress in one transaction. A concurrent update of
// the same user's stats makes the transaction retry.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Summary, error) {
	return s.submit(ctx, req, false)
}

func (s *Service) submit(ctx context.Context, req SubmitRequest, expired bool) (*Summary, error) {
	var (
		summary *Summary
		err     error
	)
	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		err = s.store.WithTx(ctx, func(tx *store.Tx) error {
			var txErr error
			summary, txErr = s.applySubmission(ctx, tx, req, expired)
			return txErr
		})
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		s.log.Debug("stats update conflicted, retrying", "session", req.SessionID, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, req.SessionID); err != nil {
		s.log.Warn("evict session questions", "session", req.SessionID, "err", err)
	}
	s.publish(ctx, summary)

	s.log.Info("session submitted", "session", summary.Session.ID, "user", summary.Session.UserID,
		"accuracy", summary.Result.AccuracyPercent, "xp", summary.XPEarned, "expired", expired)
	return summary, nil
}

func (s *Service) applySubmission(ctx context.Context, tx *store.Tx, req SubmitRequest, expired bool) (*Summary, error) {
	sess, err := tx.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.SessionActive {
		return nil, ErrSessionClosed
	}

	questions := s.questions(ctx, sess)
	answers := req.Answers
	if answers == nil {
		answers = padAnswers(sess.Answers, len(questions))
	}

	res, err := s.rules.Scorer.Score(questions, scoring.Submission{
		Answers:   answers,
		TimeSpent: req.TimeSpent,
		Tier:      sess.Tier,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	now := s.now()
	stats, err := tx.GetStats(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if s.statsRead != nil {
		if err := s.statsRead(ctx, tx, stats); err != nil {
			return nil, err
		}
	}
	outcome := s.rules.Tracker.Apply(stats, res, sess.Tier)
	saved, err := tx.SaveStats(ctx, outcome.Stats)
	if err != nil {
		return nil, err
	}

	perf, _, err := tx.GetPerformance(ctx, sess.UserID, sess.Subject)
	if err != nil {
		return nil, err
	}
	perf = progress.FoldPerformance(perf, res, now)
	if err := tx.SavePerformance(ctx, perf); err != nil {
		return nil, err
	}

	byTier, err := tx.TierProgress(ctx, sess.UserID, sess.Subject)
	if err != nil {
		return nil, err
	}
	tp, ok := byTier[sess.Tier]
	if !ok {
		tp = quiz.TierProgress{UserID: sess.UserID, Subject: sess.Subject, Tier: sess.Tier}
	}
	tp = progress.FoldTierProgress(tp, res, outcome.XPEarned)
	if err := tx.SaveTierProgress(ctx, tp); err != nil {
		return nil, err
	}
	byTier[sess.Tier] = tp

	sess.Answers = answers
	sess.Result = &res
	sess.XPEarned = outcome.XPEarned
	sess.CompletedAt = now
	if expired {
		sess.Status = store.SessionExpired
	}
	if err := tx.CompleteSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSessionClosed
		}
		return nil, err
	}

	action := "submit"
	if expired {
		action = "expire"
	}
	err = tx.AppendSessionEvent(ctx, s.event(sess, action, map[string]any{
		"correct": res.CorrectCount, "total": res.TotalCount, "final_score": res.FinalScore,
		"grade": res.Grade, "xp": outcome.XPEarned, "achievements": outcome.Unlocked,
	}))
	if err != nil {
		return nil, err
	}

	return &Summary{
		Session:         sess,
		Result:          res,
		XPEarned:        outcome.XPEarned,
		LevelUp:         outcome.LevelUp,
		StreakBroken:    outcome.StreakBroken,
		Achievements:    outcome.Unlocked,
		Stats:           saved,
		Performance:     perf,
		TierProgress:    tp,
		Tiers:           s.rules.Unlock.States(byTier, saved.TotalXP),
		Recommendations: skill.Recommendations(perf),
	}, nil
}

// questions prefers the cached question set and falls back to the stored
// one.
func (s *Service) questions(ctx context.Context, sess *store.Session) []quiz.QuestionRecord {
	qs, ok, err := s.cache.Get(ctx, sess.ID)
	if err != nil {
		s.log.Warn("read cached session questions", "session", sess.ID, "err", err)
	}
	if ok && len(qs) == len(sess.Questions) {
		return qs
	}
	return sess.Questions
}

// Expire submits every active session whose time limit plus grace ran out
// before now. Unanswered slots stay -1 and the time spent is the limit.
func (s *Service) Expire(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.store.ListExpired(ctx, now.Add(-s.rules.Grace))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sess := range stale {
		_, err := s.submit(ctx, SubmitRequest{SessionID: sess.ID, TimeSpent: sess.TimeLimit}, true)
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrSessionClosed):
			// Submitted between the list and now.
		default:
			return n, fmt.Errorf("expire session %s: %w", sess.ID, err)
		}
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, sum *Summary) {
	if s.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	sess := sum.Session

	ev := events.NewSessionCompletedEvent(sess.UserID, sess.ID)
	ev.Subject = sess.Subject
	ev.Tier = string(sess.Tier)
	ev.Source = sess.Source
	ev.CorrectCount = sum.Result.CorrectCount
	ev.TotalCount = sum.Result.TotalCount
	ev.AccuracyPercent = sum.Result.AccuracyPercent
	ev.FinalScore = sum.Result.FinalScore
	ev.Grade = sum.Result.Grade
	ev.XPEarned = sum.XPEarned
	ev.TotalXP = sum.Stats.TotalXP
	ev.Level = sum.Stats.Level
	ev.LevelUp = sum.LevelUp
	if err := s.publisher.PublishSessionCompleted(ctx, ev); err != nil {
		s.log.Warn("publish session completed", "session", sess.ID, "err", err)
	}

	for _, a := range sum.Achievements {
		badge := events.NewAchievementUnlockedEvent(sess.UserID, sess.ID, string(a), a.DisplayName())
		if err := s.publisher.PublishAchievementUnlocked(ctx, badge); err != nil {
			s.log.Warn("publish achievement", "session", sess.ID, "achievement", a, "err", err)
		}
	}
}

func (s *Service) event(sess *store.Session, action string, payload map[string]any) store.SessionEvent {
	ev := store.SessionEvent{
		Timestamp: s.now(),
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Action:    action,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = string(raw)
		}
	}
	return ev
}

func padAnswers(answers []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = quiz.Unanswered
		if i < len(answers) {
			out[i] = answers[i]
		}
	}
	return out
}
