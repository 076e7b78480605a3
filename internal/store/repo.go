package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizforge/internal/quiz"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write lost an optimistic concurrency
	// check or targeted a row in the wrong state.
	ErrConflict = errors.New("store: conflict")
)

// QueryOpts configures log queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// SessionStatus is the lifecycle state of a stored session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
)

// Session is a persisted quiz attempt.
type Session struct {
	ID          string
	UserID      string
	Subject     string
	Topic       string
	Tier        quiz.Tier
	Source      string
	Questions   []quiz.QuestionRecord
	Answers     []int
	Status      SessionStatus
	Result      *quiz.SessionResult
	XPEarned    int
	TimeLimit   time.Duration
	StartedAt   time.Time
	CompletedAt time.Time
}

// Deadline returns when the session times out, or the zero time if it has
// no limit.
func (s Session) Deadline() time.Time {
	if s.TimeLimit <= 0 {
		return time.Time{}
	}
	return s.StartedAt.Add(s.TimeLimit)
}

// SessionEvent is one entry in the session audit log.
type SessionEvent struct {
	Sequence  int64
	Timestamp time.Time
	SessionID string
	UserID    string
	Action    string
	Payload   string
}

// LLMCall is one logged request to a language model provider.
type LLMCall struct {
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	Error        string
	Request      string
	Response     string
}

// LLMUsageStats sums the calls sharing one purpose or model.
type LLMUsageStats struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// StoredQuestion is a bank question with its origin.
type StoredQuestion struct {
	quiz.QuestionRecord
	Source string
}

// CategoryCount is the number of bank questions in a category.
type CategoryCount struct {
	Category string
	Count    int
}

// LLMCallWriter appends to the LLM call log.
type LLMCallWriter interface {
	AppendLLMCall(ctx context.Context, call LLMCall) error
}

// LLMCallRepo reads and writes the LLM call log.
type LLMCallRepo interface {
	LLMCallWriter
	ListLLMCalls(ctx context.Context, opts QueryOpts) ([]LLMCall, error)
	GetLLMCall(ctx context.Context, seq int64) (*LLMCall, error)
	LLMUsage(ctx context.Context, by string) ([]LLMUsageStats, error)
}

// ProgressRepo holds per-user progression state. Both Store and Tx satisfy
// it.
type ProgressRepo interface {
	GetStats(ctx context.Context, userID string) (quiz.UserStats, error)
	SaveStats(ctx context.Context, stats quiz.UserStats) (quiz.UserStats, error)
	GetPerformance(ctx context.Context, userID, category string) (quiz.UserPerformance, bool, error)
	ListPerformance(ctx context.Context, userID string) ([]quiz.UserPerformance, error)
	SavePerformance(ctx context.Context, p quiz.UserPerformance) error
	TierProgress(ctx context.Context, userID, subject string) (map[quiz.Tier]quiz.TierProgress, error)
	SaveTierProgress(ctx context.Context, p quiz.TierProgress) error
}

// SessionRepo persists quiz sessions and their audit log.
type SessionRepo interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	SaveAnswers(ctx context.Context, id string, answers []int) error
	CompleteSession(ctx context.Context, s *Session) error
	ExpireSession(ctx context.Context, id string, at time.Time) error
	ListSessions(ctx context.Context, userID string, limit int) ([]Session, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]Session, error)
	AppendSessionEvent(ctx context.Context, ev SessionEvent) error
	ListSessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error)
}

// QuestionRepo stores the question bank.
type QuestionRepo interface {
	UpsertQuestions(ctx context.Context, source string, qs []quiz.QuestionRecord) error
	QuestionPool(ctx context.Context, category string) ([]quiz.QuestionRecord, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	ListQuestions(ctx context.Context, category string) ([]StoredQuestion, error)
}

var (
	_ ProgressRepo  = (*Store)(nil)
	_ ProgressRepo  = (*Tx)(nil)
	_ SessionRepo   = (*Store)(nil)
	_ SessionRepo   = (*Tx)(nil)
	_ QuestionRepo  = (*Store)(nil)
	_ LLMCallRepo   = (*Store)(nil)
	_ LLMCallWriter = (*Tx)(nil)
)

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
