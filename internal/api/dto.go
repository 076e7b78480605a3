package api

import (
	"time"

	"github.com/abhisek/quizforge/internal/progress"
	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/store"
)

type questionView struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Prompt       string    `json:"question"`
	Options      []string  `json:"options"`
	Tier         quiz.Tier `json:"difficulty"`
	Points       int       `json:"points"`
	CorrectIndex *int      `json:"correct_answer,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
}

type sessionView struct {
	ID               string              `json:"id"`
	UserID           string              `json:"user_id"`
	Subject          string              `json:"subject"`
	Topic            string              `json:"topic,omitempty"`
	Tier             quiz.Tier           `json:"difficulty"`
	Source           string              `json:"source"`
	Status           store.SessionStatus `json:"status"`
	Questions        []questionView      `json:"questions"`
	Answers          []int               `json:"answers"`
	Result           *quiz.SessionResult `json:"result,omitempty"`
	XPEarned         int                 `json:"xp_earned"`
	TimeLimitSeconds int                 `json:"time_limit_seconds"`
	StartedAt        time.Time           `json:"started_at"`
	ExpiresAt        *time.Time          `json:"expires_at,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
}

// newSessionView renders s. Correct answers and explanations stay hidden
// while the session is active.
func newSessionView(s *store.Session) sessionView {
	reveal := s.Status != store.SessionActive
	v := sessionView{
		ID:               s.ID,
		UserID:           s.UserID,
		Subject:          s.Subject,
		Topic:            s.Topic,
		Tier:             s.Tier,
		Source:           s.Source,
		Status:           s.Status,
		Questions:        make([]questionView, len(s.Questions)),
		Answers:          s.Answers,
		Result:           s.Result,
		XPEarned:         s.XPEarned,
		TimeLimitSeconds: int(s.TimeLimit / time.Second),
		StartedAt:        s.StartedAt,
	}
	for i, q := range s.Questions {
		qv := questionView{
			ID:       q.ID,
			Category: q.Category,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Tier:     q.Tier,
			Points:   q.PointValue(),
		}
		if reveal {
			correct := q.CorrectIndex
			qv.CorrectIndex = &correct
			qv.Explanation = q.Explanation
		}
		v.Questions[i] = qv
	}
	if d := s.Deadline(); !d.IsZero() && !reveal {
		v.ExpiresAt = &d
	}
	if !s.CompletedAt.IsZero() {
		done := s.CompletedAt
		v.CompletedAt = &done
	}
	return v
}

type submitResponse struct {
	Session         sessionView          `json:"session"`
	Result          quiz.SessionResult   `json:"result"`
	XPEarned        int                  `json:"xp_earned"`
	LevelUp         bool                 `json:"level_up"`
	StreakBroken    bool                 `json:"streak_broken"`
	Achievements    []achievementView    `json:"new_achievements"`
	Stats           quiz.UserStats       `json:"stats"`
	Performance     quiz.UserPerformance `json:"performance"`
	TierProgress    quiz.TierProgress    `json:"tier_progress"`
	Tiers           []progress.TierState `json:"tiers"`
	Recommendations []string             `json:"recommendations"`
}

type achievementView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func newAchievementViews(as []progress.Achievement) []achievementView {
	out := make([]achievementView, len(as))
	for i, a := range as {
		out[i] = achievementView{ID: string(a), Name: a.DisplayName(), Description: a.Description(), Icon: a.Icon()}
	}
	return out
}

func newSubmitResponse(sum *session.Summary) submitResponse {
	return submitResponse{
		Session:         newSessionView(sum.Session),
		Result:          sum.Result,
		XPEarned:        sum.XPEarned,
		LevelUp:         sum.LevelUp,
		StreakBroken:    sum.StreakBroken,
		Achievements:    newAchievementViews(sum.Achievements),
		Stats:           sum.Stats,
		Performance:     sum.Performance,
		TierProgress:    sum.TierProgress,
		Tiers:           sum.Tiers,
		Recommendations: sum.Recommendations,
	}
}

type subjectView struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
