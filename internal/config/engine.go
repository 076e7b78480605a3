package config

import (
	"fmt"
	"time"

	"github.com/abhisek/quizforge/internal/progress"
	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/scoring"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/xp"
)

// EngineConfig holds the scoring and progression rules. Per-tier tables are
// keyed by tier name; missing tiers keep their defaults.
type EngineConfig struct {
	TierSet         string `mapstructure:"tier_set"`
	XPFormula       string `mapstructure:"xp_formula"`
	LevelDivisor    int    `mapstructure:"level_divisor"`
	GradeScale      string `mapstructure:"grade_scale"`
	TimeBonus       string `mapstructure:"time_bonus"`
	StreakThreshold int    `mapstructure:"streak_threshold"`
	ExtraBadges     bool   `mapstructure:"extra_badges"`

	UnlockMode      string `mapstructure:"unlock_mode"`
	UnlockThreshold int    `mapstructure:"unlock_threshold"`
	UnlockXPGate    bool   `mapstructure:"unlock_xp_gate"`

	TimerMode       string         `mapstructure:"timer_mode"`
	QuestionSeconds map[string]int `mapstructure:"question_seconds"`
	SessionSeconds  map[string]int `mapstructure:"session_seconds"`
	QuestionCounts  map[string]int `mapstructure:"question_counts"`
	MaxQuestions    int            `mapstructure:"max_questions"`

	// Grace is how long past its limit a session stays open for submission.
	Grace time.Duration `mapstructure:"grace"`
}

// DefaultEngine returns the canonical rules.
func DefaultEngine() EngineConfig {
	allowance := quiz.DefaultTimeAllowance()
	perQuestion := make(map[string]int, len(allowance.PerQuestion))
	for t, d := range allowance.PerQuestion {
		perQuestion[string(t)] = int(d / time.Second)
	}
	perSession := make(map[string]int, len(allowance.PerSession))
	for t, d := range allowance.PerSession {
		perSession[string(t)] = int(d / time.Second)
	}
	counts := make(map[string]int)
	for t, n := range quiz.DefaultQuestionCounts() {
		counts[string(t)] = n
	}
	rules := session.DefaultRules()

	return EngineConfig{
		TierSet:         "extended",
		XPFormula:       string(xp.FormulaAdditive),
		LevelDivisor:    xp.DefaultLevelDivisor,
		GradeScale:      string(scoring.GradeStandard),
		TimeBonus:       string(scoring.BonusPaced),
		StreakThreshold: progress.DefaultStreakThreshold,
		UnlockMode:      string(progress.UnlockLifetime),
		UnlockThreshold: progress.DefaultUnlockThreshold,
		TimerMode:       string(quiz.TimerPerQuestion),
		QuestionSeconds: perQuestion,
		SessionSeconds:  perSession,
		QuestionCounts:  counts,
		MaxQuestions:    rules.MaxCount,
		Grace:           rules.Grace,
	}
}

// Validate checks every enum and numeric setting.
func (e EngineConfig) Validate() error {
	_, err := e.Rules()
	return err
}

// Rules converts the configuration into the rules a session service runs
// under.
func (e EngineConfig) Rules() (session.Rules, error) {
	var r session.Rules

	tiers, err := quiz.TierSetByName(e.TierSet)
	if err != nil {
		return r, err
	}
	formula, err := xp.ParseFormula(e.XPFormula)
	if err != nil {
		return r, err
	}
	grades, err := scoring.ParseGradeScale(e.GradeScale)
	if err != nil {
		return r, err
	}
	bonus, err := scoring.ParseTimeBonusPolicy(e.TimeBonus)
	if err != nil {
		return r, err
	}
	unlockMode, err := progress.ParseUnlockMode(e.UnlockMode)
	if err != nil {
		return r, err
	}
	timerMode, err := quiz.ParseTimerMode(e.TimerMode)
	if err != nil {
		return r, err
	}
	if e.LevelDivisor <= 0 {
		return r, fmt.Errorf("level divisor must be positive, got %d", e.LevelDivisor)
	}
	if e.StreakThreshold < 0 || e.StreakThreshold > 100 {
		return r, fmt.Errorf("streak threshold must be within 0-100, got %d", e.StreakThreshold)
	}
	if e.UnlockThreshold < 0 || e.UnlockThreshold > 100 {
		return r, fmt.Errorf("unlock threshold must be within 0-100, got %d", e.UnlockThreshold)
	}
	if e.Grace < 0 {
		return r, fmt.Errorf("grace must not be negative")
	}

	allowance := quiz.DefaultTimeAllowance()
	allowance.Mode = timerMode
	if err := overlaySeconds(allowance.PerQuestion, e.QuestionSeconds, "question_seconds"); err != nil {
		return r, err
	}
	if err := overlaySeconds(allowance.PerSession, e.SessionSeconds, "session_seconds"); err != nil {
		return r, err
	}
	counts := quiz.DefaultQuestionCounts()
	for name, n := range e.QuestionCounts {
		t, err := quiz.ParseTier(name)
		if err != nil {
			return r, fmt.Errorf("question_counts: %w", err)
		}
		if n <= 0 {
			return r, fmt.Errorf("question_counts: %s must be positive", name)
		}
		counts[t] = n
	}

	r = session.DefaultRules()
	r.Tiers = tiers
	r.Allowance = allowance
	r.Counts = counts
	r.Grace = e.Grace
	if e.MaxQuestions > 0 {
		r.MaxCount = e.MaxQuestions
	}

	r.Scorer = scoring.Scorer{Grades: grades, Bonus: bonus, Allowance: allowance}

	r.Tracker = progress.NewTracker()
	r.Tracker.XP = xp.Calculator{Tiers: tiers, Formula: formula}
	r.Tracker.LevelDivisor = e.LevelDivisor
	r.Tracker.StreakThreshold = e.StreakThreshold
	r.Tracker.ExtraBadges = e.ExtraBadges

	r.Unlock = progress.UnlockPolicy{Mode: unlockMode, Threshold: e.UnlockThreshold, Tiers: tiers}
	if e.UnlockXPGate {
		r.Unlock.XPRequirements = progress.DefaultXPRequirements()
	}
	return r, nil
}

func overlaySeconds(dst map[quiz.Tier]time.Duration, src map[string]int, key string) error {
	for name, secs := range src {
		t, err := quiz.ParseTier(name)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if secs <= 0 {
			return fmt.Errorf("%s: %s must be positive", key, name)
		}
		dst[t] = time.Duration(secs) * time.Second
	}
	return nil
}
