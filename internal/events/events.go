// Package events publishes quiz notifications to RabbitMQ.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the routing key of an event.
type EventType string

const (
	EventTypeSessionCompleted    EventType = "quiz.session.completed"
	EventTypeAchievementUnlocked EventType = "quiz.achievement.unlocked"
)

// BaseEvent carries the fields every event has.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
}

func newBase(t EventType, userID string) BaseEvent {
	return BaseEvent{ID: uuid.NewString(), Type: t, Timestamp: time.Now().UTC(), UserID: userID}
}

// SessionCompletedEvent is published once per submitted session.
type SessionCompletedEvent struct {
	BaseEvent
	SessionID       string `json:"session_id"`
	Subject         string `json:"subject"`
	Tier            string `json:"difficulty"`
	Source          string `json:"source"`
	CorrectCount    int    `json:"correct_count"`
	TotalCount      int    `json:"total_count"`
	AccuracyPercent int    `json:"accuracy_percent"`
	FinalScore      int    `json:"final_score"`
	Grade           string `json:"grade"`
	XPEarned        int    `json:"xp_earned"`
	TotalXP         int    `json:"total_xp"`
	Level           int    `json:"level"`
	LevelUp         bool   `json:"level_up"`
}

// NewSessionCompletedEvent stamps a SessionCompletedEvent.
func NewSessionCompletedEvent(userID, sessionID string) SessionCompletedEvent {
	return SessionCompletedEvent{
		BaseEvent: newBase(EventTypeSessionCompleted, userID),
		SessionID: sessionID,
	}
}

// AchievementUnlockedEvent is published for each newly granted badge.
type AchievementUnlockedEvent struct {
	BaseEvent
	SessionID   string `json:"session_id"`
	Achievement string `json:"achievement"`
	Name        string `json:"name"`
}

// NewAchievementUnlockedEvent stamps an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, sessionID, achievement, name string) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:   newBase(EventTypeAchievementUnlocked, userID),
		SessionID:   sessionID,
		Achievement: achievement,
		Name:        name,
	}
}
