package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an attempt lifecycle event.
type EventType string

const (
	EventAttemptStarted     EventType = "attempt.started"
	EventAttemptSubmitted   EventType = "attempt.submitted"
	EventAttemptTimeWarning EventType = "attempt.time_warning"
	EventAttemptAbandoned   EventType = "attempt.abandoned"
)

const (
	eventSource  = "jee-prep-api"
	eventVersion = "1.0"
)

// Event is the envelope of every published event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Payloads

type AttemptStartedEvent struct {
	UserID         uint     `json:"user_id"`
	AttemptID      string   `json:"attempt_id"`
	Subjects       []string `json:"subjects"`
	Topics         []string `json:"topics,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Duration       int      `json:"duration"` // minutes
	TotalQuestions int      `json:"total_questions"`
	Resumed        bool     `json:"resumed"`
}

type AttemptSubmittedEvent struct {
	UserID            uint    `json:"user_id"`
	AttemptID         string  `json:"attempt_id"`
	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	CorrectAnswers    int     `json:"correct_answers"`
	Score             float64 `json:"score"`
	TimeSpent         int     `json:"time_spent"` // seconds
	AutoSubmitted     bool    `json:"auto_submitted"`
}

type AttemptTimeWarningEvent struct {
	UserID           uint   `json:"user_id"`
	AttemptID        string `json:"attempt_id"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

type AttemptAbandonedEvent struct {
	UserID    uint   `json:"user_id"`
	AttemptID string `json:"attempt_id"`
}
