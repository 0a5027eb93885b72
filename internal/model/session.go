package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionType distinguishes work sessions from breaks.
type SessionType string

const (
	SessionFocus      SessionType = "focus"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

// SessionStatus is the lifecycle state of a timer session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// FocusSession is a manually started work/break session tracked by
// the timer. It is created on start, mutated only through the timer's
// own operations, and handed back to the caller on stop for
// persistence. Overruns are legal: elapsed_seconds may exceed
// duration_minutes*60, callers decide what that means.
type FocusSession struct {
	ID              string        `json:"id"`
	SessionType     SessionType   `json:"session_type"`
	Status          SessionStatus `json:"status"`
	DurationMinutes int           `json:"duration_minutes"`
	ElapsedSeconds  int           `json:"elapsed_seconds"`
	TaskID          string        `json:"task_id,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	PausedAt        *time.Time    `json:"paused_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	Interruptions   int           `json:"interruptions"`
	Notes           string        `json:"notes,omitempty"`
}

// NewFocusSession creates a pending session with a fresh ID.
func NewFocusSession(sessionType SessionType, durationMinutes int) *FocusSession {
	return &FocusSession{
		ID:              uuid.New().String(),
		SessionType:     sessionType,
		Status:          SessionPending,
		DurationMinutes: durationMinutes,
	}
}
