package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority orders tasks for display; the monitoring core only
// cares about finding the first unfinished task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is a user-defined work item. The classifier references the
// current (first unfinished) task in its prompt so the backend can
// judge relevance.
type Task struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Priority  TaskPriority `json:"priority"`
	Completed bool         `json:"completed"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewTask creates a pending task with a fresh ID.
func NewTask(title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New().String(),
		Title:     title,
		Priority:  PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentTask returns the first unfinished task, or nil.
func CurrentTask(tasks []*Task) *Task {
	for _, t := range tasks {
		if !t.Completed {
			return t
		}
	}
	return nil
}
