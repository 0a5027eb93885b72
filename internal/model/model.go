// Package model holds the shared data types that flow between the
// monitoring scheduler, the classifier, the intervention policy and
// storage. Everything here is plain data; behavior lives in the
// packages that own each concern.
package model

import (
	"time"
)

// FocusState is the terminal classification of one monitoring sample.
// A new sample simply replaces the previous one; states never
// transition on their own.
type FocusState string

const (
	StateFocused            FocusState = "focused"
	StateDistracted         FocusState = "distracted"
	StateSeverelyDistracted FocusState = "severely_distracted"
	StateUnknown            FocusState = "unknown"
)

// Distracting reports whether the state should be considered for
// distraction intervention.
func (s FocusState) Distracting() bool {
	return s == StateDistracted || s == StateSeverelyDistracted
}

// Activity is what the activity probe sees at a single instant:
// the foreground application and its window title. Either field may
// be empty when the probe could not resolve it.
type Activity struct {
	ApplicationName string
	WindowTitle     string
}

// MonitoringResult is the immutable outcome of one classification
// cycle. The scheduler keeps only the most recent one in memory;
// storage appends them to history.
type MonitoringResult struct {
	Timestamp       time.Time  `json:"timestamp"`
	FocusState      FocusState `json:"focus_state"`
	ApplicationName string     `json:"application_name,omitempty"`
	WindowTitle     string     `json:"window_title,omitempty"`
	OCRText         string     `json:"ocr_text,omitempty"`
	Analysis        string     `json:"analysis,omitempty"` // raw classifier output
	Confidence      float64    `json:"confidence"`         // in [0,1]
}

// CurrentActivity is the cached view of the latest sample, kept for
// cheap polling by foreground callers. Overwritten every tick,
// cleared when monitoring stops.
type CurrentActivity struct {
	ApplicationName string    `json:"application_name,omitempty"`
	WindowTitle     string    `json:"window_title,omitempty"`
	IsProductive    *bool     `json:"is_productive,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Event names published to the event sink.
const (
	EventFocusStateChanged       = "focus_state_changed"
	EventDistractionIntervention = "distraction_intervention"
)

// FocusStateEvent is the payload for EventFocusStateChanged.
type FocusStateEvent struct {
	State           FocusState `json:"state"`
	Confidence      float64    `json:"confidence"`
	ApplicationName string     `json:"application_name,omitempty"`
	WindowTitle     string     `json:"window_title,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Analysis        string     `json:"analysis,omitempty"`
}

// InterventionKind distinguishes the three intervention actions.
type InterventionKind string

const (
	InterventionLight         InterventionKind = "light"
	InterventionSevere        InterventionKind = "severe"
	InterventionEncouragement InterventionKind = "encouragement"
)

// InterventionEvent is the payload for EventDistractionIntervention.
type InterventionEvent struct {
	Type            InterventionKind `json:"type"`
	Message         string           `json:"message"`
	Timestamp       time.Time        `json:"timestamp"`
	FocusState      FocusState       `json:"focus_state"`
	Confidence      float64          `json:"confidence"`
	Urgent          bool             `json:"urgent"`
	DurationSeconds int              `json:"duration_seconds"`
	SoundEnabled    bool             `json:"sound_enabled"`
}
