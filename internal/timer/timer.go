// Package timer implements the manual focus/break session timer. It
// is independent of the monitoring loop: sessions are started and
// stopped by the user, not by classification results.
package timer

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"myfocus/internal/model"
)

// ErrSessionActive is returned by Start while a session is live.
// Callers must stop or cancel the current session first.
var ErrSessionActive = errors.New("a session is already active")

// ErrNoSession is returned by operations that need a live session.
var ErrNoSession = errors.New("no active session")

// Timer tracks at most one live session per process. Elapsed time is
// an accumulator: pauses freeze it, resume restarts it, so wall-clock
// gaps while paused never count. Segment endpoints keep the monotonic
// reading of time.Now, so a system clock adjustment mid-session never
// corrupts the elapsed count; only the persisted timestamps are
// converted to UTC wall time.
type Timer struct {
	log *zap.SugaredLogger

	mu          sync.Mutex
	session     *model.FocusSession
	accumulated time.Duration // completed run segments
	runningFrom time.Time     // start of the current segment, zero when paused
	now         func() time.Time
}

// New creates an idle timer.
func New(log *zap.SugaredLogger) *Timer {
	return &Timer{
		log: log.Named("timer"),
		now: time.Now,
	}
}

// Start begins a new session. Fails with ErrSessionActive if one is
// already live; the caller decides whether to stop it first.
func (t *Timer) Start(sessionType model.SessionType, durationMinutes int, taskID string) (*model.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return nil, ErrSessionActive
	}

	now := t.now()
	wall := now.UTC()
	session := model.NewFocusSession(sessionType, durationMinutes)
	session.Status = model.SessionActive
	session.TaskID = taskID
	session.StartedAt = &wall

	t.session = session
	t.accumulated = 0
	t.runningFrom = now

	t.log.Infow("session started",
		"id", session.ID,
		"type", sessionType,
		"duration_minutes", durationMinutes)

	return t.snapshotLocked(), nil
}

// Pause freezes the elapsed clock. A second pause is a no-op.
func (t *Timer) Pause() (*model.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil, ErrNoSession
	}
	if t.session.Status != model.SessionActive {
		return t.snapshotLocked(), nil
	}

	now := t.now()
	t.accumulated += now.Sub(t.runningFrom)
	t.runningFrom = time.Time{}
	wall := now.UTC()
	t.session.Status = model.SessionPaused
	t.session.PausedAt = &wall
	t.session.Interruptions++

	t.log.Infow("session paused", "id", t.session.ID, "elapsed", t.accumulated)
	return t.snapshotLocked(), nil
}

// Resume restarts the elapsed clock. Resuming an active session is a
// no-op.
func (t *Timer) Resume() (*model.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil, ErrNoSession
	}
	if t.session.Status != model.SessionPaused {
		return t.snapshotLocked(), nil
	}

	t.runningFrom = t.now()
	t.session.Status = model.SessionActive
	t.session.PausedAt = nil

	t.log.Infow("session resumed", "id", t.session.ID)
	return t.snapshotLocked(), nil
}

// Stop finalizes the live session and clears it from memory. The
// returned session is the caller's to persist. completed selects
// Completed versus Cancelled status.
func (t *Timer) Stop(completed bool) (*model.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil, ErrNoSession
	}

	now := t.now()
	if t.session.Status == model.SessionActive {
		t.accumulated += now.Sub(t.runningFrom)
	}

	wall := now.UTC()
	session := t.session
	session.ElapsedSeconds = int(t.accumulated / time.Second)
	session.PausedAt = nil
	session.CompletedAt = &wall
	if completed {
		session.Status = model.SessionCompleted
	} else {
		session.Status = model.SessionCancelled
	}

	t.session = nil
	t.accumulated = 0
	t.runningFrom = time.Time{}

	t.log.Infow("session stopped",
		"id", session.ID,
		"status", session.Status,
		"elapsed_seconds", session.ElapsedSeconds)

	return session, nil
}

// Current returns a snapshot of the live session with up-to-date
// elapsed seconds, or nil when idle.
func (t *Timer) Current() *model.FocusSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	return t.snapshotLocked()
}

// snapshotLocked copies the session so callers never share the live
// pointer. Caller holds t.mu.
func (t *Timer) snapshotLocked() *model.FocusSession {
	elapsed := t.accumulated
	if t.session.Status == model.SessionActive {
		elapsed += t.now().Sub(t.runningFrom)
	}
	out := *t.session
	out.ElapsedSeconds = int(elapsed / time.Second)
	return &out
}
