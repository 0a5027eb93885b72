package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"myfocus/internal/model"
)

func newTestTimer(t *testing.T) (*Timer, *time.Time) {
	t.Helper()
	tm := New(zaptest.NewLogger(t).Sugar())
	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return clock }
	return tm, &clock
}

func TestStartWhileActive(t *testing.T) {
	tm, _ := newTestTimer(t)

	_, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)

	_, err = tm.Start(model.SessionShortBreak, 5, "")
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestPauseResumeElapsed(t *testing.T) {
	tm, clock := newTestTimer(t)

	session, err := tm.Start(model.SessionFocus, 25, "task-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, session.Status)
	assert.Equal(t, "task-1", session.TaskID)

	// 10 minutes of work, then a pause
	*clock = clock.Add(10 * time.Minute)
	session, err = tm.Pause()
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaused, session.Status)
	assert.Equal(t, 600, session.ElapsedSeconds)
	assert.Equal(t, 1, session.Interruptions)
	require.NotNil(t, session.PausedAt)

	// 7 minutes paused must not count
	*clock = clock.Add(7 * time.Minute)
	assert.Equal(t, 600, tm.Current().ElapsedSeconds)

	session, err = tm.Resume()
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, session.Status)
	assert.Nil(t, session.PausedAt)

	// 5 more minutes, then stop: 15 minutes total
	*clock = clock.Add(5 * time.Minute)
	done, err := tm.Stop(true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, done.Status)
	assert.Equal(t, 900, done.ElapsedSeconds)
	require.NotNil(t, done.CompletedAt)

	assert.Nil(t, tm.Current())
}

func TestPauseTwiceIsNoop(t *testing.T) {
	tm, clock := newTestTimer(t)

	_, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	first, err := tm.Pause()
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	second, err := tm.Pause()
	require.NoError(t, err)
	assert.Equal(t, first.ElapsedSeconds, second.ElapsedSeconds)
	assert.Equal(t, 1, second.Interruptions)
}

func TestResumeWhileActiveIsNoop(t *testing.T) {
	tm, _ := newTestTimer(t)

	_, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)

	session, err := tm.Resume()
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, session.Status)
}

func TestStopCancelled(t *testing.T) {
	tm, clock := newTestTimer(t)

	_, err := tm.Start(model.SessionShortBreak, 5, "")
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	session, err := tm.Stop(false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCancelled, session.Status)
	assert.Equal(t, 120, session.ElapsedSeconds)
}

func TestStopWhilePaused(t *testing.T) {
	tm, clock := newTestTimer(t)

	_, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)

	*clock = clock.Add(3 * time.Minute)
	_, err = tm.Pause()
	require.NoError(t, err)

	// paused time before stop does not count
	*clock = clock.Add(30 * time.Minute)
	session, err := tm.Stop(true)
	require.NoError(t, err)
	assert.Equal(t, 180, session.ElapsedSeconds)
}

func TestOperationsWithoutSession(t *testing.T) {
	tm, _ := newTestTimer(t)

	_, err := tm.Pause()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = tm.Resume()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = tm.Stop(true)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestElapsedUsesMonotonicClock(t *testing.T) {
	// With the real clock, segment endpoints must keep Go's monotonic
	// reading (rendered as an "m=" suffix) so elapsed time survives a
	// system clock adjustment mid-session. Only the persisted
	// timestamps are plain UTC wall time.
	tm := New(zaptest.NewLogger(t).Sugar())

	session, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)
	assert.Contains(t, tm.runningFrom.String(), " m=")
	require.NotNil(t, session.StartedAt)
	assert.NotContains(t, session.StartedAt.String(), " m=")
	assert.Equal(t, time.UTC, session.StartedAt.Location())

	session, err = tm.Pause()
	require.NoError(t, err)
	require.NotNil(t, session.PausedAt)
	assert.NotContains(t, session.PausedAt.String(), " m=")

	_, err = tm.Resume()
	require.NoError(t, err)
	assert.Contains(t, tm.runningFrom.String(), " m=")

	done, err := tm.Stop(true)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.NotContains(t, done.CompletedAt.String(), " m=")
}

func TestOverrunIsLegal(t *testing.T) {
	tm, clock := newTestTimer(t)

	_, err := tm.Start(model.SessionFocus, 25, "")
	require.NoError(t, err)

	*clock = clock.Add(40 * time.Minute)
	session, err := tm.Stop(true)
	require.NoError(t, err)
	assert.Equal(t, 2400, session.ElapsedSeconds)
}
