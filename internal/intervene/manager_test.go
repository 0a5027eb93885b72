package intervene

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"myfocus/internal/model"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) Notify(title, message string, urgent bool, timeoutSeconds int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, title)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.InterventionEvent
}

func (s *recordingSink) Emit(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := payload.(model.InterventionEvent); ok {
		s.events = append(s.events, e)
	}
}

func newTestManager(t *testing.T) (*Manager, *recordingNotifier, *recordingSink, *time.Time) {
	t.Helper()
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	m := NewManager(zaptest.NewLogger(t).Sugar(), notifier, sink)

	clock := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	m.draw = func() float64 { return 0.0 }
	return m, notifier, sink, &clock
}

func distractedResult() model.MonitoringResult {
	return model.MonitoringResult{
		Timestamp:  time.Now().UTC(),
		FocusState: model.StateDistracted,
		Confidence: 0.75,
	}
}

func TestHandleCooldownAllowsOneAction(t *testing.T) {
	m, notifier, _, clock := newTestManager(t)
	cfg := testSettings()

	first := m.Handle(cfg, distractedResult(), "")
	require.NotNil(t, first)

	// one minute later, still inside the 5 minute cooldown
	*clock = clock.Add(time.Minute)
	assert.Nil(t, m.Handle(cfg, distractedResult(), ""))
	assert.Len(t, notifier.calls, 1)

	// past the cooldown the next distraction fires again
	*clock = clock.Add(5 * time.Minute)
	assert.NotNil(t, m.Handle(cfg, distractedResult(), ""))
	assert.Len(t, notifier.calls, 2)
}

func TestHandleEncouragementResetsCooldown(t *testing.T) {
	m, _, _, clock := newTestManager(t)
	cfg := testSettings()

	focused := model.MonitoringResult{FocusState: model.StateFocused, Confidence: 0.90}
	require.NotNil(t, m.Handle(cfg, focused, ""))

	// the encouragement's cooldown also suppresses a real warning
	*clock = clock.Add(time.Minute)
	assert.Nil(t, m.Handle(cfg, distractedResult(), ""))
}

func TestHandleEmitsEvent(t *testing.T) {
	m, _, sink, _ := newTestManager(t)

	result := model.MonitoringResult{FocusState: model.StateSeverelyDistracted, Confidence: 0.85}
	action := m.Handle(testSettings(), result, "写周报")
	require.NotNil(t, action)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, model.InterventionSevere, e.Type)
	assert.Equal(t, model.StateSeverelyDistracted, e.FocusState)
	assert.InDelta(t, 0.85, e.Confidence, 1e-9)
	assert.True(t, e.Urgent)
	assert.Equal(t, 15, e.DurationSeconds)
	assert.True(t, e.SoundEnabled)
	assert.Contains(t, e.Message, "写周报")
}

func TestHandleUnknownDoesNothing(t *testing.T) {
	m, notifier, sink, _ := newTestManager(t)

	result := model.MonitoringResult{FocusState: model.StateUnknown, Confidence: 0.5}
	assert.Nil(t, m.Handle(testSettings(), result, ""))
	assert.Empty(t, notifier.calls)
	assert.Empty(t, sink.events)
}
