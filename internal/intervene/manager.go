package intervene

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"myfocus/internal/config"
	"myfocus/internal/event"
	"myfocus/internal/model"
)

// Notifier delivers a notification to the user. Delivery failures are
// logged, never propagated.
type Notifier interface {
	Notify(title, message string, urgent bool, timeoutSeconds int) error
}

// Manager applies the intervention policy to incoming results. It is
// the single writer of the last-intervention timestamp; a single
// global cooldown covers all action kinds.
type Manager struct {
	log      *zap.SugaredLogger
	notifier Notifier
	sink     event.Sink

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
	draw func() float64
}

// NewManager creates a manager with no cooldown history.
func NewManager(log *zap.SugaredLogger, notifier Notifier, sink event.Sink) *Manager {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Manager{
		log:      log.Named("intervene"),
		notifier: notifier,
		sink:     sink,
		now:      time.Now,
		draw:     rng.Float64,
	}
}

// Handle evaluates one result against the current settings and, if the
// policy produces an action, delivers it and resets the cooldown.
// Returns the action taken, or nil.
func (m *Manager) Handle(cfg config.InterventionConfig, result model.MonitoringResult, currentTask string) *Action {
	m.mu.Lock()
	now := m.now()
	cooldown := time.Duration(cfg.CooldownMinutes) * time.Minute
	inCooldown := !m.last.IsZero() && now.Sub(m.last) < cooldown

	action := Decide(result.FocusState, cfg, inCooldown, currentTask, m.draw())
	if action != nil {
		m.last = now
	}
	m.mu.Unlock()

	if action == nil {
		return nil
	}

	m.log.Infow("intervention triggered",
		"kind", action.Kind,
		"state", result.FocusState,
		"urgent", action.Urgent)

	if err := m.notifier.Notify(action.Title, action.Message, action.Urgent, action.DisplaySeconds); err != nil {
		m.log.Warnw("notification failed", "error", err)
	}

	m.sink.Emit(model.EventDistractionIntervention, model.InterventionEvent{
		Type:            action.Kind,
		Message:         action.Message,
		Timestamp:       now.UTC(),
		FocusState:      result.FocusState,
		Confidence:      result.Confidence,
		Urgent:          action.Urgent,
		DurationSeconds: action.DisplaySeconds,
		SoundEnabled:    action.SoundEnabled,
	})

	return action
}
