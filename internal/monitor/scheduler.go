// Package monitor runs the periodic classification loop. Each tick
// walks the full pipeline: activity probe, screenshot, OCR, backend
// classification. Results feed the shared last-result state, the
// event sink, the intervention manager and storage.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"myfocus/internal/config"
	"myfocus/internal/event"
	"myfocus/internal/intervene"
	"myfocus/internal/model"
	"myfocus/internal/probe"
	"myfocus/internal/screen"
)

// disabledBackoff is how long the loop waits before re-checking a
// disabled config. Keeps the loop responsive to being re-enabled
// without a restart.
const disabledBackoff = 10 * time.Second

// TextExtractor turns a screenshot into text. Never fails; the OCR
// engine degrades to a heuristic description internally.
type TextExtractor interface {
	ExtractText(ctx context.Context, imageData []byte) string
}

// Classifier produces one monitoring result from a sample.
type Classifier interface {
	Classify(ctx context.Context, cfg config.MonitoringConfig, activity model.Activity, ocrText, currentTask string) model.MonitoringResult
}

// Store is the slice of persistence the scheduler needs. Writes are
// best-effort; a failed save is logged and ignored.
type Store interface {
	AppendResult(model.MonitoringResult) error
	CurrentTaskTitle() (string, error)
}

// Interventer evaluates each result against the intervention policy.
type Interventer interface {
	Handle(cfg config.InterventionConfig, result model.MonitoringResult, currentTask string) *intervene.Action
}

// Deps are the scheduler's collaborators. Store and Intervener may be
// nil; the rest are required.
type Deps struct {
	Log        *zap.SugaredLogger
	Probe      probe.Probe
	Capturer   screen.Capturer
	OCR        TextExtractor
	Classifier Classifier
	Sink       event.Sink
	Store      Store
	Intervener Interventer
}

// Scheduler owns the monitoring configuration and the loop lifecycle.
// Stopped and Running are the only states; a disabled config keeps the
// loop alive but idle.
type Scheduler struct {
	log  *zap.SugaredLogger
	deps Deps

	mu           sync.Mutex
	monitoring   config.MonitoringConfig
	intervention config.InterventionConfig
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}

	stateMu sync.RWMutex
	current *model.CurrentActivity
	last    *model.MonitoringResult

	backoff time.Duration // overridable in tests
	sleepFn func(cfg config.MonitoringConfig) time.Duration
}

// New creates a stopped scheduler with the given initial config.
func New(deps Deps, monitoring config.MonitoringConfig, intervention config.InterventionConfig) *Scheduler {
	return &Scheduler{
		log:          deps.Log.Named("monitor"),
		deps:         deps,
		monitoring:   monitoring,
		intervention: intervention,
		backoff:      disabledBackoff,
		sleepFn: func(cfg config.MonitoringConfig) time.Duration {
			return time.Duration(cfg.IntervalMinutes) * time.Minute
		},
	}
}

// Start launches the loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	s.log.Infow("monitoring started", "interval_minutes", s.monitoring.IntervalMinutes, "enabled", s.monitoring.Enabled)
	go s.run(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit, then clears the
// shared activity state. A sleeping loop is cancelled immediately; a
// cycle already in flight is allowed to finish. Stop on a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done

	s.stateMu.Lock()
	s.current = nil
	s.last = nil
	s.stateMu.Unlock()

	s.log.Info("monitoring stopped")
}

// IsRunning reports whether the loop is live.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// UpdateConfig validates and atomically replaces the monitoring
// config. An out-of-range interval is rejected and the prior config
// stays in effect. Changes apply at the next tick boundary.
func (s *Scheduler) UpdateConfig(cfg config.MonitoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.monitoring = cfg
	s.mu.Unlock()
	s.log.Infow("monitoring config updated", "enabled", cfg.Enabled, "interval_minutes", cfg.IntervalMinutes)
	return nil
}

// UpdateInterventionConfig replaces the intervention settings handed
// to the policy on each cycle.
func (s *Scheduler) UpdateInterventionConfig(cfg config.InterventionConfig) {
	s.mu.Lock()
	s.intervention = cfg
	s.mu.Unlock()
}

// CurrentActivity returns the latest cached activity view, or nil
// when monitoring is stopped or has not completed a cycle yet.
func (s *Scheduler) CurrentActivity() *model.CurrentActivity {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

// LastResult returns the most recent monitoring result, or nil.
func (s *Scheduler) LastResult() *model.MonitoringResult {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// TriggerManualCheck runs exactly one classification cycle
// synchronously, regardless of whether the loop is running or the
// config is enabled, and returns the result. A manual check may run
// concurrently with the loop's own cycle; the two are independent
// pipeline invocations.
func (s *Scheduler) TriggerManualCheck(ctx context.Context) (model.MonitoringResult, error) {
	monitoring, intervention := s.snapshot()
	return s.runCycle(ctx, monitoring, intervention)
}

func (s *Scheduler) snapshot() (config.MonitoringConfig, config.InterventionConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitoring, s.intervention
}

// run is the loop body. Strictly sequential: one cycle at a time,
// cancellable between ticks.
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		monitoring, intervention := s.snapshot()
		if !monitoring.Enabled {
			if !sleepCtx(ctx, s.backoff) {
				return
			}
			continue
		}

		if _, err := s.runCycle(ctx, monitoring, intervention); err != nil {
			s.log.Warnw("classification cycle failed", "error", err)
		}

		if !sleepCtx(ctx, s.sleepFn(monitoring)) {
			return
		}
	}
}

// runCycle walks the pipeline once. Capture failures abandon the
// cycle; OCR and backend failures degrade inside their own stages and
// never surface here.
func (s *Scheduler) runCycle(ctx context.Context, monitoring config.MonitoringConfig, intervention config.InterventionConfig) (model.MonitoringResult, error) {
	activity, err := s.deps.Probe.Current(ctx)
	if err != nil {
		return model.MonitoringResult{}, fmt.Errorf("probe activity: %w", err)
	}

	image, err := s.deps.Capturer.Capture(ctx)
	if err != nil {
		return model.MonitoringResult{}, fmt.Errorf("capture screen: %w", err)
	}

	ocrText := s.deps.OCR.ExtractText(ctx, image)

	currentTask := ""
	if s.deps.Store != nil {
		if title, err := s.deps.Store.CurrentTaskTitle(); err == nil {
			currentTask = title
		} else {
			s.log.Warnw("load current task failed", "error", err)
		}
	}

	result := s.deps.Classifier.Classify(ctx, monitoring, activity, ocrText, currentTask)

	s.updateState(result)

	s.deps.Sink.Emit(model.EventFocusStateChanged, model.FocusStateEvent{
		State:           result.FocusState,
		Confidence:      result.Confidence,
		ApplicationName: result.ApplicationName,
		WindowTitle:     result.WindowTitle,
		Timestamp:       result.Timestamp,
		Analysis:        result.Analysis,
	})

	if s.deps.Intervener != nil {
		s.deps.Intervener.Handle(intervention, result, currentTask)
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.AppendResult(result); err != nil {
			s.log.Warnw("save result failed", "error", err)
		}
	}

	s.log.Infow("classification cycle complete",
		"state", result.FocusState,
		"confidence", result.Confidence,
		"app", result.ApplicationName)

	return result, nil
}

// updateState overwrites the shared last-result and current-activity
// views.
func (s *Scheduler) updateState(result model.MonitoringResult) {
	var productive *bool
	switch result.FocusState {
	case model.StateFocused:
		v := true
		productive = &v
	case model.StateDistracted, model.StateSeverelyDistracted:
		v := false
		productive = &v
	}

	s.stateMu.Lock()
	s.last = &result
	s.current = &model.CurrentActivity{
		ApplicationName: result.ApplicationName,
		WindowTitle:     result.WindowTitle,
		IsProductive:    productive,
		Timestamp:       result.Timestamp,
	}
	s.stateMu.Unlock()
}

// sleepCtx waits for d or until ctx is cancelled. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
