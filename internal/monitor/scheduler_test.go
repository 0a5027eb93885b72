package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"myfocus/internal/config"
	"myfocus/internal/intervene"
	"myfocus/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProbe struct {
	activity model.Activity
	err      error
}

func (p *fakeProbe) Name() string    { return "fake" }
func (p *fakeProbe) Available() bool { return true }
func (p *fakeProbe) Current(context.Context) (model.Activity, error) {
	return p.activity, p.err
}

type fakeCapturer struct {
	data []byte
	err  error
}

func (c *fakeCapturer) Name() string    { return "fake" }
func (c *fakeCapturer) Available() bool { return true }
func (c *fakeCapturer) Capture(context.Context) ([]byte, error) {
	return c.data, c.err
}

type fakeOCR struct{ text string }

func (o *fakeOCR) ExtractText(context.Context, []byte) string { return o.text }

type fakeClassifier struct {
	mu    sync.Mutex
	state model.FocusState
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _ config.MonitoringConfig, activity model.Activity, ocrText, _ string) model.MonitoringResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return model.MonitoringResult{
		Timestamp:       time.Now().UTC(),
		FocusState:      f.state,
		ApplicationName: activity.ApplicationName,
		WindowTitle:     activity.WindowTitle,
		OCRText:         ocrText,
		Confidence:      0.90,
	}
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu     sync.Mutex
	events []string
}

func (s *fakeSink) Emit(event string, _ any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

type fakeStore struct {
	mu      sync.Mutex
	results []model.MonitoringResult
	task    string
	saveErr error
}

func (s *fakeStore) AppendResult(r model.MonitoringResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.results = append(s.results, r)
	return nil
}

func (s *fakeStore) CurrentTaskTitle() (string, error) { return s.task, nil }

type fakeInterventer struct {
	mu    sync.Mutex
	tasks []string
}

func (f *fakeInterventer) Handle(_ config.InterventionConfig, _ model.MonitoringResult, task string) *intervene.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

func testDeps(t *testing.T) (Deps, *fakeClassifier, *fakeSink, *fakeStore) {
	t.Helper()
	classifier := &fakeClassifier{state: model.StateFocused}
	sink := &fakeSink{}
	store := &fakeStore{task: "写周报"}
	deps := Deps{
		Log:        zaptest.NewLogger(t).Sugar(),
		Probe:      &fakeProbe{activity: model.Activity{ApplicationName: "code", WindowTitle: "main.go"}},
		Capturer:   &fakeCapturer{data: []byte("png")},
		OCR:        &fakeOCR{text: "func main"},
		Classifier: classifier,
		Sink:       sink,
		Store:      store,
		Intervener: &fakeInterventer{},
	}
	return deps, classifier, sink, store
}

func enabledConfig() config.MonitoringConfig {
	return config.MonitoringConfig{Enabled: true, IntervalMinutes: 3}
}

func TestStartIdempotent(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	s := New(deps, config.MonitoringConfig{Enabled: false, IntervalMinutes: 3}, config.InterventionConfig{})
	defer s.Stop()

	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())
}

func TestStopOnStoppedIsNoop(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	s := New(deps, enabledConfig(), config.InterventionConfig{})

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestStopCancelsSleepPromptly(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	// disabled config keeps the loop in its backoff sleep
	s := New(deps, config.MonitoringConfig{Enabled: false, IntervalMinutes: 3}, config.InterventionConfig{})

	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the sleeping loop")
	}
	assert.False(t, s.IsRunning())
}

func TestLoopTicksAndPublishes(t *testing.T) {
	deps, classifier, sink, store := testDeps(t)
	s := New(deps, enabledConfig(), config.InterventionConfig{})
	s.backoff = 10 * time.Millisecond
	s.sleepFn = func(config.MonitoringConfig) time.Duration { return 10 * time.Millisecond }

	s.Start()
	require.Eventually(t, func() bool { return classifier.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	sink.mu.Lock()
	assert.Contains(t, sink.events, model.EventFocusStateChanged)
	sink.mu.Unlock()

	store.mu.Lock()
	assert.NotEmpty(t, store.results)
	store.mu.Unlock()

	// stop cleared the shared state
	assert.Nil(t, s.CurrentActivity())
	assert.Nil(t, s.LastResult())
}

func TestUpdateConfigRejectsOutOfRange(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	s := New(deps, enabledConfig(), config.InterventionConfig{})

	for _, interval := range []int{0, 11, -3} {
		err := s.UpdateConfig(config.MonitoringConfig{Enabled: true, IntervalMinutes: interval})
		assert.ErrorIs(t, err, config.ErrIntervalOutOfRange, "interval %d", interval)
	}

	// prior config intact
	monitoring, _ := s.snapshot()
	assert.Equal(t, 3, monitoring.IntervalMinutes)

	require.NoError(t, s.UpdateConfig(config.MonitoringConfig{Enabled: true, IntervalMinutes: 5}))
	monitoring, _ = s.snapshot()
	assert.Equal(t, 5, monitoring.IntervalMinutes)
}

func TestTriggerManualCheck(t *testing.T) {
	deps, _, _, store := testDeps(t)
	// loop not running, config disabled: manual check still works
	s := New(deps, config.MonitoringConfig{Enabled: false, IntervalMinutes: 3}, config.InterventionConfig{})

	result, err := s.TriggerManualCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StateFocused, result.FocusState)
	assert.Equal(t, "code", result.ApplicationName)
	assert.Equal(t, "func main", result.OCRText)

	current := s.CurrentActivity()
	require.NotNil(t, current)
	assert.Equal(t, "code", current.ApplicationName)
	require.NotNil(t, current.IsProductive)
	assert.True(t, *current.IsProductive)

	last := s.LastResult()
	require.NotNil(t, last)
	assert.Equal(t, model.StateFocused, last.FocusState)

	store.mu.Lock()
	assert.Len(t, store.results, 1)
	store.mu.Unlock()
}

func TestManualCheckConcurrentWithLoop(t *testing.T) {
	// a manual check may run while the loop runs its own cycle; the
	// two invocations are independent and unsynchronized
	deps, classifier, _, _ := testDeps(t)
	s := New(deps, enabledConfig(), config.InterventionConfig{})
	s.sleepFn = func(config.MonitoringConfig) time.Duration { return time.Millisecond }
	s.Start()
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TriggerManualCheck(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, classifier.callCount(), 4)
}

func TestCycleAbandonedOnCaptureError(t *testing.T) {
	deps, _, sink, store := testDeps(t)
	deps.Capturer = &fakeCapturer{err: errors.New("no display")}
	s := New(deps, enabledConfig(), config.InterventionConfig{})

	_, err := s.TriggerManualCheck(context.Background())
	require.Error(t, err)

	sink.mu.Lock()
	assert.Empty(t, sink.events)
	sink.mu.Unlock()
	store.mu.Lock()
	assert.Empty(t, store.results)
	store.mu.Unlock()
}

func TestProbeErrorAbandonsCycle(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.Probe = &fakeProbe{err: errors.New("permission denied")}
	s := New(deps, enabledConfig(), config.InterventionConfig{})

	_, err := s.TriggerManualCheck(context.Background())
	require.Error(t, err)
	assert.Nil(t, s.LastResult())
}

func TestSaveFailureDoesNotFailCycle(t *testing.T) {
	deps, _, _, store := testDeps(t)
	store.saveErr = errors.New("disk full")
	s := New(deps, enabledConfig(), config.InterventionConfig{})

	result, err := s.TriggerManualCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StateFocused, result.FocusState)
}

func TestInterventionReceivesCurrentTask(t *testing.T) {
	deps, classifier, _, _ := testDeps(t)
	classifier.state = model.StateDistracted
	interventer := &fakeInterventer{}
	deps.Intervener = interventer
	s := New(deps, enabledConfig(), config.InterventionConfig{Enabled: true})

	_, err := s.TriggerManualCheck(context.Background())
	require.NoError(t, err)

	interventer.mu.Lock()
	require.Len(t, interventer.tasks, 1)
	assert.Equal(t, "写周报", interventer.tasks[0])
	interventer.mu.Unlock()
}
