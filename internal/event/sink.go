// Package event delivers state-change and intervention events to the
// UI layer. The core publishes through the one-method Sink interface;
// delivery is best-effort with no ordering or exactly-once guarantee.
package event

import "sync"

// Sink receives named events with a JSON-serializable payload.
type Sink interface {
	Emit(event string, payload any)
}

// Fanout forwards every event to multiple sinks.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink.
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

// Emit forwards to every registered sink.
func (f *Fanout) Emit(event string, payload any) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.sinks {
		s.Emit(event, payload)
	}
}

// Discard drops every event. Useful as a default when no UI is
// attached.
type Discard struct{}

func (Discard) Emit(string, any) {}
