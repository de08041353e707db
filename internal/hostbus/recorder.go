package hostbus

import (
	"sync"
	"time"
)

// Recorder is a Bus that keeps every event in memory. Embedding hosts use
// it for diagnostics; tests use it to assert on emissions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
	err    error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// FailWith makes subsequent Emit calls record the event and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Emit implements Bus.
func (r *Recorder) Emit(event string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, Event{Name: event, Payload: payload, At: time.Now()})
	err := r.err
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Count returns how many events named name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// WaitFor blocks until cond holds for the recorded events or timeout
// elapses, and reports whether cond held.
func (r *Recorder) WaitFor(timeout time.Duration, cond func(events []Event) bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if cond(r.Events()) {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return cond(r.Events())
		}
	}
}
