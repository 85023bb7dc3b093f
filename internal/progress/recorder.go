package progress

import (
	"sync"

	"github.com/zulandar/classlive/internal/models"
)

// EventKind identifies a recorded progress call.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventAdvance EventKind = "advance"
	EventFinish  EventKind = "finish"
)

// Event is one call observed by a Recorder.
type Event struct {
	Kind  EventKind
	Phase models.Phase
	Value int64 // total for start, delta for advance
}

// Recorder is a Tracker that records every call for assertions in tests.
// When StopAfter is positive, ShouldContinue returns false once that many
// units have been advanced in the current phase.
type Recorder struct {
	StopAfter int64

	mu      sync.Mutex
	events  []Event
	current models.Phase
	done    int64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start implements Tracker.
func (r *Recorder) Start(total int64, phase models.Phase) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = phase
	r.done = 0
	r.events = append(r.events, Event{Kind: EventStart, Phase: phase, Value: total})
	return r
}

// Advance implements Handle.
func (r *Recorder) Advance(delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done += delta
	r.events = append(r.events, Event{Kind: EventAdvance, Phase: r.current, Value: delta})
}

// ShouldContinue implements Handle.
func (r *Recorder) ShouldContinue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.StopAfter <= 0 || r.done < r.StopAfter
}

// Finish implements Handle.
func (r *Recorder) Finish(phase models.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventFinish, Phase: phase})
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Advanced returns the sum of Advance deltas recorded for phase.
func (r *Recorder) Advanced(phase models.Phase) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.events {
		if e.Kind == EventAdvance && e.Phase == phase {
			n += e.Value
		}
	}
	return n
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
