// File: control/tracelog.go
// Author: momentics <momentics@gmail.com>
//
// Bounded history of scheduler state transitions, surfaced through the
// Debug probe API for runtime introspection. Backed by eapache/queue, a
// ring-buffer deque, so recording a new entry never reallocates once the
// buffer has grown to its cap.

package control

import (
	"sync"

	"github.com/eapache/queue"
)

// TraceEntry is one recorded scheduler event.
type TraceEntry struct {
	Seq     uint64
	Event   string
	FiberID uint64
	Detail  string
}

// TraceLog is a bounded FIFO of TraceEntry values.
type TraceLog struct {
	mu   sync.Mutex
	q    *queue.Queue
	cap  int
	next uint64
}

// NewTraceLog creates a trace log that retains at most cap entries,
// discarding the oldest once full.
func NewTraceLog(cap int) *TraceLog {
	if cap <= 0 {
		cap = 256
	}
	return &TraceLog{q: queue.New(), cap: cap}
}

// Record appends an entry, evicting the oldest if the log is at capacity.
func (t *TraceLog) Record(event string, fiberID uint64, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.q.Add(TraceEntry{Seq: t.next, Event: event, FiberID: fiberID, Detail: detail})
	for t.q.Length() > t.cap {
		t.q.Remove()
	}
}

// Snapshot returns a copy of the retained entries, oldest first.
func (t *TraceLog) Snapshot() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, t.q.Length())
	for i := range out {
		out[i] = t.q.Get(i).(TraceEntry)
	}
	return out
}

// Len returns the number of retained entries.
func (t *TraceLog) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.q.Length()
}
