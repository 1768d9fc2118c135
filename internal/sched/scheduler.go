// Package sched implements the cooperative scheduler (spec.md §4.1, C1):
// a single-threaded priority queue of timed callbacks driven by a
// monotonic-microsecond clock.
package sched

import (
	"container/heap"
	"sync"
	"time"
)

// EventKind discriminates the finite set of scheduled-event kinds
// (spec.md §9 "Duck-typed callback with void* data" — replaced here by a
// sum type over kinds instead of a callback carrying an untyped data
// pointer; each kind's handler closes over its own typed arguments).
type EventKind int

const (
	EventPitPropagate EventKind = iota
	EventFaceQueueDrain
	EventReap
	EventCleanStore
	EventFreshnessExpire
	EventInactivityCheck
)

// Callback is invoked with the event's kind and whether this is a
// cancellation invocation (cancel=true delivers exactly one final call so
// the callback can release resources, spec.md §4.1). It returns the delay
// until the next invocation, or 0 to not reschedule.
type Callback func(kind EventKind, cancelled bool) time.Duration

// Handle identifies a scheduled event for cancellation.
type Handle uint64

type timedEvent struct {
	deadline time.Time
	seq      uint64 // FIFO tie-break among equal deadlines
	kind     EventKind
	cb       Callback
	handle   Handle
	canceled bool
}

type eventHeap []*timedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(*timedEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Clock abstracts wall-clock access so tests can control time.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Scheduler is a single-threaded cooperative event queue: callbacks run
// only on Run's goroutine. Schedule and Cancel are safe to call from
// other goroutines (e.g. transport receive loops) because they update the
// event heap under the scheduler's mutex and then signal the Run loop to
// re-check its next deadline.
type Scheduler struct {
	clock Clock

	mu       sync.Mutex
	pq       eventHeap
	byHandle map[Handle]*timedEvent
	nextSeq  uint64
	nextH    Handle

	wake chan struct{}
	stop chan struct{}
}

// New constructs a Scheduler using the real wall clock.
func New() *Scheduler {
	return NewWithClock(wallClock{})
}

// NewWithClock constructs a Scheduler using a caller-supplied Clock,
// useful for deterministic tests.
func NewWithClock(clock Clock) *Scheduler {
	return &Scheduler{
		clock:    clock,
		byHandle: make(map[Handle]*timedEvent),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Schedule arranges for cb to be invoked after delay, carrying kind.
// Ordering among events with equal deadlines is FIFO (spec.md §4.1).
func (s *Scheduler) Schedule(delay time.Duration, kind EventKind, cb Callback) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextH++
	h := s.nextH
	s.nextSeq++
	ev := &timedEvent{
		deadline: s.clock.Now().Add(delay),
		seq:      s.nextSeq,
		kind:     kind,
		cb:       cb,
		handle:   h,
	}
	heap.Push(&s.pq, ev)
	s.byHandle[h] = ev

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return h
}

// Cancel marks an event canceled. If it hasn't fired yet, its callback
// receives exactly one final invocation with cancelled=true (spec.md
// §4.1, §5).
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	ev, ok := s.byHandle[h]
	if !ok || ev.canceled {
		s.mu.Unlock()
		return
	}
	ev.canceled = true
	delete(s.byHandle, h)
	s.mu.Unlock()

	ev.cb(ev.kind, true)
}

// Run drives the event loop until Stop is called. It guarantees forward
// progress of at least one event per wall-clock second of work (spec.md
// §4.1) by never blocking longer than one second even if the queue is
// momentarily empty, so a backwards clock jump can't stall it forever.
func (s *Scheduler) Run() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.mu.Lock()
		var wait time.Duration
		var due *timedEvent
		if s.pq.Len() > 0 {
			top := s.pq[0]
			now := s.clock.Now()
			if !top.deadline.After(now) {
				due = heap.Pop(&s.pq).(*timedEvent)
				delete(s.byHandle, due.handle)
			} else {
				wait = top.deadline.Sub(now)
			}
		} else {
			wait = time.Second
		}
		s.mu.Unlock()

		if due != nil {
			if due.canceled {
				continue
			}
			next := due.cb(due.kind, false)
			if next > 0 {
				s.Schedule(next, due.kind, due.cb)
			}
			continue
		}

		if wait <= 0 || wait > time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Stop halts Run. Every still-pending event receives its cancellation
// invocation first so no resource is leaked (spec.md §5).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	pending := make([]*timedEvent, len(s.pq))
	copy(pending, s.pq)
	s.pq = nil
	s.byHandle = make(map[Handle]*timedEvent)
	s.mu.Unlock()

	for _, ev := range pending {
		if !ev.canceled {
			ev.canceled = true
			ev.cb(ev.kind, true)
		}
	}

	close(s.stop)
}

// Len reports the number of pending (not yet fired, not canceled) events.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.pq {
		if !ev.canceled {
			n++
		}
	}
	return n
}
