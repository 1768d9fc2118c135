// Package queue implements the per-face outbound delay-class queues
// (spec.md §4.6, C6): three delay classes drained by each face's drain
// goroutine in the forwarder, with
// entries revalidated against the content store on pop rather than
// storing a frame copy.
package queue

import (
	"math/rand"
	"sync"
	"time"
)

// DelayClass selects how soon after enqueue an entry becomes eligible
// for send (spec.md §4.6).
type DelayClass int

const (
	// ASAP is for interests and anything else that should go out almost
	// immediately.
	ASAP DelayClass = iota
	// Normal is the default delay for unsolicited content.
	Normal
	// Slow is used to de-prioritize a face that's shown a preference
	// for content it didn't ask for, or to throttle a noisy multicast
	// peer.
	Slow

	numClasses = int(Slow) + 1
)

// LinkKind picks the NORMAL-class delay, since a stream-oriented local
// socket, a datagram, and a link-wrapped (e.g. multicast) face drain at
// different safe rates (spec.md §4.6).
type LinkKind int

const (
	LinkLocalStream LinkKind = iota
	LinkDatagram
	LinkWrapped
)

// NormalDelay returns the NORMAL-class delay for the given link kind.
func NormalDelay(k LinkKind) time.Duration {
	switch k {
	case LinkLocalStream:
		return 10 * time.Microsecond
	case LinkWrapped:
		return 2 * time.Millisecond
	default:
		return 100 * time.Microsecond
	}
}

const asapDelay = time.Microsecond

// SlowMultiplier is SLOW's delay as a multiple of NORMAL's.
const SlowMultiplier = 4

// Delay returns the delay for class c given the face's link kind.
func Delay(c DelayClass, k LinkKind) time.Duration {
	switch c {
	case ASAP:
		return asapDelay
	case Slow:
		return NormalDelay(k) * SlowMultiplier
	default:
		return NormalDelay(k)
	}
}

// SendDelay returns the inter-send spacing to wait after draining a
// class-c frame on a face of link kind k: randomized in [min, 2*min]
// unless preferred is true (the face is a ≥12-drain preferred
// provider, spec.md §4.6), in which case spacing is fixed at min with
// no randomization.
func SendDelay(c DelayClass, k LinkKind, preferred bool) time.Duration {
	min := Delay(c, k)
	if preferred || min <= 0 {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(min)+1))
}

// Lookup resolves an accession number back to a sendable frame. It
// returns ok=false if the entry has since been evicted from the content
// store or otherwise no longer exists, in which case the queue entry is
// silently dropped instead of sent (spec.md §4.6 "entries carry an
// accession number, not a frame copy").
type Lookup func(accession uint64) (frame []byte, ok bool)

type entry struct {
	accession uint64
}

// ringQueue is an unbounded FIFO of accession numbers.
type ringQueue struct {
	items []entry
}

func (q *ringQueue) push(e entry) {
	q.items = append(q.items, e)
}

func (q *ringQueue) pop() (entry, bool) {
	if len(q.items) == 0 {
		return entry{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

func (q *ringQueue) len() int { return len(q.items) }

// FaceQueues holds the three delay-class queues for one face, plus the
// preferred-provider drain streak spec.md §4.6 uses to stop
// randomizing inter-send spacing once a face has proven consistently
// responsive.
type FaceQueues struct {
	mu      sync.Mutex
	classes [numClasses]ringQueue

	// drains counts consecutive sends on this face since the last time
	// NextClass found nothing ready; spec.md §4.6: at or beyond 12
	// consecutive drains, the face is a "preferred provider" and its
	// inter-send spacing stops being randomized.
	drains int
}

// NewFaceQueues constructs empty queues for one face.
func NewFaceQueues() *FaceQueues {
	return &FaceQueues{}
}

// Enqueue appends accession to class c's queue.
func (q *FaceQueues) Enqueue(c DelayClass, accession uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.classes[c].push(entry{accession: accession})
}

// Depth returns the number of pending entries in class c.
func (q *FaceQueues) Depth(c DelayClass) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.classes[c].len()
}

// preferredStreak is the number of consecutive drains after which a
// face counts as a preferred provider and its inter-send spacing stops
// being randomized (spec.md §4.6).
const preferredStreak = 12

// NextClass picks the highest-priority class with pending entries:
// ASAP, then NORMAL, then SLOW. Class selection is a strict priority
// order, never randomized — spec.md §4.6 randomizes a face's
// inter-send spacing (SendDelay), not which class drains next.
func (q *FaceQueues) NextClass() (DelayClass, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for c := DelayClass(0); c < numClasses; c++ {
		if q.classes[c].len() > 0 {
			return c, true
		}
	}
	return 0, false
}

// RecordSend extends this face's consecutive-drain streak by one send.
func (q *FaceQueues) RecordSend() {
	q.mu.Lock()
	q.drains++
	q.mu.Unlock()
}

// ResetStreak clears the consecutive-drain streak, called once
// NextClass finds nothing ready to drain.
func (q *FaceQueues) ResetStreak() {
	q.mu.Lock()
	q.drains = 0
	q.mu.Unlock()
}

// Preferred reports whether this face has drained at least
// preferredStreak times in a row (spec.md §4.6's preferred-provider
// rule).
func (q *FaceQueues) Preferred() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.drains >= preferredStreak
}

// Drain pops one entry from class c, resolving it via lookup. If the
// entry no longer resolves (evicted content, canceled interest), it is
// dropped and Drain reports ok=false with no frame, but the caller
// should keep draining — this is not an empty-queue signal.
func (q *FaceQueues) Drain(c DelayClass, lookup Lookup) (frame []byte, ok bool) {
	q.mu.Lock()
	e, has := q.classes[c].pop()
	q.mu.Unlock()
	if !has {
		return nil, false
	}
	return lookup(e.accession)
}
