// Package face implements the face table and transport abstraction
// (spec.md §4.2, C2): FaceId slot+generation allocation, a dense
// by-slot index plus a peer-address hash index, and
// the outbound delay-class queues each face owns.
package face

import (
	"fmt"
	"sync"
	"time"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/queue"
)

// Transport is the per-face I/O abstraction, grounded on the teacher's
// fw/face.transport interface. Unlike the teacher, frames are handed to
// a Dispatcher (internal/dispatch) rather than a LinkService, since ccnb
// has no link-service fragmentation layer to model.
type Transport interface {
	fmt.Stringer

	RemoteURI() *defn.URI
	LocalURI() *defn.URI
	Scope() defn.Scope
	LinkType() defn.LinkType
	MTU() int

	// SendFrame writes a single ccnb frame, making a copy if the
	// transport needs to retain the buffer past the call.
	SendFrame(frame []byte) error
	// RunReceive reads frames in a loop, calling onFrame for each one,
	// until the transport is closed or the read fails.
	RunReceive(onFrame func(frame []byte))
	IsRunning() bool
	Close()

	NInBytes() uint64
	NOutBytes() uint64
}

// Face is one entry in the face table: a Transport plus the outbound
// queue state and flags spec.md §4.2 assigns per face.
type Face struct {
	Id        defn.FaceId
	Transport Transport
	Flags     defn.FaceFlags

	Queues *queue.FaceQueues

	created time.Time

	// idlePasses counts consecutive reap passes that found this
	// (on-demand datagram) face idle; two consecutive idle passes
	// retire it (spec.md §4.10).
	idlePasses int
}

func (f *Face) String() string {
	return fmt.Sprintf("face(id=%d remote=%s)", f.Id, f.Transport.RemoteURI())
}

// Table is the face table: FaceId slot+generation allocation plus a
// peer-address index (the teacher's FaceTable also keeps a kernel-handle
// index; this one does not), adapted from uint64 FaceIDs to the spec's packed 18-bit
// slot + generation FaceId (spec.md §4.2, §9 "FaceId reuse").
//
// Slot 0 is never issued: it is reserved so that defn.NoFace (FaceId 0)
// can never alias a live face (spec.md §9 design note on FaceId reuse).
type Table struct {
	mu sync.RWMutex

	bySlot     []*Face // dense, index 0 always nil
	generation []uint32
	free       []int // freed slots available for reuse

	byPeerAddr map[string]*Face // RemoteURI().String() -> Face

	rover int // next slot to try when no free slot is banked
}

// NewTable constructs an empty face table with slot 0 pre-reserved.
func NewTable() *Table {
	t := &Table{
		bySlot:     make([]*Face, 1, 64),
		generation: make([]uint32, 1, 64),
		byPeerAddr: make(map[string]*Face),
		rover:      1,
	}
	return t
}

// Enroll allocates a FaceId for tr and adds it to the table.
func (t *Table) Enroll(tr Transport, flags defn.FaceFlags) (*Face, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if t.rover >= defn.MaxFaces {
			return nil, defn.ErrFaceSpaceExhausted
		}
		slot = t.rover
		t.rover++
		for len(t.bySlot) <= slot {
			// Geometric growth, capped by MaxFaces.
			newCap := len(t.bySlot) * 2
			if newCap > defn.MaxFaces {
				newCap = defn.MaxFaces
			}
			grown := make([]*Face, len(t.bySlot), newCap)
			copy(grown, t.bySlot)
			t.bySlot = grown[:cap(grown)][:len(t.bySlot)]

			t.bySlot = append(t.bySlot, nil)
			t.generation = append(t.generation, 0)
		}
	}

	gen := t.generation[slot]
	fid := defn.MakeFaceId(slot, gen)

	f := &Face{
		Id:        fid,
		Transport: tr,
		Flags:     flags,
		Queues:    queue.NewFaceQueues(),
		created:   time.Now(),
	}
	t.bySlot[slot] = f
	t.byPeerAddr[tr.RemoteURI().String()] = f

	return f, nil
}

// Lookup returns the Face for id, or nil if it no longer exists (its
// generation doesn't match, meaning the slot has been recycled).
func (t *Table) Lookup(id defn.FaceId) *Face {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot := id.Slot()
	if slot <= 0 || slot >= len(t.bySlot) {
		return nil
	}
	if t.generation[slot] != id.Generation() {
		return nil
	}
	return t.bySlot[slot]
}

// LookupByPeerAddr finds a face by its transport's remote URI string,
// used to recognize an already-enrolled datagram peer on receipt
// (spec.md §4.2).
func (t *Table) LookupByPeerAddr(addr string) *Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byPeerAddr[addr]
}

// Remove retires a face: its slot is freed for reuse with the
// generation counter bumped, so any stale FaceId referencing the old
// generation safely misses in Lookup (spec.md §9 "FaceId reuse").
func (t *Table) Remove(id defn.FaceId) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := id.Slot()
	if slot <= 0 || slot >= len(t.bySlot) || t.generation[slot] != id.Generation() {
		return
	}

	f := t.bySlot[slot]
	if f != nil {
		delete(t.byPeerAddr, f.Transport.RemoteURI().String())
		f.Transport.Close()
	}
	t.bySlot[slot] = nil
	t.generation[slot]++
	t.free = append(t.free, slot)
}

// Range calls fn for every live face. fn must not mutate the table.
func (t *Table) Range(fn func(f *Face)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range t.bySlot {
		if f != nil {
			fn(f)
		}
	}
}

// Len reports the number of live faces.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, f := range t.bySlot {
		if f != nil {
			n++
		}
	}
	return n
}

// MarkIdlePass increments f's idle-pass counter and reports whether the
// face has now been idle for two consecutive reap passes (spec.md
// §4.10), at which point the caller should Remove it. Any traffic
// observed between passes must call ResetIdle first.
func (f *Face) MarkIdlePass() bool {
	f.idlePasses++
	return f.idlePasses >= 2
}

// ResetIdle clears the idle-pass counter; called whenever traffic is
// observed on the face.
func (f *Face) ResetIdle() {
	f.idlePasses = 0
}
