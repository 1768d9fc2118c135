package table

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/wire"
)

// PropagateState is the per-outbound-face state of a PIT entry (spec.md
// §4.5): UNSENT means the interest hasn't gone out that face yet, WAIT1
// means it has and no response has arrived, STUFFED1 means it was piggybacked
// onto an outgoing ContentObject rather than sent standalone.
type PropagateState int

const (
	Unsent PropagateState = iota
	Wait1
	Stuffed1
)

// OutRecord tracks one face an interest has been (or will be) forwarded
// out, adapted from the teacher's PitOutRecord.
type OutRecord struct {
	Face  defn.FaceId
	State PropagateState
	Sent  time.Time
}

// InRecord tracks one face an interest arrived from, so a later
// ContentObject can be sent back to every requester (spec.md §4.5),
// adapted from the teacher's PitInRecord.
type InRecord struct {
	Face     defn.FaceId
	Received time.Time
}

// Entry is one pending interest. Entries are indexed by Nonce and by
// exact name in the Pit's maps and carry a pointer to their PrefixEntry;
// the PrefixEntry keeps no list of its PIT entries.
type Entry struct {
	Nonce  uint64
	Name   wire.Name
	Prefix *PrefixEntry

	CanBePrefix bool
	MustBeFresh bool
	Expiry      time.Time

	mu         sync.Mutex
	inRecords  map[defn.FaceId]*InRecord
	outRecords map[defn.FaceId]*OutRecord
	satisfied  bool

	// sameFaceCount counts interests coalesced from the same face under
	// similar-interest coalescing (spec.md §4.5); beyond the tolerance
	// of 3, further duplicates from that face are dropped rather than
	// coalesced, to bound a single face's fan-in.
	sameFaceCount map[defn.FaceId]int
}

// InRecords returns a snapshot of the current in-records.
func (e *Entry) InRecords() map[defn.FaceId]*InRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[defn.FaceId]*InRecord, len(e.inRecords))
	for k, v := range e.inRecords {
		out[k] = v
	}
	return out
}

// OutRecords returns a snapshot of the current out-records.
func (e *Entry) OutRecords() map[defn.FaceId]*OutRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[defn.FaceId]*OutRecord, len(e.outRecords))
	for k, v := range e.outRecords {
		out[k] = v
	}
	return out
}

// Satisfied reports whether a matching ContentObject has already
// arrived for this entry.
func (e *Entry) Satisfied() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.satisfied
}

// SetSatisfied marks the entry as satisfied (spec.md §4.5/§4.7).
func (e *Entry) SetSatisfied(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.satisfied = v
}

const sameFaceTolerance = 3

// InsertInRecord records that interest arrived from face, coalescing
// with the tolerance-of-3 rule: the Nth+1 duplicate arrival from the
// same face (beyond sameFaceTolerance) is reported via the ok=false
// return so the caller drops it instead of re-registering an in-record
// (spec.md §4.5).
func (e *Entry) InsertInRecord(face defn.FaceId) (rec *InRecord, alreadyExisted bool, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sameFaceCount[face] >= sameFaceTolerance {
		return nil, false, false
	}
	e.sameFaceCount[face]++

	if existing, present := e.inRecords[face]; present {
		existing.Received = time.Now()
		return existing, true, true
	}

	rec = &InRecord{Face: face, Received: time.Now()}
	e.inRecords[face] = rec
	return rec, false, true
}

// UpsertOutRecord records (or transitions) the propagation state for face.
func (e *Entry) UpsertOutRecord(face defn.FaceId, state PropagateState) *OutRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.outRecords[face]
	if !ok {
		rec = &OutRecord{Face: face}
		e.outRecords[face] = rec
	}
	rec.State = state
	rec.Sent = time.Now()
	return rec
}

// ClearInRecords drops every in-record, e.g. once the entry is satisfied
// and responses have been dispatched.
func (e *Entry) ClearInRecords() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inRecords = make(map[defn.FaceId]*InRecord)
	e.sameFaceCount = make(map[defn.FaceId]int)
}

// ClearOutRecords drops every out-record.
func (e *Entry) ClearOutRecords() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outRecords = make(map[defn.FaceId]*OutRecord)
}

// nonceKey hashes an interest Nonce with xxhash for the PIT's Nonce
// index, matching spec.md §4.5's duplicate-suppression-by-Nonce design.
func nonceKey(nonce []byte) uint64 {
	return xxhash.Sum64(nonce)
}

// Pit is the pending interest table: entries indexed both in a
// Nonce-keyed hash index (duplicate suppression) and in a per-exact-name
// index (propagation and matching).
type Pit struct {
	mu sync.Mutex

	byNonce map[uint64]*Entry
	byName  map[string][]*Entry // wire.Name.Key() -> entries sharing that exact name

	// tombstones remembers recently-seen Nonces whose PIT entry has
	// already been reaped, as a bounded safety net against a very late
	// duplicate interest still tripping duplicate suppression after its
	// entry's natural expiry (spec.md §4.5 "Nonce reuse after PIT
	// entry expiry").
	tombstones *lru.Cache[uint64, struct{}]
}

const tombstoneCapacity = 4096

// NewPit constructs an empty PIT.
func NewPit() *Pit {
	c, _ := lru.New[uint64, struct{}](tombstoneCapacity)
	return &Pit{
		byNonce:    make(map[uint64]*Entry),
		byName:     make(map[string][]*Entry),
		tombstones: c,
	}
}

// Lookup finds the live PIT entry for a Nonce, if any. Tombstoned Nonces
// are not reported here (ok is false); IsDuplicate covers them.
func (p *Pit) Lookup(nonce []byte) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byNonce[nonceKey(nonce)]
	return e, ok
}

// IsDuplicate reports whether nonce has been seen before, either as a
// live PIT entry or a tombstoned one.
func (p *Pit) IsDuplicate(nonce []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := nonceKey(nonce)
	if _, ok := p.byNonce[k]; ok {
		return true
	}
	_, ok := p.tombstones.Get(k)
	return ok
}

// Insert creates a new PIT entry for it, anchored under prefix.
func (p *Pit) Insert(it *wire.Interest, prefix *PrefixEntry) *Entry {
	e := &Entry{
		Nonce:         nonceKey(it.Nonce),
		Name:          it.Name.Clone(),
		Prefix:        prefix,
		CanBePrefix:   it.MaxSuffixComponents != 0,
		MustBeFresh:   it.AnswerOriginKind&wire.AOKStale == 0,
		Expiry:        time.Now().Add(it.InterestLifetime),
		inRecords:     make(map[defn.FaceId]*InRecord),
		outRecords:    make(map[defn.FaceId]*OutRecord),
		sameFaceCount: make(map[defn.FaceId]int),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.byNonce[e.Nonce] = e
	key := it.Name.Key()
	p.byName[key] = append(p.byName[key], e)
	return e
}

// Remove retires entry, tombstoning its Nonce so a late duplicate
// interest is still recognized for a while after expiry.
func (p *Pit) Remove(e *Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byNonce, e.Nonce)
	p.tombstones.Add(e.Nonce, struct{}{})

	key := e.Name.Key()
	entries := p.byName[key]
	for i, cand := range entries {
		if cand == e {
			p.byName[key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(p.byName[key]) == 0 {
		delete(p.byName, key)
	}
}

// EntriesForName returns every live PIT entry anchored at exactly name,
// used by the matcher's consume_matching_interests walk (spec.md §4.7).
func (p *Pit) EntriesForName(name wire.Name) []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Entry(nil), p.byName[name.Key()]...)
}

// ExpireOlderThan removes every entry whose Expiry has passed and
// returns them, for the reaper to act on (mark prefix misses, free
// in/out records).
func (p *Pit) ExpireOlderThan(now time.Time) []*Entry {
	p.mu.Lock()
	var expired []*Entry
	for _, e := range p.byNonce {
		if !e.satisfied && now.After(e.Expiry) {
			expired = append(expired, e)
		}
	}
	p.mu.Unlock()

	for _, e := range expired {
		p.Remove(e)
	}
	return expired
}

// Len reports the number of live PIT entries.
func (p *Pit) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byNonce)
}
