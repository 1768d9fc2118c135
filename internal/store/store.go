// Package store implements the content store (spec.md §4.4, C4): a hash
// index keyed by name+digest, a name-ordered skiplist for
// longest-prefix/child-selector lookups, and a sliding-window accession
// index so outbound queues can hold a lightweight accession number
// instead of a full frame copy.
package store

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/ccn-go/ccnd/internal/wire"
)

// Entry is one cached ContentObject.
type Entry struct {
	Accession uint64
	Name      wire.Name
	Digest    []byte
	Raw       []byte
	Stale     time.Time // zero means "no freshness limit" (never stale)
}

func (e *Entry) isStale(now time.Time) bool {
	return !e.Stale.IsZero() && now.After(e.Stale)
}

// Store is the content store.
type Store struct {
	hash map[uint64]*Entry // key: xxhash of Name.Key()+digest, for exact dedup
	sl   *skiplist

	byAccession map[uint64]*Entry
	nextAcc     uint64

	// windowFloor is the oldest accession number not yet evicted; FIFO
	// eviction in evictOldest advances it.
	windowFloor uint64

	capacity int
}

// New constructs an empty store with a soft entry-count cap (CCND_CAP,
// spec.md §6); a cap of 0 means unbounded.
func New(capacity int) *Store {
	return &Store{
		hash:        make(map[uint64]*Entry),
		sl:          newSkiplist(),
		byAccession: make(map[uint64]*Entry),
		capacity:    capacity,
	}
}

// hashKey derives the Store.hash index key from (name, digest) with
// xxhash, the same dedup-index keying spec.md's C5 Nonce table uses
// (table.nonceKey) rather than relying on Go's built-in string hashing.
func hashKey(name wire.Name, digest []byte) uint64 {
	h := xxhash.New()
	h.WriteString(name.Key())
	h.Write(digest)
	return h.Sum64()
}

// Insert adds or replaces the cached object for (name, digest). A
// duplicate (name, digest) pair updates Raw/Stale in place and keeps its
// original accession number, matching spec.md §4.4's "re-insertion is
// idempotent on (name, digest)".
func (s *Store) Insert(name wire.Name, digest []byte, raw []byte, freshness time.Duration) *Entry {
	key := hashKey(name, digest)
	if existing, ok := s.hash[key]; ok {
		existing.Raw = raw
		existing.Stale = staleDeadline(freshness)
		return existing
	}

	acc := s.nextAcc
	s.nextAcc++

	e := &Entry{Accession: acc, Name: name, Digest: digest, Raw: raw, Stale: staleDeadline(freshness)}
	s.hash[key] = e
	s.byAccession[acc] = e
	s.sl.insert(name, digest, e)

	if s.capacity > 0 && len(s.hash) > s.capacity {
		s.evictOldest()
	}
	return e
}

func staleDeadline(freshness time.Duration) time.Time {
	if freshness == 0 {
		return time.Time{}
	}
	return time.Now().Add(freshness)
}

// Lookup resolves an accession number back to a cached frame (the
// queue.Lookup contract).
func (s *Store) Lookup(accession uint64) ([]byte, bool) {
	e, ok := s.byAccession[accession]
	if !ok {
		return nil, false
	}
	return e.Raw, true
}

// FindExact returns the entry for exactly (name, digest), if present.
func (s *Store) FindExact(name wire.Name, digest []byte) (*Entry, bool) {
	e, ok := s.hash[hashKey(name, digest)]
	return e, ok
}

// FindForPrefix returns the first entry (in name order; the last one
// when rightmost is set) whose name has prefix as a prefix, or nil if
// none qualifies — the skiplist walk half of find_content_for_interest
// (spec.md §4.7). mustBeFresh, when true, skips stale entries entirely
// rather than returning them with a staleness flag; when false, stale
// entries are returned like fresh ones.
func (s *Store) FindForPrefix(prefix wire.Name, mustBeFresh bool, rightmost bool) *Entry {
	node := s.sl.firstMatchingPrefix(prefix)
	if node == nil {
		return nil
	}

	now := time.Now()
	var best *Entry
	for n := node; n != nil && prefix.IsPrefixOf(n.name); n = n.forward[0] {
		if mustBeFresh && n.entry.isStale(now) {
			continue
		}
		if !rightmost {
			return n.entry
		}
		best = n.entry
	}
	return best
}

// FindForPrefixExcluding behaves like FindForPrefix, but additionally
// skips any candidate whose component at depth len(prefix) is excluded,
// continuing the skiplist walk until a non-excluded match is found or
// the prefix range is exhausted (spec.md §4.7's find_content_for_interest
// Exclude handling). excluded is called with the component immediately
// following prefix in each candidate's name.
func (s *Store) FindForPrefixExcluding(prefix wire.Name, mustBeFresh bool, rightmost bool, excluded func(wire.Component) bool) *Entry {
	node := s.sl.firstMatchingPrefix(prefix)
	if node == nil {
		return nil
	}

	now := time.Now()
	depth := len(prefix)
	var best *Entry
	for n := node; n != nil && prefix.IsPrefixOf(n.name); n = n.forward[0] {
		if mustBeFresh && n.entry.isStale(now) {
			continue
		}
		if depth < len(n.name) && excluded(n.name[depth]) {
			continue
		}
		if !rightmost {
			return n.entry
		}
		best = n.entry
	}
	return best
}

// Remove evicts the entry for (name, digest).
func (s *Store) Remove(name wire.Name, digest []byte) {
	key := hashKey(name, digest)
	e, ok := s.hash[key]
	if !ok {
		return
	}
	delete(s.hash, key)
	delete(s.byAccession, e.Accession)
	s.sl.remove(name, digest)
}

// evictOldest drops the entry at the current window floor (or, if it
// has already been removed, advances the floor past any gap), then
// slides the floor forward — the straightforward FIFO eviction spec.md
// §4.4 calls for once the soft capacity is exceeded.
func (s *Store) evictOldest() {
	for {
		e, ok := s.byAccession[s.windowFloor]
		s.windowFloor++
		if ok {
			s.Remove(e.Name, e.Digest)
			return
		}
		if s.windowFloor > s.nextAcc {
			return
		}
	}
}

// CleanPass evicts up to maxEntries stale entries, starting from the
// oldest accession, per spec.md §4.4's "clean at most 500 entries per
// pass" cache-cleaning design.
func (s *Store) CleanPass(maxEntries int) int {
	now := time.Now()
	cleaned := 0
	for acc := s.windowFloor; acc < s.nextAcc && cleaned < maxEntries; acc++ {
		e, ok := s.byAccession[acc]
		if !ok {
			continue
		}
		if e.isStale(now) {
			s.Remove(e.Name, e.Digest)
			cleaned++
		}
	}
	return cleaned
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	return len(s.hash)
}
