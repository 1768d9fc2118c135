// Package table implements the name-prefix table (spec.md §4.3, C3) and
// the pending interest table (spec.md §4.5, C5), adapted from the
// teacher's fw/table package's in/out-record bookkeeping style to the
// ccnb forwarder's prefix-entry-anchored PIT design.
package table

import (
	"sync"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/wire"
)

// Response-time estimate bounds and update factors (spec.md §4.3).
const (
	minUsec = 127
	maxUsec = 1_000_000
)

// PrefixEntry is one node of the name-prefix table: the FaceId hints
// used to prioritize outbound faces for interests under this prefix,
// plus an adaptive response-time estimate used to favor historically
// fast providers.
type PrefixEntry struct {
	Name wire.Name

	mu sync.Mutex

	// src is the face that most recently satisfied an interest under
	// this prefix; osrc is the previous value of src, kept so a
	// just-displaced provider isn't immediately forgotten (spec.md
	// §4.8's osrc-then-src outbound ordering).
	src  defn.FaceId
	osrc defn.FaceId
	usec int64 // adaptive response-time estimate, microseconds

	children []*PrefixEntry
	parent   *PrefixEntry
}

// Usec returns the current response-time estimate.
func (p *PrefixEntry) Usec() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usec
}

// Src returns the preferred-provider face hint, and Osrc the previous one.
func (p *PrefixEntry) Src() defn.FaceId  { p.mu.Lock(); defer p.mu.Unlock(); return p.src }
func (p *PrefixEntry) Osrc() defn.FaceId { p.mu.Lock(); defer p.mu.Unlock(); return p.osrc }

// RecordHit updates src/osrc and shrinks the response-time estimate by
// a factor of (1 - 2^-7) on a content hit from face (spec.md §4.3); when
// observedUsec is positive, the shrunk estimate is then averaged with it.
func (p *PrefixEntry) RecordHit(face defn.FaceId, observedUsec int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if face != p.src {
		p.osrc = p.src
		p.src = face
	}
	p.usec = p.usec - (p.usec >> 7)
	if observedUsec > 0 {
		p.usec = (p.usec + observedUsec) / 2
	}
	p.clampLocked()
}

// RecordMiss grows the response-time estimate by a factor of (1 + 2^-3)
// after an interest under this prefix times out unsatisfied.
func (p *PrefixEntry) RecordMiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usec = p.usec + (p.usec >> 3)
	p.clampLocked()
}

func (p *PrefixEntry) clampLocked() {
	if p.usec < minUsec {
		p.usec = minUsec
	}
	if p.usec > maxUsec {
		p.usec = maxUsec
	}
}

// PrefixTable is a trie of PrefixEntry nodes keyed by name component,
// providing longest-prefix lookup and parent-to-child inheritance of
// src/osrc/usec when a new, more-specific prefix entry is created
// (spec.md §4.3 "a freshly created prefix entry inherits its parent's
// provider hints").
type PrefixTable struct {
	mu   sync.RWMutex
	root *prefixNode
}

type prefixNode struct {
	entry    *PrefixEntry
	children map[string]*prefixNode
}

// NewPrefixTable constructs an empty table with a root entry for "/".
func NewPrefixTable() *PrefixTable {
	root := &PrefixEntry{Name: wire.Name{}, usec: minUsec}
	return &PrefixTable{root: &prefixNode{entry: root, children: make(map[string]*prefixNode)}}
}

// LongestMatch returns the most specific PrefixEntry that is a prefix of
// name, creating entries along the walk only when Insert is used;
// LongestMatch itself never mutates the table.
func (t *PrefixTable) LongestMatch(name wire.Name) *PrefixEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.root
	best := n.entry
	for _, c := range name {
		child, ok := n.children[string(c)]
		if !ok {
			break
		}
		n = child
		best = n.entry
	}
	return best
}

// Insert ensures a PrefixEntry exists for exactly name, creating any
// missing intermediate nodes and inheriting src/osrc/usec from the
// nearest existing ancestor at creation time.
func (t *PrefixTable) Insert(name wire.Name) *PrefixEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	var parent *PrefixEntry = n.entry
	for _, c := range name {
		key := string(c)
		child, ok := n.children[key]
		if !ok {
			entry := &PrefixEntry{
				Name:   append(wire.Name{}, n.entry.Name...),
				src:    parent.src,
				osrc:   parent.osrc,
				usec:   parent.usec,
				parent: parent,
			}
			entry.Name = append(entry.Name, c)
			child = &prefixNode{entry: entry, children: make(map[string]*prefixNode)}
			n.children[key] = child
			parent.children = append(parent.children, entry)
		}
		n = child
		parent = n.entry
	}
	return n.entry
}

// Retire implements spec.md §4.3's two-pass aging reaper: an entry
// whose src is already SENTINEL (no face has satisfied an interest
// under it since the last pass) and whose PIT list is empty is
// deleted outright (and only if it's a leaf, since an interior node
// may still anchor live descendants); every other entry is aged one
// step (osrc := src; src := SENTINEL), so a genuinely idle entry
// survives exactly one more reap before becoming eligible. pit
// supplies the PIT-emptiness check; a nil pit treats every prefix as
// having no pending interests (used by tests exercising aging alone).
func (t *PrefixTable) Retire(pit *Pit) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	var walk func(n *prefixNode) bool // returns true if n should be pruned
	walk = func(n *prefixNode) bool {
		for k, c := range n.children {
			if walk(c) {
				delete(n.children, k)
				removed++
			}
		}

		e := n.entry
		e.mu.Lock()
		pitEmpty := pit == nil || len(pit.EntriesForName(e.Name)) == 0
		idle := e.src == defn.NoFace && pitEmpty
		if !idle {
			e.osrc = e.src
			e.src = defn.NoFace
		}
		e.mu.Unlock()

		return idle && len(n.children) == 0 && n != t.root
	}
	walk(t.root)
	return removed
}

// Len reports the number of prefix entries in the table, root included.
func (t *PrefixTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	var walk func(node *prefixNode)
	walk = func(node *prefixNode) {
		n++
		for _, c := range node.children {
			walk(c)
		}
	}
	walk(t.root)
	return n
}
