package store

import (
	"math/rand"

	"github.com/ccn-go/ccnd/internal/wire"
)

// maxLevel and levelP follow spec.md §4.4's skiplist tuning: at most 30
// levels, each level promoted with probability 1/4 (P(depth >= d+1) =
// 1/4), so the expected depth stays small even for a very large store.
const (
	maxLevel = 30
	levelP   = 0.25
)

// skipNode is one content-store entry ordered by Name (ties broken by
// digest, spec.md §9's "skiplist tie-break" Open Question, resolved by
// treating a shorter digest or absent one as sorting first).
type skipNode struct {
	name   wire.Name
	digest []byte
	entry  *Entry

	forward []*skipNode
}

// skiplist is a classic William Pugh skiplist ordered by (Name, digest).
// No ecosystem skiplist library appears anywhere in the retrieval pack,
// so this is a from-scratch implementation rather than a stdlib
// workaround for something a library already solves (DESIGN.md).
type skiplist struct {
	head  *skipNode
	level int
	size  int
}

func newSkiplist() *skiplist {
	return &skiplist{
		head:  &skipNode{forward: make([]*skipNode, maxLevel)},
		level: 1,
	}
}

func randomLevel() int {
	lvl := 1
	for lvl < maxLevel && rand.Float64() < levelP {
		lvl++
	}
	return lvl
}

// compare orders first by Name.Compare, then by digest bytes, so two
// ContentObjects with the same Name but different digests are adjacent
// but distinct (spec.md §4.4).
func compare(aName wire.Name, aDigest []byte, bName wire.Name, bDigest []byte) int {
	if c := aName.Compare(bName); c != 0 {
		return c
	}
	n := len(aDigest)
	if len(bDigest) < n {
		n = len(bDigest)
	}
	for i := 0; i < n; i++ {
		if aDigest[i] != bDigest[i] {
			return int(aDigest[i]) - int(bDigest[i])
		}
	}
	return len(aDigest) - len(bDigest)
}

// findBefore walks to the rightmost node strictly less than (name,
// digest) at every level, filling update with the predecessor at each
// level for insertion/splice.
func (s *skiplist) findBefore(name wire.Name, digest []byte, update []*skipNode) *skipNode {
	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && compare(x.forward[i].name, x.forward[i].digest, name, digest) < 0 {
			x = x.forward[i]
		}
		update[i] = x
	}
	return x
}

// insert adds entry ordered by (name, digest); if a node with exactly
// that (name, digest) already exists its entry is replaced in place.
func (s *skiplist) insert(name wire.Name, digest []byte, entry *Entry) *skipNode {
	update := make([]*skipNode, maxLevel)
	before := s.findBefore(name, digest, update)

	if next := before.forward[0]; next != nil && compare(next.name, next.digest, name, digest) == 0 {
		next.entry = entry
		return next
	}

	lvl := randomLevel()
	if lvl > s.level {
		for i := s.level; i < lvl; i++ {
			update[i] = s.head
		}
		s.level = lvl
	}

	node := &skipNode{name: name, digest: digest, entry: entry, forward: make([]*skipNode, lvl)}
	for i := 0; i < lvl; i++ {
		node.forward[i] = update[i].forward[i]
		update[i].forward[i] = node
	}
	s.size++
	return node
}

// remove deletes the node with exactly (name, digest), if present.
func (s *skiplist) remove(name wire.Name, digest []byte) bool {
	update := make([]*skipNode, maxLevel)
	before := s.findBefore(name, digest, update)
	target := before.forward[0]
	if target == nil || compare(target.name, target.digest, name, digest) != 0 {
		return false
	}

	for i := 0; i < s.level; i++ {
		if update[i].forward[i] != target {
			continue
		}
		update[i].forward[i] = target.forward[i]
	}
	for s.level > 1 && s.head.forward[s.level-1] == nil {
		s.level--
	}
	s.size--
	return true
}

// firstMatchingPrefix returns the first node (in skiplist order) whose
// name has prefix as a prefix, the entry point for a longest-prefix
// content lookup walk (spec.md §4.7).
func (s *skiplist) firstMatchingPrefix(prefix wire.Name) *skipNode {
	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && x.forward[i].name.Compare(prefix) < 0 && !prefix.IsPrefixOf(x.forward[i].name) {
			x = x.forward[i]
		}
	}
	candidate := x.forward[0]
	if candidate != nil && prefix.IsPrefixOf(candidate.name) {
		return candidate
	}
	// The level-0 walk above can overshoot past equal-name nodes; do a
	// final linear confirmation from x at level 0.
	for n := x.forward[0]; n != nil; n = n.forward[0] {
		if prefix.IsPrefixOf(n.name) {
			return n
		}
		if n.name.Compare(prefix) > 0 && !prefix.IsPrefixOf(n.name) {
			break
		}
	}
	return nil
}
