package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/defn"
	"github.com/ccn-go/ccnd/internal/wire"
)

func TestPrefixTableInheritsFromParent(t *testing.T) {
	pt := NewPrefixTable()
	parent := pt.Insert(wire.Name{wire.Component("a")})
	parent.RecordHit(defn.FaceId(7), 500)

	child := pt.Insert(wire.Name{wire.Component("a"), wire.Component("b")})
	assert.Equal(t, defn.FaceId(7), child.Src())
}

func TestPrefixTableLongestMatch(t *testing.T) {
	pt := NewPrefixTable()
	pt.Insert(wire.Name{wire.Component("a")})
	pt.Insert(wire.Name{wire.Component("a"), wire.Component("b")})

	best := pt.LongestMatch(wire.Name{wire.Component("a"), wire.Component("b"), wire.Component("c")})
	require.NotNil(t, best)
	assert.True(t, best.Name.Equal(wire.Name{wire.Component("a"), wire.Component("b")}))
}

func TestUsecClamped(t *testing.T) {
	pt := NewPrefixTable()
	e := pt.Insert(wire.Name{wire.Component("x")})
	for i := 0; i < 100; i++ {
		e.RecordMiss()
	}
	assert.LessOrEqual(t, e.Usec(), int64(maxUsec))

	for i := 0; i < 100; i++ {
		e.RecordHit(defn.FaceId(1), 0)
	}
	assert.GreaterOrEqual(t, e.Usec(), int64(minUsec))
}

func TestPrefixRetireNeedsTwoIdlePassesAndEmptyPit(t *testing.T) {
	pt := NewPrefixTable()
	pit := NewPit()
	leaf := pt.Insert(wire.Name{wire.Component("a"), wire.Component("b")})
	leaf.RecordHit(defn.FaceId(1), 100)

	// First pass: src is set, so this only ages (src->osrc, src->SENTINEL)
	// rather than deleting.
	removed := pt.Retire(pit)
	assert.Equal(t, 0, removed)
	assert.Equal(t, defn.NoFace, leaf.Src())
	assert.Equal(t, defn.FaceId(1), leaf.Osrc())

	// Second pass: src is now SENTINEL and the PIT has nothing under this
	// name, so the leaf is pruned; its parent /a, never hit and now a leaf
	// itself, is pruned in the same pass — LongestMatch for the same name
	// now falls back to the root entry.
	removed = pt.Retire(pit)
	assert.Equal(t, 2, removed)
	best := pt.LongestMatch(wire.Name{wire.Component("a"), wire.Component("b")})
	require.NotNil(t, best)
	assert.True(t, best.Name.Equal(wire.Name{}))
}

func TestPrefixRetireSparesEntryWithLivePit(t *testing.T) {
	pt := NewPrefixTable()
	pit := NewPit()
	name := wire.Name{wire.Component("a"), wire.Component("b")}
	pt.Insert(name)

	it := &wire.Interest{
		Name:             name,
		InterestLifetime: time.Second,
		Nonce:            []byte("nonce004"),
	}
	pit.Insert(it, nil)

	// src is already SENTINEL (never hit), but the PIT still has a live
	// entry for this name, so it must not be pruned.
	removed := pt.Retire(pit)
	assert.Equal(t, 0, removed)
	assert.NotNil(t, pt.LongestMatch(name))
}

func TestPitDuplicateSuppression(t *testing.T) {
	p := NewPit()
	it := &wire.Interest{
		Name:             wire.Name{wire.Component("n")},
		InterestLifetime: time.Second,
		Nonce:            []byte("nonce001"),
	}
	assert.False(t, p.IsDuplicate(it.Nonce))
	e := p.Insert(it, nil)
	assert.True(t, p.IsDuplicate(it.Nonce))

	p.Remove(e)
	// Still a duplicate: tombstoned after removal.
	assert.True(t, p.IsDuplicate(it.Nonce))
}

func TestPitInsertInRecordToleratesThreeThenDrops(t *testing.T) {
	p := NewPit()
	it := &wire.Interest{
		Name:             wire.Name{wire.Component("n")},
		InterestLifetime: time.Second,
		Nonce:            []byte("nonce002"),
	}
	e := p.Insert(it, nil)
	face := defn.FaceId(1)

	for i := 0; i < sameFaceTolerance; i++ {
		delete(e.inRecords, face) // force re-insertion path for this synthetic test
		_, _, ok := e.InsertInRecord(face)
		require.True(t, ok)
	}
	_, _, ok := e.InsertInRecord(face)
	assert.False(t, ok)
}

func TestPitExpireOlderThan(t *testing.T) {
	p := NewPit()
	it := &wire.Interest{
		Name:             wire.Name{wire.Component("n")},
		InterestLifetime: time.Millisecond,
		Nonce:            []byte("nonce003"),
	}
	p.Insert(it, nil)

	expired := p.ExpireOlderThan(time.Now().Add(time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, 0, p.Len())
}
