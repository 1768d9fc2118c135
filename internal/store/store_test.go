package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/wire"
)

func TestInsertAndFindExact(t *testing.T) {
	s := New(0)
	name := wire.Name{wire.Component("a"), wire.Component("b")}
	e := s.Insert(name, []byte{1, 2, 3}, []byte("raw"), time.Minute)

	got, ok := s.FindExact(name, []byte{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, e.Accession, got.Accession)
}

func TestInsertIsIdempotentOnNameDigest(t *testing.T) {
	s := New(0)
	name := wire.Name{wire.Component("a")}
	first := s.Insert(name, []byte{9}, []byte("v1"), time.Minute)
	second := s.Insert(name, []byte{9}, []byte("v2"), time.Minute)

	assert.Equal(t, first.Accession, second.Accession)
	assert.Equal(t, 1, s.Len())
	raw, ok := s.Lookup(first.Accession)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), raw)
}

func TestFindForPrefixSkipsStale(t *testing.T) {
	s := New(0)
	name := wire.Name{wire.Component("p"), wire.Component("1")}
	s.Insert(name, []byte{1}, []byte("stale"), -time.Second) // already expired

	found := s.FindForPrefix(wire.Name{wire.Component("p")}, true, false)
	assert.Nil(t, found)

	found = s.FindForPrefix(wire.Name{wire.Component("p")}, false, false)
	require.NotNil(t, found)
	assert.Equal(t, []byte("stale"), found.Raw)
}

func TestFindForPrefixRightmost(t *testing.T) {
	s := New(0)
	s.Insert(wire.Name{wire.Component("p"), wire.Component("1")}, []byte{1}, []byte("one"), time.Minute)
	s.Insert(wire.Name{wire.Component("p"), wire.Component("2")}, []byte{1}, []byte("two"), time.Minute)
	s.Insert(wire.Name{wire.Component("p"), wire.Component("3")}, []byte{1}, []byte("three"), time.Minute)

	leftmost := s.FindForPrefix(wire.Name{wire.Component("p")}, true, false)
	require.NotNil(t, leftmost)
	assert.Equal(t, []byte("one"), leftmost.Raw)

	rightmost := s.FindForPrefix(wire.Name{wire.Component("p")}, true, true)
	require.NotNil(t, rightmost)
	assert.Equal(t, []byte("three"), rightmost.Raw)
}

func TestLookupMissingAccession(t *testing.T) {
	s := New(0)
	_, ok := s.Lookup(9999)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	s := New(0)
	name := wire.Name{wire.Component("z")}
	e := s.Insert(name, []byte{1}, []byte("raw"), time.Minute)

	s.Remove(name, []byte{1})
	_, ok := s.Lookup(e.Accession)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestCleanPassEvictsStaleOnly(t *testing.T) {
	s := New(0)
	s.Insert(wire.Name{wire.Component("fresh")}, []byte{1}, []byte("f"), time.Hour)
	s.Insert(wire.Name{wire.Component("stale")}, []byte{1}, []byte("s"), -time.Second)

	cleaned := s.CleanPass(500)
	assert.Equal(t, 1, cleaned)
	assert.Equal(t, 1, s.Len())
}

func TestCapacityEvictsOldestFIFO(t *testing.T) {
	s := New(2)
	s.Insert(wire.Name{wire.Component("1")}, []byte{1}, []byte("a"), time.Hour)
	s.Insert(wire.Name{wire.Component("2")}, []byte{1}, []byte("b"), time.Hour)
	s.Insert(wire.Name{wire.Component("3")}, []byte{1}, []byte("c"), time.Hour)

	assert.Equal(t, 2, s.Len())
	_, ok := s.FindExact(wire.Name{wire.Component("1")}, []byte{1})
	assert.False(t, ok, "oldest entry should have been evicted")
}

func TestSkiplistManyInsertsPreserveOrder(t *testing.T) {
	s := New(0)
	names := []string{"m", "a", "z", "b", "y", "c"}
	for _, n := range names {
		s.Insert(wire.Name{wire.Component(n)}, []byte{1}, []byte(n), time.Hour)
	}

	var order []string
	for n := s.sl.head.forward[0]; n != nil; n = n.forward[0] {
		order = append(order, string(n.name[0]))
	}
	assert.Equal(t, []string{"a", "b", "c", "m", "y", "z"}, order)
}
