package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

func TestFindContentForInterestLeftmost(t *testing.T) {
	cs := store.New(0)
	cs.Insert(wire.Name{wire.Component("p"), wire.Component("1")}, []byte{1}, []byte("one"), time.Minute)
	cs.Insert(wire.Name{wire.Component("p"), wire.Component("2")}, []byte{1}, []byte("two"), time.Minute)

	it := &wire.Interest{Name: wire.Name{wire.Component("p")}, AnswerOriginKind: wire.DefaultAnswerOriginKind}
	found := FindContentForInterest(cs, it)
	require.NotNil(t, found)
	assert.Equal(t, []byte("one"), found.Raw)
}

func TestFindContentForInterestRightmost(t *testing.T) {
	cs := store.New(0)
	cs.Insert(wire.Name{wire.Component("p"), wire.Component("1")}, []byte{1}, []byte("one"), time.Minute)
	cs.Insert(wire.Name{wire.Component("p"), wire.Component("2")}, []byte{1}, []byte("two"), time.Minute)

	it := &wire.Interest{
		Name:             wire.Name{wire.Component("p")},
		ChildSelector:    wire.ChildSelectorRightmost,
		AnswerOriginKind: wire.DefaultAnswerOriginKind,
	}
	found := FindContentForInterest(cs, it)
	require.NotNil(t, found)
	assert.Equal(t, []byte("two"), found.Raw)
}

func TestFindContentForInterestSkipsExcludedLeftmostCandidate(t *testing.T) {
	cs := store.New(0)
	cs.Insert(wire.Name{wire.Component("a"), wire.Component("x1")}, []byte{1}, []byte("excluded"), time.Minute)
	cs.Insert(wire.Name{wire.Component("a"), wire.Component("x2")}, []byte{1}, []byte("wanted"), time.Minute)

	it := &wire.Interest{
		Name:             wire.Name{wire.Component("a")},
		AnswerOriginKind: wire.DefaultAnswerOriginKind,
		Exclude:          &wire.Exclude{Components: []wire.Component{wire.Component("x1")}},
	}
	found := FindContentForInterest(cs, it)
	require.NotNil(t, found)
	assert.Equal(t, []byte("wanted"), found.Raw)
}

func TestFindContentForInterestExcludeRightmost(t *testing.T) {
	cs := store.New(0)
	cs.Insert(wire.Name{wire.Component("a"), wire.Component("x1")}, []byte{1}, []byte("one"), time.Minute)
	cs.Insert(wire.Name{wire.Component("a"), wire.Component("x2")}, []byte{1}, []byte("two"), time.Minute)
	cs.Insert(wire.Name{wire.Component("a"), wire.Component("x3")}, []byte{1}, []byte("three"), time.Minute)

	it := &wire.Interest{
		Name:             wire.Name{wire.Component("a")},
		ChildSelector:    wire.ChildSelectorRightmost,
		AnswerOriginKind: wire.DefaultAnswerOriginKind,
		Exclude:          &wire.Exclude{Components: []wire.Component{wire.Component("x3")}},
	}
	found := FindContentForInterest(cs, it)
	require.NotNil(t, found)
	assert.Equal(t, []byte("two"), found.Raw)
}

func TestSatisfyingEntriesMatchesPrefixCanBePrefix(t *testing.T) {
	pit := table.NewPit()
	it := &wire.Interest{
		Name:                wire.Name{wire.Component("p")},
		MaxSuffixComponents: -1,
		InterestLifetime:    time.Second,
		Nonce:               []byte("abcdef"),
	}
	pit.Insert(it, nil)

	co := &wire.ContentObject{Name: wire.Name{wire.Component("p"), wire.Component("1")}, FreshnessSeconds: -1}
	entries := SatisfyingEntries(pit, co, co.Name)
	assert.Len(t, entries, 1)
}

func TestSatisfyingEntriesSkipsExactNonPrefix(t *testing.T) {
	pit := table.NewPit()
	it := &wire.Interest{
		Name:                wire.Name{wire.Component("p"), wire.Component("1")},
		MaxSuffixComponents: 0, // CanBePrefix = false
		InterestLifetime:    time.Second,
		Nonce:               []byte("ghijkl"),
	}
	pit.Insert(it, nil)

	co := &wire.ContentObject{Name: wire.Name{wire.Component("p"), wire.Component("1"), wire.Component("2")}, FreshnessSeconds: -1}
	entries := SatisfyingEntries(pit, co, co.Name)
	assert.Len(t, entries, 0)
}
