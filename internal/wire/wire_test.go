package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestRoundTrip(t *testing.T) {
	it := &Interest{
		Name:                Name{Component("a"), Component("b")},
		MinSuffixComponents: -1,
		MaxSuffixComponents: -1,
		AnswerOriginKind:    DefaultAnswerOriginKind,
		InterestLifetime:    2 * time.Second,
		Scope:               2,
		Nonce:               []byte{1, 2, 3, 4, 5, 6},
	}
	raw := it.Encode()

	parsed, err := ParseInterest(raw)
	require.NoError(t, err)
	assert.True(t, parsed.Name.Equal(it.Name))
	assert.Equal(t, it.Nonce, parsed.Nonce)
	assert.Equal(t, 2, parsed.Scope)
	assert.InDelta(t, float64(2*time.Second), float64(parsed.InterestLifetime), float64(time.Millisecond))
}

func TestContentObjectRoundTrip(t *testing.T) {
	name := Name{Component("x")}
	co := EncodeContentObject(name, 10, []byte("hello"))

	parsed, err := ParseContentObject(co.Raw)
	require.NoError(t, err)
	assert.True(t, parsed.Name.Equal(name))
	assert.Equal(t, []byte("hello"), parsed.Content)
	assert.Equal(t, 10, parsed.FreshnessSeconds)
	assert.Equal(t, 10*time.Second, parsed.Freshness())
}

func TestNameCompare(t *testing.T) {
	a := Name{Component("a")}
	ab := Name{Component("a"), Component("b")}
	assert.True(t, a.IsPrefixOf(ab))
	assert.False(t, ab.IsPrefixOf(a))
	assert.Less(t, a.Compare(ab), 0)
	assert.Equal(t, 0, a.Compare(Name{Component("a")}))
}

func TestSkeletonReassembly(t *testing.T) {
	it := &Interest{
		Name:                Name{Component("p")},
		MinSuffixComponents: -1,
		MaxSuffixComponents: -1,
		AnswerOriginKind:    DefaultAnswerOriginKind,
		InterestLifetime:    4 * time.Second,
		Scope:               2,
		Nonce:               []byte("abcdef"),
	}
	frame := it.Encode()

	var sk Skeleton
	// Feed one byte at a time to exercise partial-frame buffering.
	var frames [][]byte
	for i := range frame {
		out, err := sk.Feed(frame[i : i+1])
		require.NoError(t, err)
		frames = append(frames, out...)
	}
	require.Len(t, frames, 1)

	tag, err := OuterTag(frames[0])
	require.NoError(t, err)
	assert.Equal(t, DTagInterest, tag)

	parsed, err := ParseInterest(frames[0])
	require.NoError(t, err)
	assert.True(t, parsed.Name.Equal(it.Name))
}

func TestPDUWrapUnwrap(t *testing.T) {
	it := &Interest{
		Name:                Name{Component("w")},
		MinSuffixComponents: -1,
		MaxSuffixComponents: -1,
		AnswerOriginKind:    DefaultAnswerOriginKind,
		InterestLifetime:    time.Second,
		Scope:               2,
		Nonce:               []byte("nonce1"),
	}
	frame := it.Encode()
	pdu := WrapPDU(frame)

	elems, err := UnwrapPDU(pdu)
	require.NoError(t, err)
	require.Len(t, elems, 1)

	parsed, err := ParseInterest(elems[0])
	require.NoError(t, err)
	assert.True(t, parsed.Name.Equal(it.Name))
}
