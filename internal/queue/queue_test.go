package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayOrdering(t *testing.T) {
	assert.Less(t, Delay(ASAP, LinkLocalStream), Delay(Normal, LinkLocalStream))
	assert.Less(t, Delay(Normal, LinkLocalStream), Delay(Slow, LinkLocalStream))
	assert.Equal(t, NormalDelay(LinkLocalStream)*SlowMultiplier, Delay(Slow, LinkLocalStream))
}

func TestNormalDelayByLinkKind(t *testing.T) {
	assert.Less(t, NormalDelay(LinkLocalStream), NormalDelay(LinkDatagram))
	assert.Less(t, NormalDelay(LinkDatagram), NormalDelay(LinkWrapped))
}

func TestEnqueueDrainRevalidatesOnPop(t *testing.T) {
	q := NewFaceQueues()
	q.Enqueue(ASAP, 1)
	q.Enqueue(ASAP, 2)
	assert.Equal(t, 2, q.Depth(ASAP))

	store := map[uint64][]byte{1: []byte("hello")}
	lookup := func(accession uint64) ([]byte, bool) {
		v, ok := store[accession]
		return v, ok
	}

	frame, ok := q.Drain(ASAP, lookup)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), frame)

	// Accession 2 was evicted before drain; Drain reports !ok but the
	// entry is still consumed from the queue.
	_, ok = q.Drain(ASAP, lookup)
	assert.False(t, ok)
	assert.Equal(t, 0, q.Depth(ASAP))
}

func TestNextClassEmptyReportsFalse(t *testing.T) {
	q := NewFaceQueues()
	_, ok := q.NextClass()
	assert.False(t, ok)
}

func TestNextClassReturnsOnlyReadyClass(t *testing.T) {
	q := NewFaceQueues()
	q.Enqueue(Normal, 1)
	c, ok := q.NextClass()
	require.True(t, ok)
	assert.Equal(t, Normal, c)
}

func TestNextClassStrictlyPrioritizesASAPOverOtherClasses(t *testing.T) {
	q := NewFaceQueues()
	q.Enqueue(Slow, 1)
	q.Enqueue(Normal, 2)
	q.Enqueue(ASAP, 3)
	c, ok := q.NextClass()
	require.True(t, ok)
	assert.Equal(t, ASAP, c)
}

func TestPreferredBecomesTrueAfterStreakThreshold(t *testing.T) {
	q := NewFaceQueues()
	assert.False(t, q.Preferred())
	for i := 0; i < preferredStreak; i++ {
		q.RecordSend()
	}
	assert.True(t, q.Preferred())
}

func TestResetStreakClearsPreferred(t *testing.T) {
	q := NewFaceQueues()
	for i := 0; i < preferredStreak; i++ {
		q.RecordSend()
	}
	require.True(t, q.Preferred())
	q.ResetStreak()
	assert.False(t, q.Preferred())
}

func TestSendDelayPreferredSkipsRandomization(t *testing.T) {
	min := Delay(Normal, LinkDatagram)
	assert.Equal(t, min, SendDelay(Normal, LinkDatagram, true))
}

func TestSendDelayRandomizesWithinDoubleMin(t *testing.T) {
	min := Delay(Normal, LinkDatagram)
	for i := 0; i < 20; i++ {
		d := SendDelay(Normal, LinkDatagram, false)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, 2*min)
	}
}
