package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestScheduleFIFOOrdering(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	s := NewWithClock(clk)

	var order []int
	done := make(chan struct{}, 3)
	mk := func(i int) Callback {
		return func(kind EventKind, cancelled bool) time.Duration {
			order = append(order, i)
			done <- struct{}{}
			return 0
		}
	}

	// All three deadlines land on the same instant; FIFO by schedule order.
	s.Schedule(5*time.Millisecond, EventReap, mk(1))
	s.Schedule(5*time.Millisecond, EventReap, mk(2))
	s.Schedule(5*time.Millisecond, EventReap, mk(3))

	go s.Run()
	clk.now = clk.now.Add(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		<-done
	}
	s.Stop()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestCancelDeliversFinalInvocation(t *testing.T) {
	s := New()
	var canceled int32
	h := s.Schedule(time.Hour, EventPitPropagate, func(kind EventKind, cancelled bool) time.Duration {
		if cancelled {
			atomic.StoreInt32(&canceled, 1)
		}
		return 0
	})

	s.Cancel(h)
	assert.Equal(t, int32(1), atomic.LoadInt32(&canceled))
	assert.Equal(t, 0, s.Len())

	// Canceling twice is a no-op, not a second invocation.
	s.Cancel(h)
}

func TestStopCancelsPending(t *testing.T) {
	s := New()
	fired := make(chan bool, 1)
	s.Schedule(time.Hour, EventReap, func(kind EventKind, cancelled bool) time.Duration {
		fired <- cancelled
		return 0
	})

	s.Stop()
	select {
	case cancelled := <-fired:
		require.True(t, cancelled)
	case <-time.After(time.Second):
		t.Fatal("pending event was not invoked on Stop")
	}
}

func TestRunFiresDueEvent(t *testing.T) {
	s := New()
	fired := make(chan struct{})
	s.Schedule(10*time.Millisecond, EventFaceQueueDrain, func(kind EventKind, cancelled bool) time.Duration {
		close(fired)
		return 0
	})

	go s.Run()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("event never fired")
	}
	s.Stop()
}

func TestRescheduleOnNonZeroReturn(t *testing.T) {
	s := New()
	count := int32(0)
	done := make(chan struct{})
	s.Schedule(5*time.Millisecond, EventCleanStore, func(kind EventKind, cancelled bool) time.Duration {
		if cancelled {
			return 0
		}
		n := atomic.AddInt32(&count, 1)
		if n >= 3 {
			close(done)
			return 0
		}
		return 5 * time.Millisecond
	})

	go s.Run()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not reschedule itself to completion")
	}
	s.Stop()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}
