package queue_test

import (
	"testing"
	"time"

	"github.com/ndnfwd/fwd/queue"
	"github.com/stretchr/testify/require"
)

// TestPlainFIFO checks that the Plain policy dequeues in FIFO order.
func TestPlainFIFO(t *testing.T) {
	q := queue.New[int](4, queue.PopPlain)
	now := time.Now()
	require.True(t, q.Push(1, now))
	require.True(t, q.Push(2, now))

	out := make([]int, 4)
	res := q.Pop(out, now)
	require.Equal(t, 2, res.Count)
	require.Equal(t, []int{1, 2}, out[:2])
	require.False(t, res.Drop)
}

// TestPlainOverflow checks that pushing past capacity is rejected and
// counted, without blocking.
func TestPlainOverflow(t *testing.T) {
	q := queue.New[int](2, queue.PopPlain)
	now := time.Now()
	require.True(t, q.Push(1, now))
	require.True(t, q.Push(2, now))
	require.False(t, q.Push(3, now))

	_, nOverflow := q.Counters()
	require.Equal(t, uint64(1), nOverflow)
}

// TestDelayNeverDrops checks that the Delay policy reports sojourn
// time but never asks the caller to drop.
func TestDelayNeverDrops(t *testing.T) {
	q := queue.New[int](4, queue.PopDelay)
	t0 := time.Now()
	q.Push(1, t0)

	out := make([]int, 1)
	res := q.Pop(out, t0.Add(20*time.Millisecond))
	require.Equal(t, 1, res.Count)
	require.False(t, res.Drop)
	require.InDelta(t, 20*time.Millisecond, q.Sojourn(), float64(time.Millisecond))
}

// TestCoDelDropsUnderSustainedDelay checks that CoDel starts
// requesting drops once sojourn has stayed above target for a full
// interval, and stops once sojourn recovers.
func TestCoDelDropsUnderSustainedDelay(t *testing.T) {
	q := queue.NewTuned[int](64, queue.PopCoDel, 5*time.Millisecond, 100*time.Millisecond)
	t0 := time.Now()

	// Push many packets, each "arriving" well before now so every pop
	// observes a sojourn time comfortably above target.
	for i := 0; i < 40; i++ {
		q.Push(i, t0)
	}

	out := make([]int, 1)
	sawDrop := false
	for i := 0; i < 40; i++ {
		now := t0.Add(time.Duration(i+1) * 10 * time.Millisecond)
		res := q.Pop(out, now)
		if res.Count == 0 {
			break
		}
		if res.Drop {
			sawDrop = true
		}
	}
	require.True(t, sawDrop, "CoDel should eventually request a drop under sustained delay")

	nDrops, _ := q.Counters()
	require.Greater(t, nDrops, uint64(0))
}

// TestCoDelNoDropWhenBelowTarget checks that CoDel never requests a
// drop when sojourn stays below target.
func TestCoDelNoDropWhenBelowTarget(t *testing.T) {
	q := queue.NewTuned[int](64, queue.PopCoDel, 5*time.Millisecond, 100*time.Millisecond)
	now := time.Now()
	for i := 0; i < 10; i++ {
		q.Push(i, now)
		out := make([]int, 1)
		res := q.Pop(out, now.Add(time.Millisecond))
		require.False(t, res.Drop)
	}
}
