package strategy

import (
	"github.com/ndnfwd/fwd/std/types/priority_queue"
)

// maxWeightedNexthops bounds how many of a FIB entry's nexthops
// WeightedRoundRobin tracks per-nexthop send counts for, matching the
// 8-byte Scratch block every FIB entry carries (one byte per
// nexthop). A nexthop set larger than this still forwards correctly;
// nexthops past the bound share the last counter slot instead of each
// getting their own, so their send counts are not told apart.
const maxWeightedNexthops = 8

// WeightedRoundRobin forwards each Interest to the nexthop with the
// least service relative to its configured weight (GetWeight), ranked
// with a generic min-heap rather than a linear scan. A nexthop's
// per-dispatch count is tracked in the FIB entry's per-worker Scratch
// block and never reset, so weight ratios converge over the life of
// the entry instead of resetting every cycle like plain round-robin.
type WeightedRoundRobin struct{}

func (WeightedRoundRobin) Name() string { return "weighted-roundrobin" }

func (WeightedRoundRobin) Handle(kind EventKind, ctx Context) uint64 {
	if kind != EventRxInterest {
		return StatusUnhandled
	}

	nexthops := ctx.Nexthops()
	if len(nexthops) == 0 {
		return StatusNoNexthop
	}

	scratch := ctx.Scratch()
	counter := func(i int) int {
		if i >= maxWeightedNexthops {
			return maxWeightedNexthops - 1
		}
		return i
	}

	pq := priority_queue.New[int, float64]()
	for i := range nexthops {
		weight := ctx.GetWeight(nexthops[i])
		if weight < 1 {
			weight = 1
		}
		deficit := float64(scratch[counter(i)]) / float64(weight)
		pq.Push(i, deficit)
	}

	for pq.Len() > 0 {
		i := pq.Pop()
		status := ctx.ForwardInterest(nexthops[i])
		if status != StatusNoNexthop {
			scratch[counter(i)]++
			return status
		}
	}
	return StatusNoNexthop
}
