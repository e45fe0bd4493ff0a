// Package table implements the forwarder's lookup structures: the
// two-stage LPM FIB (spec 4.E), the fused PCCT=PIT+CS+token-table
// (spec 4.F/4.F.1/4.F.2).
package table

import (
	"sync"
	"sync/atomic"

	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
)

// DefaultStartDepth is the name depth at which the FIB's stage-1 hash
// index operates.
const DefaultStartDepth = 8

// FibScratchSize is the size, in bytes, of the per-(entry,worker)
// strategy scratch block (e.g. round-robin's next-nexthop index).
const FibScratchSize = 8

// FibEntryDyn is per-worker mutable state attached to a FibEntry: RX/TX
// counters plus a fixed-size scratch block strategies use for their own
// bookkeeping (e.g. the round-robin next-nexthop cursor).
type FibEntryDyn struct {
	NRxInterests uint32
	NRxData      uint32
	NRxNacks     uint32
	NTxInterests uint32
	Scratch      [FibScratchSize]byte
}

// FibEntry is one real FIB entry: a registered name with its nexthop
// set, a strategy, and one FibEntryDyn per worker.
type FibEntry struct {
	Name     enc.Name
	Nexthops []ndni.FaceID
	Strategy string // strategy identifier; resolved by the fw package

	// Weights holds a per-nexthop routing weight for strategies that
	// rank nexthops instead of treating them uniformly (e.g. a
	// weighted round-robin variant). A face absent from Weights, or a
	// nil map, means the default weight of 1.
	Weights map[ndni.FaceID]int

	SeqNum uint32

	Dyn []FibEntryDyn
}

// stage1Node is the stage-1 hash index's value: either a real entry
// registered at exactly startDepth (Height == 0), or a marker pointing
// at the deepest real descendant under this startDepth-prefix.
type stage1Node struct {
	Real   *FibEntry
	Height uint8
}

// fibSnapshot is an immutable view of the FIB, swapped atomically by
// writers so readers never observe a partially-updated table.
//
// Both maps are keyed by the rolling xxhash of the name prefix
// (Name.PrefixHash), not by the encoded bytes: the stage-2 LPM probes
// one depth per iteration, and hashing once per depth is cheap where
// re-encoding and string-allocating the prefix on every probe is not.
// A lookup that hits a bucket still confirms the candidate's Name
// against the full prefix before trusting it, so a 64-bit collision
// degrades to a missed match rather than a wrong one.
type fibSnapshot struct {
	// byPrefix indexes every real entry by its exact name, at every
	// depth a real entry was registered (not just leaves), giving the
	// stage-2 linear LPM an O(1) per-depth probe.
	byPrefix map[uint64]*FibEntry
	stage1   map[uint64]*stage1Node
}

func newSnapshot() *fibSnapshot {
	return &fibSnapshot{byPrefix: map[uint64]*FibEntry{}, stage1: map[uint64]*stage1Node{}}
}

func (s *fibSnapshot) clone() *fibSnapshot {
	out := newSnapshot()
	for k, v := range s.byPrefix {
		out.byPrefix[k] = v
	}
	for k, v := range s.stage1 {
		vn := *v
		out.stage1[k] = &vn
	}
	return out
}

// Fib is the two-stage longest-prefix-match forwarding table. Writers
// are serialized by the caller (the control plane); readers call
// Lookup inside their own read-side critical section and must not
// retain the returned *FibEntry beyond it, since Insert/Erase may
// publish a fresh snapshot and let the old one be garbage collected.
type Fib struct {
	startDepth int
	nWorkers   int
	snap       atomic.Pointer[fibSnapshot]
	writeMu    sync.Mutex
}

// NewFib constructs an empty Fib with the given stage-1 depth and the
// number of per-entry dyn[] slots (one per worker) to allocate.
func NewFib(startDepth, nWorkers int) *Fib {
	f := &Fib{startDepth: startDepth, nWorkers: nWorkers}
	f.snap.Store(newSnapshot())
	return f
}

// prefixHash computes name's rolling prefix hash once and returns the
// slice so every depth probed by the stage-2 LPM reuses the same pass
// instead of re-hashing (or re-encoding) the prefix from scratch.
func prefixHash(name enc.Name) []uint64 {
	return name.PrefixHash()
}

// Insert registers or replaces the real entry for name with the given
// nexthops and strategy, returning the live entry. It increments
// SeqNum on replace and refreshes stage-1 virtual markers along the
// startDepth ancestor so they keep pointing at the deepest living
// descendant.
func (f *Fib) Insert(name enc.Name, nexthops []ndni.FaceID, strategy string) *FibEntry {
	return f.InsertWeighted(name, nexthops, nil, strategy)
}

// InsertWeighted is Insert plus a per-nexthop routing weight map,
// consulted by strategies that rank nexthops instead of treating them
// uniformly. A nil or incomplete weights map leaves the corresponding
// nexthops at the default weight of 1.
func (f *Fib) InsertWeighted(name enc.Name, nexthops []ndni.FaceID, weights map[ndni.FaceID]int, strategy string) *FibEntry {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	cur := f.snap.Load()
	next := cur.clone()

	hashes := prefixHash(name)
	key := hashes[len(name)]
	entry := next.byPrefix[key]
	if entry == nil || !entry.Name.Equal(name) {
		entry = &FibEntry{Name: name.Clone(), Dyn: make([]FibEntryDyn, f.nWorkers)}
	} else {
		entry.SeqNum++
	}
	entry.Nexthops = append([]ndni.FaceID(nil), nexthops...)
	entry.Strategy = strategy
	if weights != nil {
		entry.Weights = make(map[ndni.FaceID]int, len(weights))
		for nh, w := range weights {
			entry.Weights[nh] = w
		}
	} else {
		entry.Weights = nil
	}
	next.byPrefix[key] = entry

	if len(name) >= f.startDepth {
		s1key := hashes[f.startDepth]
		vn := next.stage1[s1key]
		depth := len(name)
		if vn == nil {
			h := uint8(0)
			if depth > f.startDepth {
				h = uint8(depth - f.startDepth)
			}
			next.stage1[s1key] = &stage1Node{Real: entry, Height: h}
		} else if depth >= int(vn.Height)+f.startDepth {
			vn.Real = entry
			if depth > f.startDepth {
				vn.Height = uint8(depth - f.startDepth)
			} else {
				vn.Height = 0
			}
		}
	}

	f.snap.Store(next)
	return entry
}

// Erase removes the real entry registered exactly at name, refreshing
// any stage-1 marker that pointed at it.
func (f *Fib) Erase(name enc.Name) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	cur := f.snap.Load()
	next := cur.clone()

	hashes := prefixHash(name)
	key := hashes[len(name)]
	if e, ok := next.byPrefix[key]; !ok || !e.Name.Equal(name) {
		return
	}
	delete(next.byPrefix, key)

	if len(name) >= f.startDepth {
		s1key := hashes[f.startDepth]
		if vn, ok := next.stage1[s1key]; ok && vn.Real.Name.Equal(name) {
			delete(next.stage1, s1key)
			// recompute from the remaining registered entries under this branch
			branch := name.Prefix(f.startDepth)
			var deepest *FibEntry
			for _, e := range next.byPrefix {
				if len(e.Name) >= f.startDepth && e.Name.Prefix(f.startDepth).Equal(branch) &&
					(deepest == nil || len(e.Name) > len(deepest.Name)) {
					deepest = e
				}
			}
			if deepest != nil {
				h := uint8(len(deepest.Name) - f.startDepth)
				next.stage1[s1key] = &stage1Node{Real: deepest, Height: h}
			}
		}
	}

	f.snap.Store(next)
}

// Lookup performs the two-stage LPM for name and returns the matching
// FibEntry, or nil if no registered prefix matches.
func (f *Fib) Lookup(name enc.Name) *FibEntry {
	snap := f.snap.Load()
	nComps := len(name)
	hashes := prefixHash(name)

	cap := nComps
	if nComps >= f.startDepth {
		s1key := hashes[f.startDepth]
		if vn, ok := snap.stage1[s1key]; ok && vn.Real.Name.Prefix(f.startDepth).Equal(name.Prefix(f.startDepth)) {
			if vn.Height == 0 {
				return vn.Real
			}
			cap = int(vn.Height) + f.startDepth
			if cap > nComps {
				cap = nComps
			}
		} else {
			cap = f.startDepth - 1
		}
	}

	for d := cap; d >= 1; d-- {
		if e, ok := snap.byPrefix[hashes[d]]; ok && e.Name.Equal(name.Prefix(d)) {
			return e
		}
	}
	return nil
}

// FilterNexthops copies entry's nexthops into out, skipping any face
// ID present in excluded. Relative order is preserved.
func FilterNexthops(entry *FibEntry, excluded []ndni.FaceID) []ndni.FaceID {
	out := make([]ndni.FaceID, 0, len(entry.Nexthops))
	for _, nh := range entry.Nexthops {
		skip := false
		for _, ex := range excluded {
			if nh == ex {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, nh)
		}
	}
	return out
}
