// Package iface implements the face layer: the NDNLPv2 reassembler
// that turns a run of link-layer fragments back into one L3 packet,
// Ethernet locator classification, and the Face abstraction the
// forwarder core reads from and writes bursts to (spec 4.B, 4.H).
package iface

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
)

const (
	// MinReassemblerCapacity is the smallest capacity a Reassembler will accept.
	MinReassemblerCapacity = 64
	// MaxReassemblerCapacity is the largest capacity a Reassembler will accept.
	MaxReassemblerCapacity = 1 << 20
	// MaxFragments bounds how many fragments one NDNLPv2 packet may carry.
	MaxFragments = 32
)

type pendingPacket struct {
	fragCount uint32
	bitmap    uint32
	frags     []enc.Wire
}

// Reassembler reassembles NDNLPv2 fragment trains keyed by sequence
// number base. It holds at most capacity partial packets; inserting
// past capacity evicts the least-recently-touched partial packet and
// counts its fragments as dropped, mirroring the bounded occupancy of
// the teacher's fixed-size hash table.
type Reassembler struct {
	mu    sync.Mutex
	cache *lru.Cache

	capacity int

	nDropFragments    uint64
	nDeliverPackets   uint64
	nDeliverFragments uint64
}

// NewReassembler constructs a Reassembler holding up to capacity
// partial packets at once.
func NewReassembler(capacity int) *Reassembler {
	if capacity < MinReassemblerCapacity {
		capacity = MinReassemblerCapacity
	}
	if capacity > MaxReassemblerCapacity {
		capacity = MaxReassemblerCapacity
	}
	r := &Reassembler{capacity: capacity}
	r.cache = lru.New(capacity)
	r.cache.OnEvicted = func(key lru.Key, value interface{}) {
		pm := value.(*pendingPacket)
		if pm.bitmap == 0 {
			return // complete packet removed after delivery, nothing dropped
		}
		r.nDropFragments += uint64(popcount32(^pm.bitmap & ((1 << pm.fragCount) - 1)))
	}
	return r
}

func popcount32(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// reassemblyKey identifies one fragment train. SeqNumBase alone is
// only unique per sender, and two faces can echo the same base, so
// the key pairs it with the ingress face.
type reassemblyKey struct {
	face ndni.FaceID
	seq  uint64
}

// Accept feeds one fragment into the reassembler. It returns the
// reassembled L3 wire and ok=true once every fragment of the train has
// arrived; otherwise it returns ok=false while the train is still
// incomplete or the fragment was rejected (changed FragCount, repeated
// FragIndex). frame.Face identifies the ingress face the fragment
// arrived on, part of the train's key alongside SeqNumBase.
//
// Single-fragment frames (FragCount <= 1) should never reach here;
// callers hand those directly to ndni.ParseL3.
func (r *Reassembler) Accept(frame *ndni.LpFrame) (enc.Wire, bool) {
	key := lru.Key(reassemblyKey{face: frame.Face, seq: frame.Lp.SeqNumBase})
	fragCount := uint32(frame.Lp.FragCount)
	fragIndex := uint32(frame.Lp.FragIndex)
	if fragCount == 0 || fragCount > MaxFragments || fragIndex >= fragCount {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache.Get(key)
	if !ok {
		pm := &pendingPacket{
			fragCount: fragCount,
			bitmap:    ((uint32(1) << fragCount) - 1) &^ (uint32(1) << fragIndex),
			frags:     make([]enc.Wire, fragCount),
		}
		pm.frags[fragIndex] = frame.Fragment
		r.cache.Add(key, pm)
		return nil, false
	}

	pm := v.(*pendingPacket)
	if pm.fragCount != fragCount {
		r.cache.Remove(key)
		r.nDropFragments++
		return nil, false
	}

	indexBit := uint32(1) << fragIndex
	if pm.bitmap&indexBit == 0 {
		// duplicate FragIndex: the train is already complete for this
		// slot, or this is a retransmission racing reassembly.
		r.nDropFragments++
		return nil, false
	}
	pm.bitmap &^= indexBit
	pm.frags[fragIndex] = frame.Fragment

	if pm.bitmap != 0 {
		// still waiting on more fragments; touching Get already moved
		// this entry to the front of the LRU list.
		return nil, false
	}

	r.cache.Remove(key)
	var whole enc.Wire
	for _, f := range pm.frags {
		whole = append(whole, f...)
	}
	r.nDeliverPackets++
	r.nDeliverFragments += uint64(fragCount)
	return whole, true
}

// Counters reports cumulative reassembler statistics.
func (r *Reassembler) Counters() (nDropFragments, nDeliverPackets, nDeliverFragments uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nDropFragments, r.nDeliverPackets, r.nDeliverFragments
}
