// Package fw implements the forwarder core: the per-worker
// Interest/Data/Nack state machine (spec 4.G) wired to the FIB, the
// fused PCCT, the timer wheel, the face table, and the strategy ABI.
package fw

import (
	"time"

	"github.com/ndnfwd/fwd/core"
	"github.com/ndnfwd/fwd/iface"
	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/queue"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
	"github.com/ndnfwd/fwd/timer"
)

// DefaultInterestLifetime is used when an Interest carries no
// InterestLifetime element, per the NDN protocol's own default.
const DefaultInterestLifetime = 4 * time.Second

// Worker owns one shard of the forwarding state: its own FIB view
// (read-only; the FIB itself is shared, copy-on-write), PCCT/PIT/CS,
// hashed-wheel timer, and a reference to the shared face table. Per
// spec §5, a Worker is touched by exactly one goroutine and performs
// no internal locking of its own tables.
type Worker struct {
	id uint16

	fib    *table.Fib
	pcct   *table.Pcct
	pit    *table.Pit
	cs     *table.Cs
	timers *timer.MinSched
	faces  *FaceTable
	cfg    *core.Config

	reassembler *iface.Reassembler
	rxQueue     *queue.PktQueue[rxItem]

	strategies      map[string]strategy.Strategy
	defaultStrategy strategy.Strategy
}

// NewWorker constructs a Worker with the default strategy set
// (roundrobin, weighted-roundrobin, multicast) registered by name,
// matching FibEntry.Strategy, and its own ingress reassembler and
// CoDel queue so no dataplane state is shared across workers.
func NewWorker(id uint16, fib *table.Fib, pcct *table.Pcct, pit *table.Pit, cs *table.Cs, timers *timer.MinSched, faces *FaceTable, cfg *core.Config) *Worker {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = core.DefaultConfig().QueueCapacity
	}
	return &Worker{
		id: id, fib: fib, pcct: pcct, pit: pit, cs: cs, timers: timers, faces: faces, cfg: cfg,
		reassembler: iface.NewReassembler(iface.MinReassemblerCapacity),
		rxQueue:     queue.NewTuned[rxItem](capacity, queue.PopCoDel, cfg.CoDelTarget, cfg.CoDelInterval),
		strategies: map[string]strategy.Strategy{
			strategy.RoundRobin{}.Name():         strategy.RoundRobin{},
			strategy.WeightedRoundRobin{}.Name(): strategy.WeightedRoundRobin{},
			strategy.Multicast{}.Name():          strategy.Multicast{},
		},
		defaultStrategy: strategy.Multicast{},
	}
}

// RegisterStrategy adds or replaces a named strategy available to FIB
// entries whose Strategy field names it.
func (w *Worker) RegisterStrategy(s strategy.Strategy) {
	w.strategies[s.Name()] = s
}

func (w *Worker) resolveStrategy(name string) strategy.Strategy {
	if s, ok := w.strategies[name]; ok {
		return s
	}
	return w.defaultStrategy
}

// send serializes pkt to wire bytes and hands it to face's TX burst
// path. A nil face or packet is a no-op (e.g. the ingress face went
// down between RX and TX).
func (w *Worker) send(face *iface.Face, pkt *ndni.Packet) {
	if face == nil || pkt == nil {
		return
	}
	wire := ndni.Serialize(pkt)
	face.TxBurst([]iface.OutgoingPacket{{Wire: wire, RxTime: pkt.RxTime}})
}

// lookupFib performs the FIB lookup for interest, trying its
// ForwardingHints in order when present (the Interest's own Name is
// not also tried in that case), filtering out the ingress face from
// each candidate's nexthop set. It returns the first FibEntry with a
// non-empty filtered nexthop set, or nil if none matched.
func (w *Worker) lookupFib(interest *ndni.Interest, ingress ndni.FaceID) (*table.FibEntry, []ndni.FaceID) {
	excluded := []ndni.FaceID{ingress}

	if len(interest.ForwardingHints) == 0 {
		interest.ActiveFH = -1
		entry := w.fib.Lookup(interest.Name)
		if entry == nil {
			return nil, nil
		}
		nh := table.FilterNexthops(entry, excluded)
		if len(nh) == 0 {
			return nil, nil
		}
		return entry, nh
	}

	for i := range interest.ForwardingHints {
		interest.ActiveFH = i
		entry := w.fib.Lookup(interest.ActiveName())
		if entry == nil {
			continue
		}
		nh := table.FilterNexthops(entry, excluded)
		if len(nh) == 0 {
			continue
		}
		return entry, nh
	}
	return nil, nil
}
