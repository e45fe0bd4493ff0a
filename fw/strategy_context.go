package fw

import (
	"time"

	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
)

// strategyContext is the Worker's implementation of strategy.Context
// for one dispatch. It is constructed fresh per event and never
// retained past the call to Strategy.Handle.
type strategyContext struct {
	worker   *Worker
	pkt      *ndni.Packet
	fibEntry *table.FibEntry
	pitEntry *table.PitEntry
	pccEntry *table.PccEntry
	nexthops []ndni.FaceID
	now      time.Time
	slot     table.PitSlot
}

func (c *strategyContext) Nexthops() []ndni.FaceID { return c.nexthops }

func (c *strategyContext) Scratch() *[8]byte {
	return &c.fibEntry.Dyn[c.worker.id].Scratch
}

func (c *strategyContext) ForwardInterest(nh ndni.FaceID) uint64 {
	if c.pitEntry == nil || c.pccEntry == nil || c.pkt == nil || c.pkt.Type != ndni.PktTypeInterest {
		return strategy.StatusNoNexthop
	}
	face := c.worker.faces.Get(nh)
	if face == nil || !face.IsUp() {
		return strategy.StatusNoNexthop
	}
	if table.UpTxInterest(c.pitEntry, nh, c.pkt.Interest.Nonce, c.now) < 0 {
		return strategy.StatusNoNexthop
	}

	out := ndni.Clone(c.pkt, false)
	ndni.SetPitToken(out, table.MakeToken(c.worker.id, c.pccEntry.Token))
	out.RxTime = c.now
	c.worker.send(face, out)
	c.fibEntry.Dyn[c.worker.id].NTxInterests++
	return strategy.StatusOK
}

func (c *strategyContext) SetTimer(after time.Duration) {
	if c.pitEntry == nil || c.pccEntry == nil {
		return
	}
	c.worker.timers.After(&c.pitEntry.Timer, after, timerCtx{entry: c.pccEntry, slot: c.slot})
	c.pitEntry.TimerExpiry = c.now.Add(after)
}

// GetWeight reports nh's configured routing weight, defaulting to 1
// for a face absent from the FIB entry's weight map (or an entry with
// no weights configured at all).
func (c *strategyContext) GetWeight(nh ndni.FaceID) int {
	if c.fibEntry == nil || c.fibEntry.Weights == nil {
		return 1
	}
	if w, ok := c.fibEntry.Weights[nh]; ok && w > 0 {
		return w
	}
	return 1
}

func (c *strategyContext) SendNack(reason ndni.NackReason) {
	if c.pkt == nil || c.pkt.Type != ndni.PktTypeInterest {
		return
	}
	dnFace := c.worker.faces.Get(c.pkt.IngressFace)
	c.worker.send(dnFace, ndni.MakeNack(c.pkt, reason))
}

func (c *strategyContext) CurrentNonce() uint32 {
	if c.pkt != nil && c.pkt.Type == ndni.PktTypeInterest {
		return c.pkt.Interest.Nonce
	}
	return 0
}

func (c *strategyContext) OutRecords() []strategy.OutRecord {
	if c.pitEntry == nil {
		return nil
	}
	var out []strategy.OutRecord
	for _, i := range table.LiveUpRecords(c.pitEntry) {
		out = append(out, strategy.OutRecord{
			Face: c.pitEntry.Up[i].Face, Nonce: c.pitEntry.Up[i].Nonce, LastSent: c.pitEntry.Up[i].LastTx,
		})
	}
	return out
}

func (c *strategyContext) Now() time.Time { return c.now }

var _ strategy.Context = (*strategyContext)(nil)
