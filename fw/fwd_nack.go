package fw

import (
	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
)

// RxNack processes one received Nack: locates the owning PccEntry via
// its echoed forwarder token, marks the upstream record matching the
// ingress face as nacked, and — once every live upstream on that PIT
// slot has been nacked — invokes the entry's strategy with
// RX_NACK; if the strategy leaves the event unhandled (as all three
// supplied strategies do), the Nack is propagated to every live
// downstream.
func (w *Worker) RxNack(pkt *ndni.Packet) {
	nack := pkt.Nack
	token := nack.Interest.Lp.PitToken
	if len(token) != ndni.FwTokenLength {
		return
	}
	workerID, pccToken, ok := table.ParseToken(token)
	if !ok || workerID != w.id {
		return
	}
	entry := w.pit.FindByToken(pccToken)
	if entry == nil {
		return
	}

	for _, slot := range [2]table.PitSlot{table.Pit0, table.Pit1} {
		pitEntry := entry.PitSlot(slot)
		if pitEntry == nil {
			continue
		}
		markNacked(pitEntry, pkt.IngressFace, nack.Reason)
		if !allUpNacked(pitEntry) {
			continue
		}

		fibEntry := w.fib.Lookup(pitEntry.Interest.ActiveName())
		status := strategy.StatusUnhandled
		if fibEntry != nil {
			sctx := &strategyContext{
				worker: w, pkt: pkt, fibEntry: fibEntry, pitEntry: pitEntry, pccEntry: entry,
				now: pkt.RxTime, slot: slot,
			}
			status = w.resolveStrategy(fibEntry.Strategy).Handle(strategy.EventRxNack, sctx)
		}
		if status == strategy.StatusUnhandled {
			w.propagateNack(pkt, pitEntry)
		}
	}
}

func markNacked(pitEntry *table.PitEntry, face ndni.FaceID, reason ndni.NackReason) {
	for _, i := range table.LiveUpRecords(pitEntry) {
		if pitEntry.Up[i].Face == face {
			pitEntry.Up[i].HasNack = true
			pitEntry.Up[i].NackReason = reason
		}
	}
}

func allUpNacked(pitEntry *table.PitEntry) bool {
	live := table.LiveUpRecords(pitEntry)
	if len(live) == 0 {
		return false
	}
	for _, i := range live {
		if !pitEntry.Up[i].HasNack {
			return false
		}
	}
	return true
}

func (w *Worker) propagateNack(pkt *ndni.Packet, pitEntry *table.PitEntry) {
	now := pkt.RxTime
	for _, i := range table.LiveDnRecords(pitEntry, now) {
		dn := &pitEntry.Dn[i]
		face := w.faces.Get(dn.Face)
		if face == nil || !face.IsUp() {
			continue
		}
		out := ndni.Clone(pkt, false)
		ndni.SetPitToken(out, dn.PitToken)
		out.RxTime = now
		w.send(face, out)
	}
}
