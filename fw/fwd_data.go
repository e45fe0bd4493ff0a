package fw

import (
	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
)

// RxData processes one received Data: validates the peer-echoed
// forwarder token, recovers the owning PccEntry, satisfies every live
// downstream recorded on each matched PIT slot, then inserts the Data
// into the CS and frees the PIT slot(s).
//
// Duplicate-nonce detection on the Interest side (§9) is intentionally
// not implemented, matching the original's own unresolved TODO.
func (w *Worker) RxData(pkt *ndni.Packet) {
	data := pkt.Data
	token := data.Lp.PitToken
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

	var seenDownstream map[ndni.FaceID]struct{}
	if w.cfg == nil || w.cfg.DedupDataPerDownstream {
		seenDownstream = make(map[ndni.FaceID]struct{})
	}

	var fibEntry *table.FibEntry
	matched := false
	for _, slot := range [2]table.PitSlot{table.Pit0, table.Pit1} {
		pitEntry := entry.PitSlot(slot)
		if pitEntry == nil {
			continue
		}
		matched = true
		if fibEntry == nil {
			fibEntry = w.fib.Lookup(pitEntry.Interest.ActiveName())
		}
		w.dataSatisfy(pkt, pitEntry, seenDownstream)
		w.timers.Cancel(&pitEntry.Timer)
		w.cs.Insert(entry, slot, data, pkt.RxTime)
	}
	if !matched {
		return
	}

	if fibEntry != nil {
		fibEntry.Dyn[w.id].NRxData++
		sctx := &strategyContext{worker: w, pkt: pkt, fibEntry: fibEntry, now: pkt.RxTime}
		w.resolveStrategy(fibEntry.Strategy).Handle(strategy.EventRxData, sctx)
	}
}

// dataSatisfy transmits data to every live, unexpired downstream
// recorded on pitEntry. seen, if non-nil, is populated with every
// face served so a sibling PIT slot on the same PccEntry does not
// serve the same downstream twice (DESIGN.md's dedup decision).
func (w *Worker) dataSatisfy(pkt *ndni.Packet, pitEntry *table.PitEntry, seen map[ndni.FaceID]struct{}) {
	now := pkt.RxTime
	upCongMark := pkt.Data.Lp.CongMark

	for _, i := range table.LiveDnRecords(pitEntry, now) {
		dn := &pitEntry.Dn[i]
		if seen != nil {
			if _, dup := seen[dn.Face]; dup {
				continue
			}
			seen[dn.Face] = struct{}{}
		}

		face := w.faces.Get(dn.Face)
		if face == nil || !face.IsUp() {
			continue
		}

		out := ndni.Clone(pkt, false)
		ndni.SetPitToken(out, dn.PitToken)
		if lp := out.Lp(); lp != nil {
			lp.CongMark = maxCongMark(dn.CongMark, upCongMark)
			lp.HasCongMark = true
		}
		out.RxTime = now
		w.send(face, out)
	}
}

func maxCongMark(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}
