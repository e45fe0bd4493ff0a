package fw

import (
	"github.com/ndnfwd/fwd/iface"
	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
)

// RxInterest processes one received Interest: FIB lookup (falling
// back to No-Route Nack on a miss), then PCCT insert-or-find, which
// dispatches to a CS hit, a PIT miss (forwarded per the entry's
// strategy), or Congestion Nack on PIT-pool exhaustion.
func (w *Worker) RxInterest(pkt *ndni.Packet) {
	interest := pkt.Interest
	ingress := pkt.IngressFace
	dnFace := w.faces.Get(ingress)
	if dnFace == nil {
		return
	}

	fibEntry, nexthops := w.lookupFib(interest, ingress)
	if fibEntry == nil {
		w.send(dnFace, ndni.MakeNack(pkt, ndni.NackNoRoute))
		return
	}

	res := w.pit.Insert(interest, func(cs *table.CsEntry) bool {
		return cs.Satisfies(interest, pkt.RxTime)
	})

	switch res.Kind {
	case table.PitHitCs:
		w.interestHitCs(pkt, dnFace, res.Entry)
	case table.PitHitPit0:
		w.interestMissCs(pkt, fibEntry, res.Entry, table.Pit0, nexthops)
	case table.PitHitPit1:
		w.interestMissCs(pkt, fibEntry, res.Entry, table.Pit1, nexthops)
	case table.PitFull:
		w.send(dnFace, ndni.MakeNack(pkt, ndni.NackCongestion))
	}
}

func (w *Worker) interestHitCs(pkt *ndni.Packet, dnFace *iface.Face, entry *table.PccEntry) {
	dnToken := pkt.Interest.Lp.PitToken
	out := ndni.Clone(&ndni.Packet{Type: ndni.PktTypeData, Data: entry.Cs.Data}, false)
	ndni.SetPitToken(out, dnToken)
	out.RxTime = pkt.RxTime
	w.send(dnFace, out)
}

func (w *Worker) interestMissCs(pkt *ndni.Packet, fibEntry *table.FibEntry, owner *table.PccEntry, slot table.PitSlot, nexthops []ndni.FaceID) {
	pitEntry := owner.PitSlot(slot)
	rxTime := pkt.RxTime
	interest := pkt.Interest

	lifetime := interest.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultInterestLifetime
	}

	dnIdx := table.DnRxInterest(pitEntry, pkt.IngressFace, interest.Nonce, rxTime, lifetime, interest.Lp.CongMark, interest.Lp.PitToken, rxTime)
	if dnIdx < 0 {
		return
	}
	// Rearm only to extend the PIT slot's timer horizon. Arming it to
	// this Interest's own rxTime+lifetime unconditionally would shrink
	// the horizon whenever a shorter-lived Interest for the same name
	// arrives after a longer-lived one, firing the timer while that
	// earlier downstream record is still live and erasing it early.
	newExpiry := rxTime.Add(lifetime)
	if pitEntry.TimerExpiry.IsZero() || newExpiry.After(pitEntry.TimerExpiry) {
		w.timers.After(&pitEntry.Timer, lifetime, timerCtx{entry: owner, slot: slot})
		pitEntry.TimerExpiry = newExpiry
	}

	dyn := &fibEntry.Dyn[w.id]
	dyn.NRxInterests++

	sctx := &strategyContext{
		worker: w, pkt: pkt, fibEntry: fibEntry, pitEntry: pitEntry, pccEntry: owner,
		nexthops: nexthops, now: rxTime, slot: slot,
	}
	w.resolveStrategy(fibEntry.Strategy).Handle(strategy.EventRxInterest, sctx)
}
