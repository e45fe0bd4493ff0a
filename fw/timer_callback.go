package fw

import (
	"time"

	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/strategy"
	"github.com/ndnfwd/fwd/table"
)

// timerCtx is the context carried through a Worker's hashed-wheel
// timer to its fired-timer callback: the PccEntry and PIT slot whose
// Interest lifetime just elapsed (or was rearmed by a strategy's
// SetTimer).
type timerCtx struct {
	entry *table.PccEntry
	slot  table.PitSlot
}

// onTimerExpiry is registered as the Worker's MinSched callback. A PIT
// slot with no live downstream record left is released outright; one
// that still has a live downstream is handed to its strategy as
// EventTimerExpiry, so a retry-capable strategy can rearm the timer
// instead of losing the pending request. All three supplied strategies
// leave this event unhandled, so their slots are released the same
// way as an empty one.
func (w *Worker) onTimerExpiry(ctxVal any) {
	tc, ok := ctxVal.(timerCtx)
	if !ok {
		return
	}
	pitEntry := tc.entry.PitSlot(tc.slot)
	if pitEntry == nil {
		return
	}
	// The wheel already marked pitEntry.Timer idle before invoking this
	// callback; clear the horizon it was tracking so a later Interest's
	// DnRxInterest rearm isn't blocked by a stale, no-longer-armed value.
	pitEntry.TimerExpiry = time.Time{}

	now := time.Now()
	table.ClearExpired(pitEntry, now)
	if len(table.LiveDnRecords(pitEntry, now)) == 0 {
		w.pit.Erase(tc.entry, tc.slot)
		return
	}

	fibEntry := w.fib.Lookup(pitEntry.Interest.ActiveName())
	if fibEntry == nil {
		w.pit.Erase(tc.entry, tc.slot)
		return
	}

	sctx := &strategyContext{
		worker: w, pkt: &ndni.Packet{Type: ndni.PktTypeInterest, Interest: pitEntry.Interest},
		fibEntry: fibEntry, pitEntry: pitEntry, pccEntry: tc.entry,
		nexthops: table.FilterNexthops(fibEntry, nil), now: now, slot: tc.slot,
	}
	status := w.resolveStrategy(fibEntry.Strategy).Handle(strategy.EventTimerExpiry, sctx)
	if status == strategy.StatusUnhandled {
		w.pit.Erase(tc.entry, tc.slot)
	}
}
