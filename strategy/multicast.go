package strategy

import "time"

// MulticastSuppressionTime is how long a retransmission with a
// different nonce than the last outstanding upstream record is
// suppressed, to avoid flooding nexthops on every client retry.
const MulticastSuppressionTime = 500 * time.Millisecond

// Multicast forwards every Interest to all of a FIB entry's nexthops,
// suppressing one whose nonce differs from an upstream record sent
// within the last MulticastSuppressionTime. An Interest carrying the
// same nonce as that record is forwarded again.
type Multicast struct{}

func (Multicast) Name() string { return "multicast" }

func (Multicast) Handle(kind EventKind, ctx Context) uint64 {
	if kind != EventRxInterest {
		return StatusUnhandled
	}

	nexthops := ctx.Nexthops()
	if len(nexthops) == 0 {
		return StatusNoNexthop
	}

	now := ctx.Now()
	nonce := ctx.CurrentNonce()
	for _, out := range ctx.OutRecords() {
		if out.Nonce != nonce && out.LastSent.Add(MulticastSuppressionTime).After(now) {
			return StatusOK
		}
	}

	status := StatusOK
	for _, nh := range nexthops {
		if s := ctx.ForwardInterest(nh); s != StatusOK {
			status = s
		}
	}
	return status
}
