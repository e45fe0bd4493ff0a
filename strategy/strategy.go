// Package strategy defines the forwarder's pluggable per-FIB-entry
// strategy ABI (spec 4.G strategy hook, 4.I) and the reference
// strategies RoundRobin, WeightedRoundRobin and Multicast.
package strategy

import (
	"time"

	"github.com/ndnfwd/fwd/ndni"
)

// EventKind tags what triggered a strategy invocation.
type EventKind int

const (
	EventRxInterest EventKind = iota
	EventRxData
	EventRxNack
	EventTimerExpiry
)

// Status codes returned by a strategy. 0 is success; anything else is
// an implementation-defined error code surfaced in traces.
const (
	StatusOK uint64 = 0
	// StatusNoNexthop is returned when the FIB entry has no nexthop
	// to forward to (and by WeightedRoundRobin when every nexthop it
	// tried failed).
	StatusNoNexthop uint64 = 9100
	// StatusUnhandled is returned for an event kind a strategy does
	// not act on.
	StatusUnhandled uint64 = 9000
)

// Context is the forwarder-provided handle a strategy uses to inspect
// the current dispatch and take action. The forwarder core implements
// this; strategies never construct one themselves.
type Context interface {
	// Nexthops returns the FIB entry's nexthop set, already filtered
	// to exclude the ingress face, in registration order.
	Nexthops() []ndni.FaceID

	// Scratch returns the per-(FIB entry, worker) strategy scratch
	// block, mutable in place.
	Scratch() *[8]byte

	// ForwardInterest transmits the current Interest toward nh,
	// minting a fresh upstream record and forwarder token. It returns
	// StatusOK on success.
	ForwardInterest(nh ndni.FaceID) uint64

	// SetTimer arms a one-shot TIMER_EXPIRY callback on the current
	// FIB entry/PIT entry pair after the given delay.
	SetTimer(after time.Duration)

	// GetWeight returns the configured routing weight for nh, used by
	// weighted variants to rank nexthops; strategies that ignore
	// weight may call this purely for tie-breaking.
	GetWeight(nh ndni.FaceID) int

	// SendNack sends a Nack with the given reason to the ingress face
	// of the current Interest.
	SendNack(reason ndni.NackReason)

	// CurrentNonce is the Nonce of the Interest currently being
	// processed (valid only during an RX_INTEREST event).
	CurrentNonce() uint32

	// OutRecords reports, for the current PIT entry, each live
	// upstream record's face, last-forwarded nonce, and last send
	// time, used by Multicast's suppression check.
	OutRecords() []OutRecord

	// Now is the time the current event is being processed at.
	Now() time.Time
}

// OutRecord is the subset of an upstream PIT record a strategy needs
// to decide retransmission/suppression.
type OutRecord struct {
	Face      ndni.FaceID
	Nonce     uint32
	LastSent  time.Time
}

// Strategy is the tagged-event ABI every forwarding strategy
// implements. Handle is called synchronously on the worker goroutine
// that owns the FIB/PIT entry; it must not block.
type Strategy interface {
	Name() string
	Handle(kind EventKind, ctx Context) uint64
}
