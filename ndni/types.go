// Package ndni holds the forwarder's parsed packet representations:
// Interest, Data, Nack, and the NDNLPv2 link-layer header that carries
// PIT tokens and congestion marks between faces and the forwarding core.
package ndni

import (
	"time"

	enc "github.com/ndnfwd/fwd/std/encoding"
)

// PktType identifies the L3 payload carried by a Packet.
type PktType uint8

const (
	PktTypeNone PktType = iota
	PktTypeInterest
	PktTypeData
	PktTypeNack
)

// NackReason enumerates the reasons a Nack may carry.
type NackReason uint8

const (
	NackNone NackReason = iota
	NackCongestion
	NackDuplicate
	NackNoRoute
	NackUnspecified
)

// FaceID identifies a face. 0 is never a valid assigned face.
type FaceID uint64

// ImplicitDigestLength is the length in octets of a sha256 implicit digest.
const ImplicitDigestLength = 32

// FwTokenLength is the fixed length, in octets, of the PIT token this
// forwarder mints and expects peers to echo back on Data/Nack.
const FwTokenLength = 8

// LpHeader carries NDNLPv2 link-layer metadata associated with one L3
// packet. PitToken is the opaque token a peer must echo; CongMark is
// the ECN-style congestion mark propagated end to end.
type LpHeader struct {
	PitToken   []byte
	CongMark   uint8
	HasCongMark bool

	FragIndex uint16
	FragCount uint16
	SeqNumBase uint64
	HasFrag   bool
}

// ForwardingHint is a single name in an Interest's ForwardingHint list.
type ForwardingHint struct {
	Name enc.Name
}

// Interest is the forwarder's parsed representation of an Interest.
type Interest struct {
	Name            enc.Name
	Nonce           uint32
	HasNonce        bool
	Lifetime        time.Duration
	CanBePrefix     bool
	MustBeFresh     bool
	ForwardingHints []ForwardingHint
	// ActiveFH is the index into ForwardingHints currently being tried
	// by the forwarder; -1 means the Interest's own Name is in use.
	ActiveFH int

	Lp LpHeader
}

// ActiveName returns the Name currently being used for FIB lookup: the
// Interest's own Name, or the active ForwardingHint's Name.
func (i *Interest) ActiveName() enc.Name {
	if i.ActiveFH >= 0 && i.ActiveFH < len(i.ForwardingHints) {
		return i.ForwardingHints[i.ActiveFH].Name
	}
	return i.Name
}

// Data is the forwarder's parsed representation of a Data packet.
type Data struct {
	Name             enc.Name
	FreshnessPeriod  time.Duration
	HasDigest        bool
	Digest           [ImplicitDigestLength]byte
	Content          enc.Wire

	Lp LpHeader
}

// IsFresh reports whether the Data is still fresh at time now, given
// it was received at recvTime.
func (d *Data) IsFresh(recvTime, now time.Time) bool {
	if d.FreshnessPeriod <= 0 {
		return false
	}
	return now.Before(recvTime.Add(d.FreshnessPeriod))
}

// Nack wraps the Interest that was rejected, with a reason.
type Nack struct {
	Interest Interest
	Reason   NackReason
}

// Packet is a tagged union over the three L3 packet kinds, plus the
// shared link-layer and bookkeeping fields the forwarder needs at
// every stage (ingress face, arrival time).
type Packet struct {
	Type PktType

	Interest *Interest
	Data     *Data
	Nack     *Nack

	IngressFace FaceID
	RxTime      time.Time

	// Wire is the original encoded bytes/segments, retained so the
	// packet can be cloned by re-framing rather than re-encoding.
	Wire enc.Wire
}

// Lp returns the packet's link-layer header, regardless of L3 kind.
func (p *Packet) Lp() *LpHeader {
	switch p.Type {
	case PktTypeInterest:
		return &p.Interest.Lp
	case PktTypeData:
		return &p.Data.Lp
	case PktTypeNack:
		return &p.Nack.Interest.Lp
	default:
		return nil
	}
}

// Name returns the packet's L3 name, regardless of kind.
func (p *Packet) Name() enc.Name {
	switch p.Type {
	case PktTypeInterest:
		return p.Interest.Name
	case PktTypeData:
		return p.Data.Name
	case PktTypeNack:
		return p.Nack.Interest.Name
	default:
		return nil
	}
}
