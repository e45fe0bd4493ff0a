package ndni

import enc "github.com/ndnfwd/fwd/std/encoding"

// NDN packet format v0.3 TLV-TYPE numbers the codec needs to touch.
const (
	tlvName             enc.TLNum = 7
	tlvInterest         enc.TLNum = 5
	tlvCanBePrefix      enc.TLNum = 33
	tlvMustBeFresh      enc.TLNum = 18
	tlvForwardingHint   enc.TLNum = 30
	tlvNonce            enc.TLNum = 10
	tlvInterestLifetime enc.TLNum = 12

	tlvData            enc.TLNum = 6
	tlvMetaInfo        enc.TLNum = 20
	tlvFreshnessPeriod enc.TLNum = 25
	tlvContent         enc.TLNum = 21
)

// NDNLPv2 TLV-TYPE numbers.
const (
	tlvLpPacket       enc.TLNum = 100
	tlvFragment       enc.TLNum = 80
	tlvSequence       enc.TLNum = 81
	tlvFragIndex      enc.TLNum = 82
	tlvFragCount      enc.TLNum = 83
	tlvPitToken       enc.TLNum = 98
	tlvNack           enc.TLNum = 800
	tlvNackReason     enc.TLNum = 801
	tlvCongestionMark enc.TLNum = 103
)

// wireNackReason maps the forwarder's NackReason to the LP wire value
// and back. Unknown wire values map to NackUnspecified.
var wireNackReason = map[NackReason]uint64{
	NackCongestion: 50,
	NackDuplicate:  100,
	NackNoRoute:    150,
	NackUnspecified: 0,
}

func nackReasonFromWire(v uint64) NackReason {
	switch v {
	case 50:
		return NackCongestion
	case 100:
		return NackDuplicate
	case 150:
		return NackNoRoute
	default:
		return NackUnspecified
	}
}
