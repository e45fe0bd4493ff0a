package ndni

import (
	"time"

	enc "github.com/ndnfwd/fwd/std/encoding"
)

// LpFrame is one NDNLPv2 frame: link-layer metadata plus an L3
// fragment. When FragCount <= 1 the fragment is a complete L3 TLV and
// can be handed directly to ParseL3; otherwise it must first pass
// through the iface.Reassembler (spec 4.B).
type LpFrame struct {
	Face       FaceID
	Lp         LpHeader
	Fragment   enc.Wire
	IsNack     bool
	NackReason NackReason
}

// iterateTLV walks sibling TLVs inside a value of the given length,
// calling fn with each child's type and raw value wire. It is the
// iterator abstraction spec 4.A calls for: advance, peek, read-varnum,
// realized directly on top of the kept encoding.WireView.
func iterateTLV(r *enc.WireView, totalLen int, fn func(typ enc.TLNum, val enc.Wire) error) error {
	end := r.Pos() + totalLen
	for r.Pos() < end {
		typ, err := r.ReadTLNum()
		if err != nil {
			return ParseError{ParseIncomplete, "reading child TLV-TYPE"}
		}
		l, err := r.ReadTLNum()
		if err != nil {
			return ParseError{ParseIncomplete, "reading child TLV-LENGTH"}
		}
		if r.Pos()+int(l) > end {
			return ParseError{ParseLengthOverflow, "child TLV-LENGTH overflows parent"}
		}
		val := r.Range(r.Pos(), r.Pos()+int(l))
		if err := r.Skip(int(l)); err != nil {
			return ParseError{ParseIncomplete, "skipping child TLV-VALUE"}
		}
		if err := fn(typ, val); err != nil {
			return err
		}
	}
	return nil
}

func natFromWire(val enc.Wire) (uint64, error) {
	buf := val.Join()
	if len(buf) == 0 {
		return 0, nil
	}
	n, _, err := enc.ParseNat(buf)
	if err != nil {
		return 0, ParseError{ParseBadType, "not a valid Nat"}
	}
	return uint64(n), nil
}

func parseName(val enc.Wire) (enc.Name, error) {
	r := enc.NewWireView(val)
	name := make(enc.Name, 0, 8)
	for !r.IsEOF() {
		c, err := r.ReadComponent()
		if err != nil {
			return nil, ParseError{ParseIncomplete, "reading name component"}
		}
		name = append(name, c)
	}
	return name, nil
}

// ParseFrame decodes one NDNLPv2 frame, or synthesizes a single
//-fragment frame when wire is a bare L3 packet (no LpPacket wrapper).
func ParseFrame(wire enc.Wire) (*LpFrame, error) {
	r := enc.NewWireView(wire)
	typ, err := r.ReadTLNum()
	if err != nil {
		return nil, ParseError{ParseIncomplete, "reading outer TLV-TYPE"}
	}
	if typ != tlvLpPacket {
		return &LpFrame{Lp: LpHeader{FragCount: 1}, Fragment: wire}, nil
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return nil, ParseError{ParseIncomplete, "reading LpPacket TLV-LENGTH"}
	}
	frame := &LpFrame{}
	err = iterateTLV(&r, int(l), func(t enc.TLNum, val enc.Wire) error {
		switch t {
		case tlvSequence:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			frame.Lp.SeqNumBase = n
			frame.Lp.HasFrag = true
		case tlvFragIndex:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			frame.Lp.FragIndex = uint16(n)
			frame.Lp.HasFrag = true
		case tlvFragCount:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			frame.Lp.FragCount = uint16(n)
			frame.Lp.HasFrag = true
		case tlvPitToken:
			frame.Lp.PitToken = val.Join()
		case tlvCongestionMark:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			frame.Lp.CongMark = uint8(n)
			frame.Lp.HasCongMark = true
		case tlvNack:
			frame.IsNack = true
			rr := enc.NewWireView(val)
			nt, nerr := rr.ReadTLNum()
			if nerr == nil && nt == tlvNackReason {
				nl, _ := rr.ReadTLNum()
				nv, _ := rr.ReadBuf(int(nl))
				n, _, _ := enc.ParseNat(nv)
				frame.NackReason = nackReasonFromWire(uint64(n))
			} else {
				frame.NackReason = NackUnspecified
			}
		case tlvFragment:
			frame.Fragment = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if frame.Lp.FragCount == 0 {
		frame.Lp.FragCount = 1
	}
	return frame, nil
}

// ParseL3 decodes a complete (unfragmented or already-reassembled) L3
// fragment into a Packet, attaching the link-layer header and the
// ingress bookkeeping the forwarder core needs.
func ParseL3(frame *LpFrame, ingress FaceID, rxTime time.Time) (*Packet, error) {
	if frame.IsNack {
		interest, err := parseInterestWire(frame.Fragment)
		if err != nil {
			return nil, err
		}
		interest.Lp = frame.Lp
		return &Packet{
			Type:        PktTypeNack,
			Nack:        &Nack{Interest: *interest, Reason: frame.NackReason},
			IngressFace: ingress,
			RxTime:      rxTime,
			Wire:        frame.Fragment,
		}, nil
	}

	r := enc.NewWireView(frame.Fragment)
	typ, err := r.ReadTLNum()
	if err != nil {
		return nil, ParseError{ParseIncomplete, "reading L3 TLV-TYPE"}
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return nil, ParseError{ParseIncomplete, "reading L3 TLV-LENGTH"}
	}
	body := r.Range(r.Pos(), r.Pos()+int(l))

	switch typ {
	case tlvInterest:
		interest, err := decodeInterestBody(body)
		if err != nil {
			return nil, err
		}
		interest.Lp = frame.Lp
		return &Packet{Type: PktTypeInterest, Interest: interest, IngressFace: ingress, RxTime: rxTime, Wire: frame.Fragment}, nil
	case tlvData:
		data, err := decodeDataBody(body)
		if err != nil {
			return nil, err
		}
		data.Lp = frame.Lp
		return &Packet{Type: PktTypeData, Data: data, IngressFace: ingress, RxTime: rxTime, Wire: frame.Fragment}, nil
	default:
		return nil, ParseError{ParseBadType, "unrecognized L3 TLV-TYPE"}
	}
}

func parseInterestWire(wire enc.Wire) (*Interest, error) {
	r := enc.NewWireView(wire)
	typ, err := r.ReadTLNum()
	if err != nil || typ != tlvInterest {
		return nil, ParseError{ParseBadType, "Nack payload is not an Interest"}
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return nil, ParseError{ParseIncomplete, "reading Interest TLV-LENGTH"}
	}
	return decodeInterestBody(r.Range(r.Pos(), r.Pos()+int(l)))
}

func decodeInterestBody(body enc.Wire) (*Interest, error) {
	r := enc.NewWireView(body)
	interest := &Interest{ActiveFH: -1}
	err := iterateTLV(&r, int(body.Length()), func(t enc.TLNum, val enc.Wire) error {
		switch t {
		case tlvName:
			n, err := parseName(val)
			if err != nil {
				return err
			}
			interest.Name = n
		case tlvCanBePrefix:
			interest.CanBePrefix = true
		case tlvMustBeFresh:
			interest.MustBeFresh = true
		case tlvNonce:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			interest.Nonce = uint32(n)
			interest.HasNonce = true
		case tlvInterestLifetime:
			n, err := natFromWire(val)
			if err != nil {
				return err
			}
			interest.Lifetime = time.Duration(n) * time.Millisecond
		case tlvForwardingHint:
			rr := enc.NewWireView(val)
			return iterateTLV(&rr, int(val.Length()), func(_ enc.TLNum, nameVal enc.Wire) error {
				n, err := parseName(nameVal)
				if err != nil {
					return err
				}
				interest.ForwardingHints = append(interest.ForwardingHints, ForwardingHint{Name: n})
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if interest.Name == nil {
		return nil, ParseError{ParseIncomplete, "Interest missing Name"}
	}
	return interest, nil
}

func decodeDataBody(body enc.Wire) (*Data, error) {
	r := enc.NewWireView(body)
	data := &Data{}
	err := iterateTLV(&r, int(body.Length()), func(t enc.TLNum, val enc.Wire) error {
		switch t {
		case tlvName:
			n, err := parseName(val)
			if err != nil {
				return err
			}
			data.Name = n
		case tlvMetaInfo:
			rr := enc.NewWireView(val)
			return iterateTLV(&rr, int(val.Length()), func(mt enc.TLNum, mval enc.Wire) error {
				if mt == tlvFreshnessPeriod {
					n, err := natFromWire(mval)
					if err != nil {
						return err
					}
					data.FreshnessPeriod = time.Duration(n) * time.Millisecond
				}
				return nil
			})
		case tlvContent:
			data.Content = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data.Name == nil {
		return nil, ParseError{ParseIncomplete, "Data missing Name"}
	}
	return data, nil
}

// GetType returns the L3 packet kind without further decoding,
// matching spec 4.A's getType.
func GetType(p *Packet) PktType {
	return p.Type
}

// SetPitToken overwrites the link-layer PIT token on p, used when
// re-transmitting a cloned Interest with a freshly minted token, or
// restoring a stored per-downstream token before satisfying a CS hit.
func SetPitToken(p *Packet, token []byte) {
	if lp := p.Lp(); lp != nil {
		lp.PitToken = token
	}
}

// Clone deep-copies p so the forwarder can hand distinct instances to
// multiple downstream faces while keeping the original (e.g. the
// stored CS entry, or the canonical PIT template) untouched.
//
// linearize mirrors spec 4.A's two clone modes; in a Go forwarder
// without an mbuf pool, "chained" reuses the original's underlying
// wire buffers (cheap, shares memory), while "linearize" gives the
// clone its own copy of the name and joins the wire into one segment
// (copied when the original has several segments). In both modes a
// Data clone shares the original's Content.
func Clone(p *Packet, linearize bool) *Packet {
	out := &Packet{
		Type:        p.Type,
		IngressFace: p.IngressFace,
		RxTime:      p.RxTime,
	}
	switch p.Type {
	case PktTypeInterest:
		i := *p.Interest
		i.Name = cloneName(p.Interest.Name, linearize)
		i.ForwardingHints = append([]ForwardingHint(nil), p.Interest.ForwardingHints...)
		i.Lp = cloneLp(p.Interest.Lp)
		out.Interest = &i
	case PktTypeData:
		d := *p.Data
		d.Name = cloneName(p.Data.Name, linearize)
		d.Lp = cloneLp(p.Data.Lp)
		out.Data = &d
	case PktTypeNack:
		n := *p.Nack
		n.Interest.Name = cloneName(p.Nack.Interest.Name, linearize)
		n.Interest.Lp = cloneLp(p.Nack.Interest.Lp)
		out.Nack = &n
	}
	if linearize {
		out.Wire = enc.Wire{p.Wire.Join()}
	} else {
		out.Wire = p.Wire
	}
	return out
}

func cloneName(n enc.Name, linearize bool) enc.Name {
	if linearize {
		return n.Clone()
	}
	return n
}

func cloneLp(lp LpHeader) LpHeader {
	out := lp
	out.PitToken = append([]byte(nil), lp.PitToken...)
	return out
}

// MakeNack turns the given Interest packet into a Nack with reason,
// to be sent back toward the ingress face. The original Interest
// packet is consumed (ownership transfers to the returned Nack).
func MakeNack(p *Packet, reason NackReason) *Packet {
	if p.Type != PktTypeInterest {
		return nil
	}
	return &Packet{
		Type:        PktTypeNack,
		Nack:        &Nack{Interest: *p.Interest, Reason: reason},
		IngressFace: p.IngressFace,
		RxTime:      p.RxTime,
	}
}
