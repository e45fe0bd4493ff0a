package ndni

import enc "github.com/ndnfwd/fwd/std/encoding"

type tlvField struct {
	typ enc.TLNum
	val []byte
}

func (f tlvField) encodingLength() int {
	return f.typ.EncodingLength() + enc.TLNum(len(f.val)).EncodingLength() + len(f.val)
}

func (f tlvField) encodeInto(buf enc.Buffer) int {
	p1 := f.typ.EncodeInto(buf)
	p2 := enc.TLNum(len(f.val)).EncodeInto(buf[p1:])
	copy(buf[p1+p2:], f.val)
	return p1 + p2 + len(f.val)
}

func encodeTLV(typ enc.TLNum, fields []tlvField) []byte {
	total := 0
	for _, f := range fields {
		total += f.encodingLength()
	}
	header := typ.EncodingLength() + enc.TLNum(total).EncodingLength()
	buf := make([]byte, header+total)
	p := typ.EncodeInto(buf)
	p += enc.TLNum(total).EncodeInto(buf[p:])
	for _, f := range fields {
		p += f.encodeInto(buf[p:])
	}
	return buf
}

func natField(typ enc.TLNum, v uint64) tlvField {
	return tlvField{typ: typ, val: enc.Nat(v).Bytes()}
}

func flagField(typ enc.TLNum) tlvField {
	return tlvField{typ: typ, val: nil}
}

func nameField(n enc.Name) tlvField {
	return tlvField{typ: tlvName, val: n.Bytes()}
}

// EncodeInterest serializes an Interest into a bare L3 TLV (no
// NDNLPv2 wrapper); EncodeFrame adds the link-layer header.
func EncodeInterest(i *Interest) []byte {
	fields := []tlvField{nameField(i.Name)}
	if i.CanBePrefix {
		fields = append(fields, flagField(tlvCanBePrefix))
	}
	if i.MustBeFresh {
		fields = append(fields, flagField(tlvMustBeFresh))
	}
	if len(i.ForwardingHints) > 0 {
		var inner []byte
		for _, fh := range i.ForwardingHints {
			f := nameField(fh.Name)
			b := make([]byte, f.encodingLength())
			f.encodeInto(b)
			inner = append(inner, b...)
		}
		fields = append(fields, tlvField{typ: tlvForwardingHint, val: inner})
	}
	if i.HasNonce {
		fields = append(fields, natField(tlvNonce, uint64(i.Nonce)))
	}
	if i.Lifetime > 0 {
		fields = append(fields, natField(tlvInterestLifetime, uint64(i.Lifetime.Milliseconds())))
	}
	return encodeTLV(tlvInterest, fields)
}

// EncodeData serializes a Data packet into a bare L3 TLV.
func EncodeData(d *Data) []byte {
	metaFields := []tlvField{}
	if d.FreshnessPeriod > 0 {
		metaFields = append(metaFields, natField(tlvFreshnessPeriod, uint64(d.FreshnessPeriod.Milliseconds())))
	}
	metaLen := 0
	for _, f := range metaFields {
		metaLen += f.encodingLength()
	}
	metaBuf := make([]byte, metaLen)
	p := 0
	for _, f := range metaFields {
		p += f.encodeInto(metaBuf[p:])
	}

	fields := []tlvField{nameField(d.Name)}
	if len(metaFields) > 0 {
		fields = append(fields, tlvField{typ: tlvMetaInfo, val: metaBuf})
	}
	if d.Content != nil {
		fields = append(fields, tlvField{typ: tlvContent, val: d.Content.Join()})
	}
	return encodeTLV(tlvData, fields)
}

// EncodeFrame wraps an already-encoded L3 payload in an NDNLPv2
// LpPacket carrying the given link-layer header. If lp is the zero
// value (no token, no congestion mark, unfragmented) the bare L3
// wire is returned unwrapped, since an LpPacket with nothing to say
// is pure overhead.
func EncodeFrame(l3 []byte, lp LpHeader) []byte {
	if len(lp.PitToken) == 0 && !lp.HasCongMark && lp.FragCount <= 1 {
		return l3
	}
	fields := []tlvField{}
	if len(lp.PitToken) != 0 {
		fields = append(fields, tlvField{typ: tlvPitToken, val: lp.PitToken})
	}
	if lp.HasCongMark {
		fields = append(fields, natField(tlvCongestionMark, uint64(lp.CongMark)))
	}
	if lp.FragCount > 1 {
		fields = append(fields, natField(tlvSequence, lp.SeqNumBase))
		fields = append(fields, natField(tlvFragIndex, uint64(lp.FragIndex)))
		fields = append(fields, natField(tlvFragCount, uint64(lp.FragCount)))
	}
	fields = append(fields, tlvField{typ: tlvFragment, val: l3})
	return encodeTLV(tlvLpPacket, fields)
}

// EncodeNack serializes a Nack: an LpPacket carrying a Nack element
// and the original Interest as its Fragment.
func EncodeNack(n *Nack) []byte {
	l3 := EncodeInterest(&n.Interest)
	reasonVal, ok := wireNackReason[n.Reason]
	if !ok {
		reasonVal = wireNackReason[NackUnspecified]
	}
	nackField := tlvField{typ: tlvNackReason, val: enc.Nat(reasonVal).Bytes()}
	nackBuf := make([]byte, nackField.encodingLength())
	nackField.encodeInto(nackBuf)

	fields := []tlvField{{typ: tlvNack, val: nackBuf}}
	if len(n.Interest.Lp.PitToken) != 0 {
		fields = append([]tlvField{{typ: tlvPitToken, val: n.Interest.Lp.PitToken}}, fields...)
	}
	fields = append(fields, tlvField{typ: tlvFragment, val: l3})
	return encodeTLV(tlvLpPacket, fields)
}

// Serialize encodes a full Packet (Interest, Data, or Nack) back to
// wire bytes, including its NDNLPv2 wrapper when one is warranted.
func Serialize(p *Packet) []byte {
	switch p.Type {
	case PktTypeInterest:
		return EncodeFrame(EncodeInterest(p.Interest), p.Interest.Lp)
	case PktTypeData:
		return EncodeFrame(EncodeData(p.Data), p.Data.Lp)
	case PktTypeNack:
		return EncodeNack(p.Nack)
	default:
		return nil
	}
}
