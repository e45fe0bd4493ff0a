package fw

import (
	"time"

	"github.com/ndnfwd/fwd/iface"
	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
)

// DefaultRxBatch bounds how many reassembled packets one PumpRx call
// drains from the ingress queue.
const DefaultRxBatch = 256

// rxItem is one fully reassembled L3 packet waiting in a Worker's
// ingress queue for ParseL3 and dispatch. Frame.Fragment already holds
// the complete L3 wire (not an individual link-layer fragment) by the
// time it is pushed here.
type rxItem struct {
	Frame  *ndni.LpFrame
	RxTime time.Time
}

// HandleFrame feeds one raw frame received on face into the
// forwarder: parse its NDNLPv2 framing, reassemble if it is part of a
// multi-fragment train, and push the result onto the worker's ingress
// queue for PumpRx to dispatch. A fragment that completes no train yet
// returns nil with nothing queued.
func (w *Worker) HandleFrame(face ndni.FaceID, raw []byte, rxTime time.Time) error {
	frame, err := ndni.ParseFrame(enc.Wire{raw})
	if err != nil {
		return err
	}
	frame.Face = face

	if frame.Lp.FragCount > 1 {
		whole, ok := w.reassembler.Accept(frame)
		if !ok {
			return nil
		}
		frame.Fragment = whole
	}

	w.rxQueue.Push(rxItem{Frame: frame, RxTime: rxTime}, rxTime)
	return nil
}

// PumpRx drains up to DefaultRxBatch reassembled packets from the
// ingress queue and dispatches each to RxInterest, RxData, or RxNack.
// A packet CoDel marks for drop at the queue's AQM boundary is counted
// and discarded rather than decoded, matching the queue's own policy
// of never decoding work it has already decided not to forward.
func (w *Worker) PumpRx(now time.Time) {
	buf := make([]rxItem, DefaultRxBatch)
	res := w.rxQueue.Pop(buf, now)
	for i := 0; i < res.Count; i++ {
		if res.Drop && i == 0 {
			continue
		}
		item := buf[i]
		pkt, err := ndni.ParseL3(item.Frame, item.Frame.Face, item.RxTime)
		if err != nil {
			continue
		}
		switch pkt.Type {
		case ndni.PktTypeInterest:
			w.RxInterest(pkt)
		case ndni.PktTypeData:
			w.RxData(pkt)
		case ndni.PktTypeNack:
			w.RxNack(pkt)
		}
	}
}

// DrainFace moves every frame currently queued on face's inbox through
// HandleFrame, for a poll loop that owns face to call once per tick.
func (w *Worker) DrainFace(face *iface.Face, now time.Time) {
	buf := make([][]byte, DefaultRxBatch)
	for {
		n := face.RecvBurst(buf)
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			w.HandleFrame(face.ID, buf[i], now)
		}
		if n < len(buf) {
			return
		}
	}
}
