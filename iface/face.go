package iface

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndnfwd/fwd/core"
	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/std/types/lockfree"
)

// TxMaxFragments bounds how many NDNLPv2 frames one outgoing packet
// may be split into.
const TxMaxFragments = MaxFragments

// TxBurstFrames is the number of frames accumulated before a burst is
// flushed to the underlying transport.
const TxBurstFrames = 64

// Transport is the minimal send/receive surface a Face needs from its
// underlying link. Implementations range from a UDP socket to an
// in-process pipe used in tests.
type Transport interface {
	// Send writes one already-framed NDNLPv2 (or bare L3) datagram. It
	// must not block past ctx-independent backpressure; a full send
	// queue is reported as an error, which TxBurst counts as a dropped
	// frame.
	Send(frame []byte) error
	// Close releases the underlying link.
	Close() error
}

// NullTransport is a Transport that accepts every Send and never
// delivers anything to a peer. It backs a Face declared in
// configuration before a real socket or pipe has been attached to it,
// so the FIB/PIT/reassembly pipeline can be exercised end to end
// without a concrete link.
type NullTransport struct{}

func (NullTransport) Send(frame []byte) error { return nil }
func (NullTransport) Close() error             { return nil }

// Face is one forwarding endpoint: a stable ID, a locator, and the
// transport used to reach the remote side. It tracks up/down state and
// a running RX-to-TX latency statistic sampled at 1-in-16 packets, the
// way a burst-oriented dataplane amortizes the cost of timestamping
// every packet.
type Face struct {
	ID      ndni.FaceID
	Locator Locator

	transport Transport
	fragment  func(pkt []byte, mtu int) [][]byte
	mtu       int

	// rx is this face's inbox: whatever reads the underlying transport
	// (a socket poll loop, or a test) hands raw frames in here with
	// Enqueue, and the forwarder core drains them with RecvBurst.
	rx *lockfree.YiQueue[[]byte]

	up atomic.Bool

	mu           sync.Mutex
	sampleCount  uint64
	latencyEWMA  time.Duration
	nTxFrames    uint64
	nTxDropped   uint64
	nTxQueued    uint64
}

// String satisfies core.LogIdentifiable.
func (f *Face) String() string {
	return "face"
}

// NewFace constructs a Face bound to the given transport. mtu bounds
// the size of one NDNLPv2 fragment; fragment, if nil, defaults to
// SplitEvenly.
func NewFace(id ndni.FaceID, loc Locator, transport Transport, mtu int, fragment func([]byte, int) [][]byte) *Face {
	f := &Face{ID: id, Locator: loc, transport: transport, mtu: mtu, fragment: fragment, rx: lockfree.NewYiQueue[[]byte]()}
	if f.fragment == nil {
		f.fragment = SplitEvenly
	}
	f.up.Store(true)
	return f
}

// Enqueue delivers one raw frame received on the underlying transport
// to this face's inbox, for the forwarder core to drain with
// RecvBurst. It never blocks and never drops: the backing queue is
// unbounded, backpressure instead comes from however slowly the core
// drains it.
func (f *Face) Enqueue(frame []byte) {
	f.rx.Push(frame)
}

// RxNotify signals (non-blockingly, at most once per idle period) that
// the inbox went from empty to non-empty, so a poller can block on it
// instead of busy-spinning RecvBurst.
func (f *Face) RxNotify() <-chan struct{} {
	return f.rx.Notify
}

// RecvBurst drains up to len(out) pending inbound frames into out,
// returning how many were copied. It never blocks.
func (f *Face) RecvBurst(out [][]byte) int {
	n := 0
	for n < len(out) {
		frame, ok := f.rx.Pop()
		if !ok {
			break
		}
		out[n] = frame
		n++
	}
	return n
}

// IsUp reports whether the face currently accepts traffic.
func (f *Face) IsUp() bool { return f.up.Load() }

// SetUp marks the face up or down.
func (f *Face) SetUp(up bool) { f.up.Store(up) }

// SplitEvenly fragments pkt into chunks of at most mtu bytes each, or
// returns a single chunk if pkt already fits.
func SplitEvenly(pkt []byte, mtu int) [][]byte {
	if mtu <= 0 || len(pkt) <= mtu {
		return [][]byte{pkt}
	}
	var out [][]byte
	for len(pkt) > 0 {
		n := mtu
		if n > len(pkt) {
			n = len(pkt)
		}
		out = append(out, pkt[:n])
		pkt = pkt[n:]
	}
	return out
}

// OutgoingPacket pairs an encoded L3 packet with the time it was
// received, so TxBurst can sample end-to-end latency.
type OutgoingPacket struct {
	Wire     []byte
	RxTime   time.Time
	LinkHdr  ndni.LpHeader
}

// TxBurst fragments and sends pkts, flushing to the transport every
// TxBurstFrames frames (or at the end of the batch). It returns the
// number of frames actually handed to the transport; frames the
// transport rejects are counted as dropped, not queued.
func (f *Face) TxBurst(pkts []OutgoingPacket) int {
	sent := 0
	buf := make([][]byte, 0, TxBurstFrames)

	flush := func() {
		for _, frame := range buf {
			if err := f.transport.Send(frame); err != nil {
				f.mu.Lock()
				f.nTxDropped++
				f.mu.Unlock()
				continue
			}
			sent++
		}
		buf = buf[:0]
	}

	for i := range pkts {
		f.sampleLatency(pkts[i].RxTime)

		frags := f.fragment(pkts[i].Wire, f.mtu)
		if len(frags) > TxMaxFragments {
			frags = frags[:TxMaxFragments]
		}
		for fi, frag := range frags {
			hdr := pkts[i].LinkHdr
			if len(frags) > 1 {
				hdr.FragIndex = uint16(fi)
				hdr.FragCount = uint16(len(frags))
				hdr.HasFrag = true
			}
			buf = append(buf, encodeFragment(frag, hdr))
			if len(buf) >= TxBurstFrames {
				flush()
			}
		}
	}
	flush()

	f.mu.Lock()
	f.nTxFrames += uint64(sent)
	f.mu.Unlock()
	return sent
}

func encodeFragment(l3 []byte, hdr ndni.LpHeader) []byte {
	return ndni.EncodeFrame(l3, hdr)
}

// sampleLatency updates the running RX-to-TX latency estimate for
// every 16th packet, matching the forwarder's amortized-timestamp
// sampling strategy.
func (f *Face) sampleLatency(rxTime time.Time) {
	if rxTime.IsZero() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sampleCount++
	if f.sampleCount%16 != 0 {
		return
	}
	sample := time.Since(rxTime)
	if f.latencyEWMA == 0 {
		f.latencyEWMA = sample
	} else {
		f.latencyEWMA = (f.latencyEWMA*7 + sample) / 8
	}
}

// Counters reports cumulative TX statistics.
func (f *Face) Counters() (nTxFrames, nTxDropped, nTxQueued uint64, latency time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nTxFrames, f.nTxDropped, f.nTxQueued, f.latencyEWMA
}

// Close tears down the face's transport and marks it down.
func (f *Face) Close() error {
	f.up.Store(false)
	return f.transport.Close()
}

var _ core.LogIdentifiable = (*Face)(nil)
