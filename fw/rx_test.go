package fw_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndnfwd/fwd/ndni"
)

// TestHandleFrameSingleFragmentDispatches checks that a bare (single-
// fragment) Interest frame handed to HandleFrame reaches RxInterest by
// way of the ingress queue once PumpRx drains it.
func TestHandleFrameSingleFragmentDispatches(t *testing.T) {
	f := newTestFwd(t)
	nhFace, nhTr := newTestFace(2)
	dnFace, _ := newTestFace(1)
	f.faces.Add(nhFace)
	f.faces.Add(dnFace)
	f.fib.Insert(name(t, "a"), []ndni.FaceID{2}, "multicast")

	raw := ndni.EncodeInterest(&ndni.Interest{
		Name: name(t, "a", "b"), HasNonce: true, Nonce: 7, Lifetime: time.Second, ActiveFH: -1,
	})

	err := f.worker.HandleFrame(1, raw, time.Now())
	require.NoError(t, err)

	f.worker.PumpRx(time.Now())

	require.NotEmpty(t, nhTr.sent, "Interest was not forwarded to the nexthop face's transport")
}

// TestHandleFrameReassemblesBeforeDispatch checks that a two-fragment
// train only reaches the ingress queue (and RxInterest) once both
// fragments have arrived through HandleFrame.
func TestHandleFrameReassemblesBeforeDispatch(t *testing.T) {
	f := newTestFwd(t)
	nhFace, nhTr := newTestFace(2)
	dnFace, _ := newTestFace(1)
	f.faces.Add(nhFace)
	f.faces.Add(dnFace)
	f.fib.Insert(name(t, "a"), []ndni.FaceID{2}, "multicast")

	l3 := ndni.EncodeInterest(&ndni.Interest{
		Name: name(t, "a", "b"), HasNonce: true, Nonce: 9, Lifetime: time.Second, ActiveFH: -1,
	})
	mid := len(l3) / 2
	frag0 := ndni.EncodeFrame(l3[:mid], ndni.LpHeader{SeqNumBase: 1, FragIndex: 0, FragCount: 2, HasFrag: true})
	frag1 := ndni.EncodeFrame(l3[mid:], ndni.LpHeader{SeqNumBase: 1, FragIndex: 1, FragCount: 2, HasFrag: true})

	require.NoError(t, f.worker.HandleFrame(1, frag0, time.Now()))
	f.worker.PumpRx(time.Now())
	require.Empty(t, nhTr.sent, "dispatched before the train was complete")

	require.NoError(t, f.worker.HandleFrame(1, frag1, time.Now()))
	f.worker.PumpRx(time.Now())
	require.NotEmpty(t, nhTr.sent, "train completed but nothing was dispatched")
}
