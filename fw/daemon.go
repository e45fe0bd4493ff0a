package fw

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ndnfwd/fwd/core"
	"github.com/ndnfwd/fwd/iface"
	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
	"github.com/ndnfwd/fwd/table"
	"github.com/ndnfwd/fwd/timer"
)

// Daemon owns one running forwarder: the shared FIB and face table,
// and cfg.Workers independent shards, each with its own PCCT/PIT/CS
// and hashed-wheel timer so shards never share table state. The
// tables and the face table still guard each call with their own
// mutex.
type Daemon struct {
	cfg     *core.Config
	Fib     *table.Fib
	Faces   *FaceTable
	Workers []*Worker

	timers  []*timer.MinSched
	indirect *table.BadgerIndirectStore

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDaemon constructs a Daemon from cfg but does not yet start its
// timer-driving goroutines; call Start for that.
func NewDaemon(cfg *core.Config) (*Daemon, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("fw: Config.Workers must be positive, got %d", cfg.Workers)
	}
	if len(cfg.CorePinning) != 0 && len(cfg.CorePinning) != cfg.Workers {
		return nil, fmt.Errorf("fw: Config.CorePinning has %d entries, want 0 or %d", len(cfg.CorePinning), cfg.Workers)
	}

	d := &Daemon{
		cfg:    cfg,
		Fib:    table.NewFib(cfg.FibStartDepth, cfg.Workers),
		Faces:  NewFaceTable(),
		stopCh: make(chan struct{}),
	}

	var indirect *table.BadgerIndirectStore
	if cfg.IndirectCSPath != "" {
		var err error
		indirect, err = table.OpenBadgerIndirectStore(cfg.IndirectCSPath, cfg.IndirectCSSizeLimitBytes)
		if err != nil {
			return nil, fmt.Errorf("fw: opening indirect CS store: %w", err)
		}
		d.indirect = indirect
	}

	for i := 0; i < cfg.Workers; i++ {
		pcct := table.NewPcct(cfg.PcctCapacity)
		pit := table.NewPit(pcct)
		var cs *table.Cs
		if indirect != nil {
			cs = table.NewCs(pcct, cfg.CsResidentCapacity, indirect)
		} else {
			cs = table.NewCs(pcct, cfg.CsResidentCapacity, nil)
		}
		w := NewWorker(uint16(i), d.Fib, pcct, pit, cs, nil, d.Faces, cfg)
		sched := timer.New(cfg.TimerSlotBits, cfg.TimerInterval, func(ctx any) { w.onTimerExpiry(ctx) })
		w.timers = sched

		d.timers = append(d.timers, sched)
		d.Workers = append(d.Workers, w)
	}

	for _, fc := range cfg.Faces {
		mtu := fc.MTU
		if mtu <= 0 {
			mtu = 8192
		}
		d.AddFace(iface.NewFace(ndni.FaceID(fc.ID), iface.Locator{}, iface.NullTransport{}, mtu, nil))
	}

	for _, rc := range cfg.Routes {
		name, err := enc.NameFromStr(rc.Prefix)
		if err != nil {
			return nil, fmt.Errorf("fw: route prefix %q: %w", rc.Prefix, err)
		}
		nexthops := make([]ndni.FaceID, len(rc.Faces))
		for i, id := range rc.Faces {
			nexthops[i] = ndni.FaceID(id)
		}
		if len(rc.Weights) == 0 {
			d.Fib.Insert(name, nexthops, rc.Strategy)
			continue
		}
		weights := make(map[ndni.FaceID]int, len(rc.Weights))
		for idStr, w := range rc.Weights {
			id, err := strconv.ParseUint(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("fw: route %q weight face id %q: %w", rc.Prefix, idStr, err)
			}
			weights[ndni.FaceID(id)] = w
		}
		d.Fib.InsertWeighted(name, nexthops, weights, rc.Strategy)
	}

	return d, nil
}

// AddFace registers f with the Daemon's shared face table and starts a
// goroutine that drains f's RX inbox into its owning worker
// (FaceID hashed across d.Workers) every time the face signals new
// frames arrived. The timer tick does not drain face inboxes.
func (d *Daemon) AddFace(f *iface.Face) {
	d.Faces.Add(f)
	w := d.Workers[uint64(f.ID)%uint64(len(d.Workers))]

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.stopCh:
				return
			case <-f.RxNotify():
				w.DrainFace(f, time.Now())
			}
		}
	}()
}

// Start launches one goroutine per worker that advances its timer
// wheel and pumps its ingress queue every Config.TimerInterval. Faces
// registered through AddFace feed that same queue reactively via their
// own RX-notify goroutine; the tick here is the fallback that ensures
// a worker's queue still drains even under light load.
func (d *Daemon) Start() {
	for _, w := range d.Workers {
		sched := d.timers[w.id]
		w := w
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			ticker := time.NewTicker(d.cfg.TimerInterval)
			defer ticker.Stop()
			for {
				select {
				case <-d.stopCh:
					return
				case now := <-ticker.C:
					sched.Trigger(now)
					w.PumpRx(now)
					if d.indirect != nil {
						d.indirect.MaybeCompact()
					}
				}
			}
		}()
	}
}

// Stop signals every worker's timer loop to exit and waits for them,
// then releases the indirect CS store if one was opened.
func (d *Daemon) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	if d.indirect != nil {
		d.indirect.Close()
	}
}

var _ core.LogIdentifiable = (*Daemon)(nil)

// String satisfies core.LogIdentifiable.
func (d *Daemon) String() string { return "daemon" }
