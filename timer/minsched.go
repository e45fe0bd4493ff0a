// Package timer implements the forwarder's hashed-wheel timer
// (MinSched/MinTmr, spec 4.D): a fixed number of slots, each a circular
// doubly-linked list of pending timers, advanced by one slot per
// interval.
package timer

import (
	"sync"
	"time"
)

// Timer is one schedulable node. It is either idle (self-looped, not
// on any slot) or linked into exactly one slot's circular list. The
// zero value is idle.
type Timer struct {
	next, prev *Timer
	ctx        any
	sched      *MinSched
}

func (t *Timer) isIdle() bool {
	return t.next == nil || t.next == t
}

func (t *Timer) init() {
	t.next = t
	t.prev = t
}

// unlink removes t from whatever slot list it is on. The caller must
// hold the owning MinSched's lock.
func (t *Timer) unlink() {
	t.next.prev = t.prev
	t.prev.next = t.next
}

// Callback is invoked when a Timer fires, with the context pointer
// supplied to After.
type Callback func(ctx any)

// MinSched is a hashed wheel of 2^k slots, each interval ticks apart.
type MinSched struct {
	mu       sync.Mutex
	slots    []Timer
	slotMask uint32
	interval time.Duration
	lastSlot uint32
	nextTime time.Time
	cb       Callback

	nTriggered uint64
}

// New constructs a MinSched with 2^nSlotBits slots of interval ticks
// each, invoking cb when a timer fires.
func New(nSlotBits int, interval time.Duration, cb Callback) *MinSched {
	nSlots := uint32(1) << uint(nSlotBits)
	s := &MinSched{
		slots:    make([]Timer, nSlots),
		slotMask: nSlots - 1,
		interval: interval,
		lastSlot: nSlots - 1,
		nextTime: time.Now(),
		cb:       cb,
	}
	for i := range s.slots {
		s.slots[i].init()
	}
	return s
}

// MaxHorizon is the wheel's horizon: one interval short of a full
// revolution. After accepts only delays strictly shorter than it.
func (s *MinSched) MaxHorizon() time.Duration {
	return time.Duration(uint64(len(s.slots))-1) * s.interval
}

// After schedules tmr to fire after the given duration, carrying ctx
// through to the callback. If tmr was already scheduled, it is first
// unlinked from its current slot. It returns false, leaving tmr idle,
// if after is MaxHorizon or longer; the caller must then coarsen
// the delay or re-schedule later.
func (s *MinSched) After(tmr *Timer, after time.Duration, ctx any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmr.sched == s && !tmr.isIdle() {
		tmr.unlink()
	}
	tmr.sched = s

	if after < 0 {
		after = 0
	}
	nSlotsAway := uint64(after)/uint64(s.interval) + 1
	if nSlotsAway >= uint64(len(s.slots)) {
		tmr.init()
		return false
	}

	slotNum := (s.lastSlot + uint32(nSlotsAway)) & s.slotMask
	slot := &s.slots[slotNum]
	tmr.ctx = ctx
	tmr.next = slot.next
	tmr.next.prev = tmr
	slot.next = tmr
	tmr.prev = slot
	return true
}

// Cancel unlinks tmr from its slot in O(1), leaving it idle. Canceling
// an already-idle timer is a no-op.
func (s *MinSched) Cancel(tmr *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tmr.isIdle() {
		return
	}
	tmr.unlink()
	tmr.init()
}

// Trigger advances the wheel to now, firing every timer whose slot's
// deadline has passed. Each node is reinitialized (marked idle) before
// its callback runs, so the callback may safely reschedule it.
func (s *MinSched) Trigger(now time.Time) {
	for {
		s.mu.Lock()
		if s.nextTime.After(now) {
			s.mu.Unlock()
			return
		}
		s.lastSlot = (s.lastSlot + 1) & s.slotMask
		slot := &s.slots[s.lastSlot]
		s.nextTime = s.nextTime.Add(s.interval)

		var fired []*Timer
		for tmr := slot.next; tmr != slot; {
			next := tmr.next
			fired = append(fired, tmr)
			tmr = next
		}
		slot.init()
		s.nTriggered += uint64(len(fired))
		cb := s.cb
		s.mu.Unlock()

		for _, tmr := range fired {
			ctx := tmr.ctx
			tmr.init()
			tmr.ctx = nil
			if cb != nil {
				cb(ctx)
			}
		}
	}
}

// NTriggered reports the cumulative number of timers fired.
func (s *MinSched) NTriggered() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nTriggered
}
