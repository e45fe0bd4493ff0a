package table

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ndnfwd/fwd/ndni"
)

// CsEntry is the CS's stored Data, owned by the PccEntry it was
// inserted through.
type CsEntry struct {
	Data     *ndni.Data
	RecvTime time.Time
}

// Satisfies reports whether the stored Data answers interest, per
// CanBePrefix/MustBeFresh and freshness-at-now.
func (e *CsEntry) Satisfies(interest *ndni.Interest, now time.Time) bool {
	if !interest.CanBePrefix && !e.Data.Name.Equal(interest.Name) {
		return false
	}
	if interest.CanBePrefix {
		prefix := interest.ActiveName()
		if len(e.Data.Name) < len(prefix) || !e.Data.Name[:len(prefix)].Equal(prefix) {
			return false
		}
	}
	if interest.MustBeFresh && !e.Data.IsFresh(e.RecvTime, now) {
		return false
	}
	return true
}

// Cs is the logical content-store sub-table layered over a Pcct. It
// keeps a resident LRU of bounded size; entries evicted from residency
// are simply dropped unless an indirect tier is attached.
type Cs struct {
	pcct     *Pcct
	resident *lru.Cache[uint64, *PccEntry]

	indirect IndirectStore
}

// IndirectStore is the optional second CS tier: a larger, slower store
// for entries evicted from the resident LRU. A forwarder without
// storage-backed CS passes nil.
type IndirectStore interface {
	Put(name []byte, data *ndni.Data, recvTime time.Time) error
	Get(name []byte) (*ndni.Data, time.Time, bool)
	Delete(name []byte)
}

// NewCs constructs a Cs backed by pcct, with a resident LRU of
// residentCapacity entries. indirect may be nil.
func NewCs(pcct *Pcct, residentCapacity int, indirect IndirectStore) *Cs {
	c := &Cs{pcct: pcct, indirect: indirect}
	onEvict := func(key uint64, entry *PccEntry) {
		c.evict(entry)
	}
	l, _ := lru.NewWithEvict[uint64, *PccEntry](residentCapacity, onEvict)
	c.resident = l
	return c
}

func (c *Cs) evict(entry *PccEntry) {
	if entry.Cs == nil {
		return
	}
	if c.indirect != nil {
		c.indirect.Put(entry.Key.Bytes(), entry.Cs.Data, entry.Cs.RecvTime)
	}
	entry.Cs = nil
	c.pcct.ReleaseIfIdle(entry)
}

// Insert stores data into the CS via the PccEntry(s) that satisfied
// its originating PIT lookup, clearing their PIT slots. If matched is
// a PIT1 (prefix) entry and data's name is longer than the PIT key, a
// second, exact-match PccEntry is created so direct lookups also hit.
func (c *Cs) Insert(owner *PccEntry, matchedSlot PitSlot, data *ndni.Data, now time.Time) {
	if matchedSlot == Pit0 || matchedSlot == Pit1 {
		owner.Pit[matchedSlot-1] = nil
	}
	owner.Cs = &CsEntry{Data: data, RecvTime: now}
	c.resident.Add(pccKey(owner.Key), owner)

	if matchedSlot == Pit1 && len(data.Name) > len(owner.Key) {
		exact, isNew, err := c.pcct.Insert(data.Name)
		if err == nil {
			exact.Cs = &CsEntry{Data: data, RecvTime: now}
			c.resident.Add(pccKey(exact.Key), exact)
			_ = isNew
		}
	}
}

// Find performs the CS lookup for interest: a key-index hit whose
// stored Data satisfies CanBePrefix/MustBeFresh/freshness. It checks
// the resident tier first, then the indirect tier if attached; a
// satisfying indirect hit is moved back into the resident tier.
func (c *Cs) Find(interest *ndni.Interest, now time.Time) *CsEntry {
	if entry := c.pcct.Find(interest.ActiveName()); entry != nil && entry.Cs != nil {
		if entry.Cs.Satisfies(interest, now) {
			c.resident.Get(pccKey(entry.Key)) // touch for LRU recency
			return entry.Cs
		}
	}
	if c.indirect == nil {
		return nil
	}
	data, recvTime, ok := c.indirect.Get(interest.ActiveName().Bytes())
	if !ok {
		return nil
	}
	e := &CsEntry{Data: data, RecvTime: recvTime}
	if !e.Satisfies(interest, now) {
		return nil
	}
	if entry, _, err := c.pcct.Insert(interest.ActiveName()); err == nil && entry.Cs == nil {
		entry.Cs = e
		c.resident.Add(pccKey(entry.Key), entry)
		c.indirect.Delete(interest.ActiveName().Bytes())
	}
	return e
}
