package table

import (
	"sync"

	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
)

// PccTokenMask keeps a minted token within the 48-bit PIT-token space.
const PccTokenMask = (uint64(1) << 48) - 1

// PitSlot names the two possible PIT occupancy slots on a PccEntry:
// PIT0 for Interests without CanBePrefix, PIT1 for Interests with it.
type PitSlot int

const (
	PitNone PitSlot = iota
	Pit0
	Pit1
)

// PccEntry is the fused storage unit backing the PIT, the CS, and the
// token index: one entry per distinct Name (with implicit digest, if
// the Interest that created it carried one).
type PccEntry struct {
	Key enc.Name

	HasToken bool
	Token    uint64

	Pit [2]*PitEntry // indexed by PitSlot-1
	Cs  *CsEntry

	lruPrev, lruNext *PccEntry
}

// PitSlot returns the entry's PitEntry for the given slot, or nil.
func (e *PccEntry) PitSlot(slot PitSlot) *PitEntry {
	if slot != Pit0 && slot != Pit1 {
		return nil
	}
	return e.Pit[slot-1]
}

// occupied reports whether the entry still holds any PIT or CS state.
func (e *PccEntry) occupied() bool {
	return e.Pit[0] != nil || e.Pit[1] != nil || e.Cs != nil
}

// Pcct is the fixed-capacity pool of PccEntry, indexed by Name (key
// index) and by 48-bit token (token index). It is owned by one worker,
// matching spec 4.G's sharing policy; every method still takes the
// internal mutex, so concurrent calls are serialized.
type Pcct struct {
	mu        sync.Mutex
	capacity  int
	byKey     map[uint64]*PccEntry
	byToken   map[uint64]*PccEntry
	lastToken uint64
}

// ErrTableFull is returned when the PCCT's entry pool is exhausted.
type ErrTableFull struct{}

func (ErrTableFull) Error() string { return "PCCT entry pool exhausted" }

// NewPcct constructs an empty Pcct with the given entry capacity.
func NewPcct(capacity int) *Pcct {
	return &Pcct{
		capacity: capacity,
		byKey:    make(map[uint64]*PccEntry, capacity),
		byToken:  make(map[uint64]*PccEntry, capacity),
	}
}

// pccKey is the xxhash of the full name, the same rolling hash the FIB
// uses for its own name-keyed maps. A 64-bit collision between two
// distinct Interest/Data names would merge their PIT/CS state, so
// every lookup re-checks Key against the stored entry's Name before
// trusting the hash hit.
func pccKey(name enc.Name) uint64 { return name.Hash() }

// Insert finds or creates the PccEntry for key, reporting isNew.
func (p *Pcct) Insert(key enc.Name) (*PccEntry, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := pccKey(key)
	if e, ok := p.byKey[k]; ok && e.Key.Equal(key) {
		return e, false, nil
	}
	if len(p.byKey) >= p.capacity {
		return nil, false, ErrTableFull{}
	}
	e := &PccEntry{Key: key.Clone()}
	p.byKey[k] = e
	return e, true, nil
}

// Find looks up the PccEntry for key without creating one.
func (p *Pcct) Find(key enc.Name) *PccEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.byKey[pccKey(key)]; ok && e.Key.Equal(key) {
		return e
	}
	return nil
}

// Erase removes token, key-index, and pool storage for entry. The
// caller must have already cleared entry's PIT/CS slots.
func (p *Pcct) Erase(entry *PccEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeTokenLocked(entry)
	delete(p.byKey, pccKey(entry.Key))
}

// AddToken mints a fresh 48-bit token for entry, publishing both the
// forward (entry holds token) and reverse (token index) mapping. It
// increments an internal counter and skips any value already in use,
// which is amortized O(1) since the 48-bit space strictly dominates
// realistic entry capacities.
func (p *Pcct) AddToken(entry *PccEntry) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry.HasToken {
		return entry.Token
	}
	for {
		p.lastToken++
		token := p.lastToken & PccTokenMask
		if _, used := p.byToken[token]; !used {
			entry.Token = token
			entry.HasToken = true
			p.byToken[token] = entry
			return token
		}
	}
}

// RemoveToken revokes entry's token, if any.
func (p *Pcct) RemoveToken(entry *PccEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeTokenLocked(entry)
}

func (p *Pcct) removeTokenLocked(entry *PccEntry) {
	if !entry.HasToken {
		return
	}
	delete(p.byToken, entry.Token)
	entry.HasToken = false
}

// FindByToken recovers the PccEntry for a peer-supplied token.
func (p *Pcct) FindByToken(token uint64) *PccEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byToken[token&PccTokenMask]
}

// ReleaseIfIdle erases entry if it no longer holds any PIT or CS slot,
// releasing its token first.
func (p *Pcct) ReleaseIfIdle(entry *PccEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry.occupied() {
		return
	}
	p.removeTokenLocked(entry)
	delete(p.byKey, pccKey(entry.Key))
}

// MakeToken packs a worker ID and a PccEntry token into the fixed
// 8-octet forwarder token format: (workerId:16, pccToken:48).
func MakeToken(workerID uint16, pccToken uint64) []byte {
	tok := make([]byte, ndni.FwTokenLength)
	tok[0] = byte(workerID >> 8)
	tok[1] = byte(workerID)
	v := pccToken & PccTokenMask
	for i := 0; i < 6; i++ {
		tok[7-i] = byte(v)
		v >>= 8
	}
	return tok
}

// ParseToken unpacks a forwarder token minted by MakeToken. It
// reports ok=false if b is not exactly FwTokenLength octets.
func ParseToken(b []byte) (workerID uint16, pccToken uint64, ok bool) {
	if len(b) != ndni.FwTokenLength {
		return 0, 0, false
	}
	workerID = uint16(b[0])<<8 | uint16(b[1])
	for i := 2; i < 8; i++ {
		pccToken = pccToken<<8 | uint64(b[i])
	}
	return workerID, pccToken, true
}
