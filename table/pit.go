package table

import (
	"time"

	"github.com/ndnfwd/fwd/ndni"
	"github.com/ndnfwd/fwd/timer"
)

// MaxDnRecords/MaxUpRecords bound how many downstream/upstream records
// one PitEntry may hold at once.
const (
	MaxDnRecords = 8
	MaxUpRecords = 8
)

// DnRecord is one downstream (requester-facing) record on a PitEntry:
// the face and nonce that identify a distinct pending request, plus
// the bookkeeping needed to satisfy or time it out.
type DnRecord struct {
	Face     ndni.FaceID
	Nonce    uint32
	Expiry   time.Time
	CongMark uint8
	PitToken []byte
	live     bool
}

// UpRecord is one upstream (nexthop-facing) record: an Interest sent
// toward a nexthop, awaiting Data, Nack, or timeout.
type UpRecord struct {
	Face       ndni.FaceID
	Nonce      uint32
	LastTx     time.Time
	NackReason ndni.NackReason
	HasNack    bool
	live       bool
}

// PitEntry is the PIT's per-Interest state, stored inside a PccEntry.
type PitEntry struct {
	Interest *ndni.Interest
	Dn       [MaxDnRecords]DnRecord
	Up       [MaxUpRecords]UpRecord

	Timer timer.Timer
	// TimerExpiry is the absolute time Timer is currently armed to fire
	// at, the zero Time while idle. DnRxInterest's caller rearms Timer
	// to extend this horizon, never to shrink it, so a long-lived
	// downstream record is never evicted early by a later, shorter
	// Interest's lifetime.
	TimerExpiry time.Time
}

// PitResultKind enumerates what Pit.Insert found.
type PitResultKind int

const (
	PitFull PitResultKind = iota
	PitHitPit0
	PitHitPit1
	PitHitCs
)

// PitResult is the outcome of Pit.Insert.
type PitResult struct {
	Kind  PitResultKind
	Entry *PccEntry
}

// Pit is the logical PIT sub-table layered over a Pcct.
type Pit struct {
	pcct *Pcct
}

// NewPit constructs a Pit backed by pcct.
func NewPit(pcct *Pcct) *Pit { return &Pit{pcct: pcct} }

// Insert performs the combined PIT/CS lookup-or-create for interest,
// keyed by its active name (own Name, or active ForwardingHint).
// csSatisfies reports whether a stored CsEntry still satisfies the
// Interest per CanBePrefix/MustBeFresh/freshness rules, and is
// supplied by the caller (table has no notion of "now" on its own).
func (p *Pit) Insert(interest *ndni.Interest, csSatisfies func(*CsEntry) bool) PitResult {
	entry, _, err := p.pcct.Insert(interest.ActiveName())
	if err != nil {
		return PitResult{Kind: PitFull}
	}

	if entry.Cs != nil && csSatisfies(entry.Cs) {
		return PitResult{Kind: PitHitCs, Entry: entry}
	}

	slot := Pit0
	if interest.CanBePrefix {
		slot = Pit1
	}
	if entry.Pit[slot-1] == nil {
		entry.Pit[slot-1] = &PitEntry{Interest: interest}
	}
	if !entry.HasToken {
		p.pcct.AddToken(entry)
	}

	if slot == Pit0 {
		return PitResult{Kind: PitHitPit0, Entry: entry}
	}
	return PitResult{Kind: PitHitPit1, Entry: entry}
}

// FindByToken recovers the PccEntry a peer's PIT token refers to.
func (p *Pit) FindByToken(token uint64) *PccEntry {
	return p.pcct.FindByToken(token)
}

// DnRxInterest merges a newly received Interest into entry's
// downstream records, keyed by (face, nonce). It returns the index of
// the updated or newly inserted record, or -1 if the table is full and
// no expired slot could be reclaimed.
func DnRxInterest(entry *PitEntry, face ndni.FaceID, nonce uint32, rxTime time.Time, lifetime time.Duration, congMark uint8, pitToken []byte, now time.Time) int {
	for i := range entry.Dn {
		if entry.Dn[i].live && entry.Dn[i].Face == face && entry.Dn[i].Nonce == nonce {
			entry.Dn[i].Expiry = rxTime.Add(lifetime)
			entry.Dn[i].CongMark = congMark
			entry.Dn[i].PitToken = pitToken
			return i
		}
	}
	for i := range entry.Dn {
		if !entry.Dn[i].live || entry.Dn[i].Expiry.Before(now) {
			entry.Dn[i] = DnRecord{
				Face: face, Nonce: nonce, Expiry: rxTime.Add(lifetime),
				CongMark: congMark, PitToken: pitToken, live: true,
			}
			return i
		}
	}
	return -1
}

// UpTxInterest merges an outgoing Interest into entry's upstream
// records, keyed by face. It returns the index of the record, or -1 if
// the table is full.
func UpTxInterest(entry *PitEntry, face ndni.FaceID, nonce uint32, now time.Time) int {
	for i := range entry.Up {
		if entry.Up[i].live && entry.Up[i].Face == face {
			entry.Up[i].Nonce = nonce
			entry.Up[i].LastTx = now
			entry.Up[i].HasNack = false
			return i
		}
	}
	for i := range entry.Up {
		if !entry.Up[i].live {
			entry.Up[i] = UpRecord{Face: face, Nonce: nonce, LastTx: now, live: true}
			return i
		}
	}
	return -1
}

// LiveDnRecords returns the indexes of downstream records that have
// not yet expired as of now.
func LiveDnRecords(entry *PitEntry, now time.Time) []int {
	var out []int
	for i := range entry.Dn {
		if entry.Dn[i].live && entry.Dn[i].Expiry.After(now) {
			out = append(out, i)
		}
	}
	return out
}

// LiveUpRecords returns the indexes of upstream records currently in
// use (an Interest has been sent toward that face and not superseded).
func LiveUpRecords(entry *PitEntry) []int {
	var out []int
	for i := range entry.Up {
		if entry.Up[i].live {
			out = append(out, i)
		}
	}
	return out
}

// ClearExpired drops downstream records whose expiry has passed.
func ClearExpired(entry *PitEntry, now time.Time) {
	for i := range entry.Dn {
		if entry.Dn[i].live && !entry.Dn[i].Expiry.After(now) {
			entry.Dn[i] = DnRecord{}
		}
	}
}

// Erase clears entry's PIT slot for slot and, if the owning PccEntry
// now holds neither PIT state nor a CS entry, releases its token and
// removes it from the Pcct.
func (p *Pit) Erase(owner *PccEntry, slot PitSlot) {
	if slot == Pit0 || slot == Pit1 {
		owner.Pit[slot-1] = nil
	}
	p.pcct.ReleaseIfIdle(owner)
}
