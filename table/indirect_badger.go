package table

import (
	"encoding/binary"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ndnfwd/fwd/ndni"
	enc "github.com/ndnfwd/fwd/std/encoding"
)

// BadgerIndirectStore is the on-disk second CS tier: Data evicted from
// the resident LRU is kept here, keyed by name, until overwritten or
// explicitly deleted. It implements IndirectStore.
type BadgerIndirectStore struct {
	db        *badger.DB
	sizeLimit int64
}

// OpenBadgerIndirectStore opens (creating if absent) a badger store at
// path. sizeLimitBytes, if positive, is the on-disk size past which
// MaybeCompact triggers value-log garbage collection; zero means
// unbounded.
func OpenBadgerIndirectStore(path string, sizeLimitBytes int64) (*BadgerIndirectStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerIndirectStore{db: db, sizeLimit: sizeLimitBytes}, nil
}

// Put stores data under name, prefixed with its receive time so a
// later Get can reconstruct freshness.
func (s *BadgerIndirectStore) Put(name []byte, data *ndni.Data, recvTime time.Time) error {
	buf := make([]byte, 8, 8+64)
	binary.BigEndian.PutUint64(buf, uint64(recvTime.UnixNano()))
	buf = append(buf, ndni.EncodeData(data)...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(name, buf)
	})
}

// Get recovers the Data stored under name, if any.
func (s *BadgerIndirectStore) Get(name []byte) (*ndni.Data, time.Time, bool) {
	var out *ndni.Data
	var recvTime time.Time
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(name)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < 8 {
				return nil
			}
			recvTime = time.Unix(0, int64(binary.BigEndian.Uint64(val[:8])))
			frame := &ndni.LpFrame{
				Lp:       ndni.LpHeader{FragCount: 1},
				Fragment: enc.Wire{append([]byte(nil), val[8:]...)},
			}
			pkt, err := ndni.ParseL3(frame, 0, recvTime)
			if err != nil {
				return err
			}
			out = pkt.Data
			found = true
			return nil
		})
	})
	if err != nil || !found {
		return nil, time.Time{}, false
	}
	return out, recvTime, true
}

// Delete removes name's stored Data, if any.
func (s *BadgerIndirectStore) Delete(name []byte) {
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(name)
	})
}

// MaybeCompact reclaims value-log space once the store's on-disk
// footprint exceeds sizeLimit. It is a no-op when sizeLimit is zero or
// the store is still under it.
func (s *BadgerIndirectStore) MaybeCompact() {
	if s.sizeLimit <= 0 {
		return
	}
	lsm, vlog := s.db.Size()
	if lsm+vlog <= s.sizeLimit {
		return
	}
	for s.db.RunValueLogGC(0.5) == nil {
	}
}

// Close releases the underlying database handle.
func (s *BadgerIndirectStore) Close() error {
	return s.db.Close()
}

var _ IndirectStore = (*BadgerIndirectStore)(nil)
