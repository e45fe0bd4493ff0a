package encoding

import (
	"bytes"
	"hash"
	"sync"

	"github.com/cespare/xxhash"
)

// xxHashState bundles a reusable xxHash digest with a scratch buffer, so
// that hashing a Component or Name does not need a fresh allocation for
// the encoded bytes on every call.
type xxHashState struct {
	hash   hash.Hash64
	buffer bytes.Buffer
}

// xxHashPoolType is a type-safe wrapper around sync.Pool for *xxHashState,
// following the same pattern as other fixed-purpose pools in this codebase.
type xxHashPoolType struct {
	pool sync.Pool
}

// Get returns an idle xxHashState, allocating a new one if the pool is empty.
func (p *xxHashPoolType) Get() *xxHashState {
	if v := p.pool.Get(); v != nil {
		return v.(*xxHashState)
	}
	return &xxHashState{hash: xxhash.New()}
}

// Put resets the state and returns it to the pool for reuse.
func (p *xxHashPoolType) Put(s *xxHashState) {
	s.hash.Reset()
	s.buffer.Reset()
	p.pool.Put(s)
}

var xxHashPool xxHashPoolType
