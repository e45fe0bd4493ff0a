package fw

import (
	"sync"

	"github.com/ndnfwd/fwd/iface"
	"github.com/ndnfwd/fwd/ndni"
)

// FaceTable is the worker's view of live faces, keyed by FaceID. It is
// shared read-mostly across workers (faces are added/removed by the
// control plane, looked up on every packet by the dataplane).
type FaceTable struct {
	mu    sync.RWMutex
	faces map[ndni.FaceID]*iface.Face
}

// NewFaceTable constructs an empty FaceTable.
func NewFaceTable() *FaceTable {
	return &FaceTable{faces: make(map[ndni.FaceID]*iface.Face)}
}

// Add registers f under its own ID.
func (t *FaceTable) Add(f *iface.Face) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.faces[f.ID] = f
}

// Remove drops the face with the given ID, if present.
func (t *FaceTable) Remove(id ndni.FaceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.faces, id)
}

// Get returns the face with the given ID, or nil.
func (t *FaceTable) Get(id ndni.FaceID) *iface.Face {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.faces[id]
}
