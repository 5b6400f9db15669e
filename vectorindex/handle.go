package vectorindex

import "sync/atomic"

// SnapshotHandle publishes the live snapshot to concurrent readers.
// Queries load the current snapshot once and use it for their whole
// lifetime; the index builder swaps in a new generation atomically.
type SnapshotHandle struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotHandle creates a handle, optionally seeded with an initial
// snapshot. A nil initial snapshot means no index has been built yet.
func NewSnapshotHandle(initial *Snapshot) *SnapshotHandle {
	h := &SnapshotHandle{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Snapshot returns the current snapshot, or nil when no index exists.
func (h *SnapshotHandle) Snapshot() *Snapshot {
	return h.current.Load()
}

// Swap publishes a new snapshot. In-flight readers keep the generation
// they already loaded.
func (h *SnapshotHandle) Swap(s *Snapshot) {
	h.current.Store(s)
}
