// Package infomap implements the InfoMap component: a postID-keyed store
// of the lightweight per-image data the query path needs without going
// back to the Catalog — average luminance per channel and the deletion
// flag.
package infomap

import (
	"iter"
	"maps"
	"sync"
)

// Info is the per-image record kept outside the Catalog for fast access
// during scoring and listing.
type Info struct {
	AvgL    [3]float32
	Deleted bool
}

// Map is a concurrency-safe postID -> Info store, the in-memory
// counterpart of engine.MapStore adapted from a dense uint32 key space
// to the postID strings IQDB's image identities actually are.
type Map struct {
	mu   sync.RWMutex
	data map[string]Info
}

// New creates an empty Map.
func New() *Map {
	return &Map{data: make(map[string]Info)}
}

// Insert stores (or replaces) the Info for postID.
func (m *Map) Insert(postID string, info Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[postID] = info
}

// Remove deletes postID's entry entirely. Use MarkDeleted instead when
// the image should remain addressable as a tombstone.
func (m *Map) Remove(postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, postID)
}

// MarkDeleted flips the Deleted flag for postID without discarding its
// AvgL, so a subsequent IsDeleted on a removed-but-not-purged identity
// can still answer without a Catalog round trip. Reports false
// if postID is not known at all.
func (m *Map) MarkDeleted(postID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.data[postID]
	if !ok {
		return false
	}
	info.Deleted = true
	m.data[postID] = info
	return true
}

// Get returns the Info for postID.
func (m *Map) Get(postID string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.data[postID]
	return info, ok
}

// Len reports how many postIDs are tracked, deleted or not.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// All iterates every (postID, Info) pair. The snapshot is taken under the
// read lock so a caller ranging over it never observes a concurrent
// write mid-iteration, matching the Catalog's own cursor-style scans.
func (m *Map) All() iter.Seq2[string, Info] {
	m.mu.RLock()
	snapshot := maps.Clone(m.data)
	m.mu.RUnlock()

	return func(yield func(string, Info) bool) {
		for postID, info := range snapshot {
			if !yield(postID, info) {
				return
			}
		}
	}
}
