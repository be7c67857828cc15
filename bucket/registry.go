// Package bucket implements the BucketSet component: the inverted index
// from signed wavelet coefficients to the set of images that carry them.
package bucket

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"
)

// ID is a dense, internal identifier for a postID within a Registry. It is
// the currency the bitmaps in Set actually store, since roaring.Bitmap
// only knows uint32s; postIDs (arbitrary strings) never appear inside a
// bucket directly.
type ID uint32

// Registry is a bidirectional postID <-> ID map. It never reuses an ID
// once assigned, even after Release: a stale bitmap entry from a bucket
// that has not yet been cleaned up resolves to nothing once its postID
// is released, never to whatever was interned afterwards.
type Registry struct {
	mu     sync.RWMutex
	byPost map[string]ID
	byID   map[ID]string
	next   ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byPost: make(map[string]ID),
		byID:   make(map[ID]string),
	}
}

// Intern returns the ID for postID, assigning a new one if this is the
// first time postID has been seen.
func (r *Registry) Intern(postID string) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPost[postID]; ok {
		return id
	}
	id := r.next
	r.next++
	r.byPost[postID] = id
	r.byID[id] = postID
	return id
}

// Lookup returns the postID previously interned under id.
func (r *Registry) Lookup(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	postID, ok := r.byID[id]
	return postID, ok
}

// LookupID returns the ID previously assigned to postID, without
// interning it.
func (r *Registry) LookupID(postID string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPost[postID]
	return id, ok
}

// Release forgets postID entirely, freeing the reverse lookup. Callers
// must ensure every bucket referencing its ID has already been cleared;
// Release does not touch any Set.
func (r *Registry) Release(postID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPost[postID]
	if !ok {
		return
	}
	delete(r.byPost, postID)
	delete(r.byID, id)
}

// Len returns the number of postIDs currently interned.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPost)
}

// Save persists the registry to w: [Count uint64] then, per entry,
// [ID uint32][Len uint32][postID bytes].
func (r *Registry) Save(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(r.byID))); err != nil {
		return err
	}
	for id, postID := range r.byID {
		if err := binary.Write(bw, binary.LittleEndian, uint32(id)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(postID))); err != nil {
			return err
		}
		if _, err := bw.WriteString(postID); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load replaces the registry's contents with what was written by Save.
func (r *Registry) Load(rd io.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	br := bufio.NewReader(rd)
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	byPost := make(map[string]ID, count)
	byID := make(map[ID]string, count)
	var maxID ID

	for i := uint64(0); i < count; i++ {
		var id, strLen uint32
		if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
			return err
		}
		if err := binary.Read(br, binary.LittleEndian, &strLen); err != nil {
			return err
		}
		buf := make([]byte, strLen)
		if _, err := io.ReadFull(br, buf); err != nil {
			return err
		}
		byPost[string(buf)] = ID(id)
		byID[ID(id)] = string(buf)
		if ID(id) >= maxID {
			maxID = ID(id) + 1
		}
	}

	r.byPost = byPost
	r.byID = byID
	r.next = maxID
	return nil
}
