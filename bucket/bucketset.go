package bucket

import (
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// key addresses a single bucket: a channel and a signed coefficient flat
// index (sign carries the direction of the wavelet coefficient).
type key struct {
	channel int8
	coef    int16
}

// Set is the inverted index from (channel, signed coefficient) to the
// set of images whose signature carries that coefficient. It is the
// direct analogue of imgdb's bucket_set<uint32_t, NUM_CHANNELS>: a
// roaring.Bitmap, the way metadata.LocalBitmap wraps one for filtering,
// keyed per channel per coefficient rather than per shard.
type Set struct {
	mu      sync.RWMutex
	buckets map[key]*roaring.Bitmap
}

// NewSet creates an empty bucket set.
func NewSet() *Set {
	return &Set{buckets: make(map[key]*roaring.Bitmap)}
}

// Add places id into the bucket for (channel, coef), creating it if
// necessary.
func (s *Set) Add(channel int, coef int16, id ID) {
	k := key{int8(channel), coef}
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.buckets[k]
	if !ok {
		rb = roaring.New()
		s.buckets[k] = rb
	}
	rb.Add(uint32(id))
}

// Remove takes id out of the bucket for (channel, coef). An empty bucket
// left behind is deleted so EachBucket and BucketCount never report
// buckets with no members.
func (s *Set) Remove(channel int, coef int16, id ID) {
	k := key{int8(channel), coef}
	s.mu.Lock()
	defer s.mu.Unlock()
	rb, ok := s.buckets[k]
	if !ok {
		return
	}
	rb.Remove(uint32(id))
	if rb.IsEmpty() {
		delete(s.buckets, k)
	}
}

// At returns the internal IDs currently filed under (channel, coef), or
// nil if that bucket does not exist or is empty.
func (s *Set) At(channel int, coef int16) []ID {
	k := key{int8(channel), coef}
	s.mu.RLock()
	rb, ok := s.buckets[k]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	out := make([]ID, 0, rb.GetCardinality())
	it := rb.Iterator()
	for it.HasNext() {
		out = append(out, ID(it.Next()))
	}
	return out
}

// Cardinality reports how many images are filed under (channel, coef).
func (s *Set) Cardinality(channel int, coef int16) uint64 {
	k := key{int8(channel), coef}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rb, ok := s.buckets[k]
	if !ok {
		return 0
	}
	return rb.GetCardinality()
}

// BucketCount reports the number of non-empty (channel, coef) buckets.
func (s *Set) BucketCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// EachBucket yields every non-empty bucket as (channel, coef, ids). The
// snapshot is taken under the read lock but the IDs slice for each bucket
// is materialized outside it, matching bucket_set::eachBucket's role of
// driving offline maintenance (rebuilds, stats) without holding the lock
// for the whole scan.
func (s *Set) EachBucket() iter.Seq2[[2]int, []ID] {
	s.mu.RLock()
	keys := make([]key, 0, len(s.buckets))
	rbs := make([]*roaring.Bitmap, 0, len(s.buckets))
	for k, rb := range s.buckets {
		keys = append(keys, k)
		rbs = append(rbs, rb)
	}
	s.mu.RUnlock()

	return func(yield func([2]int, []ID) bool) {
		for i, k := range keys {
			ids := make([]ID, 0, rbs[i].GetCardinality())
			it := rbs[i].Iterator()
			for it.HasNext() {
				ids = append(ids, ID(it.Next()))
			}
			if !yield([2]int{int(k.channel), int(k.coef)}, ids) {
				return
			}
		}
	}
}
