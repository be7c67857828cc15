package bucket

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInternIsStable(t *testing.T) {
	r := NewRegistry()

	id1 := r.Intern("post-a")
	id2 := r.Intern("post-a")
	assert.Equal(t, id1, id2)

	id3 := r.Intern("post-b")
	assert.NotEqual(t, id1, id3)

	postID, ok := r.Lookup(id1)
	require.True(t, ok)
	assert.Equal(t, "post-a", postID)
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry()
	r.Intern("post-a")
	r.Release("post-a")

	_, ok := r.LookupID("post-a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySaveLoadRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Intern("post-a")
	r.Intern("post-b")
	r.Intern("post-c")

	var buf bytes.Buffer
	require.NoError(t, r.Save(&buf))

	loaded := NewRegistry()
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, r.Len(), loaded.Len())
	for _, postID := range []string{"post-a", "post-b", "post-c"} {
		want, _ := r.LookupID(postID)
		got, ok := loaded.LookupID(postID)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	// A fresh intern after Load must not collide with a restored ID.
	newID := loaded.Intern("post-d")
	for _, postID := range []string{"post-a", "post-b", "post-c"} {
		id, _ := loaded.LookupID(postID)
		assert.NotEqual(t, newID, id)
	}
}

func TestSetAddRemove(t *testing.T) {
	s := NewSet()
	s.Add(0, 42, ID(1))
	s.Add(0, 42, ID(2))
	s.Add(1, -7, ID(1))

	assert.ElementsMatch(t, []ID{1, 2}, s.At(0, 42))
	assert.ElementsMatch(t, []ID{1}, s.At(1, -7))
	assert.Nil(t, s.At(2, 5))

	s.Remove(0, 42, ID(1))
	assert.ElementsMatch(t, []ID{2}, s.At(0, 42))

	s.Remove(0, 42, ID(2))
	assert.Nil(t, s.At(0, 42))
	assert.Equal(t, 1, s.BucketCount())
}

func TestSetEachBucket(t *testing.T) {
	s := NewSet()
	s.Add(0, 1, ID(10))
	s.Add(0, 1, ID(11))
	s.Add(2, -3, ID(12))

	seen := map[[2]int][]ID{}
	for k, ids := range s.EachBucket() {
		seen[k] = ids
	}

	require.Len(t, seen, 2)
	assert.ElementsMatch(t, []ID{10, 11}, seen[[2]int{0, 1}])
	assert.ElementsMatch(t, []ID{12}, seen[[2]int{2, -3}])
}

func TestSetCardinality(t *testing.T) {
	s := NewSet()
	assert.Equal(t, uint64(0), s.Cardinality(0, 1))

	s.Add(0, 1, ID(1))
	s.Add(0, 1, ID(2))
	assert.Equal(t, uint64(2), s.Cardinality(0, 1))
}
