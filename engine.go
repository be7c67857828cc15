package iqdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/honooru/iqdb/bucket"
	"github.com/honooru/iqdb/catalog"
	"github.com/honooru/iqdb/haar"
	"github.com/honooru/iqdb/infomap"
)

// rebuildProgressEvery mirrors the reference server's loadDatabase
// heartbeat: log progress once per this many images replayed, not once
// per row.
const rebuildProgressEvery = 250_000

// Engine ties the Catalog (durable storage), the bucket index (the
// in-memory inverted index over signed wavelet coefficients) and the
// InfoMap (per-image luminance and deletion state) into the single
// entry point callers use to ingest and query images.
//
// An Engine is safe for concurrent use. Reads take mu for reading;
// AddImage and RemoveImage take it for writing.
type Engine struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	buckets  *bucket.Set
	registry *bucket.Registry
	info     *infomap.Map
	imgCount int

	opts options
}

// Open opens the Catalog at path (or an in-memory Catalog, if path is
// empty) and replays every row in it into a fresh bucket index and
// InfoMap, the way the reference server's loadDatabase always does at
// startup rather than trusting a stale in-memory snapshot.
func Open(ctx context.Context, path string, optFns ...Option) (*Engine, error) {
	cat, err := catalog.Open(path)
	if err != nil {
		return nil, translateError(err)
	}

	eng := &Engine{
		catalog:  cat,
		buckets:  bucket.NewSet(),
		registry: bucket.NewRegistry(),
		info:     infomap.New(),
		opts:     applyOptions(optFns),
	}

	if err := eng.rebuildLocked(ctx); err != nil {
		cat.Close()
		return nil, err
	}

	return eng, nil
}

// Close releases the underlying Catalog handle.
func (eng *Engine) Close() error {
	if eng == nil {
		return nil
	}
	return eng.catalog.Close()
}

// ImageCount reports the number of non-deleted images currently indexed.
func (eng *Engine) ImageCount() int {
	eng.mu.RLock()
	defer eng.mu.RUnlock()
	return eng.imgCount
}

// Registry exposes the postID<->internal-id bimap backing the bucket
// index, for callers (such as the backup subsystem) that need to
// snapshot or restore it directly.
func (eng *Engine) Registry() *bucket.Registry {
	return eng.registry
}

// addImageInMemory files sig into the bucket index and InfoMap for
// postID, the in-memory half of addImage. Callers must hold mu for
// writing.
func (eng *Engine) addImageInMemory(postID string, sig haar.Signature) {
	id := eng.registry.Intern(postID)
	for c := 0; c < sig.NumColors(); c++ {
		for _, coef := range sig.Sig[c] {
			eng.buckets.Add(c, coef, id)
		}
	}
	eng.info.Insert(postID, infomap.Info{
		AvgL: [3]float32{
			float32(sig.AvgLF[0]),
			float32(sig.AvgLF[1]),
			float32(sig.AvgLF[2]),
		},
	})
	eng.imgCount++
}

// removeImageInMemory takes postID's signature out of the bucket index
// and marks it deleted in the InfoMap, mirroring the reference's
// removeImage: postID stays resolvable through the InfoMap (a later
// IsDeleted still answers) but contributes nothing to future
// queries, and its bucket.Registry identity is released now that no
// bucket references it. Reports false if postID was not indexed.
func (eng *Engine) removeImageInMemory(postID string, sig haar.Signature) bool {
	id, ok := eng.registry.LookupID(postID)
	if !ok {
		return false
	}
	for c := 0; c < sig.NumColors(); c++ {
		for _, coef := range sig.Sig[c] {
			eng.buckets.Remove(c, coef, id)
		}
	}
	if eng.info.MarkDeleted(postID) {
		eng.imgCount--
	}
	// Every bucket referencing id was just cleared above, so it is now
	// safe to forget the postID<->id mapping; a later re-add of the same
	// postID interns a fresh id rather than resolving to this one.
	eng.registry.Release(postID)
	return true
}

// rebuildLocked clears and replays the bucket index and InfoMap from the
// Catalog. Callers must hold mu for writing (Open calls it before any
// other goroutine can observe eng).
func (eng *Engine) rebuildLocked(ctx context.Context) error {
	eng.buckets = bucket.NewSet()
	eng.registry = bucket.NewRegistry()
	eng.info = infomap.New()
	eng.imgCount = 0

	start := time.Now()
	loaded := 0
	for row, err := range eng.catalog.Iterate(ctx) {
		if err != nil {
			wrapped := translateError(err)
			eng.opts.logger.LogRebuild(ctx, loaded, wrapped)
			eng.opts.metricsCollector.RecordRebuild(loaded, time.Since(start), wrapped)
			return wrapped
		}
		eng.addImageInMemory(row.PostID, row.Sig)
		loaded++
		if loaded%rebuildProgressEvery == 0 {
			eng.opts.logger.LogRebuildProgress(ctx, loaded)
		}
	}

	eng.opts.logger.LogRebuild(ctx, loaded, nil)
	eng.opts.metricsCollector.RecordRebuild(loaded, time.Since(start), nil)
	return nil
}

// Rebuild discards the current in-memory bucket index and InfoMap and
// replays the Catalog from scratch. Use it after restoring a Catalog
// file from a backup out from under a running Engine.
func (eng *Engine) Rebuild(ctx context.Context) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.rebuildLocked(ctx)
}

// IsDeleted reports whether postID is known to the Engine and, if so,
// whether it has been removed. The second return is false when postID
// has no InfoMap entry: it was never indexed, or it was removed before
// the last rebuild (a rebuild replays only the rows still in the
// Catalog).
func (eng *Engine) IsDeleted(postID string) (deleted bool, known bool) {
	eng.mu.RLock()
	defer eng.mu.RUnlock()
	info, ok := eng.info.Get(postID)
	if !ok {
		return false, false
	}
	return info.Deleted, true
}

// GetImage returns the Catalog row for postID. The second return is
// false if postID is not known.
func (eng *Engine) GetImage(ctx context.Context, postID string) (catalog.Row, bool, error) {
	eng.mu.RLock()
	defer eng.mu.RUnlock()
	row, err := eng.catalog.Get(ctx, postID)
	if err != nil {
		if err == catalog.ErrNotFound {
			return catalog.Row{}, false, nil
		}
		return catalog.Row{}, false, translateError(err)
	}
	return row, true, nil
}

// GetByMD5 returns every Catalog row sharing md5's duplicate key.
func (eng *Engine) GetByMD5(ctx context.Context, md5 string) ([]catalog.Row, error) {
	eng.mu.RLock()
	defer eng.mu.RUnlock()
	rows, err := eng.catalog.GetByMD5(ctx, md5)
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func validatePostID(postID string) error {
	if postID == "" {
		return fmt.Errorf("%w: postID must not be empty", ErrParam)
	}
	return nil
}
