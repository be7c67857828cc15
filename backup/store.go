// Package backup implements snapshot export/import for an IQDB Catalog:
// pushing a compressed copy to object storage and pulling it back,
// tracked by a manifest so a restore always knows the latest complete
// snapshot rather than a possibly-partial upload.
package backup

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a named snapshot does not exist in a Store.
var ErrNotFound = errors.New("backup: not found")

// Store is an abstraction over the object storage a Catalog snapshot is
// pushed to and pulled from, adapted from blobstore.BlobStore's
// Open/Create/Delete/List shape to the simpler whole-object Put/Get this
// package needs (snapshots are written once, in full, never appended to).
type Store interface {
	// Put uploads the full contents of r under key, replacing any
	// existing object there.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get opens key for reading. Returns ErrNotFound if key does not
	// exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. It is not an error if key does not exist.
	Delete(ctx context.Context, key string) error

	// List returns every key under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
