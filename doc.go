// Package iqdb implements a content-based image similarity index: given a
// JPEG image, extract a Haar wavelet perceptual signature and either file
// it into the index or query the index for the most visually similar
// images already indexed.
//
// # Quick start
//
//	eng, err := iqdb.Open(ctx, "./data")
//	if err != nil {
//	    ...
//	}
//	defer eng.Close()
//
//	if err := eng.AddImage(ctx, "post-123", "d41d8cd98f00b204e9800998ecf8427e", jpegBytes); err != nil {
//	    ...
//	}
//
//	matches, err := eng.QueryFromBlob(ctx, jpegBytes, 16)
//
// # Concurrency
//
// An Engine is safe for concurrent use: reads (queries, lookups) run
// under a shared lock and never block each other; writes (AddImage,
// RemoveImage) take an exclusive lock. A query observes a consistent
// snapshot of the bucket index and InfoMap as of the moment it acquired
// the lock; it never observes a partially-applied ingest.
//
// # Error handling
//
// Operations distinguish three failure classes (see ErrFatal, ErrImage,
// ErrParam) from ordinary absence: looking up an image that does not
// exist is reported with a boolean, not an error, the way a map lookup
// is.
package iqdb
