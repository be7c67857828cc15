package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/honooru/iqdb/bucket"
)

const (
	// CatalogKeySuffix names the compressed Catalog file within a
	// snapshot's set of objects.
	CatalogKeySuffix = "catalog.zst"
	// RegistryKeySuffix names the compressed postID registry within a
	// snapshot's set of objects.
	RegistryKeySuffix = "registry.zst"
)

// pushCompressed zstd-compresses the bytes read from r and uploads them
// to store under key, returning the compressed size actually written.
func pushCompressed(ctx context.Context, store Store, key string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return 0, fmt.Errorf("backup: new zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, r); err != nil {
		enc.Close()
		return 0, fmt.Errorf("backup: compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("backup: flush compressed stream: %w", err)
	}

	size := int64(buf.Len())
	if err := store.Put(ctx, key, &buf, size); err != nil {
		return 0, fmt.Errorf("backup: push %s: %w", key, err)
	}
	return size, nil
}

// pullDecompressed downloads key from store and writes its decompressed
// contents to w.
func pullDecompressed(ctx context.Context, store Store, key string, w io.Writer) error {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("backup: pull %s: %w", key, err)
	}
	defer rc.Close()

	dec, err := zstd.NewReader(rc)
	if err != nil {
		return fmt.Errorf("backup: new zstd reader for %s: %w", key, err)
	}
	defer dec.Close()

	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("backup: decompress %s: %w", key, err)
	}
	return nil
}

// PushCatalogFile compresses the Catalog file at catalogPath and uploads
// it to store under keyPrefix+CatalogKeySuffix, recording the push in
// manifest.
func PushCatalogFile(ctx context.Context, store Store, manifest *ManifestStore, keyPrefix, catalogPath string) (Entry, error) {
	f, err := os.Open(catalogPath)
	if err != nil {
		return Entry{}, fmt.Errorf("backup: open catalog file: %w", err)
	}
	defer f.Close()

	key := keyPrefix + CatalogKeySuffix
	size, err := pushCompressed(ctx, store, key, f)
	if err != nil {
		return Entry{}, err
	}
	return manifest.Record(ctx, key, size)
}

// RestoreCatalogFile downloads and decompresses the catalog snapshot
// under keyPrefix+CatalogKeySuffix, writing it to destPath.
func RestoreCatalogFile(ctx context.Context, store Store, keyPrefix, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("backup: create restore target: %w", err)
	}
	defer f.Close()

	return pullDecompressed(ctx, store, keyPrefix+CatalogKeySuffix, f)
}

// PushAll pushes both the Catalog file and the in-memory postID registry
// concurrently, the way a full backup needs both the durable rows and
// the dense IDs that address them in the bucket index. Either push
// failing cancels the other via the shared errgroup context.
func PushAll(ctx context.Context, store Store, manifest *ManifestStore, keyPrefix, catalogPath string, registry *bucket.Registry) (catalogEntry, registryEntry Entry, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e, err := PushCatalogFile(gctx, store, manifest, keyPrefix, catalogPath)
		catalogEntry = e
		return err
	})

	g.Go(func() error {
		var buf bytes.Buffer
		if err := registry.Save(&buf); err != nil {
			return fmt.Errorf("backup: serialize registry: %w", err)
		}
		key := keyPrefix + RegistryKeySuffix
		size, err := pushCompressed(gctx, store, key, &buf)
		if err != nil {
			return err
		}
		registryEntry, err = manifest.Record(gctx, key, size)
		return err
	})

	if err := g.Wait(); err != nil {
		return Entry{}, Entry{}, err
	}
	return catalogEntry, registryEntry, nil
}

// RestoreRegistry downloads and decompresses the registry snapshot under
// keyPrefix+RegistryKeySuffix into registry, replacing its contents.
func RestoreRegistry(ctx context.Context, store Store, keyPrefix string, registry *bucket.Registry) error {
	var buf bytes.Buffer
	if err := pullDecompressed(ctx, store, keyPrefix+RegistryKeySuffix, &buf); err != nil {
		return err
	}
	return registry.Load(&buf)
}
