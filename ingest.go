package iqdb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/honooru/iqdb/catalog"
	"github.com/honooru/iqdb/haar"
)

// AddImage decodes data (a JPEG file), extracts its Haar signature, and
// files it into the Engine under postID, replacing any prior entry for
// that postID. md5 is the caller-supplied duplicate key (see
// Catalog.GetByMD5); pass the empty string if unknown.
//
// Mirrors IQDB::addImage: an existing entry for postID is removed first,
// so re-ingesting a postID never leaves two rows behind.
func (eng *Engine) AddImage(ctx context.Context, postID, md5Hex string, data []byte) error {
	start := time.Now()
	width, height, err := eng.addImage(ctx, postID, md5Hex, data)
	eng.opts.metricsCollector.RecordAddImage(time.Since(start), err)
	eng.opts.logger.LogAddImage(ctx, postID, width, height, err)
	return err
}

func (eng *Engine) addImage(ctx context.Context, postID, md5Hex string, data []byte) (width, height int, err error) {
	if err := validatePostID(postID); err != nil {
		return 0, 0, err
	}

	if eng.opts.ingestLimiter != nil {
		if err := eng.opts.ingestLimiter.Wait(ctx); err != nil {
			return 0, 0, fmt.Errorf("%w: %w", ErrParam, err)
		}
	}

	sig, err := haar.ExtractFromBytes(data, eng.opts.decoder)
	if err != nil {
		return 0, 0, translateError(err)
	}

	width, height, err = haar.Dimensions(data)
	if err != nil {
		return 0, 0, translateError(err)
	}

	if md5Hex == "" {
		sum := md5.Sum(data)
		md5Hex = hex.EncodeToString(sum[:])
	}

	eng.mu.Lock()
	defer eng.mu.Unlock()

	oldRow, getErr := eng.catalog.Get(ctx, postID)

	row := catalog.Row{PostID: postID, MD5: md5Hex, Width: width, Height: height, Sig: sig}
	if err := eng.catalog.Upsert(ctx, row); err != nil {
		return 0, 0, translateError(err)
	}

	// In-memory state is only ever mutated once the Catalog write that
	// backs it has committed, so a failed Upsert above leaves the index
	// exactly as it was.
	if getErr == nil {
		eng.removeImageInMemory(postID, oldRow.Sig)
	}
	eng.addImageInMemory(postID, sig)
	return width, height, nil
}

// RemoveImage takes postID out of the bucket index, marks it deleted in
// the InfoMap, and deletes its Catalog row. It is not an error to remove
// a postID that was never indexed.
func (eng *Engine) RemoveImage(ctx context.Context, postID string) error {
	start := time.Now()
	err := eng.removeImage(ctx, postID)
	eng.opts.metricsCollector.RecordRemoveImage(time.Since(start), err)
	eng.opts.logger.LogRemoveImage(ctx, postID, err)
	return err
}

func (eng *Engine) removeImage(ctx context.Context, postID string) error {
	if err := validatePostID(postID); err != nil {
		return err
	}

	eng.mu.Lock()
	defer eng.mu.Unlock()

	row, err := eng.catalog.Get(ctx, postID)
	if err != nil {
		if err == catalog.ErrNotFound {
			eng.opts.logger.WarnContext(ctx, "remove of unknown image", "post_id", postID)
			return nil
		}
		return translateError(err)
	}

	if err := eng.catalog.Remove(ctx, postID); err != nil {
		return translateError(err)
	}

	// Only mutate the bucket index / InfoMap once the Catalog delete has
	// committed, so a failed Remove above leaves the index untouched.
	eng.removeImageInMemory(postID, row.Sig)
	return nil
}
