package iqdb

import (
	"errors"
	"fmt"

	"github.com/honooru/iqdb/catalog"
	"github.com/honooru/iqdb/haar"
)

var (
	// ErrFatal wraps unrecoverable storage failures: I/O errors talking to
	// the Catalog, or data integrity failures (a stored blob that no
	// longer decodes to a valid Signature). An Engine that returns
	// ErrFatal should be treated as no longer trustworthy for writes.
	ErrFatal = errors.New("iqdb: fatal error")

	// ErrImage is returned when the bytes handed to AddImage or
	// QueryFromBlob cannot be decoded into a raster.
	ErrImage = errors.New("iqdb: invalid image")

	// ErrParam is returned when a caller-supplied argument is invalid
	// (a non-positive k, an empty postID).
	ErrParam = errors.New("iqdb: invalid parameter")
)

// translateError maps errors surfacing from the Catalog and haar packages
// onto the three-way taxonomy this package exposes. Lookups that are
// merely absent (an unknown postID) are never routed through here; those
// are reported to callers as a boolean, not an error.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	if errors.Is(err, haar.ErrImage) {
		return fmt.Errorf("%w: %w", ErrImage, err)
	}
	if errors.Is(err, haar.ErrDataIntegrity) {
		return fmt.Errorf("%w: %w", ErrFatal, err)
	}

	return fmt.Errorf("%w: %w", ErrFatal, err)
}
