package iqdb

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, fill func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func redImage(t *testing.T) []byte {
	return encodeJPEG(t, func(x, y int) color.Color { return color.RGBA{255, 0, 0, 255} })
}

func checkerImage(t *testing.T) []byte {
	return encodeJPEG(t, func(x, y int) color.Color {
		if (x/8+y/8)%2 == 0 {
			return color.RGBA{255, 255, 255, 255}
		}
		return color.RGBA{0, 0, 0, 255}
	})
}

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestAddImageAndGetImage(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.AddImage(ctx, "post-1", "", redImage(t)))

	row, ok, err := eng.GetImage(ctx, "post-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "post-1", row.PostID)
	assert.NotEmpty(t, row.MD5)
	assert.Equal(t, 1, eng.ImageCount())
}

func TestAddImageRejectsEmptyPostID(t *testing.T) {
	eng := openTestEngine(t)
	err := eng.AddImage(context.Background(), "", "", redImage(t))
	assert.ErrorIs(t, err, ErrParam)
}

func TestAddImageRejectsGarbageBytes(t *testing.T) {
	eng := openTestEngine(t)
	err := eng.AddImage(context.Background(), "post-1", "", []byte("not an image"))
	assert.ErrorIs(t, err, ErrImage)
}

func TestAddImageReplacesPriorEntry(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.AddImage(ctx, "post-1", "", redImage(t)))
	require.NoError(t, eng.AddImage(ctx, "post-1", "", checkerImage(t)))

	assert.Equal(t, 1, eng.ImageCount())
}

func TestRemoveImage(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.AddImage(ctx, "post-1", "", redImage(t)))
	require.NoError(t, eng.RemoveImage(ctx, "post-1"))

	assert.Equal(t, 0, eng.ImageCount())

	deleted, known := eng.IsDeleted("post-1")
	assert.True(t, known)
	assert.True(t, deleted)

	_, ok, err := eng.GetImage(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveUnknownImageIsNotAnError(t *testing.T) {
	eng := openTestEngine(t)
	assert.NoError(t, eng.RemoveImage(context.Background(), "never-existed"))
}

func TestIsDeletedUnknownPostID(t *testing.T) {
	eng := openTestEngine(t)
	deleted, known := eng.IsDeleted("missing")
	assert.False(t, known)
	assert.False(t, deleted)
}

func TestQueryFromBlobFindsExactMatchFirst(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	checker := checkerImage(t)
	require.NoError(t, eng.AddImage(ctx, "post-checker", "", checker))
	require.NoError(t, eng.AddImage(ctx, "post-red", "", redImage(t)))

	matches, err := eng.QueryFromBlob(ctx, checker, 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "post-checker", matches[0].PostID)
}

func TestQueryFromBlobRejectsNonPositiveK(t *testing.T) {
	eng := openTestEngine(t)
	_, err := eng.QueryFromBlob(context.Background(), redImage(t), 0)
	assert.ErrorIs(t, err, ErrParam)
}

func TestQueryExcludesDeletedImages(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	checker := checkerImage(t)
	require.NoError(t, eng.AddImage(ctx, "post-checker", "", checker))
	require.NoError(t, eng.RemoveImage(ctx, "post-checker"))

	matches, err := eng.QueryFromBlob(ctx, checker, 5)
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, "post-checker", m.PostID)
	}
}

func TestGetByMD5(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.AddImage(ctx, "post-1", "shared-md5", redImage(t)))
	require.NoError(t, eng.AddImage(ctx, "post-2", "shared-md5", redImage(t)))

	rows, err := eng.GetByMD5(ctx, "shared-md5")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRebuildRestoresState(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.AddImage(ctx, "post-1", "", redImage(t)))
	require.NoError(t, eng.AddImage(ctx, "post-2", "", checkerImage(t)))

	require.NoError(t, eng.Rebuild(ctx))

	assert.Equal(t, 2, eng.ImageCount())
	_, ok, err := eng.GetImage(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestConcurrentReadersAndWriter runs a single writer looping
// AddImage/RemoveImage against several concurrent QueryFromBlob readers,
// meant to be run with -race: it must finish without a crash, a data
// race, or a torn read from any reader.
func TestConcurrentReadersAndWriter(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()

	checker := checkerImage(t)
	red := redImage(t)

	const writes = 200
	const readers = 8

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			postID := fmt.Sprintf("post-%d", i%20)
			img := red
			if i%2 == 0 {
				img = checker
			}
			if err := eng.AddImage(ctx, postID, "", img); err != nil {
				t.Errorf("AddImage: %v", err)
				return
			}
			if i%3 == 0 {
				if err := eng.RemoveImage(ctx, postID); err != nil {
					t.Errorf("RemoveImage: %v", err)
					return
				}
			}
		}
	}()

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				if _, err := eng.QueryFromBlob(ctx, checker, 5); err != nil {
					t.Errorf("QueryFromBlob: %v", err)
					return
				}
				if _, _, err := eng.GetImage(ctx, "post-0"); err != nil {
					t.Errorf("GetImage: %v", err)
					return
				}
			}
		}()
	}

	wg.Wait()
}
