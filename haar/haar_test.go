package haar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidRaster(r, g, b byte) RGBRaster {
	out := make(RGBRaster, NumPixels*NumPixels*3)
	for i := 0; i < NumPixels*NumPixels; i++ {
		out[i*3] = r
		out[i*3+1] = g
		out[i*3+2] = b
	}
	return out
}

func checkerRaster() RGBRaster {
	out := make(RGBRaster, NumPixels*NumPixels*3)
	for y := 0; y < NumPixels; y++ {
		for x := 0; x < NumPixels; x++ {
			i := (y*NumPixels + x) * 3
			if (x/8+y/8)%2 == 0 {
				out[i], out[i+1], out[i+2] = 255, 255, 255
			}
		}
	}
	return out
}

func TestExtractFromRasterDeterministic(t *testing.T) {
	raster := checkerRaster()

	a := ExtractFromRaster(raster)
	b := ExtractFromRaster(raster)

	assert.True(t, a.Equal(b))
}

func TestExtractFromRasterSolidIsGrayscale(t *testing.T) {
	sig := ExtractFromRaster(solidRaster(128, 128, 128))
	assert.Equal(t, 1, sig.NumColors())
}

func TestExtractFromRasterColoredIsNotGrayscale(t *testing.T) {
	sig := ExtractFromRaster(solidRaster(255, 0, 0))
	assert.Equal(t, 3, sig.NumColors())
}

func TestTopCoefficientsOrderingAndTieBreak(t *testing.T) {
	plane := make([]float64, NumPixels*NumPixels)
	plane[1] = 5
	plane[2] = -5
	plane[3] = 10

	top := topCoefficients(plane)

	require.Equal(t, int16(3), top[0])
	assert.Equal(t, int16(1), top[1])
	assert.Equal(t, int16(-2), top[2])
	assert.NotEqual(t, top[1], top[2])
}

func TestHaar1DConstantHasNoDifferences(t *testing.T) {
	a := []float64{4, 4, 4, 4}
	haar1D(a, 4)
	// averages land in the first half, differences (all zero) in the
	// second; constant input has no high-frequency content.
	assert.InDelta(t, 0, a[2], 1e-9)
	assert.InDelta(t, 0, a[3], 1e-9)
}

func TestBlobRoundTrip(t *testing.T) {
	sig := ExtractFromRaster(checkerRaster())

	blob := ToBlob(sig)
	require.Len(t, blob, NumChannels*NumCoefs*2)

	got, err := FromBlob(sig.AvgLF, blob)
	require.NoError(t, err)
	assert.True(t, sig.Equal(got))
}

func TestFromBlobRejectsWrongSize(t *testing.T) {
	_, err := FromBlob([NumChannels]float64{}, make([]byte, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestHashRoundTrip(t *testing.T) {
	sig := ExtractFromRaster(checkerRaster())

	h := ToHash(sig)
	got, err := FromHash(h)
	require.NoError(t, err)
	assert.True(t, sig.Equal(got))
}

func TestFromHashRejectsGarbage(t *testing.T) {
	_, err := FromHash("not-valid-base64-!!!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestDefaultDecoderRejectsNonJPEG(t *testing.T) {
	dec := DefaultDecoder{}
	_, err := dec.DecodeAndResize([]byte("not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImage)
}

func TestExtractFromBytesRejectsGarbage(t *testing.T) {
	_, err := ExtractFromBytes([]byte("not an image"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImage)
}
