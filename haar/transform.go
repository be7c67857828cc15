package haar

import (
	"math"
	"sort"
)

// YIQPlanes holds three NumPixels x NumPixels channel planes (Y, I, Q),
// each stored flat in row-major order.
type YIQPlanes [NumChannels][]float64

// RGBToYIQ converts a decoded raster to YIQ planes. This is the
// "rgb_to_yiq" collaborator from spec.md §6: a pure, deterministic color
// space transform, always available (it needs no external dependency).
// ExtractFromRaster always uses this conversion; it takes no other.
func RGBToYIQ(raster RGBRaster) YIQPlanes {
	n := NumPixels * NumPixels
	var planes YIQPlanes
	for c := range planes {
		planes[c] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		r := float64(raster[i*3]) / 255
		g := float64(raster[i*3+1]) / 255
		b := float64(raster[i*3+2]) / 255

		planes[0][i] = 0.299*r + 0.587*g + 0.114*b
		planes[1][i] = 0.596*r - 0.274*g - 0.322*b
		planes[2][i] = 0.211*r - 0.523*g + 0.312*b
	}
	return planes
}

// coefficient is a candidate for the top-NumCoefs selection: a signed
// wavelet coefficient at a given flat index.
type coefficient struct {
	index int
	value float64
}

// haar1D applies one level of the 1-D Haar wavelet transform in place to
// a[:length]: the first half becomes averages, the second half becomes
// differences, both scaled by 1/sqrt(2) so that energy is preserved.
func haar1D(a []float64, length int) {
	half := length / 2
	tmp := make([]float64, length)
	const invSqrt2 = 1 / math.Sqrt2
	for i := 0; i < half; i++ {
		x, y := a[2*i], a[2*i+1]
		tmp[i] = (x + y) * invSqrt2
		tmp[half+i] = (x - y) * invSqrt2
	}
	copy(a[:length], tmp)
}

// haar2D performs a standard (pyramidal) 2-D Haar wavelet decomposition
// of an NumPixels x NumPixels plane, in place: rows then columns at each
// scale, halving the active region every level. plane[0] ends up holding
// NumPixels times the channel average; every other cell is a wavelet
// coefficient at flat index y*NumPixels+x.
func haar2D(plane []float64) {
	row := make([]float64, NumPixels)
	col := make([]float64, NumPixels)

	for size := NumPixels; size > 1; size /= 2 {
		for y := 0; y < size; y++ {
			copy(row[:size], plane[y*NumPixels:y*NumPixels+size])
			haar1D(row, size)
			copy(plane[y*NumPixels:y*NumPixels+size], row[:size])
		}
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				col[y] = plane[y*NumPixels+x]
			}
			haar1D(col, size)
			for y := 0; y < size; y++ {
				plane[y*NumPixels+x] = col[y]
			}
		}
	}
}

// topCoefficients selects the NumCoefs largest-magnitude coefficients
// from plane (excluding flat index 0, the DC term), breaking ties on
// equal magnitude by ascending flat index, and returns them as signed
// flat indices ordered by descending magnitude.
func topCoefficients(plane []float64) [NumCoefs]int16 {
	candidates := make([]coefficient, 0, len(plane)-1)
	for i := 1; i < len(plane); i++ {
		candidates = append(candidates, coefficient{index: i, value: plane[i]})
	}

	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := math.Abs(candidates[i].value), math.Abs(candidates[j].value)
		if ai != aj {
			return ai > aj
		}
		return candidates[i].index < candidates[j].index
	})

	var out [NumCoefs]int16
	for k := 0; k < NumCoefs; k++ {
		c := candidates[k]
		idx := int16(c.index)
		if c.value < 0 {
			idx = -idx
		}
		out[k] = idx
	}
	return out
}

// ExtractFromRaster computes a Signature from a decoded RGB raster: YIQ
// conversion, a 2-D Haar wavelet decomposition per channel, and
// top-NumCoefs selection. Deterministic: identical bytes always produce
// an identical Signature.
func ExtractFromRaster(raster RGBRaster) Signature {
	planes := RGBToYIQ(raster)

	var sig Signature
	for c := 0; c < NumChannels; c++ {
		plane := append([]float64(nil), planes[c]...)

		sum := 0.0
		for _, v := range plane {
			sum += v
		}
		sig.AvgLF[c] = sum / float64(len(plane))

		haar2D(plane)
		sig.Sig[c] = topCoefficients(plane)
	}
	return sig
}

// ExtractFromBytes runs the full from_file_content pipeline: it invokes
// dec to decode and resize raw image bytes, then extracts a Signature
// from the resulting raster. If dec is nil, DefaultDecoder is used.
func ExtractFromBytes(data []byte, dec Decoder) (Signature, error) {
	if dec == nil {
		dec = DefaultDecoder{}
	}
	raster, err := dec.DecodeAndResize(data)
	if err != nil {
		return Signature{}, ErrImage
	}
	if len(raster) != NumPixels*NumPixels*3 {
		return Signature{}, ErrImage
	}
	return ExtractFromRaster(raster), nil
}
