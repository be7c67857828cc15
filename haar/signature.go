// Package haar implements the SignatureCodec component: extraction of a
// Haar-wavelet perceptual fingerprint from a resized RGB image, and its
// textual-hash / binary-blob encodings.
package haar

import "fmt"

const (
	// NumPixels is the side length (in pixels) of the square raster a
	// signature is extracted from.
	NumPixels = 128

	// NumCoefs is the number of top-magnitude coefficients retained per
	// channel (the DC term at flat index 0 is never one of them).
	NumCoefs = 40

	// NumChannels is the number of color channels a full (non-grayscale)
	// signature carries.
	NumChannels = 3

	// NumCoefsPixels is the size of the flat coefficient index space.
	// Index 0 is the DC term and is never stored in Sig.
	NumCoefsPixels = NumPixels * NumPixels
)

// Signature is a HaarSignature: a fixed-size perceptual fingerprint.
//
// AvgLF holds the DC (average luminance) term per channel, roughly in
// [-1, 1]. Sig holds, per channel, the NumCoefs signed coefficient
// indices with the largest magnitude: abs(Sig[c][k]) is a flat index in
// [1, NumCoefsPixels), and its sign is the sign of the wavelet
// coefficient at that position.
type Signature struct {
	AvgLF [NumChannels]float64
	Sig   [NumChannels][NumCoefs]int16
}

// NumColors reports 1 if every channel's DC term equals the grayscale
// average (the image was effectively extracted as grayscale), else 3.
func (s Signature) NumColors() int {
	if s.AvgLF[0] == s.AvgLF[1] && s.AvgLF[1] == s.AvgLF[2] {
		return 1
	}
	return 3
}

// Equal reports whether two signatures are bit-equal: same AvgLF values
// and the same signed coefficient indices in the same order.
func (s Signature) Equal(other Signature) bool {
	if s.AvgLF != other.AvgLF {
		return false
	}
	return s.Sig == other.Sig
}

func (s Signature) String() string {
	return fmt.Sprintf("HaarSignature{avglf=%v, colors=%d}", s.AvgLF, s.NumColors())
}
