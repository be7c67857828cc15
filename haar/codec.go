package haar

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDataIntegrity is returned when a blob or hash has the wrong shape to
// be decoded into a Signature.
var ErrDataIntegrity = errors.New("haar: malformed signature encoding")

// sigBlobSize is the size in bytes of the Catalog's "sig" column: the
// coefficient arrays only, NOT the AvgLF triple (which the Catalog keeps
// in three separate double columns, per spec.md §3/§6).
const sigBlobSize = NumChannels * NumCoefs * 2

// ToBlob encodes sig's coefficient arrays into the Catalog storage form:
// NumChannels*NumCoefs*2 bytes, little-endian int16, row-major
// [channel][k]. It does not encode AvgLF; callers store that separately
// (see Row in package catalog) and pass it back into FromBlob.
func ToBlob(sig Signature) []byte {
	buf := make([]byte, sigBlobSize)
	i := 0
	for c := 0; c < NumChannels; c++ {
		for k := 0; k < NumCoefs; k++ {
			binary.LittleEndian.PutUint16(buf[i:], uint16(sig.Sig[c][k]))
			i += 2
		}
	}
	return buf
}

// FromBlob reconstructs a Signature from the Catalog's avglf columns and
// sig blob. Returns ErrDataIntegrity if blob is not exactly
// NumChannels*NumCoefs*2 bytes.
func FromBlob(avglf [NumChannels]float64, blob []byte) (Signature, error) {
	if len(blob) != sigBlobSize {
		return Signature{}, fmt.Errorf("%w: sig blob is %d bytes, want %d", ErrDataIntegrity, len(blob), sigBlobSize)
	}
	sig := Signature{AvgLF: avglf}
	i := 0
	for c := 0; c < NumChannels; c++ {
		for k := 0; k < NumCoefs; k++ {
			sig.Sig[c][k] = int16(binary.LittleEndian.Uint16(blob[i:]))
			i += 2
		}
	}
	return sig, nil
}

// hashBlobSize is the size of the self-contained transport encoding used
// by ToHash: AvgLF (3 float64) followed by the sig coefficient arrays.
const hashBlobSize = NumChannels*8 + sigBlobSize

// ToHash encodes sig (AvgLF and Sig both) into a compact, reversible
// textual form suitable for transport (e.g. a query parameter), matching
// spec.md §6's "signature textual hash". FromHash(ToHash(x)) == x always.
func ToHash(sig Signature) string {
	buf := make([]byte, hashBlobSize)
	for c := 0; c < NumChannels; c++ {
		binary.LittleEndian.PutUint64(buf[c*8:], math.Float64bits(sig.AvgLF[c]))
	}
	copy(buf[NumChannels*8:], ToBlob(sig))
	return base64.RawURLEncoding.EncodeToString(buf)
}

// FromHash decodes a string produced by ToHash back into a Signature.
func FromHash(s string) (Signature, error) {
	buf, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	if len(buf) != hashBlobSize {
		return Signature{}, fmt.Errorf("%w: hash decodes to %d bytes, want %d", ErrDataIntegrity, len(buf), hashBlobSize)
	}

	var avglf [NumChannels]float64
	for c := 0; c < NumChannels; c++ {
		avglf[c] = math.Float64frombits(binary.LittleEndian.Uint64(buf[c*8:]))
	}
	return FromBlob(avglf, buf[NumChannels*8:])
}
