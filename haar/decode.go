package haar

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	ximagedraw "golang.org/x/image/draw"
)

// ErrImage is returned when the decode collaborator cannot make sense of
// the supplied bytes (not JPEG, truncated, corrupt).
var ErrImage = errors.New("haar: could not decode image")

// RGBRaster is a decoded, resized image: NumPixels x NumPixels, row-major,
// 3 bytes (R, G, B) per pixel.
type RGBRaster []byte

// Decoder is the external "decode_and_resize" collaborator: it turns raw
// encoded image bytes into a fixed-size RGB raster. The core treats it as
// an injectable dependency; DefaultDecoder below is a concrete, real
// implementation built on the standard library plus golang.org/x/image,
// not merely a stub.
type Decoder interface {
	DecodeAndResize(data []byte) (RGBRaster, error)
}

// DefaultDecoder decodes JPEG-encoded bytes and resamples them to
// NumPixels x NumPixels using a bilinear filter, matching the role the
// reference server's libgd-based resizer plays ahead of signature
// extraction.
type DefaultDecoder struct{}

// Dimensions reports the width and height JPEG bytes decode to, without
// resampling them. Callers that need both a Signature and the source
// image's native size (the Catalog's width/height columns) call this
// alongside ExtractFromBytes rather than have Decoder carry dimensions
// it has no other use for.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, ErrImage
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeAndResize implements Decoder.
func (DefaultDecoder) DecodeAndResize(data []byte) (RGBRaster, error) {
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		return nil, ErrImage
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, NumPixels, NumPixels))
	ximagedraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), ximagedraw.Over, nil)

	out := make(RGBRaster, NumPixels*NumPixels*3)
	for y := 0; y < NumPixels; y++ {
		for x := 0; x < NumPixels; x++ {
			r, g, b, _ := dst.At(x, y).RGBA()
			i := (y*NumPixels + x) * 3
			out[i] = byte(r >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(b >> 8)
		}
	}
	return out, nil
}
