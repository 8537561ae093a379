// Package imaging prepares local photos for upload: it identifies the real format
// from the bytes and re-encodes anything that is not already JPEG or PNG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	_ "image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the compression quality for transcoded JPEG output.
const JPEGQuality = 85

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// ErrUnsupported is returned when the bytes do not decode as any known image format.
var ErrUnsupported = errors.New("unsupported image format")

// Image is upload-ready image data.
type Image struct {
	Data []byte
	MIME string
	Ext  string
}

// Prepare sniffs data by its magic numbers instead of trusting file names.
// PNG input stays PNG so transparency survives (cut-outs from background removal);
// JPEG stays JPEG; everything else decodable is transcoded to JPEG. When maxDim > 0
// images larger than maxDim on either side are scaled down to fit.
func Prepare(data []byte, maxDim int) (*Image, error) {
	detected := http.DetectContentType(data)

	if (detected == MIMEPNG || detected == MIMEJPEG) && fits(data, maxDim) {
		return &Image{Data: data, MIME: detected, Ext: extFor(detected)}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	out := MIMEJPEG
	if detected == MIMEPNG {
		out = MIMEPNG
	}

	var buf bytes.Buffer
	switch out {
	case MIMEPNG:
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", out, err)
	}

	return &Image{Data: buf.Bytes(), MIME: out, Ext: extFor(out)}, nil
}

// fits reports whether the image needs no resizing. Undecodable headers
// report true and are passed through as-is.
func fits(data []byte, maxDim int) bool {
	if maxDim <= 0 {
		return true
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return true
	}
	return cfg.Width <= maxDim && cfg.Height <= maxDim
}

func extFor(mime string) string {
	if mime == MIMEPNG {
		return "png"
	}
	return "jpg"
}
