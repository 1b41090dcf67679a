package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/mhersberg/pictor/internal/domain"
)

// ThumbMaxWidth and ThumbMaxHeight bound every generated thumbnail.
const (
	ThumbMaxWidth  = 500
	ThumbMaxHeight = 500
)

// pngCompression maps a 0-9 level onto the three deflate buckets.
func pngCompression(level int) png.CompressionLevel {
	switch {
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// jpegQuality maps a 0-9 level onto a lossy quality value; higher levels
// mean smaller files, mirroring the deflate buckets.
func jpegQuality(level int) int {
	switch {
	case level <= 3:
		return 90
	case level <= 6:
		return 80
	default:
		return 70
	}
}

// EncodePNG writes img as PNG at the given 0-9 compression level. The
// image is handed to the encoder with its native color model intact, so
// grayscale and 16-bit sources are not flattened to RGBA8.
func EncodePNG(w io.Writer, img image.Image, level int) error {
	enc := png.Encoder{CompressionLevel: pngCompression(level)}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	return nil
}

// Encode writes img in the given format at the given 0-9 compression
// level. WebP has no encoder in the ecosystem stack, so WebP sources are
// written back as PNG.
func Encode(w io.Writer, img image.Image, f Format, level int) error {
	var err error
	switch f {
	case JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(level)))
	case GIF:
		err = imaging.Encode(w, img, imaging.GIF)
	case TIFF:
		err = imaging.Encode(w, img, imaging.TIFF)
	case BMP:
		err = imaging.Encode(w, img, imaging.BMP)
	default:
		return EncodePNG(w, img, level)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	return nil
}

// Thumbnail produces the PNG thumbnail bytes for img, bounded by
// ThumbMaxWidth x ThumbMaxHeight.
func Thumbnail(img image.Image, level int) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, Fit(img, ThumbMaxWidth, ThumbMaxHeight), level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
