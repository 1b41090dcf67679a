package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/mhersberg/pictor/internal/domain"
)

var decoders = []struct {
	format Format
	decode func(io.Reader) (image.Image, error)
}{
	{JPEG, func(r io.Reader) (image.Image, error) { return jpeg.Decode(r) }},
	{PNG, func(r io.Reader) (image.Image, error) { return png.Decode(r) }},
	{GIF, func(r io.Reader) (image.Image, error) { return gif.Decode(r) }},
	{WebP, webp.Decode},
	{TIFF, func(r io.Reader) (image.Image, error) { return tiff.Decode(r) }},
	{BMP, bmp.Decode},
}

// Decode turns raw bytes into an image, trying progressively harder:
// the registered stdlib path first, then the decoder matching the
// sniffed magic bytes, then the remaining decoders forced in turn, then
// a header-repair pass that looks for a valid magic sequence past the
// start of the buffer and decodes from there. Failing all of that it
// returns domain.ErrDecode.
func Decode(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", domain.ErrDecode)
	}

	if img, name, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, formatFromRegistered(name), nil
	}

	sniffed := Detect(data)
	for _, d := range decoders {
		if d.format != sniffed {
			continue
		}
		if img, err := d.decode(bytes.NewReader(data)); err == nil {
			return img, d.format, nil
		}
	}
	for _, d := range decoders {
		if d.format == sniffed {
			continue
		}
		if img, err := d.decode(bytes.NewReader(data)); err == nil {
			return img, d.format, nil
		}
	}

	if img, f, ok := decodeRepaired(data); ok {
		return img, f, nil
	}

	return nil, "", fmt.Errorf("%w: no supported format matched", domain.ErrDecode)
}

// decodeRepaired scans for a JPEG SOI or PNG signature at a non-zero
// offset and retries from there. This recovers streams prefixed with
// corrupted bytes, e.g. a bad clipboard capture.
func decodeRepaired(data []byte) (image.Image, Format, bool) {
	if off := bytes.Index(data[1:], []byte{0xFF, 0xD8, 0xFF}); off >= 0 {
		if img, err := jpeg.Decode(bytes.NewReader(data[off+1:])); err == nil {
			return img, JPEG, true
		}
	}
	if off := bytes.Index(data[1:], pngSignature); off >= 0 {
		if img, err := png.Decode(bytes.NewReader(data[off+1:])); err == nil {
			return img, PNG, true
		}
	}
	return nil, "", false
}

func formatFromRegistered(name string) Format {
	switch name {
	case "jpeg":
		return JPEG
	case "png":
		return PNG
	case "gif":
		return GIF
	case "webp":
		return WebP
	case "tiff":
		return TIFF
	case "bmp":
		return BMP
	default:
		return PNG
	}
}
