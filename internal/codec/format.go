// Package codec decodes, resizes and re-encodes catalog images. Decoding
// tolerates malformed headers (truncated clipboard captures, junk bytes
// before the real stream) by sniffing magic sequences and retrying.
package codec

import (
	"bytes"
	"strings"
)

// Format identifies an image encoding the catalog understands.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	GIF  Format = "gif"
	WebP Format = "webp"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
)

// Ext returns the file extension used on disk for the format.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Detect sniffs the format from leading magic bytes. Unrecognized content
// reports PNG, which is also the fallback encoding.
func Detect(data []byte) Format {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return JPEG
	case bytes.HasPrefix(data, pngSignature):
		return PNG
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return WebP
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	default:
		return PNG
	}
}

// imageExtensions is the allow-list used when scanning folders for
// importable files. Detection of the actual format still goes by content.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImageExtension reports whether ext (with leading dot, any case) is on
// the folder-import allow-list.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}
