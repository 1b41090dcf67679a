package codec

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// cheapFilterThreshold is the output dimension at or below which the
// quality difference between Lanczos and a triangle filter is not visible,
// so the faster filter wins. Thumbnails land here almost always.
const cheapFilterThreshold = 200

// Fit scales the image down to fit within maxW x maxH preserving aspect
// ratio. Images already inside the box are returned unchanged; there is
// no upscaling.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	newW, newH := fitDimensions(w, h, maxW, maxH)

	filter := imaging.Lanczos
	if newW <= cheapFilterThreshold || newH <= cheapFilterThreshold {
		filter = imaging.Linear
	}
	return imaging.Resize(img, newW, newH, filter)
}

func fitDimensions(w, h, maxW, maxH int) (int, int) {
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return int(math.Round(float64(w) * scale)), int(math.Round(float64(h) * scale))
}
