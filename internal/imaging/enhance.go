package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"
)

// MaxUpscale bounds the enlargement Enhance applies to reach MinHeight, so a
// sliver of a photo does not turn into a huge bitmap.
const MaxUpscale = 4.0

// EnhanceOptions configures preprocessing of handwriting photos before OCR.
type EnhanceOptions struct {
	// Contrast is a relative change in the range (-1, 1]; 0 leaves contrast
	// unchanged.
	Contrast float64 `json:"contrast"`

	// Threshold binarizes the grayscale image at this level (1-255).
	// 0 disables binarization.
	Threshold uint8 `json:"threshold"`

	// MinHeight upscales images shorter than this many pixels, keeping the
	// aspect ratio, by at most MaxUpscale. Tesseract struggles with small
	// glyphs. 0 disables it.
	MinHeight int `json:"min_height"`
}

// DefaultEnhanceOptions are tuned for pen on paper photographed with a phone.
func DefaultEnhanceOptions() EnhanceOptions {
	return EnhanceOptions{
		Contrast:  0.3,
		Threshold: 0,
		MinHeight: 600,
	}
}

// Enhance converts img to grayscale and applies the optional upscale,
// contrast and threshold steps in that order.
func Enhance(img image.Image, opts EnhanceOptions) image.Image {
	var out image.Image = img

	if opts.MinHeight > 0 {
		if b := out.Bounds(); b.Dy() > 0 && b.Dy() < opts.MinHeight {
			f := math.Min(float64(opts.MinHeight)/float64(b.Dy()), MaxUpscale)
			w := int(math.Round(float64(b.Dx()) * f))
			h := int(math.Round(float64(b.Dy()) * f))
			out = transform.Resize(out, max(1, w), max(1, h), transform.Lanczos)
		}
	}

	out = effect.Grayscale(out)

	if opts.Contrast != 0 {
		out = adjust.Contrast(out, opts.Contrast)
	}
	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}
	return out
}
