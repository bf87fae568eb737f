package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pencrop-mcp/internal/geometry"
)

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular pixel region from an image and encodes it as PNG.
func Crop(img image.Image, x1, y1, x2, y2 int) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return EncodeResult(imaging.Crop(img, image.Rect(x1, y1, x2, y2)))
}

// ApplyCrop cuts a finalized source-space crop rectangle out of img.
//
// The rectangle is rounded to whole pixels. When it has no area after
// rounding, the crop cannot be performed and the original image is returned
// with cropped set to false; callers keep working with the uncropped photo.
func ApplyCrop(img image.Image, rect geometry.Rect) (out image.Image, cropped bool) {
	if rect.Empty() {
		return img, false
	}
	px := rect.Pixels(geometry.SizeOf(img)).Add(img.Bounds().Min)
	if px.Empty() {
		return img, false
	}
	return imaging.Crop(img, px), true
}

// EncodeResult encodes img as base64 PNG.
func EncodeResult(img image.Image) (*CropResult, error) {
	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return &CropResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
