package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pencrop-mcp/internal/geometry"
)

// DefaultBorderColor is the crop outline color (white, as on the capture
// screen).
const DefaultBorderColor = "#ffffff"

// MaxPreviewSide bounds the longer side of a preview in pixels. Larger
// displays are rendered scaled down.
const MaxPreviewSide = 4096

// OverlayOptions controls how the crop preview is drawn.
type OverlayOptions struct {
	// BorderColor is a hex color such as "#ffffff" or "#fff".
	BorderColor string
	// BorderWidth is the outline thickness in display pixels.
	BorderWidth int
	// DimOutside shades the area outside the crop rectangle.
	DimOutside bool
}

// OverlayResult contains the rendered preview. CropRect and VisibleRegion
// are in preview pixels, which are display units multiplied by Scale.
type OverlayResult struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	ImageBase64   string        `json:"image_base64"`
	MimeType      string        `json:"mime_type"`
	Scale         float64       `json:"scale"`
	CropRect      geometry.Rect `json:"crop_rect"`
	VisibleRegion geometry.Rect `json:"visible_region"`
}

// PreviewScale returns the factor from display units to preview pixels.
// It is 1 unless the display is longer than MaxPreviewSide.
func PreviewScale(display geometry.Size) float64 {
	if longest := math.Max(display.W, display.H); longest > MaxPreviewSide {
		return MaxPreviewSide / longest
	}
	return 1
}

// ParseColor parses a hex color string.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c.Clamped(), nil
}

// RenderOverlay draws src aspect-fit into a canvas the size of the display,
// leaving black letterbox or pillarbox margins, and outlines the crop
// rectangle on top. Displays longer than MaxPreviewSide are scaled down by
// PreviewScale.
func RenderOverlay(src image.Image, display geometry.Size, crop geometry.Rect, opts OverlayOptions) (*image.NRGBA, error) {
	if !display.Valid() {
		return nil, &geometry.InvalidBoundsError{What: "display", Size: display}
	}
	if opts.BorderColor == "" {
		opts.BorderColor = DefaultBorderColor
	}
	border, err := ParseColor(opts.BorderColor)
	if err != nil {
		return nil, err
	}
	if opts.BorderWidth <= 0 {
		opts.BorderWidth = 2
	}

	scale := PreviewScale(display)
	preview := display.Scale(scale)
	canvasW := max(1, int(math.Round(preview.W)))
	canvasH := max(1, int(math.Round(preview.H)))
	canvas := imaging.New(canvasW, canvasH, color.Black)

	visible := geometry.VisibleRegion(display, geometry.SizeOf(src)).Scale(scale)
	fitW := max(1, int(math.Round(visible.W)))
	fitH := max(1, int(math.Round(visible.H)))
	fitted := imaging.Resize(src, fitW, fitH, imaging.Lanczos)
	canvas = imaging.Paste(canvas, fitted, image.Pt(int(math.Round(visible.X)), int(math.Round(visible.Y))))

	box := crop.Scale(scale).Pixels(geometry.Size{W: float64(canvasW), H: float64(canvasH)})
	if opts.DimOutside {
		shade := image.NewUniform(color.NRGBA{0, 0, 0, 128})
		for _, r := range outside(canvas.Bounds(), box) {
			draw.Draw(canvas, r, shade, image.Point{}, draw.Over)
		}
	}
	strokeRect(canvas, box, opts.BorderWidth, border)

	return canvas, nil
}

// RenderOverlayResult renders the overlay and encodes it as base64 PNG.
func RenderOverlayResult(src image.Image, display geometry.Size, crop geometry.Rect, opts OverlayOptions) (*OverlayResult, error) {
	canvas, err := RenderOverlay(src, display, crop, opts)
	if err != nil {
		return nil, err
	}
	scale := PreviewScale(display)
	encoded, err := EncodePNGBase64(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return &OverlayResult{
		Width:         canvas.Bounds().Dx(),
		Height:        canvas.Bounds().Dy(),
		ImageBase64:   encoded,
		MimeType:      "image/png",
		Scale:         scale,
		CropRect:      crop.Scale(scale),
		VisibleRegion: geometry.VisibleRegion(display, geometry.SizeOf(src)).Scale(scale),
	}, nil
}

// strokeRect draws an outline of the given width inside r.
func strokeRect(img draw.Image, r image.Rectangle, width int, c color.Color) {
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	w := min(width, r.Dx(), r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), // top
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), // left
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(img, e, u, image.Point{}, draw.Over)
	}
}

// outside returns the up to four bands of canvas not covered by box.
func outside(canvas, box image.Rectangle) []image.Rectangle {
	bands := []image.Rectangle{
		image.Rect(canvas.Min.X, canvas.Min.Y, canvas.Max.X, box.Min.Y),
		image.Rect(canvas.Min.X, box.Max.Y, canvas.Max.X, canvas.Max.Y),
		image.Rect(canvas.Min.X, box.Min.Y, box.Min.X, box.Max.Y),
		image.Rect(box.Max.X, box.Min.Y, canvas.Max.X, box.Max.Y),
	}
	out := bands[:0]
	for _, b := range bands {
		if !b.Empty() {
			out = append(out, b)
		}
	}
	return out
}
