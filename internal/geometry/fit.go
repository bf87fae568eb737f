package geometry

import "math"

// InitialFraction is the share of the smaller display dimension used for the
// side of the initial crop square.
const InitialFraction = 0.8

// minSide is the smallest side a pinch may shrink the crop square to.
const minSide = 1.0

// InitialRect returns the starting crop rectangle for a display: a centered
// square whose side is InitialFraction of the smaller display dimension.
func InitialRect(display Size) Rect {
	side := math.Min(display.W, display.H) * InitialFraction
	return Rect{
		X: (display.W - side) / 2,
		Y: (display.H - side) / 2,
		W: side,
		H: side,
	}
}

// VisibleRegion returns the part of the display covered by image content when
// a source image is drawn aspect-fit into it.
//
// A relatively wider image fills the display width and is letterboxed
// vertically. Otherwise the image fills the display height and is pillarboxed
// horizontally.
func VisibleRegion(display, source Size) Rect {
	if source.Aspect() > display.Aspect() {
		scale := display.W / source.W
		scaledH := source.H * scale
		return Rect{X: 0, Y: (display.H - scaledH) / 2, W: display.W, H: scaledH}
	}
	scale := display.H / source.H
	scaledW := source.W * scale
	return Rect{X: (display.W - scaledW) / 2, Y: 0, W: scaledW, H: display.H}
}

// ClampInto moves r so it lies inside a surface of the given size without
// changing its dimensions. r must not be larger than the surface.
func ClampInto(r Rect, bounds Size) Rect {
	r.X = clamp(r.X, 0, bounds.W-r.W)
	r.Y = clamp(r.Y, 0, bounds.H-r.H)
	return r
}

// ResizeAboutCenter scales r by factor, keeps the result square (the smaller
// of the scaled sides wins) and centers it on the previous center. The side is
// floored at one unit and capped at the smaller bounds dimension, then the
// square is clamped into bounds.
func ResizeAboutCenter(r Rect, factor float64, bounds Size) Rect {
	side := math.Min(r.W*factor, r.H*factor)
	if side < minSide {
		side = minSide
	}
	if limit := math.Min(bounds.W, bounds.H); side > limit {
		side = limit
	}
	cx, cy := r.Center()
	return ClampInto(Rect{X: cx - side/2, Y: cy - side/2, W: side, H: side}, bounds)
}

// MapToSource converts a display-space rectangle into source pixels using the
// aspect-fit visible region, then clamps the result to the source bounds.
//
// The result has zero width or height when crop lies entirely in the
// letterbox or pillarbox margin.
func MapToSource(crop Rect, display, source Size) Rect {
	visible := VisibleRegion(display, source)

	xScale := source.W / visible.W
	yScale := source.H / visible.H

	cropX := (crop.X - visible.X) * xScale
	cropY := (crop.Y - visible.Y) * yScale
	cropW := crop.W * xScale
	cropH := crop.H * yScale

	x := clamp(cropX, 0, source.W)
	y := clamp(cropY, 0, source.H)
	// Clip against the unclamped origin so a rectangle lying in the margin
	// collapses to zero area instead of keeping its scaled width.
	w := clamp(math.Min(cropX+cropW, source.W)-x, 0, source.W-x)
	h := clamp(math.Min(cropY+cropH, source.H)-y, 0, source.H-y)
	return Rect{X: x, Y: y, W: w, H: h}
}
