package geometry

import (
	"fmt"
	"image"
	"math"
)

// Size is a width and height in either display or source units.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Valid reports whether both dimensions are finite and strictly positive.
func (s Size) Valid() bool {
	return finite(s.W) && finite(s.H) && s.W > 0 && s.H > 0
}

// Scale multiplies both sides of s by f.
func (s Size) Scale(f float64) Size {
	return Size{W: s.W * f, H: s.H * f}
}

// Aspect returns W/H.
func (s Size) Aspect() float64 {
	return s.W / s.H
}

// SizeOf returns the pixel size of an image.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{W: float64(b.Dx()), H: float64(b.Dy())}
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Scale multiplies every coordinate of r by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, W: r.W * f, H: r.H * f}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return !(r.W > 0) || !(r.H > 0)
}

// Pixels converts r to an integer pixel rectangle inside a source of the
// given size. Edges are rounded to the nearest pixel and clamped, so the
// result may be empty even when r is not.
func (r Rect) Pixels(source Size) image.Rectangle {
	maxW := int(math.Round(source.W))
	maxH := int(math.Round(source.H))
	x0 := clampInt(int(math.Round(r.X)), 0, maxW)
	y0 := clampInt(int(math.Round(r.Y)), 0, maxH)
	x1 := clampInt(int(math.Round(r.MaxX())), x0, maxW)
	y1 := clampInt(int(math.Round(r.MaxY())), y0, maxH)
	return image.Rect(x0, y0, x1, y1)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f,%.2f %.2fx%.2f)", r.X, r.Y, r.W, r.H)
}

// clamp limits v to [lo, hi]. When hi < lo the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
