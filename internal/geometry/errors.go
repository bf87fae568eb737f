package geometry

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by FinalizeCrop after the session was cancelled.
var ErrCancelled = errors.New("crop session cancelled")

// InvalidBoundsError reports a display or source size whose width or height
// is not a positive finite number.
type InvalidBoundsError struct {
	// What names the offending size, e.g. "display" or "source".
	What string
	Size Size
}

func (e *InvalidBoundsError) Error() string {
	return fmt.Sprintf("invalid %s bounds %gx%g: width and height must be positive",
		e.What, e.Size.W, e.Size.H)
}
