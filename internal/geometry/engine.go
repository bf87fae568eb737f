package geometry

// State is the lifecycle stage of an Engine.
type State int

const (
	// StateIdle means no gesture has been applied yet.
	StateIdle State = iota
	// StateActive means the crop rectangle has been moved or resized.
	StateActive
	// StateFinalized means FinalizeCrop has been called.
	StateFinalized
	// StateCancelled means the session was abandoned and the source image
	// stays uncropped.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Engine keeps a crop rectangle inside the display bounds while it is panned
// and pinched, and converts it to source pixel coordinates on demand.
type Engine struct {
	display Size
	rect    Rect
	gesture GestureState
	state   State
}

// NewEngine starts a crop session on a display surface of the given size.
// The initial rectangle is a centered square (see InitialRect).
//
// Returns *InvalidBoundsError when either display dimension is not positive.
func NewEngine(display Size) (*Engine, error) {
	if !display.Valid() {
		return nil, &InvalidBoundsError{What: "display", Size: display}
	}
	return &Engine{
		display: display,
		rect:    InitialRect(display),
		gesture: newGestureState(),
		state:   StateIdle,
	}, nil
}

// Display returns the display bounds of the session.
func (e *Engine) Display() Size { return e.display }

// Rect returns the current crop rectangle in display coordinates.
func (e *Engine) Rect() Rect { return e.rect }

// State returns the lifecycle stage.
func (e *Engine) State() State { return e.state }

// Gesture returns the pending gesture accumulators.
func (e *Engine) Gesture() GestureState { return e.gesture }

func (e *Engine) closed() bool {
	return e.state == StateFinalized || e.state == StateCancelled
}

// ApplyPan moves the crop rectangle by an incremental translation and clamps
// it back inside the display. Non-finite deltas are ignored. After the
// session is finalized or cancelled the rectangle no longer changes.
func (e *Engine) ApplyPan(dx, dy float64) Rect {
	if e.closed() || !finite(dx) || !finite(dy) {
		return e.rect
	}
	r := e.rect
	r.X += dx
	r.Y += dy
	e.rect = ClampInto(r, e.display)
	e.state = StateActive
	return e.rect
}

// ApplyPinch resizes the crop rectangle by a multiplicative factor around its
// current center. The rectangle stays square. Factors that are not positive
// finite numbers are ignored.
func (e *Engine) ApplyPinch(factor float64) Rect {
	if e.closed() || !finite(factor) || factor <= 0 {
		return e.rect
	}
	e.rect = ResizeAboutCenter(e.rect, factor, e.display)
	e.state = StateActive
	return e.rect
}

// HandlePan feeds a pan recognizer event. The translation is the movement
// since the previous event. It is applied on began, changed and ended; a
// cancelled gesture discards whatever is pending.
func (e *Engine) HandlePan(phase Phase, dx, dy float64) Rect {
	if phase == PhaseCancelled {
		e.gesture.TakePan()
		return e.rect
	}
	e.gesture.AddPan(dx, dy)
	return e.ApplyPan(e.gesture.TakePan())
}

// HandlePinch feeds a pinch recognizer event. Only changed events resize the
// rectangle. A factor reported on began is held until the first change;
// ended and cancelled discard it.
func (e *Engine) HandlePinch(phase Phase, factor float64) Rect {
	switch phase {
	case PhaseBegan:
		if finite(factor) && factor > 0 {
			e.gesture.MulScale(factor)
		}
	case PhaseChanged:
		if finite(factor) && factor > 0 {
			e.gesture.MulScale(factor)
		}
		return e.ApplyPinch(e.gesture.TakeScale())
	default:
		e.gesture.TakeScale()
	}
	return e.rect
}

// FinalizeCrop maps the current crop rectangle into the pixel space of the
// source image and marks the session finalized.
//
// The result depends only on the current rectangle, the display bounds and
// source, so repeated calls return identical rectangles. A zero-area result
// means the crop missed the visible image and the caller should keep the
// uncropped source.
//
// Returns *InvalidBoundsError for a non-positive source size and ErrCancelled
// when the session was cancelled.
func (e *Engine) FinalizeCrop(source Size) (Rect, error) {
	if e.state == StateCancelled {
		return Rect{}, ErrCancelled
	}
	if !source.Valid() {
		return Rect{}, &InvalidBoundsError{What: "source", Size: source}
	}
	e.state = StateFinalized
	return MapToSource(e.rect, e.display, source), nil
}

// Cancel abandons the session. Later gestures are ignored and FinalizeCrop
// returns ErrCancelled. Cancelling a finalized session has no effect.
func (e *Engine) Cancel() {
	if e.state == StateFinalized {
		return
	}
	e.state = StateCancelled
}
