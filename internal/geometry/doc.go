// Package geometry keeps an interactive crop rectangle valid while it is
// dragged and pinched on screen, and maps it back into the pixel space of the
// photo being cropped.
//
// # Coordinate Spaces
//
// Two coordinate spaces are involved:
//   - Display coordinates: the rendering surface that shows the photo. The
//     photo is drawn aspect-fit, so part of the surface may be letterbox
//     (top/bottom) or pillarbox (left/right) margin.
//   - Source coordinates: pixels of the original, uncropped photo.
//
// In both spaces (0,0) is the top-left corner, X grows rightward and Y grows
// downward.
//
// # Session Lifecycle
//
// An Engine is created per crop session from the display bounds. Pan and pinch
// updates mutate its rectangle, which is always fully contained in the display
// bounds. FinalizeCrop converts the rectangle into source pixels:
//
//	eng, err := geometry.NewEngine(geometry.Size{W: 300, H: 400})
//	if err != nil {
//	    return err
//	}
//	eng.ApplyPan(50, 0)
//	rect, err := eng.FinalizeCrop(geometry.Size{W: 1200, H: 1600})
//	if rect.Empty() {
//	    // keep the uncropped photo
//	}
//
// A zero-area result from FinalizeCrop is not an error. It means the crop
// rectangle did not overlap the visible image and the host must keep the
// uncropped photo.
//
// # Thread Safety
//
// Engine is not safe for concurrent use. Gestures from one pointer device are
// serialized by the host; callers sharing an Engine must lock around it.
package geometry
