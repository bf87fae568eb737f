// Package imaging holds the bitmap side of a crop session: decoding photos,
// cutting out the finalized crop, rendering the on-screen overlay preview and
// preparing handwriting for OCR.
//
// Geometry lives in package geometry; this package only consumes its
// rectangles. All pixel coordinates are 0-based with (0,0) at the top-left
// corner. For regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Orientation
//
// Photos are decoded with EXIF auto-orientation, so crop coordinates always
// refer to the upright image.
//
// # Crop Fallback
//
// ApplyCrop never fails. A rectangle with no whole-pixel area yields the
// original image and cropped=false, and callers continue with the uncropped
// photo.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless.
package imaging
