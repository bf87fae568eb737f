// Package ocr transcribes handwriting and print with Tesseract (via
// gosseract/v2).
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Results
//
// Text is returned one recognized line per row, joined with "\n", together
// with line and word bounding boxes and their confidence (0.0 to 1.0).
// Bounding boxes are best effort: if Tesseract cannot produce them, the
// text is still returned with empty Lines and Words.
//
// # Performance
//
// OCR is CPU-intensive. Crop to the region of interest first; the crop
// session tools do exactly that before transcribing.
package ocr
