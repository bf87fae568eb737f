package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// TextRegion is a recognized line or word with its location and confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the text recognized in an image.
type OCRResult struct {
	// FullText is the recognized text, one line per recognized text line,
	// joined with "\n" and without trailing whitespace.
	FullText string `json:"full_text"`

	// Lines are the recognized text lines in reading order.
	Lines []TextRegion `json:"lines"`

	// Words are individual words with bounding boxes. May be empty if
	// bounding box extraction fails; FullText is still populated.
	Words []TextRegion `json:"words"`

	// Language is the Tesseract language the text was recognized with.
	Language string `json:"language"`
}

// Recognize runs OCR on an in-memory image.
//
// Lines come from Tesseract's text-line iterator and FullText joins them with
// newlines, top to bottom. If the line iterator yields nothing, FullText falls
// back to Tesseract's plain text output.
func Recognize(img image.Image, language string) (*OCRResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}
	return recognize(language, func(c *gosseract.Client) error {
		return c.SetImageFromBytes(buf.Bytes())
	})
}

// ExtractTextFromRegion performs OCR on a rectangular region of img.
//
// The returned bounding boxes are adjusted to the original image coordinates:
// if the region starts at (100, 50) and a word is found at (10, 20) within
// it, the word's bounds start at (110, 70).
func ExtractTextFromRegion(img image.Image, region image.Rectangle, language string) (*OCRResult, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("OCR region %v does not overlap image bounds %v", region, img.Bounds())
	}

	result, err := Recognize(imaging.Crop(img, region), language)
	if err != nil {
		return nil, err
	}

	offset := region.Min.Sub(img.Bounds().Min)
	for _, regions := range [][]TextRegion{result.Lines, result.Words} {
		for i := range regions {
			regions[i].Bounds.X1 += offset.X
			regions[i].Bounds.Y1 += offset.Y
			regions[i].Bounds.X2 += offset.X
			regions[i].Bounds.Y2 += offset.Y
		}
	}
	return result, nil
}

func recognize(language string, setImage func(*gosseract.Client) error) (*OCRResult, error) {
	if language == "" {
		language = DefaultLanguage
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := setImage(client); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &OCRResult{
		Lines:    []TextRegion{},
		Words:    []TextRegion{},
		Language: language,
	}

	// Bounding boxes are best effort; the plain text is already in hand.
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE); err == nil {
		result.Lines = toRegions(boxes)
	}
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		result.Words = toRegions(boxes)
	}

	if len(result.Lines) > 0 {
		lines := make([]string, len(result.Lines))
		for i, l := range result.Lines {
			lines[i] = l.Text
		}
		result.FullText = strings.Join(lines, "\n")
	} else {
		result.FullText = strings.TrimSpace(text)
	}
	return result, nil
}

func toRegions(boxes []gosseract.BoundingBox) []TextRegion {
	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     boundsOf(box.Box),
		})
	}
	return regions
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// GetInfo reports the Tesseract version linked into the binary.
func GetInfo() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
	}
}
