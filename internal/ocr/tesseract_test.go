package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// textImage renders lines of text in black on white, scaled up by an
// integer factor so Tesseract sees glyphs of a realistic size.
func textImage(lines []string, scale int) *image.RGBA {
	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, len(line))
	}
	w := maxLen*7 + 40
	h := len(lines)*16 + 30

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	for i, line := range lines {
		drawText(small, 20, 20+i*16, line, color.Black)
	}

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

// skipIfUnavailable skips when Tesseract or its language data is missing.
func skipIfUnavailable(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") || strings.Contains(msg, "library") ||
		strings.Contains(msg, "language") || strings.Contains(msg, "tessdata") {
		t.Skipf("Tesseract not available: %v", err)
	}
}

func TestRecognize_RealText(t *testing.T) {
	img := textImage([]string{"HELLO WORLD"}, 4)

	result, err := Recognize(img, "eng")
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if !strings.Contains(strings.ToUpper(result.FullText), "HELLO") {
		t.Errorf("FullText: got %q, want it to contain HELLO", result.FullText)
	}
	if result.Language != "eng" {
		t.Errorf("Language: got %q, want eng", result.Language)
	}
	for _, w := range result.Words {
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("word %q confidence out of range: %f", w.Text, w.Confidence)
		}
		if w.Bounds.X2 <= w.Bounds.X1 || w.Bounds.Y2 <= w.Bounds.Y1 {
			t.Errorf("word %q has invalid bounds %+v", w.Text, w.Bounds)
		}
	}
}

func TestRecognize_MultiLineJoinedWithNewline(t *testing.T) {
	img := textImage([]string{"FIRST LINE", "SECOND LINE"}, 4)

	result, err := Recognize(img, "")
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if result.Language != DefaultLanguage {
		t.Errorf("Language: got %q, want %q", result.Language, DefaultLanguage)
	}
	if len(result.Lines) < 2 {
		t.Skipf("Tesseract merged lines: %q", result.FullText)
	}
	if got := strings.Count(result.FullText, "\n"); got != len(result.Lines)-1 {
		t.Errorf("FullText has %d newlines for %d lines: %q", got, len(result.Lines), result.FullText)
	}
	if result.Lines[0].Bounds.Y1 >= result.Lines[1].Bounds.Y1 {
		t.Errorf("lines not in reading order: %+v", result.Lines)
	}
}

func TestRecognize_BlankImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	result, err := Recognize(img, "eng")
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if strings.TrimSpace(result.FullText) != "" {
		t.Errorf("blank image produced text %q", result.FullText)
	}
	if result.Lines == nil || result.Words == nil {
		t.Error("Lines and Words should be empty slices, not nil")
	}
}

func TestExtractTextFromRegion_BoundsOffset(t *testing.T) {
	text := textImage([]string{"OFFSET"}, 4)
	tb := text.Bounds()

	// Place the text at (100, 60) on a larger white page.
	page := image.NewRGBA(image.Rect(0, 0, tb.Dx()+200, tb.Dy()+120))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	origin := image.Pt(100, 60)
	draw.Draw(page, tb.Add(origin), text, image.Point{}, draw.Src)

	result, err := ExtractTextFromRegion(page, tb.Add(origin), "eng")
	skipIfUnavailable(t, err)
	if err != nil {
		t.Fatalf("ExtractTextFromRegion failed: %v", err)
	}

	for _, w := range result.Words {
		if w.Bounds.X1 < origin.X || w.Bounds.Y1 < origin.Y {
			t.Errorf("word %q bounds %+v not offset to page coordinates", w.Text, w.Bounds)
		}
	}
}

func TestExtractTextFromRegion_OutsideImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	if _, err := ExtractTextFromRegion(img, image.Rect(60, 60, 80, 80), "eng"); err == nil {
		t.Error("ExtractTextFromRegion should fail for a region outside the image")
	}
}

func TestToRegions(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(1, 2, 3, 4), Word: "pen", Confidence: 87},
		{Box: image.Rect(5, 6, 7, 8), Word: "  ", Confidence: 90},
		{Box: image.Rect(9, 9, 20, 20), Word: "ink\n", Confidence: 50},
	}

	got := toRegions(boxes)

	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2 (blank word dropped)", len(got))
	}
	if got[0].Text != "pen" || got[0].Confidence != 0.87 {
		t.Errorf("first region: got %+v", got[0])
	}
	if got[0].Bounds != (Bounds{1, 2, 3, 4}) {
		t.Errorf("first bounds: got %+v", got[0].Bounds)
	}
	if got[1].Text != "ink" {
		t.Errorf("second region text: got %q, want ink", got[1].Text)
	}
}
