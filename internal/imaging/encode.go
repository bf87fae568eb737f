package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// WebPQuality is the lossy quality used when saving WebP output.
const WebPQuality = 90

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes img to path. The format follows the file extension; ".webp"
// is encoded lossy at WebPQuality, everything else goes through imaging.Save.
// Missing parent directories are created.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if FormatFromPath(path) != "webp" {
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := webp.Encode(f, img, &webp.Options{Quality: WebPQuality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return f.Close()
}
