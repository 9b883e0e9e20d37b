package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
)

// DefaultJPEGQuality is used when a JPEG preview is requested without a quality.
const DefaultJPEGQuality = 90

// PreviewResult contains a rendered preview of a canvas.
type PreviewResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`

	// DataURL is a self-contained "data:<mime>;base64,<payload>" URL that can
	// be used directly as an <img> source.
	DataURL string `json:"data_url"`
}

// RenderPreview encodes img as a data URL.
//
// format is "png" (the default when empty) or "jpeg"/"jpg". quality is only
// used for JPEG; values outside 1-100 fall back to DefaultJPEGQuality. The
// preview is purely for display and plays no part in the text encoding.
func RenderPreview(img image.Image, format string, quality int) (*PreviewResult, error) {
	enc, mimeType, err := previewEncoder(format, quality)
	if err != nil {
		return nil, err
	}

	payload, err := encodeBase64(img, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	bounds := img.Bounds()
	return &PreviewResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: mimeType,
		DataURL:  "data:" + mimeType + ";base64," + payload,
	}, nil
}

func previewEncoder(format string, quality int) (imgio.Encoder, string, error) {
	switch format {
	case "", "png":
		return imgio.PNGEncoder(), "image/png", nil
	case "jpeg", "jpg":
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return imgio.JPEGEncoder(quality), "image/jpeg", nil
	default:
		return nil, "", fmt.Errorf("unsupported preview format: %s", format)
	}
}

// encodeBase64 runs enc over img and returns the standard base64 encoding of the result.
func encodeBase64(img image.Image, enc imgio.Encoder) (string, error) {
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
