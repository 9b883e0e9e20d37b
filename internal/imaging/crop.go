package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-text-mcp/internal/encoder"
)

// CropResult contains the cropped image data
type CropResult struct {
	Region      string `json:"region,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	// Validate coordinates
	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		// Nearest neighbor keeps each canvas pixel a solid block.
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	payload, err := encodeBase64(cropped, imgio.PNGEncoder())
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: payload,
		MimeType:    "image/png",
	}, nil
}

// CropRegion extracts one of the four encoder regions from a canvas.
//
// region is a region name such as "top-left". The region is located relative
// to the canvas origin, so img is expected to be a normalized canvas.
func CropRegion(img image.Image, region string, scale float64) (*CropResult, error) {
	r, err := encoder.RegionByName(region)
	if err != nil {
		return nil, err
	}

	rect := r.Rect().Add(img.Bounds().Min)
	result, err := Crop(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, scale)
	if err != nil {
		return nil, err
	}
	result.Region = r.Name
	return result, nil
}
