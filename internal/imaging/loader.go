package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

var (
	// ErrEmptyInput is returned when there are no image bytes to decode.
	ErrEmptyInput = errors.New("no image data")

	// ErrUnprocessable is returned when the bytes cannot be decoded as an image.
	ErrUnprocessable = errors.New("unprocessable image")
)

// MaxInputPixels is the largest declared width x height Decode accepts.
// Decoders allocate the full pixel buffer from the header alone, so larger
// images are refused before any pixel data is read.
const MaxInputPixels = 0x3FFF * 0x3FFF

// Decode decodes raw image bytes of any registered format.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The returned
// string is the format name reported by the decoder ("png", "jpeg", ...).
//
// # Errors
//
//   - ErrEmptyInput if data is empty
//   - ErrUnprocessable (wrapping the decoder error) if data is not a supported image
//   - ErrUnprocessable if the declared size exceeds MaxInputPixels
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyInput
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnprocessable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnprocessable, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds the %d pixel limit",
			ErrUnprocessable, cfg.Width, cfg.Height, MaxInputPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnprocessable, err)
	}

	return img, format, nil
}

// ImageInfo contains metadata about a source image file.
type ImageInfo struct {
	// Width is the source width in pixels.
	Width int `json:"width"`

	// Height is the source height in pixels.
	Height int `json:"height"`

	// Format is the format reported by the decoder: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp". It is detected from the file contents.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the source has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the source in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// NewImageInfo describes a decoded image.
//
// size is the number of encoded bytes the image was decoded from.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func NewImageInfo(img image.Image, format string, size int64) ImageInfo {
	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: size,
	}
}

// Canvas is a normalized image together with what it was made from.
type Canvas struct {
	// Source describes the original image.
	Source ImageInfo

	// Image is the normalized encoder.CanvasSize x encoder.CanvasSize buffer.
	// It must be treated as read-only.
	Image *image.NRGBA
}

// CanvasCache provides thread-safe caching of normalized canvases to avoid
// redundant disk reads, decoding and resizing.
//
// Canvases are keyed by the exact path string passed to Load. Different paths
// to the same file (e.g., relative vs absolute) result in separate entries.
//
// # Memory Management
//
// Cached canvases remain in memory until explicitly removed via Evict() or
// Clear(). Each entry holds one 150x150 NRGBA buffer (about 88 KiB).
//
// # Example Usage
//
//	cache := imaging.NewCanvasCache()
//	c, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := encoder.Encode(c.Image)
type CanvasCache struct {
	mu       sync.RWMutex
	canvases map[string]*Canvas
}

// NewCanvasCache creates and initializes a new empty canvas cache.
func NewCanvasCache() *CanvasCache {
	return &CanvasCache{
		canvases: make(map[string]*Canvas),
	}
}

// Load returns the canvas for path, reading and normalizing the file if it
// is not cached yet.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns ErrEmptyInput if the file is empty
//   - Returns ErrUnprocessable if the file is not a supported image
func (c *CanvasCache) Load(path string) (*Canvas, error) {
	c.mu.RLock()
	if cv, ok := c.canvases[path]; ok {
		c.mu.RUnlock()
		return cv, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	cv := &Canvas{
		Source: NewImageInfo(img, format, int64(len(data))),
		Image:  Normalize(img),
	}

	c.mu.Lock()
	c.canvases[path] = cv
	c.mu.Unlock()

	return cv, nil
}

// Clear removes all canvases from the cache.
func (c *CanvasCache) Clear() {
	c.mu.Lock()
	c.canvases = make(map[string]*Canvas)
	c.mu.Unlock()
}

// Evict removes a specific canvas from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
// After eviction, the next Load() call for this path will read from disk.
func (c *CanvasCache) Evict(path string) {
	c.mu.Lock()
	delete(c.canvases, path)
	c.mu.Unlock()
}

// Len returns the number of cached canvases.
func (c *CanvasCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.canvases)
}
