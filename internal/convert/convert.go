// Package convert ties decoding, normalization, encoding and preview rendering
// into the single image-to-text operation every front end exposes.
package convert

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/ironsheep/image-text-mcp/internal/config"
	"github.com/ironsheep/image-text-mcp/internal/encoder"
	"github.com/ironsheep/image-text-mcp/internal/imaging"
	"github.com/ironsheep/image-text-mcp/internal/parallel"
)

// Result is the outcome of converting one image.
type Result struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

// FileResult pairs an input path with its conversion outcome.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// Converter converts images to quadrant text plus a preview of the canvas
// that was encoded. It holds no per-call state and is safe for concurrent use.
type Converter struct {
	PreviewFormat string
	JPEGQuality   int
	Logger        *slog.Logger
}

// New creates a Converter from the preview section of cfg.
func New(cfg *config.Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		PreviewFormat: cfg.Preview.Format,
		JPEGQuality:   cfg.Preview.JPEGQuality,
		Logger:        logger,
	}
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Convert decodes an encoded image and converts it.
//
// Empty input fails with imaging.ErrEmptyInput and undecodable input with
// imaging.ErrUnprocessable.
func (c *Converter) Convert(data []byte) (*Result, error) {
	img, format, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	c.logger().Debug("decoded image", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "bytes", len(data))
	return c.ConvertImage(img)
}

// ConvertImage normalizes an already decoded image and converts it.
func (c *Converter) ConvertImage(img image.Image) (*Result, error) {
	return c.ConvertCanvas(imaging.Normalize(img))
}

// ConvertCanvas encodes a normalized canvas and renders its preview.
func (c *Converter) ConvertCanvas(canvas *image.NRGBA) (*Result, error) {
	text, err := encoder.Encode(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode canvas: %w", err)
	}

	preview, err := imaging.RenderPreview(canvas, c.PreviewFormat, c.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &Result{Text: text, ImageURL: preview.DataURL}, nil
}

// ConvertFile reads and converts the image at path.
func (c *Converter) ConvertFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	res, err := c.Convert(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ConvertFiles converts paths on a pool of workers.
//
// Results are returned in input order with per-file errors. Once ctx is done
// no further files are started; those left over report ctx.Err().
func (c *Converter) ConvertFiles(ctx context.Context, paths []string, workers int) []FileResult {
	results := make([]FileResult, len(paths))
	pool := parallel.Start(workers)

	for i, path := range paths {
		results[i].Path = path
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		pool.Do(func(i int, path string) func() {
			return func() {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					return
				}
				logger := c.logger().With("file", path)
				res, err := c.ConvertFile(path)
				if err != nil {
					logger.Error("could not convert image", "error", err)
					results[i].Err = err
					return
				}
				logger.Debug("converted image", "length", len(res.Text))
				results[i].Result = res
			}
		}(i, path))
	}

	pool.Wait()
	return results
}

// WriteText writes text to path with the permissions used for every output
// file.
func WriteText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
