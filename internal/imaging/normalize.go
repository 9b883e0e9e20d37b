package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-text-mcp/internal/encoder"
)

// ContainSize returns the largest size with the aspect ratio of a w x h image
// that fits inside the canvas.
//
// The longer side always becomes encoder.CanvasSize; the shorter side is
// scaled proportionally and rounded to the nearest pixel, but never below 1.
// Images smaller than the canvas are scaled up. A zero or negative input
// dimension yields (0, 0).
func ContainSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}

	const side = encoder.CanvasSize
	if w >= h {
		return side, max(1, (h*side+w/2)/w)
	}
	return max(1, (w*side+h/2)/h), side
}

// Normalize fits src onto a fresh canvas.
//
// The source is resized with a Lanczos filter to ContainSize, centered, and
// alpha-composited over a canvas filled with encoder.Background. Transparent
// source pixels therefore come out as the background color and the canvas
// is fully opaque. The source is never modified.
func Normalize(src image.Image) *image.NRGBA {
	const side = encoder.CanvasSize
	canvas := imaging.New(side, side, encoder.Background)

	bounds := src.Bounds()
	w, h := ContainSize(bounds.Dx(), bounds.Dy())
	if w == 0 {
		return canvas
	}

	fitted := src
	if w != bounds.Dx() || h != bounds.Dy() {
		fitted = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	pos := image.Pt((side-w)/2, (side-h)/2)
	return imaging.Overlay(canvas, fitted, pos, 1.0)
}
