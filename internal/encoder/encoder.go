package encoder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// ErrInvalidDimensions is returned when the buffer handed to Encode is not a
// CanvasSize x CanvasSize image.
var ErrInvalidDimensions = errors.New("invalid buffer dimensions")

// Encode serializes a normalized canvas into quadrant hex text.
//
// The buffer must be exactly CanvasSize x CanvasSize. Its bounds need not
// start at (0,0); regions are taken relative to buf.Rect.Min. On success the
// returned string is always EncodedLen bytes long.
//
// # Errors
//
//   - ErrInvalidDimensions if buf is nil or not CanvasSize x CanvasSize
func Encode(buf *image.NRGBA) (string, error) {
	if buf == nil {
		return "", fmt.Errorf("%w: nil buffer", ErrInvalidDimensions)
	}
	if w, h := buf.Rect.Dx(), buf.Rect.Dy(); w != CanvasSize || h != CanvasSize {
		return "", fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrInvalidDimensions, w, h, CanvasSize, CanvasSize)
	}

	parts := make([]string, 0, RegionCount)
	for _, r := range regions {
		parts = append(parts, strings.TrimSpace(EncodeRegion(buf, r)))
	}

	return strings.TrimRight(strings.Join(parts, string(Separator)), string(Separator)), nil
}

// EncodeRegion serializes a single region of buf.
//
// Rows are scanned top to bottom and pixels left to right. Every row,
// including the last, is followed by Separator, so the result is always
// RegionLen bytes long. The caller must make sure the region lies within buf;
// Encode does this by checking the buffer size first.
func EncodeRegion(buf *image.NRGBA, r Region) string {
	out := make([]byte, 0, RegionLen)
	origin := buf.Rect.Min

	for row := 0; row < RegionSize; row++ {
		off := buf.PixOffset(origin.X+r.X, origin.Y+r.Y+row)
		for col := 0; col < RegionSize; col++ {
			p := buf.Pix[off : off+4 : off+4]
			cr, cg, cb := SubstituteIfTransparent(color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
			out = AppendToken(out, cr, cg, cb)
			off += 4
		}
		out = append(out, Separator)
	}

	return string(out)
}
