// Package imaging decodes, normalizes and renders images for the quadrant text encoder.
//
// This package implements the image side of the conversion: decoding raw
// bytes, fitting the result onto the fixed 150x150 canvas, and rendering that
// canvas back out as a preview. It also provides the inspection helpers used
// by the MCP tools (region crops, color sampling, region palettes and the
// quadrant overlay). The text encoding itself lives in package encoder.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Canvas coordinates always run from (0,0) to (149,149).
//
// # Normalization
//
// Normalize scales the source so that it fits entirely inside the canvas
// while keeping its aspect ratio ("contain"), centers it, and composites it
// over a canvas pre-filled with encoder.Background. The result is always an
// opaque *image.NRGBA of exactly encoder.CanvasSize pixels per side.
//
// # Thread Safety
//
// The CanvasCache type is safe for concurrent use. All other functions are
// stateless and never modify their input images.
//
// # Error Handling
//
// Decode reports two distinct conditions:
//   - ErrEmptyInput: no bytes were supplied
//   - ErrUnprocessable: the bytes are not a supported image
//
// Both are sentinel errors and should be checked with errors.Is.
package imaging
