// Package encoder turns a normalized 150x150 pixel buffer into quadrant hex text.
//
// The buffer is split into four fixed 75x75 regions which are always visited
// in the same order: top-left, top-right, bottom-left, bottom-right. Every
// pixel of a region is written as a color token and every row of a region is
// terminated by a comma.
//
// # Output Grammar
//
//	output      := region "," region "," region "," region   (trailing commas stripped)
//	region      := 75 rows of 75 pixel_tokens, each row followed by ","
//	pixel_token := "." hex2 hex2 hex2
//
// Hex digits are lowercase and every channel is zero-padded to two digits,
// so a token is always 7 bytes long. A buffer of opaque black therefore
// starts with ".000000.000000" and the full output is always EncodedLen
// bytes long.
//
// # Transparency
//
// Alpha is only used to decide whether a pixel is fully transparent. A pixel
// with alpha 0 is written as the background color (14,14,14), whatever its
// R, G and B channels hold. Any other alpha value is discarded and R, G, B
// are written verbatim.
//
// # Thread Safety
//
// All functions are pure and never mutate the buffer they are given. They may
// be called concurrently.
package encoder
