package encoder

import "image/color"

const hexDigits = "0123456789abcdef"

// SubstituteIfTransparent returns the channels to encode for a pixel.
//
// A fully transparent pixel (A == 0) yields the Background channels. Any
// other pixel yields its own R, G and B; alpha is not blended in.
func SubstituteIfTransparent(c color.NRGBA) (r, g, b uint8) {
	if c.A == 0 {
		return Background.R, Background.G, Background.B
	}
	return c.R, c.G, c.B
}

// AppendToken appends the ".rrggbb" token for the given channels to dst.
func AppendToken(dst []byte, r, g, b uint8) []byte {
	return append(dst,
		TokenPrefix,
		hexDigits[r>>4], hexDigits[r&0x0f],
		hexDigits[g>>4], hexDigits[g&0x0f],
		hexDigits[b>>4], hexDigits[b&0x0f],
	)
}

// Token returns the token for a single pixel, applying the transparency rule.
//
//	Token(color.NRGBA{255, 0, 16, 255}) == ".ff0010"
//	Token(color.NRGBA{255, 0, 16, 0})   == ".0e0e0e"
func Token(c color.NRGBA) string {
	r, g, b := SubstituteIfTransparent(c)
	return string(AppendToken(make([]byte, 0, TokenLen), r, g, b))
}
