package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-text-mcp/internal/encoder"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents an RGBA color with 8-bit, non-premultiplied components.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
//
// Token is exactly what the encoder writes for this pixel, so it reflects
// the transparency rule; Hex, RGB and HSL describe the stored color.
type ColorResult struct {
	Token string    `json:"token"` // Encoder token ".rrggbb"
	Hex   string    `json:"hex"`   // Hex format "#rrggbb" (no alpha)
	RGB   RGBColor  `json:"rgb"`   // RGB components
	RGBA  RGBAColor `json:"rgba"`  // RGBA components with alpha
	HSL   HSLColor  `json:"hsl"`   // HSL representation
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are 0-based with origin at the image's top-left corner:
//   - Valid X range: 0 to width-1
//   - Valid Y range: 0 to height-1
//
// The native color is converted to non-premultiplied 8-bit components, the
// same representation the encoder reads.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	px, py := bounds.Min.X+x, bounds.Min.Y+y
	if x < 0 || y < 0 || px >= bounds.Max.X || py >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA)
	cf := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}

	return &ColorResult{
		Token: encoder.Token(c),
		Hex:   cf.Hex(),
		RGB:   RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA:  RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:   toHSL(cf),
	}, nil
}

// toHSL converts a colorful color to integer HSL.
//
// Hue is rounded to whole degrees, saturation and lightness to whole
// percent. Grays report a hue of 0.
func toHSL(c colorful.Color) HSLColor {
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}

// ColorFrequency represents a token and its occurrence frequency in a region.
type ColorFrequency struct {
	Token      string   `json:"token"`      // Encoder token ".rrggbb"
	Hex        string   `json:"hex"`        // Hex color "#rrggbb"
	Count      int      `json:"count"`      // Number of pixels with this token
	Percentage float64  `json:"percentage"` // Percentage of the region's pixels (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components
}

// RegionColorsResult contains the most frequent tokens of one region.
//
// Colors are sorted by frequency in descending order (most common first).
type RegionColorsResult struct {
	Region         string           `json:"region"`
	DistinctColors int              `json:"distinct_colors"`
	Colors         []ColorFrequency `json:"colors"`
}

// RegionColors reports the count most common tokens in one region of a canvas.
//
// Counting happens on encoder tokens, so the result describes exactly what
// the text encoding of that region contains: transparent pixels count as the
// background token and no quantization is applied. Ties are broken by token
// so the result is deterministic.
func RegionColors(img *image.NRGBA, region string, count int) (*RegionColorsResult, error) {
	r, err := encoder.RegionByName(region)
	if err != nil {
		return nil, err
	}
	rect := r.Rect().Add(img.Rect.Min)
	if !rect.In(img.Rect) {
		return nil, fmt.Errorf("region %s outside image bounds", r.Name)
	}

	type entry struct {
		rgb   RGBColor
		count int
	}
	counts := make(map[string]*entry)

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			tok := encoder.Token(c)
			e, ok := counts[tok]
			if !ok {
				rr, gg, bb := encoder.SubstituteIfTransparent(c)
				e = &entry{rgb: RGBColor{R: rr, G: gg, B: bb}}
				counts[tok] = e
			}
			e.count++
		}
	}

	total := float64(rect.Dx() * rect.Dy())
	colors := make([]ColorFrequency, 0, len(counts))
	for tok, e := range counts {
		colors = append(colors, ColorFrequency{
			Token:      tok,
			Hex:        "#" + tok[1:],
			Count:      e.count,
			Percentage: math.Round(float64(e.count)/total*10000) / 100,
			RGB:        e.rgb,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Count != colors[j].Count {
			return colors[i].Count > colors[j].Count
		}
		return colors[i].Token < colors[j].Token
	})

	distinct := len(colors)
	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}

	return &RegionColorsResult{
		Region:         r.Name,
		DistinctColors: distinct,
		Colors:         colors,
	}, nil
}
