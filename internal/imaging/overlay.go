package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/image-text-mcp/internal/encoder"
)

// DefaultOverlayColor is the line color used when none is given: semi-transparent red.
const DefaultOverlayColor = "#FF000080"

// OverlayResult contains a canvas with the region boundaries drawn on it
type OverlayResult struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ImageBase64 string   `json:"image_base64"`
	MimeType    string   `json:"mime_type"`
	Regions     []string `json:"regions"`
}

// QuadrantOverlay draws the boundaries between the encoder regions on a copy
// of img and labels each region with its 1-based encoding position and its
// origin, e.g. "2 75,0".
//
// lineHex is "#RRGGBB" or "#RRGGBBAA"; an invalid value falls back to
// DefaultOverlayColor. img itself is not modified.
func QuadrantOverlay(img image.Image, lineHex string) (*OverlayResult, error) {
	lineColor, err := parseHexColor(lineHex)
	if err != nil {
		lineColor, _ = parseHexColor(DefaultOverlayColor)
	}

	result := clone.AsRGBA(img)
	bounds := result.Bounds()

	// Region boundaries, drawn over the canvas. Regions share lines, and each
	// line must be composited only once.
	line := image.NewUniform(lineColor)
	vertical := map[int]bool{}
	horizontal := map[int]bool{}
	for _, r := range encoder.Regions() {
		if r.X > 0 && !vertical[r.X] {
			vertical[r.X] = true
			x := bounds.Min.X + r.X
			draw.Draw(result, image.Rect(x, bounds.Min.Y, x+1, bounds.Max.Y), line, image.Point{}, draw.Over)
		}
		if r.Y > 0 && !horizontal[r.Y] {
			horizontal[r.Y] = true
			y := bounds.Min.Y + r.Y
			draw.Draw(result, image.Rect(bounds.Min.X, y, bounds.Max.X, y+1), line, image.Point{}, draw.Over)
		}
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	names := make([]string, 0, encoder.RegionCount)
	for i, r := range encoder.Regions() {
		label := fmt.Sprintf("%d %d,%d", i+1, r.X, r.Y)
		drawLabel(result, bounds.Min.X+r.X+2, bounds.Min.Y+r.Y+2, label, labelColor, bgColor)
		names = append(names, r.Name)
	}

	payload, err := encodeBase64(result, imgio.PNGEncoder())
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: payload,
		MimeType:    "image/png",
		Regions:     names,
	}, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
// The alpha byte is straight alpha, hence NRGBA.
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws a simple text label at the given position
// This is a basic implementation - for production, consider using a font library
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	// Simple 3x5 pixel font for digits and comma
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, bg)
			}
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
