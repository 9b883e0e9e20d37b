package encoder

import (
	"fmt"
	"image"
	"image/color"
)

const (
	// CanvasSize is the side length of the normalized buffer in pixels.
	CanvasSize = 150

	// RegionSize is the side length of each of the four regions in pixels.
	RegionSize = 75

	// RegionCount is the number of regions the canvas is split into.
	RegionCount = 4

	// TokenLen is the length of one encoded pixel: "." plus six hex digits.
	TokenLen = 7

	// TokensPerRegion is the number of pixel tokens in one region.
	TokensPerRegion = RegionSize * RegionSize

	// TokensTotal is the number of pixel tokens in a full encoding.
	TokensTotal = RegionCount * TokensPerRegion

	// RegionLen is the length of one encoded region including its row terminators.
	RegionLen = RegionSize * (RegionSize*TokenLen + 1)

	// EncodedLen is the length of a full encoding: the four regions, the three
	// separators between them, minus the stripped trailing row terminator.
	EncodedLen = RegionCount*RegionLen + (RegionCount - 1) - 1

	// Separator terminates rows and joins regions.
	Separator = ','

	// TokenPrefix starts every pixel token.
	TokenPrefix = '.'
)

// Background is the fill color used for canvas padding and for fully
// transparent pixels.
var Background = color.NRGBA{R: 14, G: 14, B: 14, A: 255}

// Region names, in encoding order.
const (
	TopLeft     = "top-left"
	TopRight    = "top-right"
	BottomLeft  = "bottom-left"
	BottomRight = "bottom-right"
)

// Region is a RegionSize x RegionSize window into the canvas.
//
// (X, Y) is the top-left corner of the window in canvas coordinates.
type Region struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Rect returns the canvas rectangle covered by the region.
// Min is inclusive, Max is exclusive.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+RegionSize, r.Y+RegionSize)
}

var regions = [RegionCount]Region{
	{Name: TopLeft, X: 0, Y: 0},
	{Name: TopRight, X: RegionSize, Y: 0},
	{Name: BottomLeft, X: 0, Y: RegionSize},
	{Name: BottomRight, X: RegionSize, Y: RegionSize},
}

// Regions returns the four regions in encoding order.
//
// The returned slice is a copy; callers may modify it freely.
func Regions() []Region {
	out := make([]Region, RegionCount)
	copy(out, regions[:])
	return out
}

// RegionByName looks up one of the four regions.
//
// Names are case-sensitive: "top-left", "top-right", "bottom-left",
// "bottom-right".
func RegionByName(name string) (Region, error) {
	for _, r := range regions {
		if r.Name == name {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("unknown region: %q", name)
}
