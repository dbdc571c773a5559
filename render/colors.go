package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var (
	// classColors is a list of distinct colors boxes can be painted with
	classColors = []color.RGBA{
		{R: 255, G: 56, B: 56, A: 255},   // #FF3838
		{R: 255, G: 112, B: 31, A: 255},  // #FF701F
		{R: 255, G: 178, B: 29, A: 255},  // #FFB21D
		{R: 207, G: 210, B: 49, A: 255},  // #CFD231
		{R: 72, G: 249, B: 10, A: 255},   // #48F90A
		{R: 26, G: 147, B: 52, A: 255},   // #1A9334
		{R: 0, G: 212, B: 187, A: 255},   // #00D4BB
		{R: 0, G: 194, B: 255, A: 255},   // #00C2FF
		{R: 52, G: 69, B: 147, A: 255},   // #344593
		{R: 100, G: 115, B: 255, A: 255}, // #6473FF
		{R: 0, G: 24, B: 236, A: 255},    // #0018EC
		{R: 132, G: 56, B: 255, A: 255},  // #8438FF
		{R: 82, G: 0, B: 133, A: 255},    // #520085
		{R: 255, G: 149, B: 200, A: 255}, // #FF95C8
		{R: 255, G: 55, B: 199, A: 255},  // #FF37C7
		{R: 255, G: 157, B: 151, A: 255}, // #FF9D97
		{R: 44, G: 153, B: 168, A: 255},  // #2C99A8
		{R: 61, G: 219, B: 134, A: 255},  // #3DDB86
		{R: 203, G: 56, B: 255, A: 255},  // #CB38FF
		{R: 146, G: 204, B: 23, A: 255},  // #92CC17
	}

	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// namedColors are the color names accepted by ParseColor
var namedColors = map[string]color.RGBA{
	"black":  Black,
	"white":  White,
	"yellow": Yellow,
	"pink":   Pink,
	"red":    Red,
}

// PaletteColor returns a distinct color for the i'th box
func PaletteColor(i int) color.RGBA {

	if i < 0 {
		i = -i
	}

	return classColors[i%len(classColors)]
}

// ParseColor parses a color name or a #RRGGBB hex value
func ParseColor(s string) (color.RGBA, error) {

	s = strings.ToLower(strings.TrimSpace(s))

	if clr, ok := namedColors[s]; ok {
		return clr, nil
	}

	hex, ok := strings.CutPrefix(s, "#")

	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q, use a name or #RRGGBB", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)

	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}
