package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// Alignment is where a box label sits along the top edge of its box
type Alignment int

const (
	Left Alignment = iota + 1
	Center
	Right
)

var alignmentNames = map[string]Alignment{
	"left":   Left,
	"center": Center,
	"right":  Right,
}

// ParseAlignment returns the Alignment with the given name
func ParseAlignment(name string) (Alignment, error) {

	if a, ok := alignmentNames[strings.ToLower(name)]; ok {
		return a, nil
	}

	return Left, fmt.Errorf("unknown label alignment %q", name)
}

// Font is how text is written on a frame
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// padding around the text inside its background
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	Alignment Alignment
}

// TextSize returns the pixel size of text written in this font
func (f Font) TextSize(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}

// put writes text with its baseline starting at org
func (f Font) put(img *gocv.Mat, text string, org image.Point) {
	gocv.PutTextWithParams(img, text, org, f.Face, f.Scale, f.Color,
		f.Thickness, f.LineType, false)
}

// DefaultFont is used for box labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     Black,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// StatusFont is used for the status line across the top of the frame
func StatusFont() Font {
	f := DefaultFont()
	f.Color = Pink
	f.TopPad = 6
	f.BottomPad = 8
	return f
}
