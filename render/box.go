package render

import (
	"image"
	"image/color"

	"github.com/detlite/go-detlite/postprocess"
	"gocv.io/x/gocv"
)

// ScaleBox converts a box normalized to [0,1] into a pixel rectangle on an
// image of the given size
func ScaleBox(b postprocess.BoundingBox, size image.Point) image.Rectangle {

	scaled := b.Scale(float32(size.X), float32(size.Y))

	return image.Rect(
		int(scaled.X),
		int(scaled.Y),
		int(scaled.Right()),
		int(scaled.Bottom()),
	)
}

// DetectionBoxes renders the bounding boxes, scaled by size, around the
// objects detected.  An empty label draws the boxes only
func DetectionBoxes(img *gocv.Mat, boxes []postprocess.BoundingBox,
	size image.Point, clr color.RGBA, label string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(boxes))

	for _, b := range boxes {

		rect := ScaleBox(b, size)
		gocv.Rectangle(img, rect, clr, lineThickness)

		if label == "" {
			continue
		}

		textSize := font.TextSize(label)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (rect.Min.X + rect.Max.X) / 2

		case Right:
			centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
				rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
				centerX+textSize.X/2+font.RightPad, rect.Min.Y),
			clr:     clr,
			text:    label,
			textPos: image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad),
		})
	}

	// labels go on top so later boxes do not draw over them
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		font.put(img, box.text, box.textPos)
	}
}

// StatusBar blanks a strip across the top of the image and writes text on it
func StatusBar(img *gocv.Mat, text string, font Font) {

	textSize := font.TextSize(text)
	height := textSize.Y + font.TopPad + font.BottomPad

	gocv.Rectangle(img, image.Rect(0, 0, img.Cols(), height), Black, -1)

	font.put(img, text, image.Pt(font.LeftPad, height-font.BottomPad))
}

// boxLabel is a label to render above a box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}
