package postprocess

// BoundingBox are the dimensions of the bounding box of a detected object in
// top-left form.  During decoding the values are in the Model's pixel units,
// once handed to rendering they are normalized to [0,1] of the frame size
type BoundingBox struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// Area returns the area of the box
func (b BoundingBox) Area() float32 {
	return b.Width * b.Height
}

// IsDegenerate reports if the box has no positive area.  A NaN area is also
// treated as degenerate
func (b BoundingBox) IsDegenerate() bool {
	return !(b.Area() > 0)
}

// Right returns the x coordinate of the right edge of the box
func (b BoundingBox) Right() float32 {
	return b.X + b.Width
}

// Bottom returns the y coordinate of the bottom edge of the box
func (b BoundingBox) Bottom() float32 {
	return b.Y + b.Height
}

// Scale returns a copy of the box with the horizontal values multiplied by sx
// and vertical values by sy
func (b BoundingBox) Scale(sx, sy float32) BoundingBox {
	return BoundingBox{
		X:      b.X * sx,
		Y:      b.Y * sy,
		Width:  b.Width * sx,
		Height: b.Height * sy,
	}
}

// Detection defines the attributes of a single object detected
type Detection struct {
	// Box are the bounding box dimensions of the object location
	Box BoundingBox
	// Confidence is the combined class and objectness score of the object
	Confidence float32
	// Label is the class index in the labels file the Model was trained on
	Label int
}

// Boxes returns the bounding boxes of the given detections
func Boxes(dets []Detection) []BoundingBox {

	boxes := make([]BoundingBox, 0, len(dets))

	for _, d := range dets {
		boxes = append(boxes, d.Box)
	}

	return boxes
}

// FilterLabel returns only the detections of the given class label
func FilterLabel(dets []Detection, label int) []Detection {

	out := make([]Detection, 0, len(dets))

	for _, d := range dets {
		if d.Label == label {
			out = append(out, d)
		}
	}

	return out
}
