package postprocess

import (
	"math"
)

// TinyYOLOv2 defines the struct for Tiny YOLOv2 model inference post
// processing
type TinyYOLOv2 struct {
	// Params are the Model configuration parameters
	Params TinyYOLOv2Params
}

// TinyYOLOv2Params defines the struct containing the Tiny YOLOv2 parameters
// to use for post processing operations
type TinyYOLOv2Params struct {
	// Rows is the number of grid cells vertically
	Rows int
	// Cols is the number of grid cells horizontally
	Cols int
	// BoxesPerCell is the number of anchor box predictions each grid cell
	// holds
	BoxesPerCell int
	// BoxInfoFeatureCount is the number of channels describing a box before the
	// class logits, being x, y, width, height and objectness
	BoxInfoFeatureCount int
	// ClassCount is the number of different object classes the Model has been
	// trained with
	ClassCount int
	// CellWidth is the pixel width of a grid cell in the Model input
	CellWidth float32
	// CellHeight is the pixel height of a grid cell in the Model input
	CellHeight float32
	// Anchors are the width and height pairs of the Anchor Box priors, one
	// pair per anchor index
	Anchors []float32
	// MaxResults is the maximum number of objects detected that can be
	// returned after suppression
	MaxResults int
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ClassOfInterest is the class label kept by the detector, -1 keeps all
	ClassOfInterest int
}

// TinyYOLOv2VOCParams returns an instance of TinyYOLOv2Params configured with
// default values for a Model trained on the Pascal VOC dataset featuring:
// - Object Classes: 20
// - Grid: 13x13 cells of 32x32 pixels over a 416x416 input
// - Anchor Boxes: (1.08x1.19), (3.42x4.41), (6.63x11.38), (9.42x5.11),
// (16.62x10.52)
// - Maximum Results: 5
// - NMS Threshold: 0.3
// - Class of Interest: 14 (person)
func TinyYOLOv2VOCParams() TinyYOLOv2Params {
	return TinyYOLOv2Params{
		Rows:                13,
		Cols:                13,
		BoxesPerCell:        5,
		BoxInfoFeatureCount: 5,
		ClassCount:          20,
		CellWidth:           32,
		CellHeight:          32,
		Anchors: []float32{
			1.08, 1.19, 3.42, 4.41, 6.63, 11.38, 9.42, 5.11, 16.62, 10.52,
		},
		MaxResults:      5,
		NMSThreshold:    0.3,
		ClassOfInterest: 14,
	}
}

// NewTinyYOLOv2 returns an instance of the Tiny YOLOv2 post processor
func NewTinyYOLOv2(p TinyYOLOv2Params) *TinyYOLOv2 {
	return &TinyYOLOv2{
		Params: p,
	}
}

// channelStride is the number of elements in a single channel plane
func (y *TinyYOLOv2) channelStride() int {
	return y.Params.Rows * y.Params.Cols
}

// OutputSize returns the number of float32 elements the grid output tensor
// must hold
func (y *TinyYOLOv2) OutputSize() int {
	return y.channelStride() * y.Params.BoxesPerCell *
		(y.Params.ClassCount + y.Params.BoxInfoFeatureCount)
}

// offset returns the flattened index of the given channel for a grid cell.
// The tensor is channel major, then row major within a channel
func (y *TinyYOLOv2) offset(row, col, channel int) int {
	return channel*y.channelStride() + row*y.Params.Cols + col
}

// Decode takes the raw grid output of the Model and returns every anchor
// prediction scoring at least floor, in image pixel units.  Results are
// emitted in row, column, then anchor order.  A grid shorter than
// OutputSize, or Params with fewer than two Anchors values per box, decode
// to nil
func (y *TinyYOLOv2) Decode(grid []float32, floor float32) []Detection {

	if len(grid) < y.OutputSize() ||
		len(y.Params.Anchors) < 2*y.Params.BoxesPerCell {
		return nil
	}

	var dets []Detection
	features := y.Params.ClassCount + y.Params.BoxInfoFeatureCount
	logits := make([]float32, y.Params.ClassCount)

	for row := 0; row < y.Params.Rows; row++ {
		for col := 0; col < y.Params.Cols; col++ {
			for anchor := 0; anchor < y.Params.BoxesPerCell; anchor++ {

				channel := anchor * features

				rawX := grid[y.offset(row, col, channel)]
				rawY := grid[y.offset(row, col, channel+1)]
				rawW := grid[y.offset(row, col, channel+2)]
				rawH := grid[y.offset(row, col, channel+3)]

				confidence := sigmoid(grid[y.offset(row, col, channel+4)])

				// written this way round so a NaN objectness is skipped too
				if !(confidence >= floor) {
					continue
				}

				box := y.mapBoxToCell(row, col, anchor, rawX, rawY, rawW, rawH)

				classOffset := channel + y.Params.BoxInfoFeatureCount

				for k := range logits {
					logits[k] = grid[y.offset(row, col, classOffset+k)]
				}

				label, prob := topClass(Softmax(logits))
				score := prob * confidence

				if !(score >= floor) {
					continue
				}

				dets = append(dets, Detection{
					Box:        box,
					Confidence: score,
					Label:      label,
				})
			}
		}
	}

	return dets
}

// mapBoxToCell converts the raw geometry of an anchor prediction into a top
// left form box in image pixels
func (y *TinyYOLOv2) mapBoxToCell(row, col, anchor int,
	rawX, rawY, rawW, rawH float32) BoundingBox {

	centerX := (float32(col) + sigmoid(rawX)) * y.Params.CellWidth
	centerY := (float32(row) + sigmoid(rawY)) * y.Params.CellHeight

	width := float32(math.Exp(float64(rawW))) * y.Params.CellWidth *
		y.Params.Anchors[anchor*2]
	height := float32(math.Exp(float64(rawH))) * y.Params.CellHeight *
		y.Params.Anchors[anchor*2+1]

	return BoundingBox{
		X:      centerX - width/2,
		Y:      centerY - height/2,
		Width:  width,
		Height: height,
	}
}

// DetectObjects decodes the grid output, suppresses overlapping boxes and
// keeps only the class of interest
func (y *TinyYOLOv2) DetectObjects(grid []float32, threshold float32) []Detection {

	dets := y.Decode(grid, threshold)
	dets = Suppress(dets, y.Params.MaxResults, y.Params.NMSThreshold)

	if y.Params.ClassOfInterest >= 0 {
		dets = FilterLabel(dets, y.Params.ClassOfInterest)
	}

	return dets
}
