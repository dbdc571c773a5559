package postprocess

// SSDMobileNet defines the struct for SSD MobileNet v1 model inference post
// processing.  The Model performs its own box decoding and suppression so
// the outputs are three parallel arrays of boxes, class ids and scores
type SSDMobileNet struct {
	// Params are the Model configuration parameters
	Params SSDMobileNetParams
}

// SSDMobileNetParams defines the struct containing the SSD MobileNet
// parameters to use for post processing operations
type SSDMobileNetParams struct {
	// ClassOfInterest is the class id the scan accepts
	ClassOfInterest int
	// BoxSize is the number of values describing each box in the boxes
	// output, being top, left, bottom and right
	BoxSize int
}

// SSDMobileNetCOCOParams returns an instance of SSDMobileNetParams configured
// for a Model trained on the COCO dataset with class 1 (person) as the class
// of interest
func SSDMobileNetCOCOParams() SSDMobileNetParams {
	return SSDMobileNetParams{
		ClassOfInterest: 1,
		BoxSize:         4,
	}
}

// NewSSDMobileNet returns an instance of the SSD MobileNet post processor
func NewSSDMobileNet(p SSDMobileNetParams) *SSDMobileNet {
	return &SSDMobileNet{
		Params: p,
	}
}

// Decode scans the scores in array order and converts each accepted
// [top, left, bottom, right] quad into a box.  The scan stops at the first
// score at or below threshold or the first class id that is not the class of
// interest, as the Model emits its results sorted by descending score.
// Results already ranked lower than such an entry are never looked at
func (s *SSDMobileNet) Decode(boxes, classes, scores []float32,
	threshold float32) []Detection {

	var dets []Detection

	for i, score := range scores {

		if !(score > threshold) || i >= len(classes) ||
			classes[i] != float32(s.Params.ClassOfInterest) {
			break
		}

		start := i * s.Params.BoxSize

		if start+4 > len(boxes) {
			break
		}

		dets = append(dets, Detection{
			Box:        quadToBox(boxes[start : start+4]),
			Confidence: score,
			Label:      s.Params.ClassOfInterest,
		})
	}

	return dets
}

// quadToBox converts a [top, left, bottom, right] quad to a top left form
// box
func quadToBox(quad []float32) BoundingBox {

	top := quad[0]
	left := quad[1]

	return BoundingBox{
		X:      left,
		Y:      top,
		Width:  quad[3] - left,
		Height: quad[2] - top,
	}
}
