package postprocess

import (
	"math"
	"testing"
)

func TestSSDMobileNetDecode(t *testing.T) {

	ssd := NewSSDMobileNet(SSDMobileNetCOCOParams())

	tests := []struct {
		name      string
		boxes     []float32
		classes   []float32
		scores    []float32
		threshold float32
		expected  []Detection
	}{
		{
			// unsorted scores, the scan runs in array order and ends at 0.3
			name: "unsorted scores scan in array order",
			boxes: []float32{
				0.1, 0.2, 0.5, 0.6,
				0.0, 0.0, 1.0, 1.0,
				0.3, 0.3, 0.4, 0.4,
			},
			classes:   []float32{1, 1, 1},
			scores:    []float32{0.9, 0.95, 0.3},
			threshold: 0.5,
			expected: []Detection{
				{Box: BoundingBox{X: 0.2, Y: 0.1, Width: 0.4, Height: 0.4}, Confidence: 0.9, Label: 1},
				{Box: BoundingBox{X: 0, Y: 0, Width: 1, Height: 1}, Confidence: 0.95, Label: 1},
			},
		},
		{
			name: "stops at first score below threshold",
			boxes: []float32{
				0.1, 0.2, 0.5, 0.6,
				0.0, 0.0, 1.0, 1.0,
			},
			classes:   []float32{1, 1},
			scores:    []float32{0.4, 0.95},
			threshold: 0.5,
			expected:  nil,
		},
		{
			name: "stops at first other class",
			boxes: []float32{
				0.1, 0.2, 0.5, 0.6,
				0.0, 0.0, 1.0, 1.0,
				0.3, 0.3, 0.4, 0.4,
			},
			classes:   []float32{1, 3, 1},
			scores:    []float32{0.9, 0.8, 0.7},
			threshold: 0.5,
			expected: []Detection{
				{Box: BoundingBox{X: 0.2, Y: 0.1, Width: 0.4, Height: 0.4}, Confidence: 0.9, Label: 1},
			},
		},
		{
			name:      "score equal to threshold is rejected",
			boxes:     []float32{0.1, 0.2, 0.5, 0.6},
			classes:   []float32{1},
			scores:    []float32{0.5},
			threshold: 0.5,
			expected:  nil,
		},
		{
			name:      "fractional class id is not the class of interest",
			boxes:     []float32{0.1, 0.2, 0.5, 0.6},
			classes:   []float32{1.5},
			scores:    []float32{0.9},
			threshold: 0.5,
			expected:  nil,
		},
		{
			name:      "nan score ends the scan",
			boxes:     []float32{0.1, 0.2, 0.5, 0.6},
			classes:   []float32{1},
			scores:    []float32{float32(math.NaN())},
			threshold: 0.5,
			expected:  nil,
		},
		{
			name:      "short boxes array",
			boxes:     []float32{0.1, 0.2},
			classes:   []float32{1},
			scores:    []float32{0.9},
			threshold: 0.5,
			expected:  nil,
		},
		{
			name:      "empty outputs",
			threshold: 0.5,
			expected:  nil,
		},
	}

	for _, tc := range tests {

		got := ssd.Decode(tc.boxes, tc.classes, tc.scores, tc.threshold)

		if len(got) != len(tc.expected) {
			t.Errorf("%s: expected %d detections, got %d", tc.name, len(tc.expected), len(got))
			continue
		}

		for i := range got {

			exp := tc.expected[i]
			box := got[i].Box

			if !floatEqual(box.X, exp.Box.X, 1e-6) || !floatEqual(box.Y, exp.Box.Y, 1e-6) ||
				!floatEqual(box.Width, exp.Box.Width, 1e-6) ||
				!floatEqual(box.Height, exp.Box.Height, 1e-6) {
				t.Errorf("%s: detection %d expected box %+v, got %+v", tc.name, i, exp.Box, box)
			}

			if got[i].Confidence != exp.Confidence || got[i].Label != exp.Label {
				t.Errorf("%s: detection %d expected %+v, got %+v", tc.name, i, exp, got[i])
			}
		}
	}
}

func TestQuadToBox(t *testing.T) {

	box := quadToBox([]float32{10, 20, 50, 80})

	expected := BoundingBox{X: 20, Y: 10, Width: 60, Height: 40}

	if box != expected {
		t.Errorf("expected %+v, got %+v", expected, box)
	}
}
