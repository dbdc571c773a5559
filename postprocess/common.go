package postprocess

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// sigmoid is the logistic function used to squash a raw logit into (0,1)
func sigmoid(val float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(val))))
}

// Softmax normalizes the given logits into probabilities that sum to one.  The
// maximum logit is subtracted before exponentiating so large values do not
// overflow
func Softmax(values []float32) []float64 {

	if len(values) == 0 {
		return nil
	}

	out := make([]float64, len(values))

	for i, v := range values {
		out[i] = float64(v)
	}

	floats.AddConst(-floats.Max(out), out)

	for i, v := range out {
		out[i] = math.Exp(v)
	}

	floats.Scale(1/floats.Sum(out), out)

	return out
}

// topClass returns the index and probability of the highest scoring class
func topClass(probs []float64) (int, float32) {

	if len(probs) == 0 {
		return -1, 0
	}

	idx := floats.MaxIdx(probs)

	return idx, float32(probs[idx])
}

// IoU works out the Intersection over Union value of two boxes.  If either
// box has no positive area the result is 0
func IoU(a, b BoundingBox) float32 {

	if a.IsDegenerate() || b.IsDegenerate() {
		return 0
	}

	areaA := a.Area()
	areaB := b.Area()

	minX := max(a.X, b.X)
	minY := max(a.Y, b.Y)
	maxX := min(a.Right(), b.Right())
	maxY := min(a.Bottom(), b.Bottom())

	intersection := max(maxY-minY, 0) * max(maxX-minX, 0)

	return intersection / (areaA + areaB - intersection)
}

// byConfidence orders detections from highest to lowest confidence, NaN
// values always order last
type byConfidence []Detection

func (c byConfidence) Len() int      { return len(c) }
func (c byConfidence) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

func (c byConfidence) Less(i, j int) bool {
	a, b := c[i].Confidence, c[j].Confidence

	if isNaN(a) {
		return false
	}

	if isNaN(b) {
		return true
	}

	return a > b
}

func isNaN(v float32) bool {
	return v != v
}

// Suppress implements greedy Non-Maximum Suppression.  Detections are sorted
// by descending confidence with ties kept in decode order, then each still
// active detection is kept and every later active detection overlapping it
// by more than iouThreshold is discarded.  At most maxResults detections are
// returned
func Suppress(dets []Detection, maxResults int, iouThreshold float32) []Detection {

	if len(dets) == 0 || maxResults <= 0 {
		return nil
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.Stable(byConfidence(sorted))

	active := make([]bool, len(sorted))
	activeCount := 0

	for i, d := range sorted {
		// a NaN score can never be ranked so is never kept
		if !isNaN(d.Confidence) {
			active[i] = true
			activeCount++
		}
	}

	results := make([]Detection, 0, min(maxResults, activeCount))

	for i := 0; i < len(sorted) && activeCount > 0; i++ {

		if !active[i] {
			continue
		}

		boxA := sorted[i]
		results = append(results, boxA)
		active[i] = false
		activeCount--

		if len(results) >= maxResults {
			break
		}

		for j := i + 1; j < len(sorted); j++ {

			if !active[j] {
				continue
			}

			if IoU(boxA.Box, sorted[j].Box) > iouThreshold {
				active[j] = false
				activeCount--
			}
		}
	}

	return results
}
