package detlite

import (
	"testing"
)

func TestTensorValidate(t *testing.T) {

	tests := []struct {
		name    string
		tensor  Tensor
		wantErr bool
	}{
		{"float nchw", NewFloatTensor(make([]float32, 3*4*4), TensorNCHW, 1, 3, 4, 4), false},
		{"bytes nhwc", NewByteTensor(make([]uint8, 4*4*3), TensorNHWC, 1, 4, 4, 3), false},
		{"short data", NewFloatTensor(make([]float32, 10), TensorNCHW, 1, 3, 4, 4), true},
		{"no shape", NewByteTensor(make([]uint8, 10), TensorNHWC), true},
		{"no data", Tensor{Shape: []int64{1}}, true},
	}

	for _, tc := range tests {
		err := tc.tensor.Validate()

		if (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestTensorType(t *testing.T) {

	if typ := NewFloatTensor([]float32{1}, TensorNCHW, 1).Type(); typ != TensorFloat32 {
		t.Errorf("expected FP32, got %s", typ)
	}

	if typ := NewByteTensor([]uint8{1}, TensorNHWC, 1).Type(); typ != TensorUint8 {
		t.Errorf("expected UINT8, got %s", typ)
	}

	if typ := (Tensor{}).Type(); typ != TensorUnsupported {
		t.Errorf("expected UNKNOWN, got %s", typ)
	}
}

func TestTensorAttrStatic(t *testing.T) {

	tests := []struct {
		dims     []int64
		expected bool
	}{
		{[]int64{1, 125, 13, 13}, true},
		{[]int64{-1, 100, 4}, false},
		{[]int64{1, 0}, false},
		{nil, false},
	}

	for _, tc := range tests {
		attr := TensorAttr{Dims: tc.dims}

		if got := attr.Static(); got != tc.expected {
			t.Errorf("dims %v: expected Static() %v, got %v", tc.dims, tc.expected, got)
		}
	}
}

func TestOutputsNamed(t *testing.T) {

	outputs := &Outputs{
		Output: []Output{
			{Index: 0, Name: "detection_boxes:0", BufFloat: []float32{0.1, 0.2, 0.3, 0.4}},
			{Index: 1, Name: "detection_scores:0", BufFloat: []float32{0.9}},
		},
	}

	buf, ok := outputs.Named("detection_scores:0")

	if !ok || len(buf) != 1 || buf[0] != 0.9 {
		t.Errorf("expected scores output, got %v, %v", buf, ok)
	}

	if _, ok := outputs.Named("grid"); ok {
		t.Errorf("expected missing output to not be found")
	}

	var empty *Outputs

	if _, ok := empty.Named("grid"); ok {
		t.Errorf("expected nil outputs to find nothing")
	}
}
