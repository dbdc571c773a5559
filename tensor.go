package detlite

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// TensorFormat is the dimension order of an image tensor
type TensorFormat int

const (
	TensorUndefined TensorFormat = iota
	TensorNCHW
	TensorNHWC
)

// TensorType is the element type of a tensor
type TensorType int

const (
	TensorUnsupported TensorType = iota
	TensorFloat32
	TensorFloat16
	TensorFloat64
	TensorInt8
	TensorUint8
	TensorInt32
	TensorInt64
)

// tensorTypes maps onnxruntime element types to TensorType
var tensorTypes = map[ort.TensorElementDataType]TensorType{
	ort.TensorElementDataTypeFloat:   TensorFloat32,
	ort.TensorElementDataTypeFloat16: TensorFloat16,
	ort.TensorElementDataTypeDouble:  TensorFloat64,
	ort.TensorElementDataTypeInt8:    TensorInt8,
	ort.TensorElementDataTypeUint8:   TensorUint8,
	ort.TensorElementDataTypeInt32:   TensorInt32,
	ort.TensorElementDataTypeInt64:   TensorInt64,
}

// TensorAttr describes a Model input or output tensor
type TensorAttr struct {
	Index uint32
	Name  string
	NDims uint32
	// Dims are the tensor dimensions, dynamic dimensions are -1
	Dims   []int64
	NElems int64
	Type   TensorType
}

// convertTensorAttr converts onnxruntime io info to a TensorAttr
func convertTensorAttr(index int, info ort.InputOutputInfo) TensorAttr {

	dims := make([]int64, len(info.Dimensions))
	copy(dims, info.Dimensions)

	attr := TensorAttr{
		Index: uint32(index),
		Name:  info.Name,
		NDims: uint32(len(dims)),
		Dims:  dims,
		Type:  tensorTypes[info.DataType],
	}

	if attr.Static() {
		attr.NElems = ort.Shape(dims).FlattenedSize()
	}

	return attr
}

// Static reports if every dimension of the tensor is known ahead of
// inference
func (a TensorAttr) Static() bool {

	if len(a.Dims) == 0 {
		return false
	}

	for _, d := range a.Dims {
		if d <= 0 {
			return false
		}
	}

	return true
}

// String returns the TensorAttr's attributes formatted as a string
func (a TensorAttr) String() string {
	return fmt.Sprintf("index=%d, name=%s, n_dims=%d, dims=%v, n_elems=%d, type=%s",
		a.Index, a.Name, a.NDims, a.Dims, a.NElems, a.Type.String())
}

// String returns a readable description of the TensorType
func (t TensorType) String() string {
	switch t {
	case TensorFloat32:
		return "FP32"
	case TensorFloat16:
		return "FP16"
	case TensorFloat64:
		return "FP64"
	case TensorInt8:
		return "INT8"
	case TensorUint8:
		return "UINT8"
	case TensorInt32:
		return "INT32"
	case TensorInt64:
		return "INT64"
	default:
		return "UNKNOWN"
	}
}

// String returns a readable description of the TensorFormat
func (t TensorFormat) String() string {
	switch t {
	case TensorNCHW:
		return "NCHW"
	case TensorNHWC:
		return "NHWC"
	default:
		return "UNDEFINED"
	}
}

// Tensor is an input tensor for inference.  Exactly one of Float or Bytes
// holds the data
type Tensor struct {
	Shape []int64
	Fmt   TensorFormat
	Float []float32
	Bytes []uint8
}

// NewFloatTensor returns a float32 Tensor of the given shape
func NewFloatTensor(data []float32, format TensorFormat, shape ...int64) Tensor {
	return Tensor{Shape: shape, Fmt: format, Float: data}
}

// NewByteTensor returns a uint8 Tensor of the given shape
func NewByteTensor(data []uint8, format TensorFormat, shape ...int64) Tensor {
	return Tensor{Shape: shape, Fmt: format, Bytes: data}
}

// Type returns the element type of the tensor data
func (t Tensor) Type() TensorType {

	if t.Float != nil {
		return TensorFloat32
	}

	if t.Bytes != nil {
		return TensorUint8
	}

	return TensorUnsupported
}

// Len returns the number of elements held
func (t Tensor) Len() int {

	if t.Float != nil {
		return len(t.Float)
	}

	return len(t.Bytes)
}

// Validate checks the tensor holds data and the element count matches its
// shape
func (t Tensor) Validate() error {

	if t.Type() == TensorUnsupported {
		return fmt.Errorf("tensor holds no data")
	}

	if len(t.Shape) == 0 {
		return fmt.Errorf("tensor has no shape")
	}

	want := ort.Shape(t.Shape).FlattenedSize()

	if int64(t.Len()) != want {
		return fmt.Errorf("tensor shape %v needs %d elements, has %d",
			t.Shape, want, t.Len())
	}

	return nil
}

// value creates the onnxruntime tensor backed by the Tensor data, the
// caller must Destroy it
func (t Tensor) value() (ort.Value, error) {

	shape := ort.NewShape(t.Shape...)

	if t.Float != nil {
		v, err := ort.NewTensor(shape, t.Float)

		if err != nil {
			return nil, fmt.Errorf("error creating float32 tensor: %w", err)
		}

		return v, nil
	}

	v, err := ort.NewTensor(shape, t.Bytes)

	if err != nil {
		return nil, fmt.Errorf("error creating uint8 tensor: %w", err)
	}

	return v, nil
}
