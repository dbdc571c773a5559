package detlite

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
)

// Output is a single named Model output converted to float32
type Output struct {
	// Index is the output index
	Index uint32
	// Name is the output tensor name
	Name string
	// Shape is the shape of the tensor produced by this run
	Shape []int64
	// BufFloat holds the output values, owned by the caller
	BufFloat []float32
}

// Outputs holds the results of a single inference run in Model output order
type Outputs struct {
	Output []Output
}

// Named returns the values of the output with the given tensor name
func (o *Outputs) Named(name string) ([]float32, bool) {

	if o == nil {
		return nil, false
	}

	for _, out := range o.Output {
		if out.Name == name {
			return out.BufFloat, true
		}
	}

	return nil, false
}

// ortSession is a Session backed by an onnxruntime dynamic session
type ortSession struct {
	session     *ort.DynamicAdvancedSession
	ioNum       IONumber
	inputAttrs  []TensorAttr
	outputAttrs []TensorAttr
	// prealloc holds reusable output tensors for outputs with a static
	// shape, nil entries are allocated by onnxruntime on every run
	prealloc []ort.Value
}

// newORTSession wraps the session and allocates reusable output tensors
func newORTSession(session *ort.DynamicAdvancedSession,
	inputInfo, outputInfo []ort.InputOutputInfo) (*ortSession, error) {

	s := &ortSession{
		session: session,
		ioNum: IONumber{
			NumberInput:  uint32(len(inputInfo)),
			NumberOutput: uint32(len(outputInfo)),
		},
		inputAttrs:  make([]TensorAttr, len(inputInfo)),
		outputAttrs: make([]TensorAttr, len(outputInfo)),
		prealloc:    make([]ort.Value, len(outputInfo)),
	}

	for i, info := range inputInfo {
		s.inputAttrs[i] = convertTensorAttr(i, info)
	}

	for i, info := range outputInfo {

		attr := convertTensorAttr(i, info)
		s.outputAttrs[i] = attr

		if !attr.Static() {
			continue
		}

		v, err := preallocate(attr)

		if err != nil {
			s.destroyPrealloc()
			return nil, fmt.Errorf("error allocating output %s: %w", attr.Name, err)
		}

		s.prealloc[i] = v
	}

	return s, nil
}

// preallocate creates a reusable tensor for a static output.  Types other
// than float32 and float16 are left to onnxruntime
func preallocate(attr TensorAttr) (ort.Value, error) {

	shape := ort.NewShape(attr.Dims...)

	switch attr.Type {
	case TensorFloat32:
		t, err := ort.NewEmptyTensor[float32](shape)

		if err != nil {
			return nil, err
		}

		return t, nil

	case TensorFloat16:
		t, err := ort.NewCustomDataTensor(shape, make([]byte, attr.NElems*2),
			ort.TensorElementDataTypeFloat16)

		if err != nil {
			return nil, err
		}

		return t, nil
	}

	return nil, nil
}

// InputAttrs returns the Model input tensor attributes
func (s *ortSession) InputAttrs() []TensorAttr {
	return s.inputAttrs
}

// OutputAttrs returns the Model output tensor attributes
func (s *ortSession) OutputAttrs() []TensorAttr {
	return s.outputAttrs
}

// Run performs inference on the given inputs and copies every output into
// Go memory as float32
func (s *ortSession) Run(inputs ...Tensor) (*Outputs, error) {

	if len(inputs) != int(s.ioNum.NumberInput) {
		return nil, fmt.Errorf("model expects %d inputs, got %d",
			s.ioNum.NumberInput, len(inputs))
	}

	values := make([]ort.Value, len(inputs))

	defer func() {
		for _, v := range values {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	for i, in := range inputs {

		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("invalid input %d: %w", i, err)
		}

		v, err := in.value()

		if err != nil {
			return nil, fmt.Errorf("error setting input %d: %w", i, err)
		}

		values[i] = v
	}

	outputs := make([]ort.Value, len(s.prealloc))
	copy(outputs, s.prealloc)

	// onnxruntime allocated outputs are ours to destroy
	defer func() {
		for i, v := range outputs {
			if v != nil && s.prealloc[i] == nil {
				v.Destroy()
			}
		}
	}()

	if err := s.session.Run(values, outputs); err != nil {
		return nil, fmt.Errorf("error running model: %w", err)
	}

	result := &Outputs{
		Output: make([]Output, len(outputs)),
	}

	for i, v := range outputs {

		attr := s.outputAttrs[i]

		if v == nil {
			return nil, fmt.Errorf("model produced no value for output %s", attr.Name)
		}

		buf, err := toFloat32(v)

		if err != nil {
			return nil, fmt.Errorf("error reading output %s: %w", attr.Name, err)
		}

		shape := v.GetShape()

		result.Output[i] = Output{
			Index:    attr.Index,
			Name:     attr.Name,
			Shape:    append([]int64(nil), shape...),
			BufFloat: buf,
		}
	}

	return result, nil
}

// Close releases the reusable output tensors and the onnxruntime session
func (s *ortSession) Close() error {

	err := s.destroyPrealloc()

	if s.session != nil {
		err = multierr.Append(err, s.session.Destroy())
		s.session = nil
	}

	return err
}

// destroyPrealloc releases the reusable output tensors
func (s *ortSession) destroyPrealloc() error {

	var err error

	for i, v := range s.prealloc {
		if v != nil {
			err = multierr.Append(err, v.Destroy())
			s.prealloc[i] = nil
		}
	}

	return err
}

// toFloat32 copies the data of an onnxruntime value into a new float32
// slice
func toFloat32(v ort.Value) ([]float32, error) {

	switch t := v.(type) {
	case *ort.Tensor[float32]:
		data := t.GetData()
		out := make([]float32, len(data))
		copy(out, data)
		return out, nil

	case *ort.Tensor[float64]:
		return convertSlice(t.GetData()), nil

	case *ort.Tensor[uint8]:
		return convertSlice(t.GetData()), nil

	case *ort.Tensor[int8]:
		return convertSlice(t.GetData()), nil

	case *ort.Tensor[int32]:
		return convertSlice(t.GetData()), nil

	case *ort.Tensor[int64]:
		return convertSlice(t.GetData()), nil

	case *ort.CustomDataTensor:
		// the only custom data outputs created are float16
		return convertFloat16BytesToFloat32(t.GetData()), nil

	default:
		return nil, fmt.Errorf("unsupported output value type %T", v)
	}
}

// convertSlice converts numeric values to float32
func convertSlice[T float64 | uint8 | int8 | int32 | int64](in []T) []float32 {

	out := make([]float32, len(in))

	for i, v := range in {
		out[i] = float32(v)
	}

	return out
}
