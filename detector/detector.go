/*
Package detector runs one of the two supported object detection Models over
single frames, taking a frame through resize and pack, inference and decode
to a list of normalized bounding boxes.
*/
package detector

import (
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/detlite/go-detlite"
	"github.com/detlite/go-detlite/postprocess"
	"github.com/detlite/go-detlite/preprocess"
	"go.uber.org/zap"
)

const (
	// TinyYOLOv2ModelFile is the default Model file of the grid based variant
	TinyYOLOv2ModelFile = "./models/tinyyolov2-8.onnx"
	// SSDMobileNetV1ModelFile is the default Model file of the region
	// proposal variant
	SSDMobileNetV1ModelFile = "./models/ssd_mobilenet_v1_10.onnx"
	// gridOutputName is the name of the Tiny YOLOv2 output tensor
	gridOutputName = "grid"
)

var (
	// TinyYOLOv2InputSize is the fixed input size of the grid based variant
	TinyYOLOv2InputSize = preprocess.ImageSize{Width: 416, Height: 416}
	// SSDMobileNetV1InputSize is the fixed input size of the region proposal
	// variant
	SSDMobileNetV1InputSize = preprocess.ImageSize{Width: 224, Height: 224}
)

// Detector runs a single object detection Model.  Methods other than
// Threshold and SetThreshold must not be called concurrently
type Detector struct {
	variant   Variant
	modelFile string
	inputSize preprocess.ImageSize
	provider  detlite.Provider
	runtime   detlite.Runtime
	// threshold holds the float32 bits of the confidence threshold
	threshold atomic.Uint32
	codec     *preprocess.Codec
	filter    preprocess.Filter
	grid      *postprocess.TinyYOLOv2
	ssd       *postprocess.SSDMobileNet
	initOnce  sync.Once
	initErr   error
	session   detlite.Session
	log       *zap.Logger
}

// Option sets optional Detector parameters
type Option func(*Detector)

// WithModelFile overrides the variant's default Model file
func WithModelFile(file string) Option {
	return func(d *Detector) {
		d.modelFile = file
	}
}

// WithLogger sets the logger, the default discards all output
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		d.log = l
	}
}

// WithResizeFilter sets the resampling filter used to resize frames
func WithResizeFilter(f preprocess.Filter) Option {
	return func(d *Detector) {
		d.filter = f
	}
}

// WithTinyYOLOv2Params overrides the grid decode parameters
func WithTinyYOLOv2Params(p postprocess.TinyYOLOv2Params) Option {
	return func(d *Detector) {
		d.grid = postprocess.NewTinyYOLOv2(p)
	}
}

// WithSSDMobileNetParams overrides the region proposal decode parameters
func WithSSDMobileNetParams(p postprocess.SSDMobileNetParams) Option {
	return func(d *Detector) {
		d.ssd = postprocess.NewSSDMobileNet(p)
	}
}

// New returns a Detector of the given variant.  No session is created until
// Initialize is called
func New(variant Variant, rt detlite.Runtime, provider detlite.Provider,
	threshold float32, opts ...Option) (*Detector, error) {

	d := &Detector{
		variant:  variant,
		provider: provider,
		runtime:  rt,
		filter:   preprocess.FilterBilinear,
		log:      zap.NewNop(),
	}

	var layout preprocess.Layout

	switch variant {
	case GridBased:
		d.modelFile = TinyYOLOv2ModelFile
		d.inputSize = TinyYOLOv2InputSize
		d.grid = postprocess.NewTinyYOLOv2(postprocess.TinyYOLOv2VOCParams())
		layout = preprocess.Planar

	case RegionProposal:
		d.modelFile = SSDMobileNetV1ModelFile
		d.inputSize = SSDMobileNetV1InputSize
		d.ssd = postprocess.NewSSDMobileNet(postprocess.SSDMobileNetCOCOParams())
		layout = preprocess.Interleaved

	default:
		return nil, fmt.Errorf("unknown detector variant %s", variant)
	}

	for _, opt := range opts {
		opt(d)
	}

	d.codec = preprocess.NewCodec(d.inputSize, layout, preprocess.WithFilter(d.filter))
	d.SetThreshold(threshold)

	return d, nil
}

// NewTinyYOLOv2 returns a grid based Detector
func NewTinyYOLOv2(rt detlite.Runtime, provider detlite.Provider,
	threshold float32, opts ...Option) *Detector {

	// the variant is known so New can not fail
	d, _ := New(GridBased, rt, provider, threshold, opts...)
	return d
}

// NewSSDMobileNetV1 returns a region proposal Detector
func NewSSDMobileNetV1(rt detlite.Runtime, provider detlite.Provider,
	threshold float32, opts ...Option) *Detector {

	d, _ := New(RegionProposal, rt, provider, threshold, opts...)
	return d
}

// Variant returns the Detector's variant tag
func (d *Detector) Variant() Variant {
	return d.variant
}

// InputSize returns the fixed Model input size
func (d *Detector) InputSize() preprocess.ImageSize {
	return d.inputSize
}

// Threshold returns the current confidence threshold
func (d *Detector) Threshold() float32 {
	return math.Float32frombits(d.threshold.Load())
}

// SetThreshold changes the confidence threshold.  The new value is used from
// the next Postprocess call onwards and is safe to call while frames are
// being processed
func (d *Detector) SetThreshold(v float32) {
	d.threshold.Store(math.Float32bits(v))
}

// Initialize creates the inference session.  It runs once, later calls
// return the first call's result.  An unsupported provider is rejected
// without touching the runtime
func (d *Detector) Initialize() error {

	d.initOnce.Do(func() {

		if !d.provider.Valid() {
			d.initErr = &InitializationError{
				Variant: d.variant,
				Err:     &detlite.ProviderUnsupportedError{Provider: d.provider},
			}
			return
		}

		session, err := d.runtime.CreateSession(d.modelFile, d.provider)

		if err != nil {
			d.initErr = &InitializationError{Variant: d.variant, Err: err}
			return
		}

		d.session = session

		d.log.Info(fmt.Sprintf("initialized %s session", d.provider),
			zap.Stringer("variant", d.variant),
			zap.String("model", d.modelFile),
		)
	})

	return d.initErr
}

// Preprocess resizes and packs the frame into the Model input tensor.  The
// tensor data is pooled, pass it to Release once inference has finished
func (d *Detector) Preprocess(img image.Image) detlite.Tensor {

	buf := d.codec.ResizeAndPack(img)

	w := int64(d.inputSize.Width)
	h := int64(d.inputSize.Height)

	if d.variant == GridBased {
		return detlite.NewFloatTensor(buf.Float, detlite.TensorNCHW, 1, 3, h, w)
	}

	return detlite.NewByteTensor(buf.Bytes, detlite.TensorNHWC, 1, h, w, 3)
}

// Release returns a tensor created by Preprocess to the frame pool
func (d *Detector) Release(t detlite.Tensor) {
	d.codec.Release(preprocess.Buffer{Float: t.Float, Bytes: t.Bytes})
}

// Infer runs the Model on the input tensor.  Without a session, before
// Initialize or after a failed Initialize, it returns nil outputs and no
// error
func (d *Detector) Infer(t detlite.Tensor) (*detlite.Outputs, error) {

	if d.session == nil {
		return nil, nil
	}

	outputs, err := d.session.Run(t)

	if err != nil {
		return nil, fmt.Errorf("error running %s inference: %w", d.variant, err)
	}

	return outputs, nil
}

// Postprocess decodes the raw Model outputs into boxes of the class of
// interest normalized to [0,1] of the frame.  The threshold is read on every
// call.  Nil or incomplete outputs decode to no boxes
func (d *Detector) Postprocess(outputs *detlite.Outputs) []postprocess.BoundingBox {

	if outputs == nil || len(outputs.Output) == 0 {
		return nil
	}

	threshold := d.Threshold()

	if d.variant == GridBased {
		return d.postprocessGrid(outputs, threshold)
	}

	return d.postprocessRegions(outputs, threshold)
}

// postprocessGrid decodes the Tiny YOLOv2 grid and scales pixel boxes down
// by the input size
func (d *Detector) postprocessGrid(outputs *detlite.Outputs,
	threshold float32) []postprocess.BoundingBox {

	grid, ok := outputs.Named(gridOutputName)

	if !ok {
		grid = outputs.Output[0].BufFloat
	}

	dets := d.grid.DetectObjects(grid, threshold)

	boxes := make([]postprocess.BoundingBox, len(dets))

	sx := 1 / float32(d.inputSize.Width)
	sy := 1 / float32(d.inputSize.Height)

	for i, det := range dets {
		boxes[i] = det.Box.Scale(sx, sy)
	}

	d.log.Debug("grid decoded", zap.Int("boxes", len(boxes)),
		zap.Float32("threshold", threshold))

	return boxes
}

// postprocessRegions decodes the SSD box, class and score outputs which are
// already normalized by the Model
func (d *Detector) postprocessRegions(outputs *detlite.Outputs,
	threshold float32) []postprocess.BoundingBox {

	if len(outputs.Output) < 3 {
		d.log.Warn("region proposal outputs incomplete",
			zap.Int("outputs", len(outputs.Output)))
		return nil
	}

	dets := d.ssd.Decode(
		outputs.Output[0].BufFloat,
		outputs.Output[1].BufFloat,
		outputs.Output[2].BufFloat,
		threshold,
	)

	d.log.Debug("regions decoded", zap.Int("boxes", len(dets)),
		zap.Float32("threshold", threshold))

	return postprocess.Boxes(dets)
}

// Detect runs preprocess, inference and postprocess over a single frame
func (d *Detector) Detect(img image.Image) ([]postprocess.BoundingBox, error) {

	tensor := d.Preprocess(img)
	outputs, err := d.Infer(tensor)
	d.Release(tensor)

	if err != nil {
		return nil, err
	}

	return d.Postprocess(outputs), nil
}

// Close releases the inference session
func (d *Detector) Close() error {

	if d.session == nil {
		return nil
	}

	err := d.session.Close()
	d.session = nil

	return err
}
