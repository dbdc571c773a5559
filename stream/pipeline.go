/*
Package stream drives frames from a capture device through a detector and
on to a render sink, one frame at a time and paced to the display refresh
rate.
*/
package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/detlite/go-detlite/postprocess"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Pipeline run
type State int32

const (
	Idle State = iota
	Running
	Cancelled
	Completed
	Failed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports if the run has ended
func (s State) Terminal() bool {
	return s == Cancelled || s == Completed || s == Failed
}

// FrameGrabber is the capture device frames are read from
type FrameGrabber interface {
	// GrabFrame returns the next frame.  io.EOF signals the source has no more
	// frames
	GrabFrame() (image.Image, error)
	// Stop releases the capture device
	Stop() error
}

// Detector finds the boxes of objects in a frame
type Detector interface {
	Initialize() error
	Detect(img image.Image) ([]postprocess.BoundingBox, error)
}

// Frame is a captured frame and the boxes detected in it, normalized to [0,1]
type Frame struct {
	Index uint64
	Image image.Image
	Boxes []postprocess.BoundingBox
	// Captured is when the frame was grabbed
	Captured time.Time
}

// Size returns the pixel size of the frame image
func (f Frame) Size() image.Point {

	if f.Image == nil {
		return image.Point{}
	}

	return f.Image.Bounds().Size()
}

// Stage transforms a frame between detection and the sink
type Stage interface {
	Process(f Frame) Frame
}

// StageFunc adapts a function to the Stage interface
type StageFunc func(f Frame) Frame

// Process calls fn
func (fn StageFunc) Process(f Frame) Frame {
	return fn(f)
}

// Sink receives processed frames
type Sink interface {
	Write(f Frame) error
	Close() error
}

// Pipeline runs the capture, detect and render loop.  A Pipeline runs once
type Pipeline struct {
	capture FrameGrabber
	det     Detector
	sink    Sink
	pacer   Pacer
	stages  []Stage
	metrics *Metrics
	clock   clock.Clock
	log     *zap.Logger
	state   atomic.Int32
	started atomic.Bool
	runID   string
	frames  atomic.Uint64
}

// Option sets optional Pipeline parameters
type Option func(*Pipeline)

// WithPacer sets the pacer spacing iterations, the default is a
// RefreshPacer at DefaultRefreshRate created when the run starts
func WithPacer(p Pacer) Option {
	return func(pl *Pipeline) {
		pl.pacer = p
	}
}

// WithStages appends stages run in order on every frame before the sink
func WithStages(stages ...Stage) Option {
	return func(pl *Pipeline) {
		pl.stages = append(pl.stages, stages...)
	}
}

// WithMetrics records frame and inference metrics
func WithMetrics(m *Metrics) Option {
	return func(pl *Pipeline) {
		pl.metrics = m
	}
}

// WithClock sets the clock used for timing and the default pacer
func WithClock(clk clock.Clock) Option {
	return func(pl *Pipeline) {
		pl.clock = clk
	}
}

// WithLogger sets the logger, the default discards all output
func WithLogger(l *zap.Logger) Option {
	return func(pl *Pipeline) {
		pl.log = l
	}
}

// New returns an idle Pipeline reading from capture, detecting with det and
// writing to sink.  The Pipeline owns capture and sink, both are closed when
// the run ends
func New(capture FrameGrabber, det Detector, sink Sink, opts ...Option) *Pipeline {

	p := &Pipeline{
		capture: capture,
		det:     det,
		sink:    sink,
		clock:   clock.New(),
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// State returns the current run state
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Frames returns the number of frames fully processed
func (p *Pipeline) Frames() uint64 {
	return p.frames.Load()
}

// setState moves the run to state s
func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Run processes frames until ctx is cancelled, the capture source ends or a
// stage fails.  Cancellation is checked once per iteration, an in flight
// capture or inference call is allowed to finish.  Cancellation and the end
// of the source return nil.  The capture device is stopped exactly once
// whichever way the run ends, a failure to stop is returned combined with
// the run error.  A frame that fails after cancellation was requested ends
// the run as Cancelled but its error is still returned
func (p *Pipeline) Run(ctx context.Context) (err error) {

	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if p.pacer == nil {
		p.pacer = NewRefreshPacer(p.clock, DefaultRefreshRate)
	}

	p.runID = uuid.NewString()
	log := p.log.With(zap.String("run", p.runID))

	p.setState(Running)
	log.Info("pipeline started")

	defer func() {
		err = multierr.Append(err, p.shutdown(log))

		if err != nil && p.metrics != nil {
			p.metrics.Errors.WithLabelValues(errorKind(err)).Inc()
		}

		log.Info("pipeline stopped",
			zap.Stringer("state", p.State()),
			zap.Uint64("frames", p.Frames()),
			zap.Error(err),
		)
	}()

	if err := p.det.Initialize(); err != nil {
		p.setState(Failed)
		return err
	}

	for index := uint64(0); ; index++ {

		// checked once per iteration, before any new frame is requested
		if ctx.Err() != nil {
			p.setState(Cancelled)
			return nil
		}

		img, err := p.capture.GrabFrame()

		if errors.Is(err, io.EOF) {
			p.setState(Completed)
			return nil
		}

		if err != nil {
			p.frameFailed(ctx)
			return &CaptureError{Err: err}
		}

		captured := p.clock.Now()
		boxes, err := p.det.Detect(img)

		if err != nil {
			p.frameFailed(ctx)
			return &InferenceError{Frame: index, Err: err}
		}

		p.observe(p.clock.Since(captured), len(boxes))

		frame := Frame{
			Index:    index,
			Image:    img,
			Boxes:    boxes,
			Captured: captured,
		}

		for _, stage := range p.stages {
			frame = stage.Process(frame)
		}

		if err := p.sink.Write(frame); err != nil {
			p.frameFailed(ctx)
			return &RenderError{Err: err}
		}

		p.frames.Add(1)

		log.Debug("frame processed",
			zap.Uint64("frame", index),
			zap.Int("boxes", len(boxes)),
		)

		if err := p.pacer.Wait(ctx); err != nil {
			// only a done context ends the wait early
			p.setState(Cancelled)
			return nil
		}
	}
}

// frameFailed ends the run after a frame failed.  A run cancelled while the
// frame was in flight still ends as Cancelled, the error is returned either
// way
func (p *Pipeline) frameFailed(ctx context.Context) {

	if ctx.Err() != nil {
		p.setState(Cancelled)
		return
	}

	p.setState(Failed)
}

// shutdown stops the pacer and capture device and closes the sink
func (p *Pipeline) shutdown(log *zap.Logger) error {

	p.pacer.Stop()

	var err error

	if stopErr := p.capture.Stop(); stopErr != nil {
		log.Warn("error stopping capture", zap.Error(stopErr))
		err = multierr.Append(err, &CaptureError{Err: stopErr})
	}

	if closeErr := p.sink.Close(); closeErr != nil {
		log.Warn("error closing sink", zap.Error(closeErr))
		err = multierr.Append(err, &RenderError{Err: closeErr})
	}

	return err
}

// observe records per frame metrics
func (p *Pipeline) observe(inference time.Duration, boxes int) {

	if p.metrics == nil {
		return
	}

	p.metrics.Frames.Inc()
	p.metrics.Boxes.Add(float64(boxes))
	p.metrics.Inference.Observe(inference.Seconds())
}

// errorKind labels an error for the errors metric
func errorKind(err error) string {

	var (
		captureErr   *CaptureError
		inferenceErr *InferenceError
		renderErr    *RenderError
	)

	switch {
	case errors.As(err, &captureErr):
		return "capture"
	case errors.As(err, &inferenceErr):
		return "inference"
	case errors.As(err, &renderErr):
		return "render"
	default:
		return "initialize"
	}
}
