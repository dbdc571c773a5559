/*
Package capture reads frames from a camera device, video file or network
stream using OpenCV.
*/
package capture

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ErrStopped is returned when grabbing a frame from a stopped Handle
var ErrStopped = errors.New("capture stopped")

// Source describes where frames are read from
type Source struct {
	// Device is the camera index, only used when File is empty
	Device int
	// File is a video file path or stream URL
	File string
}

// ParseSource treats a non negative integer as a camera device index and
// anything else as a file path or URL
func ParseSource(s string) (Source, error) {

	s = strings.TrimSpace(s)

	if s == "" {
		return Source{}, errors.New("empty capture source")
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Source{}, fmt.Errorf("invalid capture device %d", n)
		}

		return Source{Device: n}, nil
	}

	return Source{File: s}, nil
}

// IsDevice reports if the source is a camera device
func (s Source) IsDevice() bool {
	return s.File == ""
}

// String returns the source as given on the command line
func (s Source) String() string {

	if s.IsDevice() {
		return strconv.Itoa(s.Device)
	}

	return s.File
}

// Handle is an open capture source
type Handle struct {
	source Source
	video  *gocv.VideoCapture
	frame  gocv.Mat
	width  int
	height int
	log    *zap.Logger
	mu     sync.Mutex
	closed bool
}

// Option sets optional Handle parameters
type Option func(*Handle)

// WithSize requests a capture resolution from a camera device.  Devices may
// pick the nearest size they support
func WithSize(width, height int) Option {
	return func(h *Handle) {
		h.width = width
		h.height = height
	}
}

// WithLogger sets the logger, the default discards all output
func WithLogger(l *zap.Logger) Option {
	return func(h *Handle) {
		h.log = l
	}
}

// Start opens the capture source
func Start(source string, opts ...Option) (*Handle, error) {

	src, err := ParseSource(source)

	if err != nil {
		return nil, err
	}

	h := &Handle{
		source: src,
		log:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(h)
	}

	var device interface{} = src.File

	if src.IsDevice() {
		device = src.Device
	}

	h.video, err = gocv.OpenVideoCapture(device)

	if err != nil {
		return nil, fmt.Errorf("error opening capture source %s: %w", src, err)
	}

	if src.IsDevice() && h.width > 0 && h.height > 0 {
		h.video.Set(gocv.VideoCaptureFrameWidth, float64(h.width))
		h.video.Set(gocv.VideoCaptureFrameHeight, float64(h.height))
	}

	h.frame = gocv.NewMat()

	h.log.Info("capture started",
		zap.Stringer("source", src),
		zap.Stringer("size", h.Size()),
	)

	return h, nil
}

// Size returns the frame size reported by the capture source
func (h *Handle) Size() image.Point {

	if h.video == nil {
		return image.Point{}
	}

	return image.Pt(
		int(h.video.Get(gocv.VideoCaptureFrameWidth)),
		int(h.video.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// GrabFrame reads the next frame.  A video file that has no more frames
// returns io.EOF, a camera that fails to deliver a frame returns an error
func (h *Handle) GrabFrame() (image.Image, error) {

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrStopped
	}

	if ok := h.video.Read(&h.frame); !ok || h.frame.Empty() {

		if !h.source.IsDevice() {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("error reading frame from device %d", h.source.Device)
	}

	img, err := h.frame.ToImage()

	if err != nil {
		return nil, fmt.Errorf("error converting frame: %w", err)
	}

	return img, nil
}

// Stop releases the capture source.  It is safe to call more than once
func (h *Handle) Stop() error {

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true
	h.log.Info("capture stopped", zap.Stringer("source", h.source))

	if h.video == nil {
		return nil
	}

	return multierr.Append(h.video.Close(), h.frame.Close())
}
