package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/detlite/go-detlite/postprocess"
	"github.com/detlite/go-detlite/stream"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Overlay draws detected boxes and a status line over each frame and shows
// the result on a Display.  It is a stream.Sink
type Overlay struct {
	display   Display
	clr       color.RGBA
	label     string
	font      Font
	status    Font
	thickness int
	palette   bool
	mu        sync.Mutex
	text      string
	canvas    gocv.Mat
}

// OverlayOption sets optional Overlay parameters
type OverlayOption func(*Overlay)

// WithLabel writes the label above every box
func WithLabel(label string) OverlayOption {
	return func(o *Overlay) {
		o.label = label
	}
}

// WithLabelAlignment sets where labels sit along the top of their box
func WithLabelAlignment(a Alignment) OverlayOption {
	return func(o *Overlay) {
		o.font.Alignment = a
	}
}

// WithPalette paints each box in its own PaletteColor instead of the
// overlay color
func WithPalette() OverlayOption {
	return func(o *Overlay) {
		o.palette = true
	}
}

// WithLineThickness sets the box line thickness in pixels
func WithLineThickness(n int) OverlayOption {
	return func(o *Overlay) {
		o.thickness = n
	}
}

// NewOverlay returns an Overlay drawing boxes in clr on display
func NewOverlay(display Display, clr color.RGBA, opts ...OverlayOption) *Overlay {

	o := &Overlay{
		display:   display,
		clr:       clr,
		font:      DefaultFont(),
		status:    StatusFont(),
		thickness: 2,
		canvas:    gocv.NewMat(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// SetStatus sets the text of the status line, such as the sampled frame
// rate.  It is safe to call from any goroutine
func (o *Overlay) SetStatus(text string) {
	o.mu.Lock()
	o.text = text
	o.mu.Unlock()
}

// Status returns the status line text
func (o *Overlay) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text
}

// Draw clears the previous overlay by starting from a fresh copy of the
// frame and draws each box scaled by size
func (o *Overlay) Draw(img image.Image, boxes []postprocess.BoundingBox,
	size image.Point, clr color.RGBA) (gocv.Mat, error) {

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return gocv.Mat{}, fmt.Errorf("error converting frame: %w", err)
	}

	mat.CopyTo(&o.canvas)
	mat.Close()

	if o.palette {
		for i := range boxes {
			DetectionBoxes(&o.canvas, boxes[i:i+1], size, PaletteColor(i),
				o.label, o.font, o.thickness)
		}
	} else {
		DetectionBoxes(&o.canvas, boxes, size, clr, o.label, o.font, o.thickness)
	}

	if text := o.Status(); text != "" {
		StatusBar(&o.canvas, text, o.status)
	}

	return o.canvas, nil
}

// Write draws the frame's boxes and shows it
func (o *Overlay) Write(f stream.Frame) error {

	if f.Image == nil {
		return fmt.Errorf("frame %d has no image", f.Index)
	}

	canvas, err := o.Draw(f.Image, f.Boxes, f.Size(), o.clr)

	if err != nil {
		return err
	}

	return o.display.Show(canvas)
}

// Close closes the display and frees the canvas
func (o *Overlay) Close() error {
	return multierr.Append(o.display.Close(), o.canvas.Close())
}
