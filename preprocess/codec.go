/*
Package preprocess resizes captured frames to a Model's fixed input size and
repacks the pixels into the tensor layout the Model expects.
*/
package preprocess

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// ImageSize is the width and height of an image in pixels
type ImageSize struct {
	Width  uint
	Height uint
}

// Pixels returns the number of pixels in an image of this size
func (s ImageSize) Pixels() int {
	return int(s.Width * s.Height)
}

// Elements returns the number of values a packed RGB buffer of this size
// holds
func (s ImageSize) Elements() int {
	return s.Pixels() * 3
}

// String returns the size in WxH form
func (s ImageSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Layout is the order packed pixel values are written in
type Layout int

const (
	// Planar packs float32 values channel first, then row, then column (CHW)
	Planar Layout = iota
	// Interleaved packs uint8 values per pixel, R G B for each pixel in turn
	// (HWC)
	Interleaved
)

// String returns the layout name
func (l Layout) String() string {
	switch l {
	case Planar:
		return "planar"
	case Interleaved:
		return "interleaved"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Filter is the resampling filter used to resize frames
type Filter int

const (
	// FilterBilinear resamples with golang.org/x/image/draw BiLinear
	FilterBilinear Filter = iota
	// FilterCatmullRom resamples with golang.org/x/image/draw CatmullRom,
	// slower but sharper than bilinear
	FilterCatmullRom
	// FilterLanczos resamples with the imaging Lanczos filter
	FilterLanczos
)

var filterNames = map[Filter]string{
	FilterBilinear:   "bilinear",
	FilterCatmullRom: "catmullrom",
	FilterLanczos:    "lanczos",
}

// String returns the filter name
func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter returns the Filter with the given name
func ParseFilter(name string) (Filter, error) {

	for f, n := range filterNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}

	return FilterBilinear, fmt.Errorf("unknown resize filter %q", name)
}

// Buffer is a packed frame.  Exactly one of Float (Planar) or Bytes
// (Interleaved) is set
type Buffer struct {
	Float []float32
	Bytes []uint8
}

// Len returns the number of packed values
func (b Buffer) Len() int {
	if b.Float != nil {
		return len(b.Float)
	}
	return len(b.Bytes)
}

const poolName = "frame"

// Codec resizes frames to a fixed size and packs them in a fixed layout.  A
// Codec is not safe for concurrent use, it holds scratch space for one frame
// in flight
type Codec struct {
	size    ImageSize
	layout  Layout
	filter  Filter
	scratch *image.RGBA
	floats  *bufferPool[float32]
	bytes   *bufferPool[uint8]
}

// CodecOption sets optional Codec parameters
type CodecOption func(*Codec)

// WithFilter sets the resampling filter, the default is FilterBilinear
func WithFilter(f Filter) CodecOption {
	return func(c *Codec) {
		c.filter = f
	}
}

// NewCodec returns a Codec producing buffers of size.Elements() values in
// the given layout
func NewCodec(size ImageSize, layout Layout, opts ...CodecOption) *Codec {

	c := &Codec{
		size:    size,
		layout:  layout,
		filter:  FilterBilinear,
		scratch: image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height))),
		floats:  newBufferPool[float32](),
		bytes:   newBufferPool[uint8](),
	}

	for _, opt := range opts {
		opt(c)
	}

	// pool names are unique per instance so Create can not fail here
	_ = c.floats.Create(poolName, size.Elements())
	_ = c.bytes.Create(poolName, size.Elements())

	return c
}

// Size returns the target size frames are resized to
func (c *Codec) Size() ImageSize {
	return c.size
}

// Layout returns the packing layout
func (c *Codec) Layout() Layout {
	return c.layout
}

// ResizeAndPack resizes img to the Codec size, drops the alpha channel and
// packs the RGB values.  The returned buffer always holds exactly
// Size().Elements() values; an empty or nil source packs to all zero values.
// Pass the buffer to Release once it is no longer referenced
func (c *Codec) ResizeAndPack(img image.Image) Buffer {

	n := c.size.Elements()

	if c.layout == Interleaved {
		buf := c.bytes.Get(poolName, n)

		if pix, stride, ok := c.resize(img); ok {
			packInterleaved(buf, pix, stride, c.size)
		}

		return Buffer{Bytes: buf}
	}

	buf := c.floats.Get(poolName, n)

	if pix, stride, ok := c.resize(img); ok {
		packPlanar(buf, pix, stride, c.size)
	}

	return Buffer{Float: buf}
}

// Release returns the buffer's storage for reuse by a later ResizeAndPack
func (c *Codec) Release(b Buffer) {

	if b.Float != nil {
		c.floats.Put(poolName, b.Float)
	}

	if b.Bytes != nil {
		c.bytes.Put(poolName, b.Bytes)
	}
}

// resize scales img to the Codec size and returns the 8-bit RGBA pixel data
// and row stride of the result
func (c *Codec) resize(img image.Image) ([]uint8, int, bool) {

	if img == nil || img.Bounds().Empty() || c.size.Pixels() == 0 {
		return nil, 0, false
	}

	// no resampling needed, copy straight into the scratch image
	if img.Bounds().Size() == c.scratch.Bounds().Size() {
		draw.Draw(c.scratch, c.scratch.Bounds(), img, img.Bounds().Min, draw.Src)
		return c.scratch.Pix, c.scratch.Stride, true
	}

	switch c.filter {
	case FilterLanczos:
		// imaging returns non-premultiplied NRGBA, drawing it into the
		// scratch image packs the same premultiplied values as the other
		// filters
		dst := imaging.Resize(img, int(c.size.Width), int(c.size.Height), imaging.Lanczos)
		draw.Draw(c.scratch, c.scratch.Bounds(), dst, dst.Bounds().Min, draw.Src)

	case FilterCatmullRom:
		draw.CatmullRom.Scale(c.scratch, c.scratch.Bounds(), img, img.Bounds(), draw.Src, nil)

	default:
		draw.BiLinear.Scale(c.scratch, c.scratch.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	return c.scratch.Pix, c.scratch.Stride, true
}

// packPlanar writes the RGB values of pix into dst in CHW order
func packPlanar(dst []float32, pix []uint8, stride int, size ImageSize) {

	w := int(size.Width)
	h := int(size.Height)
	plane := w * h

	for y := 0; y < h; y++ {
		row := pix[y*stride:]

		for x := 0; x < w; x++ {
			src := x * 4
			idx := y*w + x

			dst[idx] = float32(row[src])
			dst[plane+idx] = float32(row[src+1])
			dst[2*plane+idx] = float32(row[src+2])
		}
	}
}

// packInterleaved writes the RGB values of pix into dst in HWC order
func packInterleaved(dst []uint8, pix []uint8, stride int, size ImageSize) {

	w := int(size.Width)
	h := int(size.Height)

	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		out := dst[y*w*3:]

		for x := 0; x < w; x++ {
			copy(out[x*3:x*3+3], row[x*4:x*4+3])
		}
	}
}
