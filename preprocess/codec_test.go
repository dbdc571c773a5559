package preprocess

import (
	"image"
	"image/color"
	"testing"
)

// solidImage returns an opaque image of the given size filled with c
func solidImage(w, h int, c color.RGBA) *image.RGBA {

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	return img
}

func TestResizeAndPackLength(t *testing.T) {

	tests := []struct {
		srcWidth  int
		srcHeight int
		size      ImageSize
		layout    Layout
		filter    Filter
	}{
		{1280, 720, ImageSize{416, 416}, Planar, FilterBilinear},
		{640, 480, ImageSize{416, 416}, Planar, FilterCatmullRom},
		{320, 240, ImageSize{416, 416}, Planar, FilterLanczos},
		{1280, 720, ImageSize{224, 224}, Interleaved, FilterBilinear},
		{7, 3, ImageSize{224, 224}, Interleaved, FilterCatmullRom},
		{224, 224, ImageSize{224, 224}, Interleaved, FilterLanczos},
		{1, 1, ImageSize{300, 200}, Planar, FilterBilinear},
	}

	for _, tc := range tests {

		codec := NewCodec(tc.size, tc.layout, WithFilter(tc.filter))
		img := solidImage(tc.srcWidth, tc.srcHeight, color.RGBA{R: 10, G: 20, B: 30, A: 255})

		buf := codec.ResizeAndPack(img)

		expected := int(tc.size.Width * tc.size.Height * 3)

		if buf.Len() != expected {
			t.Errorf("src (%d, %d) %s %s: expected %d values, got %d",
				tc.srcWidth, tc.srcHeight, tc.layout, tc.filter, expected, buf.Len())
		}

		if tc.layout == Planar && (buf.Float == nil || buf.Bytes != nil) {
			t.Errorf("planar layout should produce a float buffer only")
		}

		if tc.layout == Interleaved && (buf.Bytes == nil || buf.Float != nil) {
			t.Errorf("interleaved layout should produce a byte buffer only")
		}

		codec.Release(buf)
	}
}

func TestResizeAndPackPlanarOrder(t *testing.T) {

	size := ImageSize{4, 3}
	codec := NewCodec(size, Planar)

	buf := codec.ResizeAndPack(solidImage(8, 6, color.RGBA{R: 200, G: 100, B: 50, A: 255}))

	plane := size.Pixels()
	expected := []float32{200, 100, 50}

	for ch, want := range expected {
		for i := 0; i < plane; i++ {
			if got := buf.Float[ch*plane+i]; got != want {
				t.Fatalf("channel %d index %d expected %f, got %f", ch, i, want, got)
			}
		}
	}
}

func TestResizeAndPackInterleavedOrder(t *testing.T) {

	size := ImageSize{5, 2}
	codec := NewCodec(size, Interleaved)

	buf := codec.ResizeAndPack(solidImage(10, 4, color.RGBA{R: 200, G: 100, B: 50, A: 255}))

	for i := 0; i < size.Pixels(); i++ {
		px := buf.Bytes[i*3 : i*3+3]

		if px[0] != 200 || px[1] != 100 || px[2] != 50 {
			t.Fatalf("pixel %d expected [200 100 50], got %v", i, px)
		}
	}
}

func TestResizeAndPackSameSizeKeepsPixels(t *testing.T) {

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 7, G: 8, B: 9, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 11, B: 12, A: 255})

	planar := NewCodec(ImageSize{2, 2}, Planar).ResizeAndPack(img)

	expectedPlanar := []float32{1, 4, 7, 10, 2, 5, 8, 11, 3, 6, 9, 12}

	for i, want := range expectedPlanar {
		if planar.Float[i] != want {
			t.Errorf("planar index %d expected %f, got %f", i, want, planar.Float[i])
		}
	}

	interleaved := NewCodec(ImageSize{2, 2}, Interleaved).ResizeAndPack(img)

	expectedInterleaved := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	for i, want := range expectedInterleaved {
		if interleaved.Bytes[i] != want {
			t.Errorf("interleaved index %d expected %d, got %d", i, want, interleaved.Bytes[i])
		}
	}
}

func TestResizeAndPackAlphaSameForAllFilters(t *testing.T) {

	// half transparent frame, packed values are premultiplied by alpha
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}

	size := ImageSize{4, 4}
	expected := []float32{100, 50, 25}

	for _, filter := range []Filter{FilterBilinear, FilterCatmullRom, FilterLanczos} {

		buf := NewCodec(size, Planar, WithFilter(filter)).ResizeAndPack(img)
		plane := size.Pixels()

		for ch, want := range expected {
			for i := 0; i < plane; i++ {
				got := buf.Float[ch*plane+i]

				if got < want-2 || got > want+2 {
					t.Errorf("%s channel %d index %d expected about %.0f, got %.0f",
						filter, ch, i, want, got)
				}
			}
		}
	}
}

func TestResizeAndPackEmptySource(t *testing.T) {

	size := ImageSize{16, 16}

	for _, layout := range []Layout{Planar, Interleaved} {

		codec := NewCodec(size, layout)

		// dirty a pooled buffer first so the zeroing on reuse is covered
		codec.Release(codec.ResizeAndPack(solidImage(4, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255})))

		for _, img := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 0))} {

			buf := codec.ResizeAndPack(img)

			if buf.Len() != size.Elements() {
				t.Errorf("%s: expected %d values, got %d", layout, size.Elements(), buf.Len())
			}

			for i := 0; i < buf.Len(); i++ {
				if (buf.Float != nil && buf.Float[i] != 0) || (buf.Bytes != nil && buf.Bytes[i] != 0) {
					t.Errorf("%s: expected zero value at %d", layout, i)
					break
				}
			}

			codec.Release(buf)
		}
	}
}

func TestParseFilter(t *testing.T) {

	tests := []struct {
		name     string
		expected Filter
		wantErr  bool
	}{
		{"bilinear", FilterBilinear, false},
		{"CatmullRom", FilterCatmullRom, false},
		{"LANCZOS", FilterLanczos, false},
		{"nearest", FilterBilinear, true},
	}

	for _, tc := range tests {
		got, err := ParseFilter(tc.name)

		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFilter(%q) error = %v, wantErr %v", tc.name, err, tc.wantErr)
			continue
		}

		if got != tc.expected {
			t.Errorf("ParseFilter(%q) expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestBufferPool(t *testing.T) {

	pool := newBufferPool[uint8]()

	if err := pool.Create("a", 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := pool.Create("a", 8); err == nil {
		t.Errorf("expected error creating duplicate pool")
	}

	buf := pool.Get("a", 4)

	if len(buf) != 4 {
		t.Errorf("expected length 4, got %d", len(buf))
	}

	big := pool.Get("a", 16)

	if len(big) != 16 {
		t.Errorf("expected oversized request to allocate 16, got %d", len(big))
	}

	pool.Put("a", buf)
	pool.Put("a", big)
}
