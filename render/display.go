package render

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"gocv.io/x/gocv"
)

// ErrDisplayClosed is returned when showing a frame on a closed display
var ErrDisplayClosed = errors.New("display closed")

// Display shows annotated frames
type Display interface {
	Show(img gocv.Mat) error
	Close() error
}

// Window shows frames in a desktop window.  On most platforms it must be
// used from the main OS thread
type Window struct {
	win *gocv.Window
}

// NewWindow opens a desktop window with the given title
func NewWindow(title string) *Window {
	return &Window{
		win: gocv.NewWindow(title),
	}
}

// Show draws the frame and processes window events
func (w *Window) Show(img gocv.Mat) error {

	if w.win == nil {
		return ErrDisplayClosed
	}

	w.win.IMShow(img)
	w.win.WaitKey(1)

	return nil
}

// Close closes the window
func (w *Window) Close() error {

	if w.win == nil {
		return nil
	}

	err := w.win.Close()
	w.win = nil

	return err
}

// MJPEG streams frames to browsers as a multipart JPEG stream.  Clients only
// ever receive the latest frame, slow clients skip frames
type MJPEG struct {
	mu     sync.Mutex
	frame  []byte
	notify chan struct{}
	closed bool
}

// NewMJPEG returns an MJPEG stream with no frame yet
func NewMJPEG() *MJPEG {
	return &MJPEG{
		notify: make(chan struct{}),
	}
}

// Show encodes the frame as JPEG and wakes up waiting clients
func (m *MJPEG) Show(img gocv.Mat) error {

	buf, err := gocv.IMEncode(".jpg", img)

	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	defer buf.Close()

	return m.publish(buf.GetBytes())
}

// publish makes the encoded frame the latest one
func (m *MJPEG) publish(jpeg []byte) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrDisplayClosed
	}

	m.frame = append(m.frame[:0:0], jpeg...)

	close(m.notify)
	m.notify = make(chan struct{})

	return nil
}

// next returns the latest frame and a channel closed when a newer frame
// arrives
func (m *MJPEG) next() ([]byte, <-chan struct{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.notify, m.closed
}

// Close ends every client stream
func (m *MJPEG) Close() error {

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.notify)
	}

	return nil
}

// ServeHTTP streams frames to the client until it disconnects or the stream
// is closed
func (m *MJPEG) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	flusher, _ := w.(http.Flusher)

	for {
		frame, updated, closed := m.next()

		if closed {
			return
		}

		if frame != nil {
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)
			w.Write([]byte("\r\n"))

			if flusher != nil {
				flusher.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-updated:
		}
	}
}
