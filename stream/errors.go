package stream

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned when Run is called on a Pipeline that has
// already run
var ErrAlreadyStarted = errors.New("pipeline already started")

// CaptureError is returned when a frame could not be grabbed or the capture
// device could not be stopped
type CaptureError struct {
	Err error
}

// Error returns the error message
func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error: %v", e.Err)
}

// Unwrap returns the underlying cause
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// InferenceError is returned when the detector failed on a frame
type InferenceError struct {
	// Frame is the zero based index of the frame that failed
	Frame uint64
	Err   error
}

// Error returns the error message
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference error on frame %d: %v", e.Frame, e.Err)
}

// Unwrap returns the underlying cause
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// RenderError is returned when the sink failed to accept a frame or close
type RenderError struct {
	Err error
}

// Error returns the error message
func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: %v", e.Err)
}

// Unwrap returns the underlying cause
func (e *RenderError) Unwrap() error {
	return e.Err
}
