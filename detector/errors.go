package detector

import (
	"fmt"
)

// InitializationError is returned when a Detector's inference session could
// not be created
type InitializationError struct {
	Variant Variant
	Err     error
}

// Error returns the error message
func (e *InitializationError) Error() string {
	return fmt.Sprintf("error initializing %s detector: %v", e.Variant, e.Err)
}

// Unwrap returns the underlying cause
func (e *InitializationError) Unwrap() error {
	return e.Err
}
