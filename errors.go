package detlite

import (
	"errors"
	"fmt"
)

// ErrProviderUnsupported is returned when a session is requested for an
// execution provider the runtime does not know about
var ErrProviderUnsupported = errors.New("provider is not supported")

// ProviderUnsupportedError reports the execution provider that was rejected.
// It matches ErrProviderUnsupported with errors.Is
type ProviderUnsupportedError struct {
	Provider Provider
}

// Error returns the error message
func (e *ProviderUnsupportedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrProviderUnsupported, string(e.Provider))
}

// Is reports if target is ErrProviderUnsupported
func (e *ProviderUnsupportedError) Is(target error) bool {
	return target == ErrProviderUnsupported
}
