//go:build !linux

package detlite

import "errors"

var errAffinityUnsupported = errors.New("cpu affinity is only supported on linux")

// SetCPUAffinity is not supported on this platform
func SetCPUAffinity(cores []int) error {
	return errAffinityUnsupported
}

// GetCPUAffinity is not supported on this platform
func GetCPUAffinity() ([]int, error) {
	return nil, errAffinityUnsupported
}
