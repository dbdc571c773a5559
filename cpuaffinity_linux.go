//go:build linux

package detlite

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetCPUAffinity sets the CPU Affinity of the program to run on the given
// cores, eg: []int{4,5,6,7}
func SetCPUAffinity(cores []int) error {

	if len(cores) == 0 {
		return fmt.Errorf("no cpu cores given")
	}

	var set unix.CPUSet

	for _, core := range cores {
		set.Set(core)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to set CPU affinity: %w", err)
	}

	return nil
}

// GetCPUAffinity gets the cores the program is currently allowed to run on
func GetCPUAffinity() ([]int, error) {

	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("failed to get CPU affinity: %w", err)
	}

	cores := make([]int, 0, set.Count())

	for cpu := 0; len(cores) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			cores = append(cores, cpu)
		}
	}

	return cores, nil
}
