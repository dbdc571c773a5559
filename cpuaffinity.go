package detlite

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCPUList parses a list of CPU core numbers such as "4-7" or "0,2,4-5"
// into a sorted slice without duplicates
func ParseCPUList(list string) ([]int, error) {

	list = strings.TrimSpace(list)

	if list == "" {
		return nil, nil
	}

	seen := make(map[int]bool)

	for _, part := range strings.Split(list, ",") {

		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")

		start, err := strconv.Atoi(strings.TrimSpace(lo))

		if err != nil || start < 0 {
			return nil, fmt.Errorf("invalid cpu %q in list %q", part, list)
		}

		end := start

		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))

			if err != nil || end < start {
				return nil, fmt.Errorf("invalid cpu range %q in list %q", part, list)
			}
		}

		for cpu := start; cpu <= end; cpu++ {
			seen[cpu] = true
		}
	}

	cores := make([]int, 0, len(seen))

	for cpu := 0; len(cores) < len(seen); cpu++ {
		if seen[cpu] {
			cores = append(cores, cpu)
		}
	}

	return cores, nil
}
