package detector

import (
	"fmt"
	"strings"
)

// Variant tags which Model family a Detector runs
type Variant int

const (
	// GridBased is the Tiny YOLOv2 detector decoding a 13x13 anchor grid
	GridBased Variant = iota + 1
	// RegionProposal is the SSD MobileNet v1 detector decoding the Model's
	// own box, class and score arrays
	RegionProposal
)

// String returns the variant name as used in configuration
func (v Variant) String() string {
	switch v {
	case GridBased:
		return "grid-based"
	case RegionProposal:
		return "region-proposal"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant returns the Variant for the given configuration name
func ParseVariant(name string) (Variant, error) {

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "grid-based":
		return GridBased, nil
	case "region-proposal":
		return RegionProposal, nil
	default:
		return 0, fmt.Errorf("unknown model variant %q", name)
	}
}
