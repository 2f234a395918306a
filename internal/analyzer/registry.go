package analyzer

import (
	"fmt"

	"github.com/ivlev/forestwatch/internal/diff"
)

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "loss", "":
		return NewPatchDetector(diff.Loss), nil
	case "gain":
		return NewPatchDetector(diff.Gain), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
