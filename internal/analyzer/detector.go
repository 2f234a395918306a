package analyzer

import (
	"errors"
	"image"

	"github.com/ivlev/forestwatch/internal/diff"
)

// ErrNoOutput is returned for results whose raster was already released.
var ErrNoOutput = errors.New("analyzer: result has no output raster")

// Patch is a connected region of one change category in a diff raster
type Patch struct {
	Category diff.Category   `yaml:"-"`
	Rect     image.Rectangle `yaml:"rect"`
	Pixels   int             `yaml:"pixels"` // category pixels inside the region
}

// Detector is the interface for diff analysis strategies
type Detector interface {
	Detect(res *diff.Result) ([]Patch, error)
}

// Largest keeps the n biggest patches. Detectors return them sorted.
func Largest(patches []Patch, n int) []Patch {
	if n >= 0 && len(patches) > n {
		return patches[:n]
	}
	return patches
}
