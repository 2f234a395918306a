package diff

import (
	"errors"
	"fmt"

	"github.com/ivlev/forestwatch/internal/raster"
)

// ErrDimensionMismatch is matched by every *DimensionMismatchError.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DimensionMismatchError reports two rasters that cannot be compared.
type DimensionMismatchError struct {
	AWidth, AHeight int
	BWidth, BHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %dx%d vs %dx%d", e.AWidth, e.AHeight, e.BWidth, e.BHeight)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// Trend is the overall direction of a comparison.
type Trend string

const (
	Decrease Trend = "decrease"
	Increase Trend = "increase"
	NoChange Trend = "no_change"
)

// Counts holds per-category pixel tallies.
type Counts struct {
	Loss            int `yaml:"loss"`
	Gain            int `yaml:"gain"`
	StableForest    int `yaml:"stable_forest"`
	StableNonForest int `yaml:"stable_non_forest"`
}

func (c *Counts) add(o Counts) {
	c.Loss += o.Loss
	c.Gain += o.Gain
	c.StableForest += o.StableForest
	c.StableNonForest += o.StableNonForest
}

// Total is the number of pixels counted.
func (c Counts) Total() int {
	return c.Loss + c.Gain + c.StableForest + c.StableNonForest
}

// Result is the outcome of one comparison. Output is owned by the caller.
type Result struct {
	Width  int
	Height int
	Counts
	Output *raster.Buffer
}

// Total is width*height, the denominator for percentages.
func (r *Result) Total() int {
	return r.Width * r.Height
}

func (r *Result) percent(n int) float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// LossPercent is the share of pixels that went from forest to non-forest.
func (r *Result) LossPercent() float64 { return r.percent(r.Loss) }

// GainPercent is the share of pixels that went from non-forest to forest.
func (r *Result) GainPercent() float64 { return r.percent(r.Gain) }

// Trend compares loss against gain.
func (r *Result) Trend() Trend {
	switch {
	case r.Loss > r.Gain:
		return Decrease
	case r.Loss < r.Gain:
		return Increase
	default:
		return NoChange
	}
}
