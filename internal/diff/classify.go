package diff

import "image/color"

// Label is the per-pixel classification of a single mask.
type Label uint8

const (
	NonForest Label = iota
	Forest
)

func (l Label) String() string {
	if l == Forest {
		return "forest"
	}
	return "non-forest"
}

// Classification thresholds. Masks are rendered by the upstream segmentation
// model with forest in saturated green; the values must not drift or
// previously published diffs stop matching.
const (
	forestMinGreen = 200
	forestMaxRed   = 100
	forestMaxBlue  = 100
)

// Classify labels one RGB sample. A pixel is forest iff green > 200 and both
// red and blue are below 100. Alpha is ignored.
func Classify(r, g, b uint8) Label {
	if g > forestMinGreen && r < forestMaxRed && b < forestMaxBlue {
		return Forest
	}
	return NonForest
}

// Category is the change between two co-located pixels.
type Category uint8

const (
	StableNonForest Category = iota
	StableForest
	Loss
	Gain
)

var categoryNames = [...]string{
	StableNonForest: "stable_non_forest",
	StableForest:    "stable_forest",
	Loss:            "loss",
	Gain:            "gain",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Categorize derives the change category from the labels of the earlier (a)
// and later (b) image.
func Categorize(a, b Label) Category {
	switch {
	case a == Forest && b != Forest:
		return Loss
	case a != Forest && b == Forest:
		return Gain
	case a == Forest:
		return StableForest
	default:
		return StableNonForest
	}
}

// Output colors of the diff raster.
var palette = [...]color.NRGBA{
	StableNonForest: {R: 0, G: 0, B: 0, A: 255},
	StableForest:    {R: 128, G: 128, B: 128, A: 255},
	Loss:            {R: 255, G: 0, B: 0, A: 150},
	Gain:            {R: 0, G: 255, B: 0, A: 150},
}

// Color is the RGBA value written to the diff raster for c.
func (c Category) Color() color.NRGBA {
	if int(c) < len(palette) {
		return palette[c]
	}
	return palette[StableNonForest]
}
