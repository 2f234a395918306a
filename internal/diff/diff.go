package diff

import (
	"github.com/ivlev/forestwatch/internal/raster"
)

// check validates both rasters and their sizes before any pixel is read.
func check(a, b *raster.Buffer) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if !raster.SameSize(a, b) {
		return &DimensionMismatchError{
			AWidth: a.Width, AHeight: a.Height,
			BWidth: b.Width, BHeight: b.Height,
		}
	}
	return nil
}

// Compare classifies every co-located pixel of a (earlier) and b (later) in a
// single pass, returning the counts and a freshly allocated diff raster.
func Compare(a, b *raster.Buffer) (*Result, error) {
	if err := check(a, b); err != nil {
		return nil, err
	}
	out := raster.New(a.Width, a.Height)
	counts := compareSpan(a.Pix, b.Pix, out.Pix)
	return &Result{Width: a.Width, Height: a.Height, Counts: counts, Output: out}, nil
}

// compareSpan processes aligned RGBA slices of equal length.
func compareSpan(a, b, out []byte) Counts {
	var c Counts
	for i := 0; i+3 < len(a); i += 4 {
		cat := Categorize(Classify(a[i], a[i+1], a[i+2]), Classify(b[i], b[i+1], b[i+2]))
		switch cat {
		case Loss:
			c.Loss++
		case Gain:
			c.Gain++
		case StableForest:
			c.StableForest++
		default:
			c.StableNonForest++
		}
		px := palette[cat]
		out[i], out[i+1], out[i+2], out[i+3] = px.R, px.G, px.B, px.A
	}
	return c
}
