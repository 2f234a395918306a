package analyzer

import (
	"image"
	"sort"

	"github.com/ivlev/forestwatch/internal/diff"
)

// PatchDetector finds connected regions of one category using a 4-connected
// flood fill, optionally bridging gaps by dilating the mask first.
type PatchDetector struct {
	Category  diff.Category
	MinPixels int // Minimum category pixels for a patch to be reported
	Gap       int // Dilation radius in pixels, 0 keeps fragments apart
}

// NewPatchDetector reports every patch of c, however small.
func NewPatchDetector(c diff.Category) *PatchDetector {
	return &PatchDetector{
		Category:  c,
		MinPixels: 1,
	}
}

// Detect returns the patches of res, largest first.
func (d *PatchDetector) Detect(res *diff.Result) ([]Patch, error) {
	if res == nil || res.Output == nil {
		return nil, ErrNoOutput
	}
	w, h := res.Width, res.Height

	// Step 1: select pixels painted in the category colour
	mask := categoryMask(res, d.Category)

	// Step 2: bridge nearby fragments
	grown := mask
	if d.Gap > 0 {
		grown = dilate(mask, w, h, d.Gap)
	}

	// Step 3: connected components
	visited := make([]bool, w*h)
	patches := []Patch{}
	for i := range grown {
		if !grown[i] || visited[i] {
			continue
		}
		p := floodFill(grown, mask, visited, w, h, i)
		if p.Pixels >= d.MinPixels {
			p.Category = d.Category
			patches = append(patches, p)
		}
	}

	sort.SliceStable(patches, func(i, j int) bool {
		return patches[i].Pixels > patches[j].Pixels
	})
	return patches, nil
}

func categoryMask(res *diff.Result, c diff.Category) []bool {
	want := c.Color()
	pix := res.Output.Pix
	mask := make([]bool, res.Width*res.Height)
	for i := range mask {
		o := i * 4
		mask[i] = pix[o] == want.R && pix[o+1] == want.G && pix[o+2] == want.B && pix[o+3] == want.A
	}
	return mask
}

// dilate grows every set pixel into a square of the given radius.
func dilate(mask []bool, w, h, radius int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for ny := max(y-radius, 0); ny <= min(y+radius, h-1); ny++ {
				for nx := max(x-radius, 0); nx <= min(x+radius, w-1); nx++ {
					out[ny*w+nx] = true
				}
			}
		}
	}
	return out
}

// floodFill walks the component of grown containing start. Bounds and the
// pixel count only take undilated pixels into account.
func floodFill(grown, mask, visited []bool, w, h, start int) Patch {
	minX, minY := w, h
	maxX, maxY := -1, -1
	pixels := 0

	stack := []int{start}
	visited[start] = true

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		if mask[i] {
			pixels++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}

		push := func(nx, ny int) {
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				return
			}
			n := ny*w + nx
			if grown[n] && !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
		push(x+1, y)
		push(x-1, y)
		push(x, y+1)
		push(x, y-1)
	}

	return Patch{
		Rect:   image.Rect(minX, minY, maxX+1, maxY+1),
		Pixels: pixels,
	}
}
