package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/forestwatch/internal/diff"
	"github.com/ivlev/forestwatch/internal/raster"
)

var (
	forest = color.NRGBA{G: 255, A: 255}
	bare   = color.NRGBA{A: 255}
)

// clearing builds a 20x20 forest mask pair with two cleared rectangles and a
// single cleared pixel.
func clearing(t *testing.T) *diff.Result {
	t.Helper()
	a := raster.New(20, 20)
	a.Fill(forest)
	b := raster.New(20, 20)
	b.Fill(forest)

	for y := 2; y < 6; y++ {
		for x := 2; x < 8; x++ {
			b.Set(x, y, bare)
		}
	}
	for y := 10; y < 12; y++ {
		for x := 10; x < 12; x++ {
			b.Set(x, y, bare)
		}
	}
	b.Set(17, 17, bare)

	res, err := diff.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	return res
}

func TestPatchDetector(t *testing.T) {
	res := clearing(t)

	patches, err := NewPatchDetector(diff.Loss).Detect(res)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patches) != 3 {
		t.Fatalf("Expected 3 patches, got %d", len(patches))
	}

	want := []Patch{
		{Category: diff.Loss, Rect: image.Rect(2, 2, 8, 6), Pixels: 24},
		{Category: diff.Loss, Rect: image.Rect(10, 10, 12, 12), Pixels: 4},
		{Category: diff.Loss, Rect: image.Rect(17, 17, 18, 18), Pixels: 1},
	}
	for i, p := range patches {
		if p != want[i] {
			t.Errorf("Patch %d: got %+v, want %+v", i, p, want[i])
		}
	}

	total := 0
	for _, p := range patches {
		total += p.Pixels
	}
	if total != res.Counts.Loss {
		t.Errorf("Patch pixels %d do not add up to loss count %d", total, res.Counts.Loss)
	}
}

func TestPatchDetectorFilters(t *testing.T) {
	res := clearing(t)

	d := NewPatchDetector(diff.Loss)
	d.MinPixels = 4
	patches, _ := d.Detect(res)
	if len(patches) != 2 {
		t.Errorf("Expected 2 patches with MinPixels=4, got %d", len(patches))
	}

	// A gap of 2 pixels bridges the two nearest clearings only.
	d = NewPatchDetector(diff.Loss)
	d.Gap = 2
	patches, _ = d.Detect(res)
	if len(patches) != 2 {
		t.Fatalf("Expected 2 patches with Gap=2, got %d", len(patches))
	}
	if patches[0].Pixels != 28 || patches[0].Rect != image.Rect(2, 2, 12, 12) {
		t.Errorf("Unexpected merged patch: %+v", patches[0])
	}

	if got := Largest(patches, 1); len(got) != 1 || got[0] != patches[0] {
		t.Errorf("Largest(1) = %+v", got)
	}

	gains, _ := NewPatchDetector(diff.Gain).Detect(res)
	if len(gains) != 0 {
		t.Errorf("Expected no gain patches, got %d", len(gains))
	}
}

func TestDetectReleased(t *testing.T) {
	res := clearing(t)
	res.Output = nil
	if _, err := NewPatchDetector(diff.Loss).Detect(res); !errors.Is(err, ErrNoOutput) {
		t.Errorf("Expected ErrNoOutput, got %v", err)
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		want    diff.Category
		wantErr bool
	}{
		{"loss", diff.Loss, false},
		{"", diff.Loss, false}, // default
		{"gain", diff.Gain, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			pd, ok := detector.(*PatchDetector)
			if !ok || pd.Category != tt.want {
				t.Errorf("Unexpected detector %#v", detector)
			}
		})
	}
}
