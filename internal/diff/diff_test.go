package diff

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/forestwatch/internal/raster"
	"github.com/ivlev/forestwatch/internal/system"
)

var (
	green = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	black = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

func filled(w, h int, c color.NRGBA) *raster.Buffer {
	buf := raster.New(w, h)
	buf.Fill(c)
	return buf
}

// randomMask produces a mask with a mix of forest, near-threshold and background pixels.
func randomMask(r *rand.Rand, w, h int) *raster.Buffer {
	samples := []color.NRGBA{
		green,
		black,
		{R: 99, G: 201, B: 99, A: 255},
		{R: 100, G: 255, B: 0, A: 255},
		{R: 0, G: 200, B: 0, A: 255},
		{R: 255, G: 255, B: 255, A: 0},
	}
	buf := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, samples[r.Intn(len(samples))])
		}
	}
	return buf
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    Label
	}{
		{"pure green", 0, 255, 0, Forest},
		{"edge inside", 99, 201, 99, Forest},
		{"green at threshold", 0, 200, 0, NonForest},
		{"red at threshold", 100, 255, 0, NonForest},
		{"blue at threshold", 0, 255, 100, NonForest},
		{"black", 0, 0, 0, NonForest},
		{"white", 255, 255, 255, NonForest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r, tt.g, tt.b))
		})
	}
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, Loss, Categorize(Forest, NonForest))
	assert.Equal(t, Gain, Categorize(NonForest, Forest))
	assert.Equal(t, StableForest, Categorize(Forest, Forest))
	assert.Equal(t, StableNonForest, Categorize(NonForest, NonForest))
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 255, A: 150}, Loss.Color())
	assert.Equal(t, color.NRGBA{G: 255, A: 150}, Gain.Color())
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, StableForest.Color())
	assert.Equal(t, color.NRGBA{A: 255}, StableNonForest.Color())
}

func TestCompareSingleLoss(t *testing.T) {
	a := filled(2, 2, black)
	b := filled(2, 2, black)
	a.Set(0, 0, green)

	res, err := Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Loss)
	assert.Equal(t, 0, res.Gain)
	assert.Equal(t, 3, res.StableNonForest)
	assert.Equal(t, 0, res.StableForest)
	assert.Equal(t, 4, res.Total())
	assert.Equal(t, 25.0, res.LossPercent())
	assert.Equal(t, Decrease, res.Trend())

	assert.Equal(t, Loss.Color(), res.Output.At(0, 0))
	assert.Equal(t, StableNonForest.Color(), res.Output.At(1, 1))
}

func TestCompareDimensionMismatch(t *testing.T) {
	_, err := Compare(raster.New(2, 2), raster.New(2, 3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var dm *DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 3, dm.BHeight)
}

func TestCompareInvalidBuffer(t *testing.T) {
	bad := &raster.Buffer{Width: 2, Height: 2, Pix: make([]byte, 3)}
	_, err := Compare(bad, raster.New(2, 2))
	assert.ErrorIs(t, err, raster.ErrInvalidBuffer)
}

func TestCompareProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		w, h := 1+r.Intn(17), 1+r.Intn(13)
		a, b := randomMask(r, w, h), randomMask(r, w, h)

		ab, err := Compare(a, b)
		require.NoError(t, err)
		ba, err := Compare(b, a)
		require.NoError(t, err)
		aa, err := Compare(a, a)
		require.NoError(t, err)

		assert.Equal(t, w*h, ab.Counts.Total(), "counts partition the pixels")
		assert.Equal(t, ab.Loss, ba.Gain)
		assert.Equal(t, ab.Gain, ba.Loss)
		assert.Zero(t, aa.Loss)
		assert.Zero(t, aa.Gain)
		assert.Equal(t, NoChange, aa.Trend())
	}
}

func TestEngineMatchesSinglePass(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	a, b := randomMask(r, 31, 29), randomMask(r, 31, 29)

	want, err := Compare(a, b)
	require.NoError(t, err)

	for _, rows := range []int{1, 3, 8, 29, 100, math.MaxInt} {
		e := &Engine{Workers: 4, BandRows: rows}
		got, err := e.Compare(context.Background(), a, b)
		require.NoError(t, err)
		assert.Equal(t, want.Counts, got.Counts, "band rows %d", rows)
		assert.Equal(t, want.Output.Pix, got.Output.Pix, "band rows %d", rows)
	}
}

func TestEngineEmptyRasterHugeBands(t *testing.T) {
	e := &Engine{Workers: 1, BandRows: math.MaxInt}
	res, err := e.Compare(context.Background(), raster.New(0, 0), raster.New(0, 0))
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(2)
	res, err := e.Compare(ctx, raster.New(4, 4), raster.New(4, 4))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineDimensionMismatch(t *testing.T) {
	e := NewEngine(1)
	_, err := e.Compare(context.Background(), raster.New(4, 4), raster.New(5, 4))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEnginePoolRelease(t *testing.T) {
	e := &Engine{Workers: 2, BandRows: 2, Pool: system.NewBufferPool()}
	a := filled(3, 5, green)
	b := filled(3, 5, green)

	res, err := e.Compare(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 15, res.StableForest)

	e.Release(res)
	assert.Nil(t, res.Output)

	// A recycled buffer is fully overwritten.
	res, err = e.Compare(context.Background(), a, filled(3, 5, black))
	require.NoError(t, err)
	assert.Equal(t, 15, res.Loss)
	for y := 0; y < 5; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, Loss.Color(), res.Output.At(x, y))
		}
	}
}

func TestCompareFilesDecodeError(t *testing.T) {
	dir := t.TempDir()
	good := dir + "/a.png"
	require.NoError(t, raster.EncodeFile(good, filled(2, 2, green)))

	e := NewEngine(1)
	res, err := e.CompareFiles(context.Background(), good, dir+"/missing.png")
	assert.Nil(t, res)

	var de *raster.DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	pathA, pathB := dir+"/a.png", dir+"/b.png"
	a := filled(2, 2, black)
	a.Set(1, 0, green)
	b := filled(2, 2, black)
	b.Set(0, 1, green)
	require.NoError(t, raster.EncodeFile(pathA, a))
	require.NoError(t, raster.EncodeFile(pathB, b))

	res, err := NewEngine(2).CompareFiles(context.Background(), pathA, pathB)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loss)
	assert.Equal(t, 1, res.Gain)
	assert.Equal(t, 2, res.StableNonForest)
	assert.Equal(t, NoChange, res.Trend())
}

func TestCompareFilesReadsHeadersFirst(t *testing.T) {
	dir := t.TempDir()
	good := dir + "/a.png"
	require.NoError(t, raster.EncodeFile(good, filled(2, 2, green)))

	// Signature and IHDR of a 3x3 PNG with the pixel data cut off.
	var full bytes.Buffer
	require.NoError(t, raster.Encode(&full, filled(3, 3, green), raster.PNG))
	truncated := dir + "/b.png"
	require.NoError(t, os.WriteFile(truncated, full.Bytes()[:33], 0644))

	_, err := NewEngine(1).CompareFiles(context.Background(), good, truncated)
	var mismatch *DimensionMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, 3, mismatch.BWidth)
	assert.Equal(t, 3, mismatch.BHeight)
}
