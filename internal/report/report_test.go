package report

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/diff"
	"github.com/ivlev/forestwatch/internal/grid"
	"github.com/ivlev/forestwatch/internal/raster"
)

func TestComparisonWriteRead(t *testing.T) {
	a := raster.New(3, 1)
	b := raster.New(3, 1)
	a.Pix[1] = 255 // pixel 0 forest in a only
	res, err := diff.Compare(a, b)
	require.NoError(t, err)

	rep := NewComparison(res, "BaVi", "2017-01-01", "2019-06-01", "out.png")
	_, err = uuid.Parse(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.33, rep.LossPercent)
	assert.Equal(t, diff.Decrease, rep.Trend)
	assert.Equal(t, 3, rep.TotalPixels)

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, Write(rep, path))

	var got Comparison
	require.NoError(t, Read(path, &got))
	assert.Equal(t, *rep, got)
}

func TestCells(t *testing.T) {
	g, err := grid.New(grid.Region{CenterLat: 21, CenterLng: 105, Rows: 2, Cols: 2, CellSizeDegrees: 0.01})
	require.NoError(t, err)

	idx := coverage.NewMemoryIndex()
	idx.Put("2017-01-01", coverage.KeyOf(0, 0), 99)
	idx.Put("2025-01-15", coverage.KeyOf(0, 0), 90)
	idx.Put("2025-01-15", coverage.KeyOf(1, 0), 100)
	idx.Put("2025-01-15", coverage.KeyOf(0, 1), 100)
	idx.Put("2025-01-15", coverage.KeyOf(1, 1), 98.5)

	p := coverage.Policy{BaselineDate: "2017-01-01", WarningThreshold: 1, BaselineDefault: 100}
	rep := NewCells(g, idx, "2025-01-15", p)

	require.Len(t, rep.Rows, 4)
	assert.Equal(t, "A1", rep.Rows[0].Label)
	assert.True(t, rep.Rows[0].Result.AtRisk)
	assert.True(t, rep.Rows[3].Result.AtRisk)
	assert.False(t, rep.Rows[1].Result.AtRisk)
	assert.Equal(t, 2, rep.Summary.AtRisk)
	assert.Equal(t, []coverage.Key{coverage.KeyOf(0, 0), coverage.KeyOf(1, 1)}, rep.Summary.Worst)

	path := filepath.Join(t.TempDir(), "cells.yaml")
	require.NoError(t, Write(rep, path))
	var got Cells
	require.NoError(t, Read(path, &got))
	assert.Equal(t, rep.Rows, got.Rows)
}
