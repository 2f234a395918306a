package grid

import (
	"fmt"
	"math"

	"github.com/ivlev/forestwatch/internal/coverage"
)

// Key is the (col, row) address used by coverage tables.
func (c Cell) Key() coverage.Key {
	return coverage.KeyOf(c.Col, c.Row)
}

// GeoURI returns an RFC 5870 URI for the cell center.
func (c Cell) GeoURI() string {
	return fmt.Sprintf("geo:%.6f,%.6f", c.Center.Lat, c.Center.Lng)
}

// AreaKm2 approximates the ground area of the cell.
func (c Cell) AreaKm2() float64 {
	latMid := (c.Bounds.SouthWest.Lat + c.Bounds.NorthEast.Lat) / 2 * math.Pi / 180
	dLat := c.Bounds.NorthEast.Lat - c.Bounds.SouthWest.Lat
	dLng := c.Bounds.NorthEast.Lng - c.Bounds.SouthWest.Lng

	// metres per degree
	kLat := 111132.92 - 559.82*math.Cos(2*latMid)
	kLng := 111412.84 * math.Cos(latMid)

	return math.Abs(dLat*kLat*dLng*kLng) / 1e6
}

// Grid is an immutable, indexed set of cells for one region.
type Grid struct {
	region Region
	cells  []Cell
}

// New builds the cells of r.
func New(r Region, opts ...Option) (*Grid, error) {
	cells, err := Build(r, opts...)
	if err != nil {
		return nil, err
	}
	return &Grid{region: r, cells: cells}, nil
}

// Region returns the configuration the grid was built from.
func (g *Grid) Region() Region { return g.region }

// Len is Rows*Cols.
func (g *Grid) Len() int { return len(g.cells) }

// Cells returns a copy of the cells in row-major order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Cell looks a cell up by its 1-based id.
func (g *Grid) Cell(id int) (Cell, bool) {
	if id < 1 || id > len(g.cells) {
		return Cell{}, false
	}
	return g.cells[id-1], true
}

// At looks a cell up by 0-based row and column.
func (g *Grid) At(row, col int) (Cell, bool) {
	if row < 0 || col < 0 || row >= g.region.Rows || col >= g.region.Cols {
		return Cell{}, false
	}
	return g.cells[row*g.region.Cols+col], true
}

// ByKey looks a cell up by its coverage key.
func (g *Grid) ByKey(k coverage.Key) (Cell, bool) {
	return g.At(k.Row, k.Col)
}

// Locate returns the cell containing p.
func (g *Grid) Locate(p LatLng) (Cell, bool) {
	first := g.cells[0].Bounds
	latStep, lngStep := g.region.Steps()

	row := int(math.Floor((first.NorthEast.Lat - p.Lat) / latStep))
	col := int(math.Floor((p.Lng - first.SouthWest.Lng) / lngStep))

	// Rounding can put p one cell off near an edge; check neighbours too.
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			c, ok := g.At(row+dr, col+dc)
			if ok && c.Bounds.Contains(p) {
				return c, true
			}
		}
	}
	return Cell{}, false
}
