// Package grid partitions a monitored region into a fixed row/column grid of
// approximately square cells.
package grid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidRegion is returned for regions that cannot be gridded.
var ErrInvalidRegion = errors.New("invalid region")

// Region is the only input to the grid: a center point, the grid shape and
// the latitude extent of one cell in degrees.
type Region struct {
	CenterLat       float64 `yaml:"center_lat" json:"centerLat" env:"CENTER_LAT"`
	CenterLng       float64 `yaml:"center_lng" json:"centerLng" env:"CENTER_LNG"`
	Rows            int     `yaml:"rows" json:"rows" env:"ROWS"`
	Cols            int     `yaml:"cols" json:"cols" env:"COLS"`
	CellSizeDegrees float64 `yaml:"cell_size_degrees" json:"cellSizeDegrees" env:"CELL_SIZE_DEGREES"`
}

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}

// Bounds is an axis-aligned box given by its south-west and north-east corners.
type Bounds struct {
	SouthWest LatLng `yaml:"south_west" json:"southWest"`
	NorthEast LatLng `yaml:"north_east" json:"northEast"`
}

// Contains reports whether p lies inside b. The south and west edges are
// inclusive, so a point on a shared edge belongs to exactly one cell.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat < b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng < b.NorthEast.Lng
}

// Cell is one addressable grid square. ID is 1-based in row-major order;
// Row and Col are 0-based with row 0 northernmost and col 0 westernmost.
type Cell struct {
	ID     int    `yaml:"id" json:"id"`
	Row    int    `yaml:"row" json:"row"`
	Col    int    `yaml:"col" json:"col"`
	Center LatLng `yaml:"center" json:"center"`
	Bounds Bounds `yaml:"bounds" json:"bounds"`
	Label  string `yaml:"label" json:"label"`
}

// Labeler names a cell. Labels are presentation keys only.
type Labeler func(row, col int) string

// DefaultLabel names rows with spreadsheet letters and columns with 1-based
// numbers: A1, A2, ..., B1, and AA1 after Z.
func DefaultLabel(row, col int) string {
	return rowLetters(row) + strconv.Itoa(col+1)
}

func rowLetters(n int) string {
	var b []byte
	for n++; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// Option customises Build.
type Option func(*options)

type options struct {
	label Labeler
}

// WithLabeler replaces DefaultLabel.
func WithLabeler(l Labeler) Option {
	return func(o *options) {
		if l != nil {
			o.label = l
		}
	}
}

// Validate checks that a region describes a finite grid away from the poles.
func (r Region) Validate() error {
	if r.Rows <= 0 || r.Cols <= 0 {
		return fmt.Errorf("%w: grid must have positive rows and cols, got %dx%d", ErrInvalidRegion, r.Rows, r.Cols)
	}
	if !(r.CellSizeDegrees > 0) || math.IsInf(r.CellSizeDegrees, 0) {
		return fmt.Errorf("%w: cell size must be positive, got %v", ErrInvalidRegion, r.CellSizeDegrees)
	}
	if math.IsNaN(r.CenterLat) || math.IsNaN(r.CenterLng) || math.Abs(r.CenterLat) >= 90 {
		return fmt.Errorf("%w: center %v,%v out of range", ErrInvalidRegion, r.CenterLat, r.CenterLng)
	}
	half := r.CellSizeDegrees * float64(r.Rows) / 2
	if r.CenterLat+half > 90 || r.CenterLat-half < -90 {
		return fmt.Errorf("%w: %d rows of %v° do not fit around latitude %v", ErrInvalidRegion, r.Rows, r.CellSizeDegrees, r.CenterLat)
	}
	return nil
}

// Steps returns the latitude and longitude extent of a single cell. The
// longitude step is widened by 1/cos(lat) so cells are roughly square on the
// ground at the region's center latitude.
func (r Region) Steps() (latStep, lngStep float64) {
	latStep = r.CellSizeDegrees
	lngStep = r.CellSizeDegrees / math.Cos(r.CenterLat*math.Pi/180)
	return latStep, lngStep
}

// Build derives every cell of the region, row by row starting at the
// north-west corner. It returns exactly Rows*Cols cells or an error.
func Build(r Region, opts ...Option) ([]Cell, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	o := options{label: DefaultLabel}
	for _, opt := range opts {
		opt(&o)
	}

	latStep, lngStep := r.Steps()
	startLat := r.CenterLat + latStep*float64(r.Rows-1)/2
	startLng := r.CenterLng - lngStep*float64(r.Cols-1)/2

	// Edges are computed once per grid line so neighbouring cells share
	// bit-identical boundaries.
	north, west := startLat+latStep/2, startLng-lngStep/2
	latEdge := func(k int) float64 { return north - float64(k)*latStep }
	lngEdge := func(k int) float64 { return west + float64(k)*lngStep }

	cells := make([]Cell, 0, r.Rows*r.Cols)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			cells = append(cells, Cell{
				ID:  row*r.Cols + col + 1,
				Row: row,
				Col: col,
				Center: LatLng{
					Lat: startLat - float64(row)*latStep,
					Lng: startLng + float64(col)*lngStep,
				},
				Bounds: Bounds{
					SouthWest: LatLng{Lat: latEdge(row + 1), Lng: lngEdge(col)},
					NorthEast: LatLng{Lat: latEdge(row), Lng: lngEdge(col + 1)},
				},
				Label: o.label(row, col),
			})
		}
	}
	return cells, nil
}
