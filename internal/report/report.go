package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/forestwatch/internal/analyzer"
	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/diff"
	"github.com/ivlev/forestwatch/internal/grid"
)

// Comparison describes one mask diff.
type Comparison struct {
	ID          string           `yaml:"id"`
	CreatedAt   time.Time        `yaml:"created_at"`
	Area        string           `yaml:"area,omitempty"`
	From        coverage.DateKey `yaml:"from,omitempty"`
	To          coverage.DateKey `yaml:"to,omitempty"`
	Width       int              `yaml:"width"`
	Height      int              `yaml:"height"`
	TotalPixels int              `yaml:"total_pixels"`
	Counts      diff.Counts      `yaml:"counts"`
	LossPercent float64          `yaml:"loss_percent"`
	GainPercent float64          `yaml:"gain_percent"`
	Trend       diff.Trend       `yaml:"trend"`
	Output      string           `yaml:"output,omitempty"`
	Patches     []analyzer.Patch `yaml:"patches,omitempty"`
}

// round2 matches the two decimals shown to users.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewComparison summarises res under a fresh run id.
func NewComparison(res *diff.Result, area string, from, to coverage.DateKey, output string) *Comparison {
	return &Comparison{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Area:        area,
		From:        from,
		To:          to,
		Width:       res.Width,
		Height:      res.Height,
		TotalPixels: res.Total(),
		Counts:      res.Counts,
		LossPercent: round2(res.LossPercent()),
		GainPercent: round2(res.GainPercent()),
		Trend:       res.Trend(),
		Output:      output,
	}
}

// CellRow is one line of a cell report.
type CellRow struct {
	ID     int                 `yaml:"id"`
	Label  string              `yaml:"label"`
	Center grid.LatLng         `yaml:"center"`
	Result coverage.Assessment `yaml:"assessment"`
}

// Cells is the per-cell coverage assessment of one observation.
type Cells struct {
	ID      string           `yaml:"id"`
	Date    coverage.DateKey `yaml:"date"`
	Policy  coverage.Policy  `yaml:"policy"`
	Rows    []CellRow        `yaml:"cells"`
	Summary coverage.Summary `yaml:"summary"`
}

// NewCells assesses every cell of g at date.
func NewCells(g *grid.Grid, idx coverage.Index, date coverage.DateKey, p coverage.Policy) *Cells {
	cells := g.Cells()
	rows := make([]CellRow, len(cells))
	as := make([]coverage.Assessment, len(cells))
	for i, c := range cells {
		as[i] = coverage.Assess(idx, c.Key(), date, p)
		rows[i] = CellRow{ID: c.ID, Label: c.Label, Center: c.Center, Result: as[i]}
	}
	return &Cells{
		ID:      uuid.NewString(),
		Date:    date,
		Policy:  p,
		Rows:    rows,
		Summary: coverage.Summarize(as),
	}
}
