package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/forestwatch/internal/analyzer"
	"github.com/ivlev/forestwatch/internal/catalog"
	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/diff"
	"github.com/ivlev/forestwatch/internal/raster"
	"github.com/ivlev/forestwatch/internal/report"
	"github.com/ivlev/forestwatch/internal/system"
)

// Timeline is the index written next to the per-pair outputs.
type Timeline struct {
	Area        string               `yaml:"area"`
	Generated   time.Time            `yaml:"generated"`
	Comparisons []*report.Comparison `yaml:"comparisons"`
}

// Pipeline compares every consecutive pair of an area's masks.
type Pipeline struct {
	Engine    *diff.Engine
	OutputDir string
	Area      string
	// Workers bounds how many pairs are processed at once.
	Workers int
	// Detector, when set, lists the largest MaxPatches patches in each report.
	Detector   analyzer.Detector
	MaxPatches int
	Verbose    bool
	ShowStats  bool
}

// NewPipeline returns a pipeline whose engine recycles output rasters.
func NewPipeline(outputDir, area string, workers, bandRows int) *Pipeline {
	e := diff.NewEngine(workers)
	if bandRows > 0 {
		e.BandRows = bandRows
	}
	e.Pool = system.NewBufferPool()
	return &Pipeline{
		Engine:     e,
		OutputDir:  outputDir,
		Area:       area,
		Workers:    2,
		Detector:   analyzer.NewPatchDetector(diff.Loss),
		MaxPatches: 10,
	}
}

// OutputName is the diff raster file name for a pair.
func OutputName(from, to coverage.DateKey) string {
	return fmt.Sprintf("%s__%s.png", from, to)
}

// Run processes all pairs of src. The first failure cancels the remaining
// pairs and is returned; no timeline index is written in that case.
func (p *Pipeline) Run(ctx context.Context, src *catalog.Source) (*Timeline, error) {
	pairs := src.Pairs()
	if len(pairs) == 0 {
		return nil, fmt.Errorf("need at least two masks in %s", src.Dir())
	}
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]*report.Comparison, len(pairs))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))

	for i, pair := range pairs {
		g.Go(func() error {
			rep, err := p.comparePair(gctx, src, pair[0], pair[1])
			if err != nil {
				return fmt.Errorf("%s -> %s: %w", pair[0], pair[1], err)
			}
			results[i] = rep
			if p.Verbose {
				fmt.Printf("[>] Ready: %d/%d (%s -> %s, %s)\n", done.Add(1), len(pairs), pair[0], pair[1], rep.Trend)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tl := &Timeline{
		Area:        p.Area,
		Generated:   time.Now().UTC().Truncate(time.Second),
		Comparisons: results,
	}
	if err := report.Write(tl, filepath.Join(p.OutputDir, "timeline.yaml")); err != nil {
		return nil, err
	}

	if p.ShowStats {
		total := time.Since(start)
		fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
			"Pairs: %d\n"+
			"Total Time: %.2fs\n"+
			"Pairs/s: %.2f\n"+
			"----------------------------\n",
			len(pairs), total.Seconds(), float64(len(pairs))/total.Seconds())
	}
	return tl, nil
}

func (p *Pipeline) comparePair(ctx context.Context, src *catalog.Source, from, to coverage.DateKey) (*report.Comparison, error) {
	pathA, err := src.Mask(from)
	if err != nil {
		return nil, err
	}
	pathB, err := src.Mask(to)
	if err != nil {
		return nil, err
	}

	res, err := p.Engine.CompareFiles(ctx, pathA, pathB)
	if err != nil {
		return nil, err
	}
	defer p.Engine.Release(res)

	out := filepath.Join(p.OutputDir, OutputName(from, to))
	if err := raster.EncodeFile(out, res.Output); err != nil {
		return nil, err
	}

	rep := report.NewComparison(res, p.Area, from, to, out)
	if p.Detector != nil {
		patches, err := p.Detector.Detect(res)
		if err != nil {
			return nil, err
		}
		rep.Patches = analyzer.Largest(patches, p.MaxPatches)
	}
	reportPath := filepath.Join(p.OutputDir, fmt.Sprintf("%s__%s.yaml", from, to))
	if err := report.Write(rep, reportPath); err != nil {
		return nil, err
	}
	return rep, nil
}
