package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ivlev/forestwatch/internal/analyzer"
	"github.com/ivlev/forestwatch/internal/catalog"
	"github.com/ivlev/forestwatch/internal/config"
	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/diff"
	"github.com/ivlev/forestwatch/internal/raster"
	"github.com/ivlev/forestwatch/internal/report"
	"github.com/ivlev/forestwatch/internal/timeline"
)

func runCompare(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	aPtr := fs.String("a", "", "Earlier mask (overrides -area/-date1)")
	bPtr := fs.String("b", "", "Later mask (overrides -area/-date2)")
	rootPtr := fs.String("root", cfg.CatalogRoot, "Catalog root with one directory per area")
	areaPtr := fs.String("area", cfg.Area, "Area name or key, e.g. \"Ba Vì\" or BaVi")
	date1Ptr := fs.String("date1", "", "Earlier observation date (default: oldest)")
	date2Ptr := fs.String("date2", "", "Later observation date (default: second oldest)")
	outPtr := fs.String("out", "", "Diff raster path (default: <output_dir>/<date1>__<date2>.png)")
	reportPtr := fs.String("report", "", "Write a YAML report to this path")
	workersPtr := fs.Int("workers", cfg.Workers, "Band workers (0 = all CPUs)")
	latestPtr := fs.Bool("latest", false, "Compare against the most recently written mask instead of the second oldest")
	patchesPtr := fs.Int("patches", 5, "Largest patches to report (0 = none)")
	detectorPtr := fs.String("detector", "loss", "Patch detector: loss, gain")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if (*aPtr == "") != (*bPtr == "") {
		return fmt.Errorf("-a and -b must be given together: %w", errUsage)
	}
	detector, err := analyzer.NewDetector(*detectorPtr)
	if err != nil {
		return err
	}

	pathA, pathB := *aPtr, *bPtr
	var from, to coverage.DateKey
	if pathA == "" {
		src, err := catalog.Open(*rootPtr, *areaPtr)
		if err != nil {
			return err
		}
		from, to, err = src.DefaultPair()
		if err != nil {
			return err
		}
		if *latestPtr {
			latest, err := src.Latest()
			if err != nil {
				return err
			}
			to = latest.Date
		}
		if *date1Ptr != "" {
			if from, err = coverage.ParseDate(*date1Ptr); err != nil {
				return err
			}
		}
		if *date2Ptr != "" {
			if to, err = coverage.ParseDate(*date2Ptr); err != nil {
				return err
			}
		}
		if pathA, err = src.Mask(from); err != nil {
			return err
		}
		if pathB, err = src.Mask(to); err != nil {
			return err
		}
		fmt.Printf("[*] Comparing %s -> %s in %s\n", from, to, src.Dir())
	}

	out := *outPtr
	if out == "" {
		name := timeline.OutputName(from, to)
		if from == "" {
			name = "diff.png"
		}
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return err
		}
		out = filepath.Join(cfg.OutputDir, name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := diff.NewEngine(*workersPtr)
	eng.BandRows = cfg.BandRows
	res, err := eng.CompareFiles(ctx, pathA, pathB)
	if err != nil {
		var mismatch *diff.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("masks must share dimensions: %w", err)
		}
		return err
	}

	if err := raster.EncodeFile(out, res.Output); err != nil {
		return err
	}

	rep := report.NewComparison(res, *areaPtr, from, to, out)
	if *patchesPtr > 0 {
		patches, err := detector.Detect(res)
		if err != nil {
			return err
		}
		rep.Patches = analyzer.Largest(patches, *patchesPtr)
	}
	if *reportPtr != "" {
		if err := report.Write(rep, *reportPtr); err != nil {
			return err
		}
	}

	fmt.Printf("[+] %dx%d: loss %d (%.2f%%), gain %d (%.2f%%), stable forest %d, stable non-forest %d -> %s\n",
		rep.Width, rep.Height,
		rep.Counts.Loss, rep.LossPercent,
		rep.Counts.Gain, rep.GainPercent,
		rep.Counts.StableForest, rep.Counts.StableNonForest,
		rep.Trend)
	for _, p := range rep.Patches {
		fmt.Printf("    %s patch %v: %d px\n", p.Category, p.Rect, p.Pixels)
	}
	fmt.Printf("[+] Diff written to %s\n", out)
	return nil
}

func runTimeline(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	rootPtr := fs.String("root", cfg.CatalogRoot, "Catalog root with one directory per area")
	areaPtr := fs.String("area", cfg.Area, "Area name or key")
	outPtr := fs.String("out", cfg.OutputDir, "Output directory")
	workersPtr := fs.Int("workers", cfg.Workers, "Band workers per comparison (0 = all CPUs)")
	pairsPtr := fs.Int("pairs", 2, "Pairs compared at once")
	statsPtr := fs.Bool("stats", cfg.ShowStats, "Print timing statistics")
	detectorPtr := fs.String("detector", "loss", "Patch detector: loss, gain")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	detector, err := analyzer.NewDetector(*detectorPtr)
	if err != nil {
		return err
	}

	src, err := catalog.Open(*rootPtr, *areaPtr)
	if err != nil {
		return err
	}
	fmt.Printf("[*] %d observations in %s\n", len(src.Dates()), src.Dir())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := timeline.NewPipeline(*outPtr, *areaPtr, *workersPtr, cfg.BandRows)
	p.Workers = *pairsPtr
	p.Detector = detector
	p.Verbose = true
	p.ShowStats = *statsPtr
	tl, err := p.Run(ctx, src)
	if err != nil {
		return err
	}

	for _, c := range tl.Comparisons {
		fmt.Printf("    %s -> %s  loss %6.2f%%  gain %6.2f%%  %s\n", c.From, c.To, c.LossPercent, c.GainPercent, c.Trend)
	}
	fmt.Printf("[+++] Done! Results in %s\n", *outPtr)
	return nil
}
