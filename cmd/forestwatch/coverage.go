package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ivlev/forestwatch/internal/config"
	"github.com/ivlev/forestwatch/internal/coverage"
	"github.com/ivlev/forestwatch/internal/grid"
	"github.com/ivlev/forestwatch/internal/report"
)

func runCoverage(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("coverage needs import, lookup, assess or dates: %w", errUsage)
	}
	switch args[0] {
	case "import":
		return runCoverageImport(cfg, args[1:])
	case "lookup":
		return runCoverageLookup(cfg, args[1:])
	case "assess":
		return runCoverageAssess(cfg, args[1:])
	case "dates":
		return runCoverageDates(cfg, args[1:])
	default:
		return fmt.Errorf("unknown coverage command %q: %w", args[0], errUsage)
	}
}

func dbFlag(fs *flag.FlagSet, cfg *config.Config) *string {
	return fs.String("db", cfg.DatabasePath, "SQLite database")
}

func runCoverageImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("coverage import", flag.ContinueOnError)
	feedPtr := fs.String("feed", "", "Coverage feed JSON")
	dbPtr := dbFlag(fs, cfg)
	if err := fs.Parse(args); err != nil || *feedPtr == "" {
		return errUsage
	}

	feed, err := coverage.LoadFeedFile(*feedPtr)
	if err != nil {
		return err
	}

	store, err := coverage.Open(*dbPtr)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportFeed(context.Background(), feed, cfg.Coverage.BaselineDate)
	if err != nil {
		return err
	}
	fmt.Printf("[+] Imported %d values for %d observations into %s\n", n, len(feed), *dbPtr)
	return nil
}

func runCoverageDates(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("coverage dates", flag.ContinueOnError)
	dbPtr := dbFlag(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	store, err := coverage.Open(*dbPtr)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	dates, err := store.Dates(ctx)
	if err != nil {
		return err
	}
	for _, d := range dates {
		rgb, mask, err := store.Images(ctx, d)
		if err != nil {
			// baseline tables are stored without an observation row
			fmt.Printf("%s\n", d)
			continue
		}
		fmt.Printf("%s  rgb %s  mask %s\n", d, rgb, mask)
	}
	return nil
}

func runCoverageLookup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("coverage lookup", flag.ContinueOnError)
	keyPtr := fs.String("key", "", "Cell key \"col,row\"")
	datePtr := fs.String("date", "", "Observation date")
	dbPtr := dbFlag(fs, cfg)
	if err := fs.Parse(args); err != nil || *keyPtr == "" || *datePtr == "" {
		return errUsage
	}

	key, err := coverage.ParseKey(*keyPtr)
	if err != nil {
		return err
	}
	date, err := coverage.ParseDate(*datePtr)
	if err != nil {
		return err
	}

	store, err := coverage.Open(*dbPtr)
	if err != nil {
		return err
	}
	defer store.Close()

	pct, ok, err := store.GetContext(context.Background(), key, date)
	if err != nil {
		return err
	}
	if !ok {
		pct = coverage.DefaultCoverage
		fmt.Printf("[!] No observation for %s at %s, using default\n", key, date)
	}
	fmt.Printf("%s %s %.2f\n", key, date, pct)
	return nil
}

// formatCellRow prints the decrease signed, so a gain shows as negative.
func formatCellRow(row report.CellRow) string {
	mark := ""
	if row.Result.AtRisk {
		mark = "  [!] at risk"
	}
	return fmt.Sprintf("%3d  %-4s  %-5s  %6.2f%% -> %6.2f%%  decrease %+.2f%s",
		row.ID, row.Label, row.Result.Key, row.Result.Baseline, row.Result.Selected, row.Result.Decrease, mark)
}

func runCoverageAssess(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("coverage assess", flag.ContinueOnError)
	datePtr := fs.String("date", "", "Observation date to assess")
	baselinePtr := fs.String("baseline", string(cfg.Coverage.BaselineDate), "Baseline observation date")
	thresholdPtr := fs.Float64("threshold", cfg.Coverage.WarningThreshold, "Warning threshold in percentage points")
	reportPtr := fs.String("report", "", "Write a YAML report to this path")
	dbPtr := dbFlag(fs, cfg)
	if err := fs.Parse(args); err != nil || *datePtr == "" {
		return errUsage
	}

	date, err := coverage.ParseDate(*datePtr)
	if err != nil {
		return err
	}
	policy := cfg.Coverage
	policy.BaselineDate = coverage.DateKey(*baselinePtr)
	policy.WarningThreshold = *thresholdPtr
	if err := policy.Validate(); err != nil {
		return err
	}

	g, err := grid.New(cfg.Region)
	if err != nil {
		return err
	}

	store, err := coverage.Open(*dbPtr)
	if err != nil {
		return err
	}
	defer store.Close()

	cells := report.NewCells(g, store, date, policy)
	for _, row := range cells.Rows {
		fmt.Println(formatCellRow(row))
	}
	s := cells.Summary
	fmt.Printf("[*] %d cells, %d at risk, mean decrease %.2f ± %.2f\n", s.Cells, s.AtRisk, s.MeanDecrease, s.StdDevDecrease)

	if *reportPtr != "" {
		if err := report.Write(cells, *reportPtr); err != nil {
			return err
		}
		fmt.Printf("[+] Report written to %s\n", *reportPtr)
	}
	return nil
}
