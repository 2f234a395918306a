package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ivlev/forestwatch/internal/config"
	"github.com/ivlev/forestwatch/internal/system"
)

var version = "dev"

const usage = `usage: forestwatch [-config file] <command> [flags]

commands:
  compare    diff two dated masks
  timeline   diff every consecutive pair of an area
  grid       print the monitoring grid of the configured region
  coverage   import, dates, lookup and assess per-cell coverage
`

var errUsage = errors.New("invalid usage")

func main() {
	system.InitResourceLimits()

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatalf("[-] %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("forestwatch", flag.ContinueOnError)
	configPtr := fs.String("config", "", "YAML config file (FORESTWATCH_* env vars override it)")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.BuildVersion = version

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "compare":
		return runCompare(cfg, rest)
	case "timeline":
		return runTimeline(cfg, rest)
	case "grid":
		return runGrid(cfg, rest)
	case "coverage":
		return runCoverage(cfg, rest)
	case "version":
		fmt.Println(cfg.BuildVersion)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
