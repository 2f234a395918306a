package main

import (
	"flag"
	"fmt"

	"github.com/ivlev/forestwatch/internal/config"
	"github.com/ivlev/forestwatch/internal/grid"
)

func runGrid(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("grid", flag.ContinueOnError)
	qrPtr := fs.String("qr", "", "Write one navigation QR code per cell into this directory")
	sizePtr := fs.Int("qr-size", grid.DefaultQRSize, "QR code size in pixels")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	g, err := grid.New(cfg.Region)
	if err != nil {
		return err
	}

	r := g.Region()
	fmt.Printf("[*] %dx%d grid around %s, %.4f° cells\n", r.Rows, r.Cols, grid.LatLng{Lat: r.CenterLat, Lng: r.CenterLng}, r.CellSizeDegrees)
	for _, c := range g.Cells() {
		fmt.Printf("%3d  %-4s  %s  sw %s  ne %s  %.3f km²\n",
			c.ID, c.Label, c.Center, c.Bounds.SouthWest, c.Bounds.NorthEast, c.AreaKm2())
	}

	if *qrPtr != "" {
		if err := grid.WriteQRCodes(*qrPtr, g.Cells(), *sizePtr); err != nil {
			return err
		}
		fmt.Printf("[+] %d QR codes written to %s\n", g.Len(), *qrPtr)
	}
	return nil
}
