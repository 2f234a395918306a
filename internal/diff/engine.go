package diff

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/forestwatch/internal/raster"
	"github.com/ivlev/forestwatch/internal/system"
)

// DefaultBandRows is the number of raster rows handled per unit of work.
const DefaultBandRows = 256

// Engine runs comparisons in row bands so large rasters can be split across
// workers and abandoned between bands when ctx is cancelled.
type Engine struct {
	Workers  int
	BandRows int
	// Pool, when set, supplies output rasters. Callers hand them back with Release.
	Pool *system.BufferPool
}

// NewEngine returns an engine sized to the machine.
func NewEngine(workers int) *Engine {
	return &Engine{
		Workers:  system.Workers(workers),
		BandRows: DefaultBandRows,
	}
}

func (e *Engine) bandRows() int {
	if e.BandRows > 0 {
		return e.BandRows
	}
	return DefaultBandRows
}

func (e *Engine) alloc(width, height int) *raster.Buffer {
	if e.Pool != nil {
		return e.Pool.Get(width, height)
	}
	return raster.New(width, height)
}

// Release returns a result's output raster to the pool. The result must not
// be used afterwards.
func (e *Engine) Release(res *Result) {
	if res == nil || e.Pool == nil {
		return
	}
	e.Pool.Put(res.Output)
	res.Output = nil
}

// Compare is the banded equivalent of the package-level Compare. It returns
// either a complete result or an error, never a partial result.
func (e *Engine) Compare(ctx context.Context, a, b *raster.Buffer) (*Result, error) {
	if err := check(a, b); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := a.Width, a.Height
	out := e.alloc(width, height)

	rows := min(e.bandRows(), max(height, 1))
	bands := (height + rows - 1) / rows
	partial := make([]Counts, bands)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(system.Workers(e.Workers))

	stride := width * 4
	for band := 0; band < bands; band++ {
		if gctx.Err() != nil {
			break
		}
		lo := band * rows * stride
		hi := min((band+1)*rows, height) * stride
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial[band] = compareSpan(a.Pix[lo:hi], b.Pix[lo:hi], out.Pix[lo:hi])
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if e.Pool != nil {
			e.Pool.Put(out)
		}
		return nil, err
	}

	res := &Result{Width: width, Height: height, Output: out}
	for _, c := range partial {
		res.Counts.add(c)
	}
	return res, nil
}

// CompareFiles decodes two masks and compares them. Headers are read first so
// mismatched sizes and rasters too large for available memory fail before any
// pixels are decoded. A decode failure of either file aborts the comparison.
func (e *Engine) CompareFiles(ctx context.Context, pathA, pathB string) (*Result, error) {
	cfgA, err := raster.DecodeConfigFile(pathA)
	if err != nil {
		return nil, err
	}
	cfgB, err := raster.DecodeConfigFile(pathB)
	if err != nil {
		return nil, err
	}
	if cfgA.Width != cfgB.Width || cfgA.Height != cfgB.Height {
		return nil, &DimensionMismatchError{
			AWidth: cfgA.Width, AHeight: cfgA.Height,
			BWidth: cfgB.Width, BHeight: cfgB.Height,
		}
	}
	// both inputs plus the output raster
	if err := system.CheckMemory(cfgA.Width, cfgA.Height, 3); err != nil {
		return nil, err
	}

	var a, b *raster.Buffer
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = raster.DecodeFile(pathA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = raster.DecodeFile(pathB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e.Compare(ctx, a, b)
}
