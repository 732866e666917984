// Package quant is the entry point to the colour reduction engines: one
// function per algorithm, a generic Run over Params, and a Session that
// caches renders of one source image.
package quant

import (
	"fmt"
	"math/rand/v2"

	"colorquant/dither"
	"colorquant/level"
	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/popularity"
	"colorquant/raster"
)

var (
	ErrInvalidParameter  = level.ErrInvalidParameter
	ErrDimensionMismatch = raster.ErrDimensionMismatch
)

// Params selects an algorithm and holds its settings. Fields an algorithm
// does not use are ignored. Params is comparable and serves as a cache key.
type Params struct {
	Algorithm Algorithm
	// Levels per channel, for the dithering algorithms.
	Levels level.Counts
	// TileSize for AverageDithering.
	TileSize int
	// MatrixSize for OrderedDitheringRelative.
	MatrixSize int
	// Seed for OrderedDitheringRandom; 0 draws a new one on every run.
	Seed uint64
	// Colors is the palette size for PopularityAlgorithm.
	Colors int
	// Palette names the built-in palette or PAL file for PaletteRemap.
	Palette string
	// Dither diffuses the PaletteRemap error with Floyd-Steinberg.
	Dither bool
}

// DefaultParams returns params for alg with the documented defaults.
func DefaultParams(alg Algorithm) Params {
	return Params{
		Algorithm:  alg,
		Levels:     level.Uniform(2),
		TileSize:   dither.DefaultTileSize,
		MatrixSize: dither.DefaultMatrixSize,
		Colors:     16,
		Palette:    "bw",
	}
}

// key strips the fields alg ignores so equivalent renders share a cache slot.
func (p Params) key() Params {
	k := Params{Algorithm: p.Algorithm}
	switch p.Algorithm {
	case AverageDithering:
		k.Levels, k.TileSize = p.Levels, p.TileSize
	case ErrorDiffusionDithering:
		k.Levels = p.Levels
	case OrderedDitheringRandom:
		k.Levels, k.Seed = p.Levels, p.Seed
	case OrderedDitheringRelative:
		k.Levels, k.MatrixSize = p.Levels, p.MatrixSize
	case PopularityAlgorithm:
		k.Colors = p.Colors
	case PaletteRemap:
		k.Palette, k.Dither = p.Palette, p.Dither
	}
	return k
}

func (p Params) String() string {
	switch p.Algorithm {
	case AverageDithering:
		return fmt.Sprintf("%s levels=%s tile=%d", p.Algorithm.Name(), p.Levels, p.TileSize)
	case ErrorDiffusionDithering:
		return fmt.Sprintf("%s levels=%s", p.Algorithm.Name(), p.Levels)
	case OrderedDitheringRandom:
		return fmt.Sprintf("%s levels=%s seed=%d", p.Algorithm.Name(), p.Levels, p.Seed)
	case OrderedDitheringRelative:
		return fmt.Sprintf("%s levels=%s matrix=%d", p.Algorithm.Name(), p.Levels, p.MatrixSize)
	case PopularityAlgorithm:
		return fmt.Sprintf("%s colors=%d", p.Algorithm.Name(), p.Colors)
	case PaletteRemap:
		return fmt.Sprintf("%s palette=%s dither=%t", p.Algorithm.Name(), p.Palette, p.Dither)
	}
	return p.Algorithm.Name()
}

// Run renders src with params on pool. A nil pool runs on the calling
// goroutine.
func Run(pool *parallel.Pool, src *raster.Image, params Params) (*raster.Image, error) {
	var (
		out *raster.Image
		err error
	)

	switch params.Algorithm {
	case AverageDithering:
		out, err = dither.Average(pool, src, params.Levels, params.TileSize)
	case ErrorDiffusionDithering:
		out, err = dither.ErrorDiffusion(src, params.Levels)
	case OrderedDitheringRandom:
		seed := params.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		out, err = dither.OrderedRandom(pool, src, params.Levels, seed)
	case OrderedDitheringRelative:
		out, err = dither.OrderedRelative(pool, src, params.Levels, params.MatrixSize)
	case PopularityAlgorithm:
		out, _, err = popularity.Quantize(pool, src, params.Colors)
	case PaletteRemap:
		var pal palette.Palette
		if pal, err = palette.Load(params.Palette); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
		if params.Dither {
			out, err = popularity.RemapDither(src, pal)
		} else {
			out, err = popularity.Remap(pool, src, pal)
		}
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrInvalidParameter, int(params.Algorithm))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", params.Algorithm, err)
	}

	if err = out.SameSize(src); err != nil {
		return nil, fmt.Errorf("%s produced a wrong sized image: %w", params.Algorithm, err)
	}
	return out, nil
}

func withPool(workers int, f func(*parallel.Pool) (*raster.Image, error)) (*raster.Image, error) {
	pool := parallel.Start(workers)
	defer pool.Close()
	return f(pool)
}

// AverageDither paints every tile x tile block with its quantized mean.
// workers < 1 uses GOMAXPROCS.
func AverageDither(workers int, src *raster.Image, kr, kg, kb, tile int) (*raster.Image, error) {
	return withPool(workers, func(p *parallel.Pool) (*raster.Image, error) {
		return Run(p, src, Params{
			Algorithm: AverageDithering,
			Levels:    level.Counts{R: kr, G: kg, B: kb},
			TileSize:  tile,
		})
	})
}

// ErrorDiffusionDither quantizes src in one sequential Floyd-Steinberg pass.
func ErrorDiffusionDither(src *raster.Image, kr, kg, kb int) (*raster.Image, error) {
	return Run(nil, src, Params{
		Algorithm: ErrorDiffusionDithering,
		Levels:    level.Counts{R: kr, G: kg, B: kb},
	})
}

// OrderedDitherRandom perturbs every sample by random noise before rounding.
func OrderedDitherRandom(workers int, src *raster.Image, kr, kg, kb int) (*raster.Image, error) {
	return withPool(workers, func(p *parallel.Pool) (*raster.Image, error) {
		return Run(p, src, Params{
			Algorithm: OrderedDitheringRandom,
			Levels:    level.Counts{R: kr, G: kg, B: kb},
		})
	})
}

// OrderedDitherRelative perturbs every sample by an n x n Bayer matrix before
// rounding.
func OrderedDitherRelative(workers int, src *raster.Image, kr, kg, kb, n int) (*raster.Image, error) {
	return withPool(workers, func(p *parallel.Pool) (*raster.Image, error) {
		return Run(p, src, Params{
			Algorithm:  OrderedDitheringRelative,
			Levels:     level.Counts{R: kr, G: kg, B: kb},
			MatrixSize: n,
		})
	})
}

// PopularityQuantize maps src onto its k most frequent colours.
func PopularityQuantize(workers int, src *raster.Image, k int) (*raster.Image, error) {
	return withPool(workers, func(p *parallel.Pool) (*raster.Image, error) {
		return Run(p, src, Params{
			Algorithm: PopularityAlgorithm,
			Colors:    k,
		})
	})
}
