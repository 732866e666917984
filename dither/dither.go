// Package dither reduces every channel of an RGB image to a fixed number of
// evenly spaced levels, using spatial averaging, error diffusion or ordered
// threshold perturbation to hide the banding plain rounding would leave.
//
// Engines never modify their input. Every one of them but ErrorDiffusion fans
// its work out over a parallel.Pool; a nil pool runs everything on the caller's
// goroutine.
package dither

import (
	"fmt"

	"colorquant/level"
	"colorquant/raster"
)

const (
	DefaultTileSize   = 2
	DefaultMatrixSize = 4
)

func prepare(src *raster.Image, counts level.Counts) (level.RGB, error) {
	if src == nil || src.Empty() {
		return level.RGB{}, fmt.Errorf("%w: image has no pixels", level.ErrInvalidParameter)
	}
	return level.NewRGB(counts)
}
