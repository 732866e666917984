package dither

import (
	"math/rand/v2"

	"colorquant/level"
	"colorquant/parallel"
	"colorquant/raster"
)

// OrderedRandom shifts every sample by a uniform random fraction of the level
// interval it sits in before rounding. Each row draws from its own PCG stream
// seeded with (seed, y), so a seed gives the same output whatever the pool.
func OrderedRandom(p *parallel.Pool, src *raster.Image, counts level.Counts, seed uint64) (*raster.Image, error) {
	sets, err := prepare(src, counts)
	if err != nil {
		return nil, err
	}

	w := src.Width()
	dst := src.Blank()
	p.Split(src.Height(), func(_, lo, hi int) {
		for y := lo; y < hi; y++ {
			rng := rand.New(rand.NewPCG(seed, uint64(y)))
			in, out := src.Row(y), dst.Row(y)
			for i := range 3 * w {
				// (-0.5, 0.5]: a sample already on a level never moves
				u := 0.5 - rng.Float64()
				out[i] = sets[i%3].Perturb(float64(in[i]), u)
			}
		}
	})

	return dst, nil
}

// OrderedRelative shifts every sample by the entry of an n x n Bayer matrix at
// (x mod n, y mod n), scaled to the level interval, before rounding. The
// pattern repeats every n pixels in both directions.
func OrderedRelative(p *parallel.Pool, src *raster.Image, counts level.Counts, n int) (*raster.Image, error) {
	sets, err := prepare(src, counts)
	if err != nil {
		return nil, err
	}
	m, err := Bayer(n)
	if err != nil {
		return nil, err
	}
	t := thresholds(m)

	w := src.Width()
	dst := src.Blank()
	p.Split(src.Height(), func(_, lo, hi int) {
		for y := lo; y < hi; y++ {
			in, out, ty := src.Row(y), dst.Row(y), t[y%n]
			for x := range w {
				u := ty[x%n]
				for c := range 3 {
					out[3*x+c] = sets[c].Perturb(float64(in[3*x+c]), u)
				}
			}
		}
	})

	return dst, nil
}
