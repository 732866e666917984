package dither

import (
	"fmt"

	"colorquant/level"
	"colorquant/parallel"
	"colorquant/raster"
)

// Average splits the image into tile x tile blocks and paints each block with
// the quantized mean of its own pixels. Blocks on the right and bottom edges
// are truncated and averaged over the pixels they actually cover.
func Average(p *parallel.Pool, src *raster.Image, counts level.Counts, tile int) (*raster.Image, error) {
	sets, err := prepare(src, counts)
	if err != nil {
		return nil, err
	}
	if tile < 1 {
		return nil, fmt.Errorf("%w: tile size %d", level.ErrInvalidParameter, tile)
	}

	w, h := src.Width(), src.Height()
	dst := src.Blank()
	tileRows := (h + tile - 1) / tile

	p.Split(tileRows, func(_, lo, hi int) {
		for ty := lo; ty < hi; ty++ {
			y0, y1 := ty*tile, min((ty+1)*tile, h)
			for x0 := 0; x0 < w; x0 += tile {
				x1 := min(x0+tile, w)
				averageTile(src, dst, &sets, x0, y0, x1, y1)
			}
		}
	})

	return dst, nil
}

func averageTile(src, dst *raster.Image, sets *level.RGB, x0, y0, x1, y1 int) {
	var sum [3]int
	for y := y0; y < y1; y++ {
		row := src.Row(y)
		for x := x0; x < x1; x++ {
			sum[0] += int(row[3*x])
			sum[1] += int(row[3*x+1])
			sum[2] += int(row[3*x+2])
		}
	}

	n := float64((x1 - x0) * (y1 - y0))
	var q [3]uint8
	for c := range q {
		q[c] = sets[c].Quantize(float64(sum[c]) / n)
	}

	for y := y0; y < y1; y++ {
		row := dst.Row(y)
		for x := x0; x < x1; x++ {
			copy(row[3*x:3*x+3], q[:])
		}
	}
}
