// Package popularity reduces an image to the k colours it uses most, mapping
// every pixel to the nearest of them.
package popularity

import (
	"fmt"
	"image"

	"colorquant/level"
	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/raster"

	"golang.org/x/image/draw"
)

// Quantize picks the k most frequent colours of src and assigns each pixel
// the closest one. When src holds fewer than k colours the palette holds all
// of them.
func Quantize(p *parallel.Pool, src *raster.Image, k int) (*raster.Image, palette.Palette, error) {
	pal, err := Select(p, src, k)
	if err != nil {
		return nil, nil, err
	}
	return Assign(p, src, pal), pal, nil
}

// Select returns the palette Quantize would use for src.
func Select(p *parallel.Pool, src *raster.Image, k int) (palette.Palette, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: palette size %d", level.ErrInvalidParameter, k)
	}
	if src == nil || src.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", level.ErrInvalidParameter)
	}
	return Count(p, src).Top(k), nil
}

// Remap assigns each pixel of src the closest colour of a fixed palette.
func Remap(p *parallel.Pool, src *raster.Image, pal palette.Palette) (*raster.Image, error) {
	if len(pal) == 0 {
		return nil, fmt.Errorf("%w: empty palette", level.ErrInvalidParameter)
	}
	if src == nil || src.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", level.ErrInvalidParameter)
	}
	return Assign(p, src, pal), nil
}

// RemapDither is Remap with the rounding error spread over the unvisited
// neighbours by the Floyd-Steinberg kernel of x/image/draw. It is sequential.
func RemapDither(src *raster.Image, pal palette.Palette) (*raster.Image, error) {
	if len(pal) == 0 {
		return nil, fmt.Errorf("%w: empty palette", level.ErrInvalidParameter)
	}
	if src == nil || src.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", level.ErrInvalidParameter)
	}

	_, cp := pal.To(raster.RGBModel)
	dr := image.Rect(0, 0, src.Width(), src.Height())
	dest := image.NewPaletted(dr, cp)
	draw.FloydSteinberg.Draw(dest, dr, src, src.Rect.Min)

	dst := src.Blank()
	for y := range dr.Dy() {
		out := dst.Row(y)
		for x, i := range dest.Pix[y*dest.Stride : y*dest.Stride+dr.Dx()] {
			c := pal[i]
			out[3*x], out[3*x+1], out[3*x+2] = c.R, c.G, c.B
		}
	}
	return dst, nil
}

// Assign maps every pixel onto its nearest palette entry, lower index first on
// ties. pal must not be empty.
func Assign(p *parallel.Pool, src *raster.Image, pal palette.Palette) *raster.Image {
	w := src.Width()
	dst := src.Blank()

	p.Split(src.Height(), func(_, lo, hi int) {
		memo := make(map[raster.RGB]raster.RGB)
		for y := lo; y < hi; y++ {
			in, out := src.Row(y), dst.Row(y)
			for x := range w {
				c := raster.RGB{R: in[3*x], G: in[3*x+1], B: in[3*x+2]}
				q, ok := memo[c]
				if !ok {
					q = pal[pal.Index(c)]
					memo[c] = q
				}
				out[3*x], out[3*x+1], out[3*x+2] = q.R, q.G, q.B
			}
		}
	})

	return dst
}
