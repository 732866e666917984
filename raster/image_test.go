package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(10, 20, 10+w, 20+h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(10+x, 20+y, color.NRGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	src := makeTestImage(7, 5)
	m := FromImage(src)

	require.Equal(t, image.Rect(0, 0, 7, 5), m.Bounds())
	for y := range 5 {
		for x := range 7 {
			want := src.NRGBAAt(10+x, 20+y)
			assert.Equal(t, RGB{want.R, want.G, want.B}, m.RGBAt(x, y))
		}
	}
}

func TestFromPixels(t *testing.T) {
	m, err := FromPixels(2, 1, []uint8{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, RGB{4, 5, 6}, m.RGBAt(1, 0))

	_, err = FromPixels(2, 2, []uint8{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = FromPixels(-1, 2, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSetAndClone(t *testing.T) {
	m := New(image.Rect(0, 0, 3, 3))
	m.SetRGB(1, 2, RGB{9, 8, 7})
	m.SetRGB(5, 5, RGB{1, 1, 1}) // out of bounds, ignored

	c := m.Clone()
	c.SetRGB(0, 0, RGB{1, 2, 3})

	assert.Equal(t, RGB{9, 8, 7}, c.RGBAt(1, 2))
	assert.Equal(t, RGB{}, m.RGBAt(0, 0))
	assert.Equal(t, RGB{}, m.RGBAt(-1, 0))
}

func TestSameSize(t *testing.T) {
	a := New(image.Rect(0, 0, 4, 3))
	b := New(image.Rect(2, 2, 6, 5))
	require.NoError(t, a.SameSize(b))

	c := New(image.Rect(0, 0, 3, 4))
	assert.ErrorIs(t, a.SameSize(c), ErrDimensionMismatch)
}

func TestColorModel(t *testing.T) {
	c := RGBModel.Convert(color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff})
	assert.Equal(t, RGB{0x12, 0x34, 0x56}, c)

	r, g, b, a := RGB{0xff, 0x80, 0}.RGBA()
	assert.Equal(t, []uint32{0xffff, 0x8080, 0, 0xffff}, []uint32{r, g, b, a})
}

func TestToRGBA(t *testing.T) {
	m := FromImage(makeTestImage(4, 4))
	rgba := m.ToRGBA()
	for y := range 4 {
		for x := range 4 {
			got := rgba.RGBAAt(x, y)
			want := m.RGBAt(x, y)
			assert.Equal(t, color.RGBA{R: want.R, G: want.G, B: want.B, A: 0xff}, got)
		}
	}
}

func TestDist2(t *testing.T) {
	assert.Equal(t, 0, RGB{1, 2, 3}.Dist2(RGB{1, 2, 3}))
	assert.Equal(t, 3*255*255, RGB{}.Dist2(RGB{255, 255, 255}))
}
