// Package raster holds the RGB image the quantizers read and produce.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrDimensionMismatch reports pixel data that does not fit the declared
// image size.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// RGB is an opaque 24-bit colour.
type RGB struct {
	R, G, B uint8
}

func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Dist2 is the squared euclidean distance between two colours.
func (c RGB) Dist2(o RGB) int {
	dr := int(c.R) - int(o.R)
	dg := int(c.G) - int(o.G)
	db := int(c.B) - int(o.B)
	return dr*dr + dg*dg + db*db
}

var RGBModel = color.ModelFunc(rgbConvert)

func rgbConvert(c color.Color) color.Color {
	if _, ok := c.(RGB); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

type Image struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

var _ image.Image = &Image{}

func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]uint8, 3*r.Dx()*r.Dy()),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

// FromPixels wraps tightly packed RGB samples of a width x height image.
func FromPixels(width, height int, pix []uint8) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrDimensionMismatch, width, height)
	}
	if len(pix) != 3*width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d pixels", ErrDimensionMismatch, len(pix), width, height)
	}
	return &Image{
		Pix:    pix,
		Stride: 3 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// FromImage copies src into a new RGB raster. Images of other types end up
// anchored at the origin, with alpha dropped after compositing over black.
func FromImage(src image.Image) *Image {
	if m, ok := src.(*Image); ok {
		return m.Clone()
	}

	sr := src.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	rgba := image.NewRGBA(dr)
	draw.Draw(rgba, dr, src, sr.Min, draw.Src)

	m := New(dr)
	for y := range dr.Dy() {
		in := rgba.Pix[y*rgba.Stride : y*rgba.Stride+4*dr.Dx()]
		out := m.Pix[y*m.Stride : y*m.Stride+m.Stride]
		for x := range dr.Dx() {
			copy(out[3*x:3*x+3], in[4*x:4*x+3])
		}
	}
	return m
}

func (m *Image) ColorModel() color.Model { return RGBModel }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) At(x, y int) color.Color {
	return m.RGBAt(x, y)
}

func (m *Image) RGBAt(x, y int) RGB {
	if !(image.Point{x, y}.In(m.Rect)) {
		return RGB{}
	}
	i := m.PixOffset(x, y)
	s := m.Pix[i : i+3 : i+3]
	return RGB{R: s[0], G: s[1], B: s[2]}
}

func (m *Image) SetRGB(x, y int, c RGB) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	i := m.PixOffset(x, y)
	s := m.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c.R, c.G, c.B
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (m *Image) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*3
}

// Row returns the samples of row y, relative to Rect.Min.Y.
func (m *Image) Row(y int) []uint8 {
	i := y * m.Stride
	return m.Pix[i : i+3*m.Rect.Dx()]
}

func (m *Image) Width() int  { return m.Rect.Dx() }
func (m *Image) Height() int { return m.Rect.Dy() }

func (m *Image) Empty() bool { return m.Rect.Empty() }

// Blank allocates an image with the same bounds as m.
func (m *Image) Blank() *Image {
	return New(m.Rect)
}

func (m *Image) Clone() *Image {
	c := m.Blank()
	for y := range m.Rect.Dy() {
		copy(c.Row(y), m.Row(y))
	}
	return c
}

// SameSize fails with ErrDimensionMismatch unless both images have the same
// width and height.
func (m *Image) SameSize(o *Image) error {
	if m.Rect.Size() != o.Rect.Size() {
		return fmt.Errorf("%w: %v vs %v", ErrDimensionMismatch, m.Rect.Size(), o.Rect.Size())
	}
	return nil
}

// ToRGBA converts m for the standard encoders.
func (m *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(m.Rect)
	for y := range m.Rect.Dy() {
		in := m.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+4*m.Rect.Dx()]
		for x := range m.Rect.Dx() {
			copy(out[4*x:4*x+3], in[3*x:3*x+3])
			out[4*x+3] = 0xff
		}
	}
	return dst
}
