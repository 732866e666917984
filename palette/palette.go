package palette

import (
	"fmt"
	"image/color"
	stdpalette "image/color/palette"
	"io"
	"math"
	"os"

	"colorquant/raster"
)

// Palette is an ordered list of distinct colours. Lower indices win ties.
type Palette []raster.RGB

var (
	_ PaletteRIFFReaderWriter = &Palette{}
	_ PaletteConverter        = &Palette{}
)

// FromColors builds a palette from any colours, dropping repeats and keeping
// the first occurrence.
func FromColors(pal color.Palette) Palette {
	var p Palette
	p.From(pal)
	return p
}

func (p Palette) Convert(c raster.RGB) raster.RGB {
	if len(p) == 0 {
		return raster.RGB{}
	}
	return p[p.Index(c)]
}

// Index returns the entry closest to c by squared RGB distance. Among equally
// close entries the one with the lowest index wins.
func (p Palette) Index(c raster.RGB) int {
	ret, bestSum := 0, math.MaxInt
	for i, v := range p {
		sum := c.Dist2(v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

func (p Palette) Contains(c raster.RGB) bool {
	for _, v := range p {
		if v == c {
			return true
		}
	}
	return false
}

func (p *Palette) From(pal color.Palette) int64 {
	seen := make(map[raster.RGB]bool, len(*p)+len(pal))
	for _, c := range *p {
		seen[c] = true
	}

	var n int64
	for _, col := range pal {
		c := raster.RGBModel.Convert(col).(raster.RGB)
		if seen[c] {
			continue
		}
		seen[c] = true
		*p = append(*p, c)
		n++
	}
	return n
}

func (p Palette) To(m color.Model) (int64, color.Palette) {
	pal := make(color.Palette, len(p))
	for i, c := range p {
		pal[i] = m.Convert(c)
	}
	return int64(len(pal)), pal
}

func (p *Palette) ReadRIFF(r io.Reader) (int64, error) {
	pals, err := ReadFrom(r)
	if err != nil {
		return 0, fmt.Errorf("could not load palettes: %w", err)
	}

	var n int64
	for _, pal := range pals {
		n += p.From(pal)
	}
	return n, nil
}

func (p Palette) WriteRIFF(w io.Writer) (int64, error) {
	_, pal := p.To(raster.RGBModel)
	if n, err := WriteTo(w, []color.Palette{pal}); err != nil {
		return n, fmt.Errorf("could not save palette: %w", err)
	} else {
		return n, nil
	}
}

func grayRamp(n int) color.Palette {
	pal := make(color.Palette, n)
	for i := range n {
		pal[i] = color.Gray{Y: uint8(i * 255 / (n - 1))}
	}
	return pal
}

var builtin = map[string]func() color.Palette{
	"bw":      func() color.Palette { return color.Palette{color.Black, color.White} },
	"gray4":   func() color.Palette { return grayRamp(4) },
	"gray16":  func() color.Palette { return grayRamp(16) },
	"websafe": func() color.Palette { return stdpalette.WebSafe },
	"plan9":   func() color.Palette { return stdpalette.Plan9 },
}

// Load returns a built-in palette by name (bw, gray4, gray16, websafe, plan9)
// or reads every palette of a RIFF PAL file.
func Load(name string) (Palette, error) {
	if f, ok := builtin[name]; ok {
		return FromColors(f()), nil
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open palette file %q: %w", name, err)
	}
	defer file.Close()

	var p Palette
	if _, err := p.ReadRIFF(file); err != nil {
		return nil, fmt.Errorf("could not read palette file %q: %w", name, err)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("palette file %q holds no colours", name)
	}
	return p, nil
}

// Save writes p as a single-palette RIFF PAL file.
func Save(name string, p Palette) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", name, err)
	}

	if _, err = p.WriteRIFF(file); err != nil {
		file.Close()
		return fmt.Errorf("could not write palette file %q: %w", name, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("could not close palette file %q: %w", name, err)
	}
	return nil
}
