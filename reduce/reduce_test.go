package reduce

import (
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"colorquant/level"
	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/quant"
	"colorquant/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestParseLevels(t *testing.T) {
	c, err := parseLevels([]int{4})
	require.NoError(t, err)
	assert.Equal(t, level.Uniform(4), c)

	c, err = parseLevels([]int{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, level.Counts{R: 2, G: 3, B: 4}, c)

	_, err = parseLevels([]int{2, 3})
	assert.Error(t, err)

	_, err = parseLevels([]int{0})
	assert.ErrorIs(t, err, level.ErrInvalidParameter)
}

func TestOutputType(t *testing.T) {
	assert.Equal(t, "png", outputType("jpeg", "unsup:png"))
	assert.Equal(t, "jpeg", outputType("png", "unsup:jpeg"))
	assert.Equal(t, "jpeg", outputType("jpeg", "same"))
	assert.Equal(t, "png", outputType("webp", "unsup:png"))
	assert.Equal(t, "gif", outputType("jpeg", "gif"))
	assert.Equal(t, "bmp", outputType("bmp", "same"))
}

func TestResize(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	src := makeTestImage(100, 50)

	assert.Same(t, image.Image(src), resize(logger, src, 100, 50, false))

	out := resize(logger, src, 40, 40, false)
	assert.Equal(t, image.Rect(0, 0, 40, 20), out.Bounds())

	out = resize(logger, src, 40, 40, true)
	assert.Equal(t, image.Rect(0, 0, 40, 40), out.Bounds())

	out = resize(logger, src, 0, 25, false)
	assert.Equal(t, image.Rect(0, 0, 50, 25), out.Bounds())
}

func TestSaveFormats(t *testing.T) {
	dir := t.TempDir()
	img := raster.FromImage(makeTestImage(9, 7))
	reduced, err := quant.Run(nil, img, quant.Params{Algorithm: quant.PopularityAlgorithm, Colors: 8})
	require.NoError(t, err)

	for _, format := range []string{"png", "bmp", "tiff", "gif"} {
		require.NoError(t, save(reduced, "png", format, dir, "out"), format)
		got := raster.FromImage(decodeFile(t, filepath.Join(dir, "out."+format)))
		assert.Equal(t, reduced.Pix, got.Pix, format)
	}

	require.NoError(t, save(reduced, "png", "jpeg", dir, "out"))
	assert.FileExists(t, filepath.Join(dir, "out.jpeg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "temporary files left behind")
}

func TestSaveJPEGInputKeepsLevels(t *testing.T) {
	dir := t.TempDir()
	src := raster.FromImage(makeTestImage(32, 32))
	out, err := quant.Run(nil, src, quant.Params{
		Algorithm:  quant.OrderedDitheringRelative,
		Levels:     level.Uniform(2),
		MatrixSize: 4,
	})
	require.NoError(t, err)

	require.NoError(t, save(out, "jpeg", "unsup:png", dir, "out"))
	assert.NoFileExists(t, filepath.Join(dir, "out.jpeg"))

	got := raster.FromImage(decodeFile(t, filepath.Join(dir, "out.png")))
	for y := range got.Height() {
		for _, v := range got.Row(y) {
			require.Contains(t, []uint8{0, 255}, v)
		}
	}
	assert.Equal(t, out.Pix, got.Pix)
}

func TestSaveGIFTooManyColors(t *testing.T) {
	dir := t.TempDir()
	err := save(raster.FromImage(makeTestImage(64, 64)), "png", "gif", dir, "out")
	assert.ErrorContains(t, err, "do not fit a GIF palette")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestToPaletted(t *testing.T) {
	img := raster.FromImage(makeTestImage(3, 3))
	pm, err := toPaletted(img)
	require.NoError(t, err)
	assert.Len(t, pm.Palette, 9)
	for y := range 3 {
		for x := range 3 {
			assert.Equal(t, img.RGBAt(x, y), raster.RGBModel.Convert(pm.At(x, y)))
		}
	}
}

func newCmd(t *testing.T, scan string) *CLICmd {
	t.Helper()
	return &CLICmd{
		Scan:      scan,
		Dest:      "reduced",
		Algorithm: []string{"average"},
		Levels:    []int{2},
		Tile:      2,
		Matrix:    4,
		Colors:    16,
		Palette:   "bw",
		Format:    "unsup:png",
		Cache:     8,
	}
}

func TestValidate(t *testing.T) {
	scan := t.TempDir()

	c := newCmd(t, scan)
	c.Algorithm = []string{"popularity", "ordered-relative", "popularity"}
	c.Levels = []int{2, 3, 4}
	require.NoError(t, c.Validate(nil))
	assert.Equal(t, filepath.Join(scan, "reduced"), c.Dest)
	require.Len(t, c.Params, 2)
	assert.Equal(t, quant.PopularityAlgorithm, c.Params[0].Algorithm)
	assert.Equal(t, level.Counts{R: 2, G: 3, B: 4}, c.Params[1].Levels)

	c = newCmd(t, scan)
	c.Algorithm = []string{"median-cut"}
	assert.Error(t, c.Validate(nil))

	c = newCmd(t, scan)
	c.Algorithm = []string{"ordered-relative"}
	c.Matrix = 3
	assert.ErrorIs(t, c.Validate(nil), quant.ErrInvalidParameter)

	c = newCmd(t, scan)
	c.Algorithm = []string{"remap"}
	c.Palette = filepath.Join(scan, "missing.pal")
	assert.Error(t, c.Validate(nil))

	c = newCmd(t, scan)
	c.Algorithm = []string{"remap"}
	c.Dither = true
	require.NoError(t, c.Validate(nil))
	require.Len(t, c.Params, 1)
	assert.True(t, c.Params[0].Dither)

	c = newCmd(t, scan)
	c.Resize = true
	assert.ErrorContains(t, c.Validate(nil), "no resize dimensions")

	c = newCmd(t, filepath.Join(scan, "missing"))
	assert.ErrorContains(t, c.Validate(nil), "invalid scan path")
}

func TestRun(t *testing.T) {
	scan := t.TempDir()
	writePNG(t, filepath.Join(scan, "a.png"), makeTestImage(24, 16))
	writePNG(t, filepath.Join(scan, "b.png"), makeTestImage(10, 30))
	require.NoError(t, os.WriteFile(filepath.Join(scan, "notes.txt"), []byte("not a picture"), 0o644))

	c := newCmd(t, scan)
	c.Algorithm = []string{"average", "error-diffusion", "popularity"}
	c.Levels = []int{3}
	c.ExportPalette = true
	c.Colors = 4
	require.NoError(t, c.Validate(nil))

	pool := parallel.Start(2)
	err := c.Run(pool.Do, pool.Wait)
	assert.ErrorContains(t, err, "error processing 1 files")

	sets, _ := level.NewRGB(level.Uniform(3))
	for _, base := range []string{"a", "b"} {
		for _, alg := range []string{"average", "error-diffusion"} {
			got := raster.FromImage(decodeFile(t, filepath.Join(c.Dest, base+"-"+alg+".png")))
			for y := range got.Height() {
				for i, v := range got.Row(y) {
					require.True(t, sets[i%3].Contains(v))
				}
			}
		}

		pal, err := palette.Load(filepath.Join(c.Dest, base+"-popularity.pal"))
		require.NoError(t, err)
		assert.Len(t, pal, 4)

		got := raster.FromImage(decodeFile(t, filepath.Join(c.Dest, base+"-popularity.png")))
		for y := range got.Height() {
			for x := range got.Width() {
				require.True(t, pal.Contains(got.RGBAt(x, y)))
			}
		}
	}
}
