package reduce

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"colorquant/dither"
	"colorquant/level"
	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/quant"

	"github.com/alecthomas/kong"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

type CLICmd struct {
	Scan          string   `help:"Source folder to scan" default:"."`
	Dest          string   `help:"Destination folder for reduced pictures. Relative to scan dir if not absolute." default:"reduced"`
	Algorithm     []string `help:"Algorithms to apply: average, error-diffusion, ordered-random, ordered-relative, popularity, remap" short:"a" default:"average"`
	Levels        []int    `help:"Levels per channel, either one count for all channels or red,green,blue" default:"2" group:"dithering"`
	Tile          int      `help:"Tile size for average dithering" default:"2" group:"dithering"`
	Matrix        int      `help:"Bayer matrix size for ordered relative dithering (2, 4, 8 or 16)" default:"4" group:"dithering"`
	Seed          uint64   `help:"Seed for ordered random dithering, 0 picks a new one per image" default:"0" group:"dithering"`
	Colors        int      `help:"Number of colors kept by the popularity algorithm" default:"16" group:"palette"`
	Palette       string   `help:"Palette name (bw, gray4, gray16, websafe, plan9) or PAL file in RIFF format used by remap" default:"bw" group:"palette"`
	Dither        bool     `help:"Spread the remap error with Floyd-Steinberg instead of taking the nearest palette color" default:"false" group:"palette"`
	ExportPalette bool     `help:"Save the popularity palette next to each picture as a RIFF PAL file" default:"false" group:"palette"`
	Resize        bool     `help:"Resize image before reducing it" default:"false" group:"resize"`
	Width         int      `help:"Max width" group:"resize"`
	Height        int      `help:"Max height" group:"resize"`
	Crop          bool     `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Format        string   `help:"Output format of reduced image. If prefixed with 'unsup:' will convert only unsupported formats" enum:"same,gif,unsup:gif,jpeg,unsup:jpeg,png,unsup:png,bmp,unsup:bmp,tiff,unsup:tiff" default:"unsup:png"`
	Threads       int      `help:"Workers per picture for the parallel algorithms, 0 uses every CPU" default:"0"`
	Cache         int      `help:"Renders kept per picture" default:"8"`

	Params []quant.Params `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case (c.Width < 0):
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case (c.Height < 0):
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case (c.Width == 0) && (c.Height == 0):
			return fmt.Errorf("no resize dimensions given")
		}
	}

	if target, _ := strings.CutPrefix(c.Format, "unsup:"); lossyTypes[target] || target == "same" {
		slog.Warn("lossy output moves colors off the reduced palette", "format", c.Format)
	}

	counts, err := parseLevels(c.Levels)
	if err != nil {
		return err
	}

	c.Params = c.Params[:0]
	seen := make(map[quant.Algorithm]bool)
	for _, name := range c.Algorithm {
		alg, err := quant.ParseAlgorithm(name)
		if err != nil {
			return err
		}
		if seen[alg] {
			continue
		}
		seen[alg] = true

		p := quant.DefaultParams(alg)
		p.Levels, p.TileSize, p.MatrixSize, p.Seed = counts, c.Tile, c.Matrix, c.Seed
		p.Colors, p.Palette, p.Dither = c.Colors, c.Palette, c.Dither
		if err = validateParams(p); err != nil {
			return fmt.Errorf("%s: %w", alg, err)
		}
		c.Params = append(c.Params, p)
	}
	if len(c.Params) == 0 {
		return fmt.Errorf("no algorithm given")
	}

	return nil
}

func parseLevels(levels []int) (level.Counts, error) {
	var counts level.Counts
	switch len(levels) {
	case 1:
		counts = level.Uniform(levels[0])
	case 3:
		counts = level.Counts{R: levels[0], G: levels[1], B: levels[2]}
	default:
		return counts, fmt.Errorf("levels need 1 or 3 values, got %d", len(levels))
	}

	if _, err := level.NewRGB(counts); err != nil {
		return counts, fmt.Errorf("invalid levels %s: %w", counts, err)
	}
	return counts, nil
}

func validateParams(p quant.Params) error {
	switch p.Algorithm {
	case quant.AverageDithering:
		if p.TileSize < 1 {
			return fmt.Errorf("%w: tile size %d", quant.ErrInvalidParameter, p.TileSize)
		}
	case quant.OrderedDitheringRelative:
		if _, err := dither.Bayer(p.MatrixSize); err != nil {
			return err
		}
	case quant.PopularityAlgorithm:
		if p.Colors < 1 {
			return fmt.Errorf("%w: palette size %d", quant.ErrInvalidParameter, p.Colors)
		}
	case quant.PaletteRemap:
		if _, err := palette.Load(p.Palette); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				logger := slog.Default().With("file", filepath.Join(c.Scan, fileName))
				if err := c.process(logger, fileName); err != nil {
					errCount.Add(1)
					logger.Error("could not reduce image", "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) process(logger *slog.Logger, fileName string) error {
	filePath := filepath.Join(c.Scan, fileName)
	imgFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}

	img, imgType, err := image.Decode(imgFile)
	if closeErr := imgFile.Close(); closeErr != nil {
		logger.Warn("could not close image", "error", closeErr)
	}
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	if c.Resize {
		img = resize(logger, img, c.Width, c.Height, c.Crop)
	}

	session, err := quant.NewSession(img, quant.Config{
		Workers:   c.Threads,
		CacheSize: c.Cache,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for _, p := range c.Params {
		algLog := logger.With("algorithm", p.Algorithm.Name())
		algLog.Info("reducing", "params", p.String())

		out, err := session.Render(p)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%s-%s", base, p.Algorithm.Name())
		if err = save(out, imgType, c.Format, c.Dest, name); err != nil {
			return fmt.Errorf("could not save image in %q: %w", c.Dest, err)
		}

		if c.ExportPalette && p.Algorithm == quant.PopularityAlgorithm {
			pal, err := session.Palette(p.Colors)
			if err != nil {
				return err
			}
			palPath := filepath.Join(c.Dest, name+".pal")
			if err = palette.Save(palPath, pal); err != nil {
				return err
			}
			algLog.Info("palette exported", "path", palPath, "colors", len(pal))
		}
	}

	return nil
}
