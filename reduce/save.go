package reduce

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"colorquant/popularity"
	"colorquant/raster"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const gifColors = 256

// lossyTypes cannot be written back without moving samples off the reduced
// levels, so "unsup:" replaces them too.
var lossyTypes = map[string]bool{"jpeg": true}

// outputType resolves the --format flag against the decoded image type.
func outputType(imgType, outType string) string {
	outType, unsupOnly := strings.CutPrefix(outType, "unsup:")
	if (unsupOnly && (imgType != "webp") && !lossyTypes[imgType]) || (outType == "same") {
		outType = imgType
	}
	return outType
}

func save(img *raster.Image, imgType, outType, destDir, baseName string) (err error) {
	outType = outputType(imgType, outType)
	destName := fmt.Sprintf("%s.%s", baseName, outType)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		} else {
			os.Remove(outFile.Name())
		}
	}()

	switch outType {
	case "gif":
		pm, perr := toPaletted(img)
		if perr != nil {
			return fmt.Errorf("could not encode GIF destination %q: %w", destName, perr)
		}
		if err = gif.Encode(outFile, pm, &gif.Options{NumColors: len(pm.Palette)}); err != nil {
			return fmt.Errorf("could not encode GIF destination %q: %w", destName, err)
		}
	case "jpeg":
		if err = jpeg.Encode(outFile, img.ToRGBA(), &jpeg.Options{Quality: 100}); err != nil {
			return fmt.Errorf("could not encode JPEG destination %q: %w", destName, err)
		}
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err = enc.Encode(outFile, img.ToRGBA()); err != nil {
			return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
		}
	case "bmp":
		if err = bmp.Encode(outFile, img.ToRGBA()); err != nil {
			return fmt.Errorf("could not encode BMP destination %q: %w", destName, err)
		}
	case "tiff":
		if err = tiff.Encode(outFile, img.ToRGBA(), nil); err != nil {
			return fmt.Errorf("could not encode TIFF destination %q: %w", destName, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", outType)
	}

	canRename = true
	return err
}

// toPaletted stores img with its own exact colours, so the GIF encoder does not
// requantize it onto a fixed palette.
func toPaletted(img *raster.Image) (*image.Paletted, error) {
	hist := popularity.Count(nil, img)
	if hist.Len() > gifColors {
		return nil, fmt.Errorf("%d colors do not fit a GIF palette, reduce to at most %d", hist.Len(), gifColors)
	}

	_, pal := hist.Top(gifColors).To(raster.RGBModel)
	dr := image.Rect(0, 0, img.Width(), img.Height())
	pm := image.NewPaletted(dr, pal)
	draw.Draw(pm, dr, img, img.Rect.Min, draw.Src)
	return pm, nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
