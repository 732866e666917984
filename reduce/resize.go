package reduce

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// resize fits img into width x height, either of which may be 0 to keep the
// source size on that axis. With crop the source is trimmed to the target
// aspect ratio, otherwise the shorter side shrinks to keep it.
func resize(logger *slog.Logger, img image.Image, width, height int, crop bool) image.Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())

	destWidth := float64(width)
	if destWidth == 0 {
		destWidth = srcWidth
	}

	destHeight := float64(height)
	if destHeight == 0 {
		destHeight = srcHeight
	}

	if (srcWidth == destWidth) && (srcHeight == destHeight) {
		return img
	}

	destBounds := image.Rect(0, 0, int(destWidth), int(destHeight))

	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	if crop {
		if srcAR < destAR {
			dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
			srcBounds.Min.Y += dh
			srcBounds.Max.Y -= dh
		} else if srcAR > destAR {
			dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
			srcBounds.Min.X += dw
			srcBounds.Max.X -= dw
		}
	} else {
		if srcAR < destAR {
			destBounds.Max.X = max(1, int(math.Round(destHeight*srcAR)))
		} else if srcAR > destAR {
			destBounds.Max.Y = max(1, int(math.Round(destWidth/srcAR)))
		}
	}

	logger.Info("resizing", "width", destBounds.Dx(), "height", destBounds.Dy())
	dest := image.NewRGBA(destBounds)
	draw.CatmullRom.Scale(dest, destBounds, img, srcBounds, draw.Src, nil)

	return dest
}
