package quant

import (
	"fmt"
	"image"
	"log/slog"

	"colorquant/cache"
	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/popularity"
	"colorquant/raster"
)

const DefaultCacheSize = 8

type Config struct {
	// Workers for the parallel engines; < 1 uses GOMAXPROCS.
	Workers int
	// CacheSize is the number of renders kept; < 1 uses DefaultCacheSize.
	CacheSize int
	Logger    *slog.Logger
}

// Session renders one source image with any number of parameter sets,
// remembering recent results.
type Session struct {
	src    *raster.Image
	pool   *parallel.Pool
	cache  *cache.Cache[Params]
	logger *slog.Logger
}

func NewSession(src image.Image, conf Config) (*Session, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrInvalidParameter)
	}

	size := conf.CacheSize
	if size < 1 {
		size = DefaultCacheSize
	}
	c, err := cache.New[Params](size)
	if err != nil {
		return nil, err
	}

	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}

	img := raster.FromImage(src)
	logger.Debug("session opened", "width", img.Width(), "height", img.Height(), "cache", size)
	return &Session{
		src:    img,
		pool:   parallel.Start(conf.Workers),
		cache:  c,
		logger: logger,
	}, nil
}

// Source returns the RGB copy of the image the session renders. It must not
// be modified.
func (s *Session) Source() *raster.Image {
	return s.src
}

// Render returns src rendered with params. Random dithering without a fixed
// seed is never cached.
func (s *Session) Render(params Params) (*raster.Image, error) {
	logger := s.logger.With("params", params.String())

	if params.Algorithm == OrderedDitheringRandom && params.Seed == 0 {
		logger.Debug("rendering uncached")
		return Run(s.pool, s.src, params)
	}

	img, hit, err := s.cache.GetOrRender(params.key(), func() (*raster.Image, error) {
		return Run(s.pool, s.src, params)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("rendered", "cached", hit)
	return img, nil
}

// Palette returns the k colour palette PopularityAlgorithm selects.
func (s *Session) Palette(k int) (palette.Palette, error) {
	return popularity.Select(s.pool, s.src, k)
}

func (s *Session) Close() {
	raw, compressed := s.cache.Stats()
	s.logger.Debug("session closed", "cached", s.cache.Len(), "raw_bytes", raw, "compressed_bytes", compressed)
	s.cache.Close()
	s.pool.Close()
}
