// Package cache keeps recently rendered images in memory, zstd-compressed,
// evicting the least recently used once full.
package cache

import (
	"container/list"
	"fmt"
	"image"
	"sync"

	"colorquant/raster"

	"github.com/klauspost/compress/zstd"
)

type entry[K comparable] struct {
	key  K
	rect image.Rectangle
	data []byte
}

type Cache[K comparable] struct {
	mu    sync.Mutex
	size  int
	ll    *list.List
	items map[K]*list.Element

	raw int64 // uncompressed bytes held
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func New[K comparable](size int) (*Cache[K], error) {
	if size < 1 {
		return nil, fmt.Errorf("cache size must be positive: %d", size)
	}

	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderLowmem(true))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("could not create zstd decoder: %w", err)
	}

	return &Cache[K]{
		size:  size,
		ll:    list.New(),
		items: make(map[K]*list.Element, size),
		enc:   enc,
		dec:   dec,
	}, nil
}

// Get returns a fresh copy of the image stored under key.
func (c *Cache[K]) Get(key K) (*raster.Image, bool, error) {
	c.mu.Lock()
	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return nil, false, nil
	}
	c.ll.MoveToFront(el)
	e := el.Value.(*entry[K])
	c.mu.Unlock()

	pix, err := c.dec.DecodeAll(e.data, make([]byte, 0, 3*e.rect.Dx()*e.rect.Dy()))
	if err != nil {
		return nil, false, fmt.Errorf("could not decompress cached image: %w", err)
	}
	img, err := raster.FromPixels(e.rect.Dx(), e.rect.Dy(), pix)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached image: %w", err)
	}
	img.Rect = e.rect
	return img, true, nil
}

// Put stores a compressed copy of img under key.
func (c *Cache[K]) Put(key K, img *raster.Image) {
	tight := img
	if img.Stride != 3*img.Width() {
		tight = img.Clone()
	}
	e := &entry[K]{
		key:  key,
		rect: img.Rect,
		data: c.enc.EncodeAll(tight.Pix[:3*img.Width()*img.Height()], nil),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.raw -= rawSize(el.Value.(*entry[K]))
		el.Value = e
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(e)
	}
	c.raw += rawSize(e)

	for c.ll.Len() > c.size {
		last := c.ll.Back()
		old := c.ll.Remove(last).(*entry[K])
		delete(c.items, old.key)
		c.raw -= rawSize(old)
	}
}

// GetOrRender returns the image stored under key, calling render and storing
// its result on a miss. The flag reports a hit.
func (c *Cache[K]) GetOrRender(key K, render func() (*raster.Image, error)) (*raster.Image, bool, error) {
	img, ok, err := c.Get(key)
	if err != nil || ok {
		return img, ok, err
	}

	img, err = render()
	if err != nil {
		return nil, false, err
	}
	c.Put(key, img)
	return img, false, nil
}

func (c *Cache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns the uncompressed and compressed bytes currently held.
func (c *Cache[K]) Stats() (raw, compressed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.ll.Front(); el != nil; el = el.Next() {
		compressed += int64(len(el.Value.(*entry[K]).data))
	}
	return c.raw, compressed
}

func (c *Cache[K]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
	c.raw = 0
}

// Close releases the codec resources. The cache must not be used afterwards.
func (c *Cache[K]) Close() {
	c.Clear()
	c.enc.Close()
	c.dec.Close()
}

func rawSize[K comparable](e *entry[K]) int64 {
	return int64(3 * e.rect.Dx() * e.rect.Dy())
}
