package popularity

import (
	"cmp"
	"slices"

	"colorquant/palette"
	"colorquant/parallel"
	"colorquant/raster"
)

type bucket struct {
	count int
	first int // raster index of the first pixel with this colour
}

// Histogram counts exact colours and remembers where each first appeared.
type Histogram struct {
	buckets map[raster.RGB]bucket
	pixels  int
}

// Count builds the histogram of src. Each span of rows fills its own map; the
// maps are merged by summing counts once every span is done.
func Count(p *parallel.Pool, src *raster.Image) *Histogram {
	w, h := src.Width(), src.Height()
	parts := make([]map[raster.RGB]bucket, p.Spans(h))

	p.Split(h, func(span, lo, hi int) {
		m := make(map[raster.RGB]bucket)
		for y := lo; y < hi; y++ {
			row := src.Row(y)
			for x := range w {
				c := raster.RGB{R: row[3*x], G: row[3*x+1], B: row[3*x+2]}
				b, ok := m[c]
				if !ok {
					b.first = y*w + x
				}
				b.count++
				m[c] = b
			}
		}
		parts[span] = m
	})

	hist := &Histogram{pixels: w * h}
	for _, m := range parts {
		hist.merge(m)
	}
	if hist.buckets == nil {
		hist.buckets = make(map[raster.RGB]bucket)
	}
	return hist
}

func (h *Histogram) merge(m map[raster.RGB]bucket) {
	if h.buckets == nil {
		h.buckets = m
		return
	}
	for c, b := range m {
		cur, ok := h.buckets[c]
		if !ok {
			h.buckets[c] = b
			continue
		}
		cur.count += b.count
		cur.first = min(cur.first, b.first)
		h.buckets[c] = cur
	}
}

// Len returns the number of distinct colours.
func (h *Histogram) Len() int { return len(h.buckets) }

// Pixels returns the number of pixels counted.
func (h *Histogram) Pixels() int { return h.pixels }

func (h *Histogram) Count(c raster.RGB) int {
	return h.buckets[c].count
}

// Top returns up to k colours, most frequent first. Colours with equal counts
// are ordered by where they first appear in raster order.
func (h *Histogram) Top(k int) palette.Palette {
	type ranked struct {
		c raster.RGB
		bucket
	}

	all := make([]ranked, 0, len(h.buckets))
	for c, b := range h.buckets {
		all = append(all, ranked{c, b})
	}
	slices.SortFunc(all, func(a, b ranked) int {
		if n := cmp.Compare(b.count, a.count); n != 0 {
			return n
		}
		return cmp.Compare(a.first, b.first)
	})

	k = max(0, min(k, len(all)))
	pal := make(palette.Palette, k)
	for i := range k {
		pal[i] = all[i].c
	}
	return pal
}
