// Package level computes the legal output values of a colour channel and rounds
// samples onto them.
package level

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidParameter reports a level count, palette size, tile size or image
// area that no engine can work with.
var ErrInvalidParameter = errors.New("invalid parameter")

// MaxCount is the largest level count a channel supports; above it the rounded
// levels would repeat.
const MaxCount = 256

// Set is the ordered list of legal values for one channel.
type Set []uint8

func New(k int) (Set, error) {
	if k < 1 || k > MaxCount {
		return nil, fmt.Errorf("%w: level count %d not in [1,%d]", ErrInvalidParameter, k, MaxCount)
	}

	if k == 1 {
		return Set{0}, nil
	}

	s := make(Set, k)
	for i := range k {
		s[i] = uint8(math.Round(float64(i) * 255 / float64(k-1)))
	}
	return s, nil
}

// Quantize returns the level closest to v. A value exactly halfway between two
// levels goes to the lower one.
func (s Set) Quantize(v float64) uint8 {
	n := len(s)
	if v <= float64(s[0]) {
		return s[0]
	}
	if v >= float64(s[n-1]) {
		return s[n-1]
	}

	i := sort.Search(n, func(i int) bool { return float64(s[i]) >= v })
	if float64(s[i]) == v {
		return s[i]
	}

	lo, hi := s[i-1], s[i]
	if v-float64(lo) <= float64(hi)-v {
		return lo
	}
	return hi
}

func (s Set) Contains(v uint8) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return i < len(s) && s[i] == v
}

// Gap returns the width of the level interval v falls in. When v sits exactly
// on a level, up selects the interval above it instead of the one below.
func (s Set) Gap(v float64, up bool) float64 {
	n := len(s)
	if n < 2 {
		return 0
	}

	i := sort.Search(n, func(i int) bool { return float64(s[i]) > v })
	switch {
	case i == 0:
		i = 1
	case i == n:
		i = n - 1
	case !up && i > 1 && float64(s[i-1]) == v:
		i--
	}
	return float64(s[i] - s[i-1])
}

// Perturb quantizes v shifted by u interval widths, u in [-0.5, 0.5]. For any
// u other than exactly -0.5 a value already on a level stays there.
func (s Set) Perturb(v, u float64) uint8 {
	return s.Quantize(v + u*s.Gap(v, u > 0))
}

// Counts holds the requested number of levels per channel.
type Counts struct {
	R, G, B int
}

func Uniform(k int) Counts {
	return Counts{R: k, G: k, B: k}
}

func (c Counts) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// RGB holds one Set per channel, in red, green, blue order.
type RGB [3]Set

func NewRGB(c Counts) (RGB, error) {
	var res RGB
	for i, ch := range []struct {
		name string
		k    int
	}{{"red", c.R}, {"green", c.G}, {"blue", c.B}} {
		s, err := New(ch.k)
		if err != nil {
			return RGB{}, fmt.Errorf("%s channel: %w", ch.name, err)
		}
		res[i] = s
	}
	return res, nil
}
