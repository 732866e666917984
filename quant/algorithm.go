package quant

import (
	"fmt"
	"strings"
)

type Algorithm int

const (
	AverageDithering Algorithm = iota
	ErrorDiffusionDithering
	OrderedDitheringRandom
	OrderedDitheringRelative
	PopularityAlgorithm
	PaletteRemap
)

var algorithms = []struct {
	name    string
	display string
}{
	AverageDithering:         {"average", "Average Dithering"},
	ErrorDiffusionDithering:  {"error-diffusion", "Error Diffusion Dithering"},
	OrderedDitheringRandom:   {"ordered-random", "Ordered Dithering Random"},
	OrderedDitheringRelative: {"ordered-relative", "Ordered Dithering Relative"},
	PopularityAlgorithm:      {"popularity", "Popularity Algorithm"},
	PaletteRemap:             {"remap", "Palette Remap"},
}

// Algorithms lists every algorithm in declaration order.
func Algorithms() []Algorithm {
	res := make([]Algorithm, len(algorithms))
	for i := range res {
		res[i] = Algorithm(i)
	}
	return res
}

func (a Algorithm) valid() bool {
	return a >= 0 && int(a) < len(algorithms)
}

// String returns the human readable name.
func (a Algorithm) String() string {
	if !a.valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithms[a].display
}

// Name returns the short name used on the command line and in file names.
func (a Algorithm) Name() string {
	if !a.valid() {
		return fmt.Sprintf("algorithm%d", int(a))
	}
	return algorithms[a].name
}

// Dithering reports whether a works on per-channel level counts rather than
// a palette.
func (a Algorithm) Dithering() bool {
	return a <= OrderedDitheringRelative
}

func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, alg := range algorithms {
		if s == alg.name || s == strings.ToLower(alg.display) {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}
