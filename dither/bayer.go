package dither

import (
	"fmt"

	"colorquant/level"
)

// MaxMatrixSize bounds the Bayer matrix accepted by OrderedRelative.
const MaxMatrixSize = 16

// Bayer returns the n x n Bayer index matrix holding every value of [0, n*n)
// once. n must be a power of two between 2 and MaxMatrixSize.
func Bayer(n int) ([][]int, error) {
	if n < 2 || n > MaxMatrixSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: matrix size %d is not a power of two in [2,%d]",
			level.ErrInvalidParameter, n, MaxMatrixSize)
	}

	m := [][]int{{0}}
	for size := 1; size < n; size *= 2 {
		next := make([][]int, 2*size)
		for y := range next {
			next[y] = make([]int, 2*size)
		}
		for y := range size {
			for x := range size {
				v := 4 * m[y][x]
				next[y][x] = v
				next[y][x+size] = v + 2
				next[y+size][x] = v + 3
				next[y+size][x+size] = v + 1
			}
		}
		m = next
	}
	return m, nil
}

// thresholds maps a Bayer matrix onto offsets strictly inside (-0.5, 0.5),
// measured in level intervals.
func thresholds(m [][]int) [][]float64 {
	n := len(m)
	area := float64(n * n)
	res := make([][]float64, n)
	for y, row := range m {
		res[y] = make([]float64, n)
		for x, v := range row {
			res[y][x] = (float64(v)+0.5)/area - 0.5
		}
	}
	return res
}
