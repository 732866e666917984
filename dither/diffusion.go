package dither

import (
	"colorquant/level"
	"colorquant/raster"

	"github.com/goki/mat32"
)

// errorRows carries the diffused error of the row being scanned ([0]) and of
// the row below it ([1]). It belongs to a single ErrorDiffusion run.
type errorRows [2][]mat32.Vec3

func newErrorRows(width int) *errorRows {
	return &errorRows{make([]mat32.Vec3, width), make([]mat32.Vec3, width)}
}

// advance slides the window down one row.
func (rows *errorRows) advance() {
	rows[0], rows[1] = rows[1], rows[0]
	clear(rows[1])
}

// diffuse spreads e over the unvisited neighbours of column x with the
// Floyd-Steinberg weights. Shares falling outside the image are dropped.
func (rows *errorRows) diffuse(x int, e mat32.Vec3) {
	w := len(rows[0])
	if x+1 < w {
		rows[0][x+1].SetAdd(e.MulScalar(7.0 / 16))
		rows[1][x+1].SetAdd(e.MulScalar(1.0 / 16))
	}
	if x > 0 {
		rows[1][x-1].SetAdd(e.MulScalar(3.0 / 16))
	}
	rows[1][x].SetAdd(e.MulScalar(5.0 / 16))
}

// ErrorDiffusion quantizes pixels in raster order, pushing each pixel's
// rounding error onto the neighbours that have not been visited yet. Every
// pixel depends on all earlier ones, so the pass runs on one goroutine.
func ErrorDiffusion(src *raster.Image, counts level.Counts) (*raster.Image, error) {
	sets, err := prepare(src, counts)
	if err != nil {
		return nil, err
	}

	w, h := src.Width(), src.Height()
	dst := src.Blank()
	rows := newErrorRows(w)

	for y := range h {
		in, out := src.Row(y), dst.Row(y)
		for x := range w {
			carried := rows[0][x]
			v := [3]float32{
				float32(in[3*x]) + carried.X,
				float32(in[3*x+1]) + carried.Y,
				float32(in[3*x+2]) + carried.Z,
			}

			var q [3]uint8
			for c := range q {
				q[c] = sets[c].Quantize(float64(v[c]))
			}
			copy(out[3*x:3*x+3], q[:])

			e := mat32.NewVec3(v[0]-float32(q[0]), v[1]-float32(q[1]), v[2]-float32(q[2]))
			if e != (mat32.Vec3{}) {
				rows.diffuse(x, e)
			}
		}
		rows.advance()
	}

	return dst, nil
}
