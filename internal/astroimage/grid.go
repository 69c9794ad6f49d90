package astroimage

import "fmt"

// Grid is a row-major grid of float64 pixel values. (0,0) is the first
// pixel of the first row; x runs along a row, y across rows.
//
// Grid is a thin value type over a shared backing slice: copying a Grid
// copies the view, not the pixels. Use Copy for an independent grid.
type Grid struct {
	stride int
	values []float64
}

// NewGrid allocates a zero-filled grid.
func NewGrid(w, h int) Grid {
	return Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// GridFromSlice builds a grid from a row-major slice, copying the values.
// A rank-1 input (h == 1) is a single row.
func GridFromSlice(values []float64, w, h int) (Grid, error) {
	if w <= 0 || h <= 0 || w*h != len(values) {
		return Grid{}, fmt.Errorf("grid: %dx%d does not match %d values", w, h, len(values))
	}
	g := NewGrid(w, h)
	copy(g.values, values)
	return g, nil
}

func (g Grid) Dx() int { return g.stride }

func (g Grid) Dy() int {
	if g.stride == 0 {
		return 0
	}
	return len(g.values) / g.stride
}

func (g Grid) Get(x, y int) float64     { return g.values[g.stride*y+x] }
func (g *Grid) Set(x, y int, v float64) { g.values[g.stride*y+x] = v }

// Raw exposes the backing slice for I/O paths. Callers must not hold it
// across mutations of the grid.
func (g Grid) Raw() []float64 { return g.values }

// Copy returns an independent grid with the same values.
func (g Grid) Copy() Grid {
	g2 := Grid{stride: g.stride, values: make([]float64, len(g.values))}
	copy(g2.values, g.values)
	return g2
}

// FlipH returns a new grid mirrored along the vertical axis (columns
// reversed within each row).
func (g Grid) FlipH() Grid {
	w, h := g.Dx(), g.Dy()
	g2 := NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g2.Set(w-1-x, y, g.Get(x, y))
		}
	}
	return g2
}

// FlipV returns a new grid mirrored along the horizontal axis (rows
// reversed).
func (g Grid) FlipV() Grid {
	w, h := g.Dx(), g.Dy()
	g2 := NewGrid(w, h)
	for y := 0; y < h; y++ {
		copy(g2.values[(h-1-y)*w:(h-y)*w], g.values[y*w:(y+1)*w])
	}
	return g2
}

// Row returns a copy of the pixels in row y spanning columns [x0, x1].
func (g Grid) Row(y, x0, x1 int) []float64 {
	out := make([]float64, x1-x0+1)
	copy(out, g.values[y*g.stride+x0:y*g.stride+x1+1])
	return out
}

// Col returns a copy of the pixels in column x spanning rows [y0, y1].
func (g Grid) Col(x, y0, y1 int) []float64 {
	out := make([]float64, y1-y0+1)
	for i := range out {
		out[i] = g.Get(x, y0+i)
	}
	return out
}

// Cut returns a copy of the rectangular block with corners (x1, y1)
// inclusive and (x2, y2) exclusive.
func (g Grid) Cut(x1, y1, x2, y2 int) Grid {
	out := NewGrid(x2-x1, y2-y1)
	for y := y1; y < y2; y++ {
		copy(out.values[(y-y1)*out.stride:(y-y1+1)*out.stride],
			g.values[y*g.stride+x1:y*g.stride+x2])
	}
	return out
}

// SetBlock copies src into the grid with its origin at (x0, y0). The
// write is all-or-nothing: a block that does not fit entirely inside the
// grid is rejected.
func (g *Grid) SetBlock(x0, y0 int, src Grid) error {
	if x0 < 0 || y0 < 0 || x0+src.Dx() > g.Dx() || y0+src.Dy() > g.Dy() {
		return fmt.Errorf("grid: block %dx%d at (%d,%d) outside %dx%d",
			src.Dx(), src.Dy(), x0, y0, g.Dx(), g.Dy())
	}
	for y := 0; y < src.Dy(); y++ {
		copy(g.values[(y0+y)*g.stride+x0:(y0+y)*g.stride+x0+src.stride],
			src.values[y*src.stride:(y+1)*src.stride])
	}
	return nil
}
