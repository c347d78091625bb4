package sim

import (
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// truncate matches the usual gaussian filter cutoff of four standard deviations.
const truncate = 4.0

type Field struct {
	size   int
	values []float64
	max    float64
}

// BuildField deposits the sources on a zero grid and smooths them with an
// isotropic Gaussian of standard deviation spread. Borders reflect.
func BuildField(size int, sources []FoodSource, spread float64) (*Field, error) {
	if errs := validateField(size, sources, spread); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	grid := make([]float64, size*size)
	for _, src := range sources {
		grid[src.Row*size+src.Col] += src.Amount
	}
	if spread > 0 && len(sources) > 0 {
		grid = smooth(grid, size, gaussianKernel(spread))
	}

	f := &Field{size: size, values: grid}
	for _, v := range grid {
		if v > f.max {
			f.max = v
		}
	}
	return f, nil
}

func (f *Field) Size() int { return f.size }

func (f *Field) At(row, col int) float64 {
	return f.values[row*f.size+col]
}

func (f *Field) Contains(p Position) bool {
	return p.Row >= 0 && p.Row < f.size && p.Col >= 0 && p.Col < f.size
}

func (f *Field) Max() float64 { return f.max }

// Values returns a row-major copy of the grid.
func (f *Field) Values() []float64 {
	return append([]float64(nil), f.values...)
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range weights {
		x := float64(i - radius)
		weights[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// reflect maps an out-of-range index onto [0,n) mirroring about the edges
// (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// smooth runs the separable correlation along columns then rows. Each
// goroutine owns a disjoint set of output lines.
func smooth(src []float64, size int, kernel []float64) []float64 {
	tmp := make([]float64, len(src))
	dst := make([]float64, len(src))
	radius := len(kernel) / 2

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for r := 0; r < size; r++ {
		r := r
		g.Go(func() error {
			row := src[r*size : (r+1)*size]
			if allZero(row) {
				return nil
			}
			out := tmp[r*size : (r+1)*size]
			for c := range out {
				acc := 0.0
				for k, w := range kernel {
					acc += w * row[reflect(c+k-radius, size)]
				}
				out[c] = acc
			}
			return nil
		})
	}
	_ = g.Wait()

	for r := 0; r < size; r++ {
		r := r
		g.Go(func() error {
			out := dst[r*size : (r+1)*size]
			for k, w := range kernel {
				line := tmp[reflect(r+k-radius, size)*size:]
				for c := range out {
					out[c] += w * line[c]
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return dst
}

func allZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
