package viz

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/bvpsim/internal/trajectory"
)

var ErrSeries = errors.New("viz: unknown series")

// Series resolves a name like "y0" or "q1" to the column values of sol.
func Series(sol *trajectory.Trajectory, name string) ([]float64, error) {
	if len(name) < 2 {
		return nil, fmt.Errorf("%w %q", ErrSeries, name)
	}
	idx, err := strconv.Atoi(name[1:])
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w %q", ErrSeries, name)
	}
	switch name[0] {
	case 'y':
		if idx < sol.NumStates() {
			return sol.Y.Col(idx), nil
		}
	case 'q':
		if idx < sol.NumQuads() {
			return sol.Q.Col(idx), nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrSeries, name)
}

// Resample interpolates values given on the mesh t onto n uniform points.
func Resample(t, values []float64, n int) ([]float64, error) {
	if len(t) == 1 {
		out := make([]float64, n)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(t, values); err != nil {
		return nil, err
	}
	grid := trajectory.Linspace(t[0], t[len(t)-1], n)
	out := make([]float64, n)
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out, nil
}

// Plot charts one series of sol. Refined meshes are non-uniform, so the
// series is resampled to width points first.
func Plot(sol *trajectory.Trajectory, name string, width, height int) (string, error) {
	values, err := Series(sol, name)
	if err != nil {
		return "", err
	}
	data, err := Resample(sol.T, values, width)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s over t in [%.4g, %.4g], %d nodes", name, sol.T[0], sol.T[len(sol.T)-1], sol.NumNodes())
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
