package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/bvpsim/internal/trajectory"
)

var ErrSpectrumInput = errors.New("analysis: spectrum needs a state column and at least 4 samples")

// Spectrum resamples state column col of sol on n uniform points by linear
// interpolation and returns the one-sided magnitude spectrum. freqs are in
// cycles per unit of the independent variable.
func Spectrum(sol *trajectory.Trajectory, col, n int) (freqs, mag []float64, err error) {
	if col < 0 || col >= sol.NumStates() || n < 4 || len(sol.T) < 2 {
		return nil, nil, ErrSpectrumInput
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(sol.T, sol.Y.Col(col)); err != nil {
		return nil, nil, fmt.Errorf("analysis: resampling: %w", err)
	}

	t0, t1 := sol.T[0], sol.T[len(sol.T)-1]
	grid := trajectory.Linspace(t0, t1, n+1)[:n]
	samples := make([]float64, n)
	for i, t := range grid {
		samples[i] = pl.Predict(t)
	}

	coeffs := fft.FFTReal(samples)
	half := n/2 + 1
	freqs = make([]float64, half)
	mag = make([]float64, half)
	span := t1 - t0
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / span
		mag[i] = cmplx.Abs(coeffs[i]) / float64(n)
	}
	return freqs, mag, nil
}

// DominantFrequency returns the non-zero frequency with the largest
// magnitude in the spectrum of column col.
func DominantFrequency(sol *trajectory.Trajectory, col, n int) (float64, error) {
	freqs, mag, err := Spectrum(sol, col, n)
	if err != nil {
		return 0, err
	}
	best := 1
	for i := 2; i < len(mag); i++ {
		if mag[i] > mag[best] {
			best = i
		}
	}
	return freqs[best], nil
}
