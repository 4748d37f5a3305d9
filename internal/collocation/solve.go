package collocation

import (
	"fmt"
	"math"

	"github.com/san-kum/bvpsim/internal/dynamo"
)

const (
	maxOuterIter = 10
	eps          = 2.220446049250313e-16
)

// Solve runs collocation with mesh refinement starting from the guess y
// (n x len(x)) and parameters p. Input validation failures and callbacks that
// return wrongly shaped values produce an error; numerical failure is
// reported through Output.Success and Output.Status.
func Solve(prob Problem, x []float64, y *dynamo.Matrix, p []float64, opts Options) (*Output, error) {
	if prob.Field == nil || prob.Boundary == nil {
		return nil, ErrMissingFunc
	}
	if opts.MaxNodes <= 2 {
		return nil, fmt.Errorf("%w: got %d", ErrMaxNodes, opts.MaxNodes)
	}
	if len(x) < 2 {
		return nil, ErrMeshTooShort
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("%w: x[%d]=%g after x[%d]=%g", ErrMeshOrder, i, x[i], i-1, x[i-1])
		}
	}
	if y == nil || y.Cols() != len(x) {
		return nil, ErrGuessShape
	}
	if y.Rows() == 0 {
		return nil, ErrEmptyUnknowns
	}

	tol := opts.Tol
	if tol <= 0 {
		tol = DefaultTol
	}
	if tol < 100*eps {
		tol = 100 * eps
	}
	bcTol := opts.BCTol
	if bcTol <= 0 {
		bcTol = tol
	}

	n, k := y.Rows(), len(p)
	x = append([]float64(nil), x...)
	y = y.Clone()
	p = append([]float64(nil), p...)

	var (
		status int
		rms    []float64
		iter   int
	)

	for {
		s := newSystem(prob, x, n, k)

		var (
			singular bool
			err      error
		)
		y, p, singular, err = s.newton(y, p, tol, bcTol)
		if err != nil {
			return nil, err
		}
		iter++

		c, err := s.evaluate(y, p)
		if err != nil {
			return nil, err
		}
		maxBC := 0.0
		for _, r := range c.bcRes {
			if a := math.Abs(r); a > maxBC || math.IsNaN(a) {
				maxBC = a
			}
		}

		sp := newHermite(y, c.f, x, s.h)
		rms, err = s.rmsResiduals(sp, p, c)
		if err != nil {
			return nil, err
		}

		if singular {
			status = StatusSingular
			break
		}

		var insert1, insert2 []int
		for i, r := range rms {
			switch {
			case r >= 100*tol:
				insert2 = append(insert2, i)
			case r > tol:
				insert1 = append(insert1, i)
			}
		}
		added := len(insert1) + 2*len(insert2)

		if s.m+added > opts.MaxNodes {
			status = StatusMaxNodes
			break
		}

		if added > 0 {
			x = refine(x, insert1, insert2)
			y = sp.eval(x, false)
			continue
		}
		if maxBC <= bcTol {
			status = StatusConverged
			break
		}
		if iter >= maxOuterIter {
			status = StatusBCTolerance
			break
		}
	}

	out := &Output{
		X:            x,
		Y:            y,
		RMSResiduals: rms,
		NIter:        iter,
		Status:       status,
		Message:      StatusMessage(status),
		Success:      status == StatusConverged,
	}
	if k > 0 {
		out.P = p
	}
	return out, nil
}
