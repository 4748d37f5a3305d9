package collocation

import (
	"math"

	"github.com/san-kum/bvpsim/internal/dynamo"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/lapack64"
)

const (
	maxNewtonIter = 8
	maxJacEvals   = 4

	// Armijo backtracking.
	armijoSigma  = 0.2
	armijoTau    = 0.5
	armijoTrials = 4
)

// luFactor is an in-place LU factorization with partial pivoting.
type luFactor struct {
	a    blas64.General
	ipiv []int
}

// factorize overwrites J with its LU factors. ok is false when U has an
// exactly zero pivot.
func factorize(J *dynamo.Matrix) (*luFactor, bool) {
	n := J.Rows()
	lu := &luFactor{
		a:    blas64.General{Rows: n, Cols: n, Stride: n, Data: J.Data()},
		ipiv: make([]int, n),
	}
	ok := lapack64.Getrf(lu.a, lu.ipiv)
	return lu, ok
}

func (lu *luFactor) solve(rhs []float64) []float64 {
	x := append([]float64(nil), rhs...)
	lapack64.Getrs(blas.NoTrans, lu.a, blas64.General{Rows: len(x), Cols: 1, Stride: 1, Data: x}, lu.ipiv)
	return x
}

// newton solves the collocation system on the current mesh with a damped
// Newton method. The cost of a point is |J^-1 r|^2 with J frozen at the last
// evaluation, which makes the step acceptance affine invariant. The Jacobian
// is recomputed only after a damped step.
func (s *system) newton(y *dynamo.Matrix, p []float64, tol, bcTol float64) (*dynamo.Matrix, []float64, bool, error) {
	n, m := s.n, s.m

	tolR := make([]float64, m-1)
	for i, h := range s.h {
		tolR[i] = 2.0 / 3.0 * h * 5e-2 * tol
	}

	c, err := s.evaluate(y, p)
	if err != nil {
		return nil, nil, false, err
	}
	res := s.residualVector(c)

	var (
		lu        *luFactor
		step      []float64
		cost      float64
		njev      int
		singular  bool
		recompute = true
	)

	for iter := 0; iter < maxNewtonIter; iter++ {
		if recompute {
			J, err := s.globalJacobian(y, p, c)
			if err != nil {
				return nil, nil, false, err
			}
			njev++
			var ok bool
			lu, ok = factorize(J)
			if !ok {
				singular = true
				break
			}
			step = lu.solve(res)
			cost = floats.Dot(step, step)
		}

		var (
			yNew    *dynamo.Matrix
			pNew    []float64
			stepNew []float64
			costNew float64
		)
		alpha := 1.0
		for trial := 0; trial <= armijoTrials; trial++ {
			yNew = y.Clone()
			for j := 0; j < m; j++ {
				for v := 0; v < n; v++ {
					yNew.Set(v, j, y.At(v, j)-alpha*step[j*n+v])
				}
			}
			pNew = make([]float64, s.k)
			for i := range pNew {
				pNew[i] = p[i] - alpha*step[n*m+i]
			}

			c, err = s.evaluate(yNew, pNew)
			if err != nil {
				return nil, nil, false, err
			}
			res = s.residualVector(c)
			stepNew = lu.solve(res)
			costNew = floats.Dot(stepNew, stepNew)
			if costNew < (1-2*alpha*armijoSigma)*cost {
				break
			}
			if trial < armijoTrials {
				alpha *= armijoTau
			}
		}

		y, p = yNew, pNew

		if njev == maxJacEvals {
			break
		}
		if s.withinTolerance(c, tolR, bcTol) {
			break
		}

		// A full step keeps the factorization; a damped one means the
		// linear model is poor and J must be rebuilt.
		if alpha == 1 {
			step = stepNew
			cost = costNew
			recompute = false
		} else {
			recompute = true
		}
	}

	return y, p, singular, nil
}

func (s *system) withinTolerance(c *collocation, tolR []float64, bcTol float64) bool {
	for v := 0; v < s.n; v++ {
		for i := 0; i < s.m-1; i++ {
			if !(math.Abs(c.colRes.At(v, i)) < tolR[i]*(1+math.Abs(c.fMid.At(v, i)))) {
				return false
			}
		}
	}
	for _, r := range c.bcRes {
		if !(math.Abs(r) < bcTol) {
			return false
		}
	}
	return true
}
