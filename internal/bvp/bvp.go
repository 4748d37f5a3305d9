// Package bvp defines the contract between a two-point boundary value
// problem produced by an indirect optimal-control transcription and the
// algorithms that solve it.
//
// A problem carries four classes of unknowns: states y, quadratures q
// (integrals of the state carried as extra states), dynamic parameters p
// (appearing in the dynamics) and non-dynamic parameters nu (appearing only
// in the boundary conditions). Constants k are passed through untouched.
package bvp

import (
	"errors"
	"time"

	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// DerivativeFunc returns dy/dt for one node.
type DerivativeFunc func(y, p, k []float64) []float64

// QuadratureFunc returns dq/dt for one node.
type QuadratureFunc func(y, p, k []float64) []float64

// BoundaryFunc returns the boundary residuals of a problem without
// quadratures.
type BoundaryFunc func(ya, yb, p, nu, k []float64) []float64

// QuadBoundaryFunc returns the boundary residuals of a problem with
// quadratures.
type QuadBoundaryFunc func(ya, qa, yb, qb, p, nu, k []float64) []float64

// DerivativeJacFunc returns df/dy (nstates x nstates) and df/dp
// (nstates x ndyn). A single-parameter df/dp may be returned as a
// 1 x nstates row; it is promoted to a column.
type DerivativeJacFunc func(y, p, k []float64) (dfdy, dfdp *dynamo.Matrix)

// BoundaryJacFunc returns the boundary residual sensitivities to ya, yb and
// the full parameter vector [p, nu].
type BoundaryJacFunc func(ya, yb, p, nu, k []float64) (dya, dyb, dp *dynamo.Matrix)

// QuadBoundaryJacFunc is BoundaryJacFunc for problems with quadratures. The
// ya and yb sensitivities span states followed by quadratures.
type QuadBoundaryJacFunc func(ya, qa, yb, qb, p, nu, k []float64) (dya, dyb, dp *dynamo.Matrix)

// Problem bundles the functions a solver calls. Only Derivative is always
// required; which boundary form is needed depends on whether the guess
// carries quadratures.
type Problem struct {
	Name string

	Derivative DerivativeFunc
	Quadrature QuadratureFunc

	Boundary     BoundaryFunc
	QuadBoundary QuadBoundaryFunc

	DerivativeJac   DerivativeJacFunc
	BoundaryJac     BoundaryJacFunc
	QuadBoundaryJac QuadBoundaryJacFunc
}

var (
	ErrNoDerivative   = errors.New("bvp: derivative function is required")
	ErrNoBoundary     = errors.New("bvp: boundary function is required without quadratures")
	ErrNoQuadBoundary = errors.New("bvp: quadrature boundary function is required with quadratures")
	ErrNoQuadrature   = errors.New("bvp: quadrature function is required with quadratures")
	ErrNilGuess       = errors.New("bvp: initial guess is nil")
	ErrMaxNodes       = errors.New("bvp: max nodes must be greater than 2")
)

// Result is produced once per solve and owned by the caller.
type Result struct {
	Solution     *trajectory.Trajectory
	Success      bool
	Message      string
	RMSResiduals []float64
	NIter        int

	Status   int
	CompTime time.Duration
}

// Algorithm solves a guess into a Result. Solve never mutates the guess.
type Algorithm interface {
	Solve(guess *trajectory.Trajectory) (*Result, error)
	Close() error
}
