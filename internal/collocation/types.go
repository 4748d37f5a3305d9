package collocation

import (
	"errors"

	"github.com/san-kum/bvpsim/internal/dynamo"
)

// Field evaluates the right-hand side at every column of y.
// x has one entry per column. The result must be n x len(x).
type Field interface {
	Eval(x []float64, y *dynamo.Matrix, p []float64) *dynamo.Matrix
}

// Boundary evaluates the n+k boundary residuals.
type Boundary interface {
	Eval(ya, yb, p []float64) []float64
}

// FieldJacobian returns df/dy (n x n x m) and df/dp (n x k x m). dfdp must be
// nil when the problem has no parameters.
type FieldJacobian interface {
	Eval(x []float64, y *dynamo.Matrix, p []float64) (dfdy, dfdp *dynamo.Tensor3)
}

// BoundaryJacobian returns d bc/d ya, d bc/d yb ((n+k) x n each) and
// d bc/d p ((n+k) x k, nil or empty when k == 0).
type BoundaryJacobian interface {
	Eval(ya, yb, p []float64) (dya, dyb, dp *dynamo.Matrix)
}

// Problem bundles the callbacks of one solve. FieldJac and BoundaryJac are
// optional.
type Problem struct {
	Field       Field
	Boundary    Boundary
	FieldJac    FieldJacobian
	BoundaryJac BoundaryJacobian
}

// DefaultTol applies when Options.Tol is not positive.
const DefaultTol = 1e-3

type Options struct {
	// MaxNodes caps the mesh size. Must be > 2.
	MaxNodes int
	// Tol is the relative collocation residual tolerance.
	Tol float64
	// BCTol is the absolute boundary residual tolerance. Zero means Tol.
	BCTol float64
}

// Status codes reported in Output.Status.
const (
	StatusConverged = iota
	StatusMaxNodes
	StatusSingular
	StatusBCTolerance
)

var statusMessages = map[int]string{
	StatusConverged:   "The algorithm converged to the desired accuracy.",
	StatusMaxNodes:    "The maximum number of mesh nodes is exceeded.",
	StatusSingular:    "A singular Jacobian encountered when solving the collocation system.",
	StatusBCTolerance: "The solver was unable to satisfy boundary conditions tolerance on iteration 10.",
}

// StatusMessage returns the human readable text for a status code.
func StatusMessage(status int) string {
	return statusMessages[status]
}

// Output is the raw result of a solve.
type Output struct {
	X []float64
	// Y is n x len(X).
	Y *dynamo.Matrix
	// P is nil when the problem has no parameters.
	P            []float64
	RMSResiduals []float64
	NIter        int
	Status       int
	Message      string
	Success      bool
}

var (
	ErrMeshTooShort  = errors.New("collocation: mesh needs at least 2 nodes")
	ErrMeshOrder     = errors.New("collocation: mesh must be strictly increasing")
	ErrGuessShape    = errors.New("collocation: guess shape does not match mesh")
	ErrFieldShape    = errors.New("collocation: field returned wrong shape")
	ErrBoundaryShape = errors.New("collocation: boundary residual has wrong length")
	ErrJacobianShape = errors.New("collocation: jacobian has wrong shape")
	ErrMaxNodes      = errors.New("collocation: max nodes must be greater than 2")
	ErrMissingFunc   = errors.New("collocation: field and boundary functions are required")
	ErrEmptyUnknowns = errors.New("collocation: system has no variables")
)
