package spbvp

import (
	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/collocation"
	"github.com/san-kum/bvpsim/internal/dynamo"
)

// mode is the calling convention picked once per solve.
type mode uint8

const (
	modePlain mode = iota
	modeQuad
	modePlainJac
	modeQuadJac
)

func (m mode) String() string {
	switch m {
	case modePlain:
		return "plain"
	case modeQuad:
		return "quadrature"
	case modePlainJac:
		return "plain+jacobian"
	case modeQuadJac:
		return "quadrature+jacobian"
	}
	return "unknown"
}

func selectMode(d dims, prob bvp.Problem) mode {
	quad := d.nquads > 0
	analytic := prob.DerivativeJac != nil
	if quad {
		analytic = analytic || prob.QuadBoundaryJac != nil
	} else {
		analytic = analytic || prob.BoundaryJac != nil
	}
	switch {
	case quad && analytic:
		return modeQuadJac
	case quad:
		return modeQuad
	case analytic:
		return modePlainJac
	}
	return modePlain
}

// noQuadrature stands in for the quadrature function of problems without
// quadratures.
func noQuadrature(_, _, _ []float64) []float64 {
	return []float64{}
}

// splitParams cuts the engine parameter vector into [p | nu].
func (d dims) splitParams(params []float64) (p, nu dynamo.State) {
	v := dynamo.State(params)
	return v.Segment(0, d.ndyn), v.Segment(d.ndyn, d.ndyn+d.nnondyn)
}

// splitState cuts an engine state vector into [y | q].
func (d dims) splitState(v []float64) (y, q dynamo.State) {
	s := dynamo.State(v)
	return s.Segment(0, d.nstates), s.Segment(d.nstates, d.nstates+d.nquads)
}

// plainField evaluates the derivative function node by node.
type plainField struct {
	dims
	k          dynamo.State
	derivative bvp.DerivativeFunc
}

func (c *plainField) Eval(_ []float64, y *dynamo.Matrix, params []float64) *dynamo.Matrix {
	p, _ := c.splitParams(params)
	out := dynamo.NewMatrix(c.nstates, y.Cols())
	for j := 0; j < y.Cols(); j++ {
		yj, _ := c.splitState(y.Col(j))
		dy := c.derivative(yj, p, c.k)
		if len(dy) != c.nstates {
			return nil
		}
		out.SetCol(j, dy)
	}
	return out
}

// quadField stacks the quadrature integrand beneath the state derivative.
type quadField struct {
	dims
	k          dynamo.State
	derivative bvp.DerivativeFunc
	quadrature bvp.QuadratureFunc
}

func (c *quadField) Eval(_ []float64, y *dynamo.Matrix, params []float64) *dynamo.Matrix {
	p, _ := c.splitParams(params)
	out := dynamo.NewMatrix(c.width(), y.Cols())
	for j := 0; j < y.Cols(); j++ {
		yj, _ := c.splitState(y.Col(j))
		col := dynamo.Concat(c.derivative(yj, p, c.k), c.quadrature(yj, p, c.k))
		if len(col) != c.width() {
			return nil
		}
		out.SetCol(j, col)
	}
	return out
}

// plainBoundary passes the boundary vectors through and splits parameters.
type plainBoundary struct {
	dims
	k  dynamo.State
	fn bvp.BoundaryFunc
}

func (c *plainBoundary) Eval(ya, yb, params []float64) []float64 {
	p, nu := c.splitParams(params)
	return c.fn(ya, yb, p, nu, c.k)
}

// quadBoundary splits each boundary vector into states and quadratures.
type quadBoundary struct {
	dims
	k  dynamo.State
	fn bvp.QuadBoundaryFunc
}

func (c *quadBoundary) Eval(ya, yb, params []float64) []float64 {
	yA, qA := c.splitState(ya)
	yB, qB := c.splitState(yb)
	p, nu := c.splitParams(params)
	return c.fn(yA, qA, yB, qB, p, nu, c.k)
}

// closureSet is what the engine receives. Jacobian members stay nil (not a
// typed nil) when the engine should fall back to finite differences.
type closureSet struct {
	mode        mode
	field       collocation.Field
	boundary    collocation.Boundary
	fieldJac    collocation.FieldJacobian
	boundaryJac collocation.BoundaryJacobian
}

func (cs closureSet) problem() collocation.Problem {
	return collocation.Problem{
		Field:       cs.field,
		Boundary:    cs.boundary,
		FieldJac:    cs.fieldJac,
		BoundaryJac: cs.boundaryJac,
	}
}

// buildClosures resolves the calling convention for d once. The problem must
// already have been checked with checkProblem.
func buildClosures(d dims, prob bvp.Problem, k dynamo.State) closureSet {
	k = k.Clone()
	if k == nil {
		k = dynamo.State{}
	}
	cs := closureSet{mode: selectMode(d, prob)}

	switch cs.mode {
	case modePlain, modePlainJac:
		cs.field = &plainField{dims: d, k: k, derivative: prob.Derivative}
		cs.boundary = &plainBoundary{dims: d, k: k, fn: prob.Boundary}
	case modeQuad, modeQuadJac:
		cs.field = &quadField{dims: d, k: k, derivative: prob.Derivative, quadrature: prob.Quadrature}
		cs.boundary = &quadBoundary{dims: d, k: k, fn: prob.QuadBoundary}
	}

	switch cs.mode {
	case modePlainJac:
		if prob.DerivativeJac != nil {
			cs.fieldJac = &fieldJacobian{dims: d, k: k, jac: prob.DerivativeJac}
		}
		if prob.BoundaryJac != nil {
			cs.boundaryJac = &plainBoundaryJacobian{dims: d, k: k, fn: prob.BoundaryJac}
		}
	case modeQuadJac:
		if prob.DerivativeJac != nil {
			cs.fieldJac = &fieldJacobian{dims: d, k: k, jac: prob.DerivativeJac, quadrature: prob.Quadrature}
		}
		if prob.QuadBoundaryJac != nil {
			cs.boundaryJac = &quadBoundaryJacobian{dims: d, k: k, fn: prob.QuadBoundaryJac}
		}
	}
	return cs
}
