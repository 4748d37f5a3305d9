package spbvp

import (
	"math"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
)

var sqrtEps = math.Sqrt(2.220446049250313e-16)

// fieldJacobian calls the analytic dynamics Jacobian at each node and lays
// the blocks out for the engine. df/dp gains nnondyn zero columns since the
// dynamics never see nu. When quadratures are present their rows are
// differenced from the quadrature function; their columns stay zero.
//
// A nil return tells the engine the user function produced a wrong shape.
type fieldJacobian struct {
	dims
	k          dynamo.State
	jac        bvp.DerivativeJacFunc
	quadrature bvp.QuadratureFunc
}

func (c *fieldJacobian) Eval(_ []float64, y *dynamo.Matrix, params []float64) (*dynamo.Tensor3, *dynamo.Tensor3) {
	nodes := y.Cols()
	n := c.width()
	p, _ := c.splitParams(params)

	dfdy := dynamo.NewTensor3(n, n, nodes)
	var dfdp *dynamo.Tensor3
	if c.nparams() > 0 {
		dfdp = dynamo.NewTensor3(n, c.nparams(), nodes)
	}

	for j := 0; j < nodes; j++ {
		yj, _ := c.splitState(y.Col(j))
		sy, sp := c.jac(yj, p, c.k)
		if sy == nil || sy.Rows() != c.nstates || sy.Cols() != c.nstates {
			return nil, nil
		}
		for r := 0; r < c.nstates; r++ {
			for col := 0; col < c.nstates; col++ {
				dfdy.Set(r, col, j, sy.At(r, col))
			}
		}

		if dfdp != nil {
			sp = promote(sp, c.nstates, c.ndyn)
			if sp == nil {
				return nil, nil
			}
			for r := 0; r < c.nstates; r++ {
				for col := 0; col < c.ndyn; col++ {
					dfdp.Set(r, col, j, sp.At(r, col))
				}
			}
		}

		if c.nquads > 0 {
			c.quadratureRows(dfdy, dfdp, j, yj, p)
		}
	}
	return dfdy, dfdp
}

// quadratureRows fills the quadrature rows of node j by forward differences.
func (c *fieldJacobian) quadratureRows(dfdy, dfdp *dynamo.Tensor3, j int, y, p dynamo.State) {
	q0 := c.quadrature(y, p, c.k)
	for col := 0; col < c.nstates; col++ {
		h := sqrtEps * (1 + math.Abs(y[col]))
		yh := y.Clone()
		yh[col] += h
		qh := c.quadrature(yh, p, c.k)
		for r := 0; r < c.nquads && r < len(qh) && r < len(q0); r++ {
			dfdy.Set(c.nstates+r, col, j, (qh[r]-q0[r])/h)
		}
	}
	if dfdp == nil {
		return
	}
	for col := 0; col < c.ndyn; col++ {
		h := sqrtEps * (1 + math.Abs(p[col]))
		ph := p.Clone()
		ph[col] += h
		qh := c.quadrature(y, ph, c.k)
		for r := 0; r < c.nquads && r < len(qh) && r < len(q0); r++ {
			dfdp.Set(c.nstates+r, col, j, (qh[r]-q0[r])/h)
		}
	}
}

// promote returns s as an nstates x ndyn matrix. A single dynamic parameter
// sensitivity returned as a 1 x nstates row becomes a column. Any other
// shape yields nil.
func promote(s *dynamo.Matrix, nstates, ndyn int) *dynamo.Matrix {
	switch {
	case s == nil && ndyn == 0:
		return dynamo.NewMatrix(nstates, 0)
	case s == nil:
		return nil
	case s.Rows() == nstates && s.Cols() == ndyn:
		return s
	case ndyn == 1 && s.Rows() == 1 && s.Cols() == nstates:
		return s.T()
	}
	return nil
}

// plainBoundaryJacobian forwards to the user boundary Jacobian with the
// parameter vector split into p and nu.
type plainBoundaryJacobian struct {
	dims
	k  dynamo.State
	fn bvp.BoundaryJacFunc
}

func (c *plainBoundaryJacobian) Eval(ya, yb, params []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
	p, nu := c.splitParams(params)
	return c.fn(ya, yb, p, nu, c.k)
}

type quadBoundaryJacobian struct {
	dims
	k  dynamo.State
	fn bvp.QuadBoundaryJacFunc
}

func (c *quadBoundaryJacobian) Eval(ya, yb, params []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
	yA, qA := c.splitState(ya)
	yB, qB := c.splitState(yb)
	p, nu := c.splitParams(params)
	return c.fn(yA, qA, yB, qB, p, nu, c.k)
}
