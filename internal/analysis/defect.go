package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/integrators"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

var ErrNoDynamics = errors.New("analysis: problem has no derivative function")

// nodeSystem is the stacked [y, q] dynamics of a problem with parameters and
// constants frozen.
type nodeSystem struct {
	derivative bvp.DerivativeFunc
	quadrature bvp.QuadratureFunc
	nstates    int
	nquads     int
	p, k       dynamo.State
}

func (s *nodeSystem) Derive(x dynamo.State, t float64) dynamo.State {
	y := x.Segment(0, s.nstates)
	dy := dynamo.State(s.derivative(y, s.p, s.k))
	if s.nquads == 0 {
		return dy
	}
	return dynamo.Concat(dy, s.quadrature(y, s.p, s.k))
}

// DefectReport holds the per-interval propagation mismatch.
type DefectReport struct {
	Intervals []float64
	Max       float64
	// Worst is the index of the interval with the largest defect.
	Worst int
}

type defectConfig struct {
	fixedSteps int
}

type DefectOption func(*defectConfig)

// WithFixedSteps propagates each interval with n classic RK4 steps instead
// of adaptive RK45. tol is ignored then.
func WithFixedSteps(n int) DefectOption {
	return func(c *defectConfig) { c.fixedSteps = n }
}

// Defect integrates each interval [t_i, t_i+1] of sol with RK45 starting from
// node i and records the infinity norm of the difference to node i+1.
func Defect(prob bvp.Problem, sol *trajectory.Trajectory, tol float64, opts ...DefectOption) (*DefectReport, error) {
	var cfg defectConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if prob.Derivative == nil {
		return nil, ErrNoDynamics
	}
	if err := sol.Validate(); err != nil {
		return nil, err
	}
	sys := &nodeSystem{
		derivative: prob.Derivative,
		quadrature: prob.Quadrature,
		nstates:    sol.NumStates(),
		nquads:     sol.NumQuads(),
		p:          sol.P,
		k:          sol.K,
	}
	if sys.nquads > 0 && sys.quadrature == nil {
		return nil, bvp.ErrNoQuadrature
	}

	nodes := sol.Y
	if sys.nquads > 0 {
		var err error
		if nodes, err = sol.Y.HStack(sol.Q); err != nil {
			return nil, err
		}
	}

	propagate := integrators.NewRK45().Integrate
	if cfg.fixedSteps > 0 {
		rk4 := integrators.NewRK4()
		propagate = func(dyn dynamo.System, x0 dynamo.State, t0, t1, _ float64) (dynamo.State, error) {
			x := rk4.Integrate(dyn, x0, t0, t1, cfg.fixedSteps)
			if !x.IsValid() {
				return x, fmt.Errorf("%w at t=%g", dynamo.ErrInvalidState, t1)
			}
			return x, nil
		}
	}

	rep := &DefectReport{Intervals: make([]float64, len(sol.T)-1)}
	for i := range rep.Intervals {
		x, err := propagate(sys, nodes.Row(i), sol.T[i], sol.T[i+1], tol)
		if err != nil {
			return nil, fmt.Errorf("analysis: interval %d: %w", i, err)
		}
		d := 0.0
		for j, v := range nodes.RowView(i + 1) {
			d = math.Max(d, math.Abs(x[j]-v))
		}
		rep.Intervals[i] = d
		if d > rep.Max {
			rep.Max, rep.Worst = d, i
		}
	}
	return rep, nil
}
