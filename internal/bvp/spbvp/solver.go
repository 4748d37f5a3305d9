package spbvp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/collocation"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// Solver runs single-phase boundary value problems through collocation.
// It holds no per-solve state and may be shared across goroutines.
type Solver struct {
	problem bvp.Problem
	opts    bvp.Options
	log     *slog.Logger
}

var _ bvp.Algorithm = (*Solver)(nil)

// New returns a Solver for problem. The problem's functions are checked at
// Solve time, once the shape of the guess is known.
func New(problem bvp.Problem, opts ...bvp.Option) (*Solver, error) {
	o, err := bvp.Apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Solver{
		problem: problem,
		opts:    o,
		log:     o.Logger.With("algorithm", "spbvp", "problem", problem.Name),
	}, nil
}

// Options returns the resolved construction options.
func (s *Solver) Options() bvp.Options { return s.opts }

// Solve refines guess into a solution. guess is never modified.
//
// An error is returned only for unusable input: a malformed guess, a missing
// function, or a function whose output has the wrong shape. Failure to
// converge is reported through Result.Success and Result.Message.
func (s *Solver) Solve(guess *trajectory.Trajectory) (*bvp.Result, error) {
	if guess == nil {
		return nil, bvp.ErrNilGuess
	}
	if err := guess.Validate(); err != nil {
		return nil, fmt.Errorf("spbvp: %w", err)
	}

	sol := guess.Clone()
	d := splitDimensions(sol)
	prob, err := checkProblem(s.problem, d)
	if err != nil {
		return nil, err
	}
	cs := buildClosures(d, prob, sol.K)

	y0 := sol.Y
	if d.nquads > 0 {
		if y0, err = sol.Y.HStack(sol.Q); err != nil {
			return nil, fmt.Errorf("spbvp: stacking quadratures: %w", err)
		}
	}
	params := dynamo.Concat(sol.P, sol.Nu)

	s.log.Debug("solving",
		"mode", cs.mode,
		"nodes", len(sol.T),
		"nstates", d.nstates,
		"nquads", d.nquads,
		"ndyn", d.ndyn,
		"nnondyn", d.nnondyn,
	)

	start := time.Now()
	out, err := collocation.Solve(cs.problem(), sol.T, y0.T(), params, collocation.Options{
		MaxNodes: s.opts.MaxNodes,
		Tol:      s.opts.Tol,
		BCTol:    s.opts.BCTol,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("spbvp: %w", err)
	}

	res := s.compose(sol, out, d, elapsed)
	s.log.Info("solve finished",
		"success", res.Success,
		"status", res.Status,
		"niter", res.NIter,
		"nodes", len(out.X),
		"elapsed", elapsed,
	)
	return res, nil
}

// Close releases nothing; Solver owns no resources.
func (s *Solver) Close() error { return nil }

// checkProblem makes sure the functions the calling convention needs are
// present and fills in the empty quadrature when the guess has none.
func checkProblem(prob bvp.Problem, d dims) (bvp.Problem, error) {
	if prob.Derivative == nil {
		return prob, bvp.ErrNoDerivative
	}
	if d.nquads > 0 {
		if prob.Quadrature == nil {
			return prob, bvp.ErrNoQuadrature
		}
		if prob.QuadBoundary == nil {
			return prob, bvp.ErrNoQuadBoundary
		}
		return prob, nil
	}
	if prob.Boundary == nil {
		return prob, bvp.ErrNoBoundary
	}
	prob.Quadrature = noQuadrature
	return prob, nil
}
