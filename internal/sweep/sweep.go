// Package sweep solves one catalogued problem for a list of values of a
// single constant. Every value is an independent solve; solves run
// concurrently on a shared, stateless algorithm.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/problems"
)

var ErrNoValues = errors.New("sweep: no values to sweep")

// Point is the outcome for one constant value.
type Point struct {
	Value  float64
	Result *bvp.Result
	Ref    problems.Reference
}

type Sweep struct {
	entry    *problems.Entry
	alg      bvp.Algorithm
	constant string
	nodes    int
	workers  int
}

type Option func(*Sweep)

// WithWorkers bounds the number of concurrent solves.
func WithWorkers(n int) Option {
	return func(s *Sweep) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithNodes sets the initial mesh size of each guess.
func WithNodes(n int) Option {
	return func(s *Sweep) { s.nodes = n }
}

// New sweeps constant of entry using alg for every solve.
func New(entry *problems.Entry, alg bvp.Algorithm, constant string, opts ...Option) (*Sweep, error) {
	if _, err := entry.ConstantVector(map[string]float64{constant: 0}); err != nil {
		return nil, err
	}
	s := &Sweep{
		entry:    entry,
		alg:      alg,
		constant: constant,
		nodes:    11,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run solves for every value. base overrides the remaining constants. The
// first solve that fails with an error cancels the rest; non-convergence is
// recorded in the point, not returned.
func (s *Sweep) Run(ctx context.Context, values []float64, base map[string]float64) ([]Point, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	points := make([]Point, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, v := range values {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			overrides := maps.Clone(base)
			if overrides == nil {
				overrides = make(map[string]float64, 1)
			}
			overrides[s.constant] = v

			k, err := s.entry.ConstantVector(overrides)
			if err != nil {
				return err
			}
			guess, err := s.entry.Guess(s.nodes, k)
			if err != nil {
				return err
			}
			res, err := s.alg.Solve(guess)
			if err != nil {
				return fmt.Errorf("sweep: %s=%g: %w", s.constant, v, err)
			}

			points[i] = Point{Value: v, Result: res, Ref: s.entry.Check(res.Solution)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
