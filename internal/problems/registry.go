package problems

import (
	"fmt"
	"slices"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/bvp/spbvp"
)

// AlgorithmFunc constructs a solver for one problem.
type AlgorithmFunc func(bvp.Problem, ...bvp.Option) (bvp.Algorithm, error)

type Registry struct {
	problems   map[string]func() *Entry
	algorithms map[string]AlgorithmFunc
}

func NewRegistry() *Registry {
	r := &Registry{
		problems:   make(map[string]func() *Entry),
		algorithms: make(map[string]AlgorithmFunc),
	}

	for _, fn := range []func() *Entry{Harmonic, BoundaryLayer, Eigenvalue, Quadrature, NonDynamic, Bratu} {
		r.problems[fn().Name] = fn
	}

	r.algorithms["spbvp"] = func(p bvp.Problem, opts ...bvp.Option) (bvp.Algorithm, error) {
		return spbvp.New(p, opts...)
	}

	return r
}

func (r *Registry) GetProblem(name string) (*Entry, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return fn(), nil
}

func (r *Registry) GetAlgorithm(name string, p bvp.Problem, opts ...bvp.Option) (bvp.Algorithm, error) {
	fn, ok := r.algorithms[name]
	if !ok {
		return nil, fmt.Errorf("unknown algorithm: %s", name)
	}
	return fn(p, opts...)
}

// ListProblems returns the catalogued names in sorted order.
func (r *Registry) ListProblems() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) ListAlgorithms() []string {
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
