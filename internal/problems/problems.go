// Package problems is a catalog of boundary value problems with known
// answers. Each entry builds the problem functions, with or without analytic
// Jacobians, and an initial guess on a uniform mesh.
package problems

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

var (
	ErrUnknownProblem  = errors.New("problems: unknown problem")
	ErrUnknownConstant = errors.New("problems: unknown constant")
	ErrTooFewNodes     = errors.New("problems: guess needs at least 2 nodes")
)

// Constant is a named entry of the constant vector k.
type Constant struct {
	Name  string
	Value float64
}

// Reference is a scalar that a correct solution must reproduce.
type Reference struct {
	Quantity string
	Got      float64
	Want     float64
	Tol      float64
}

// OK reports whether Got is within Tol of Want.
func (r Reference) OK() bool {
	return math.Abs(r.Got-r.Want) <= r.Tol
}

// Entry describes one catalogued problem.
type Entry struct {
	Name        string
	Description string
	// Constants are in k order with their default values.
	Constants []Constant

	build     func(analytic bool) bvp.Problem
	guess     func(t []float64, k dynamo.State) *trajectory.Trajectory
	interval  func(k dynamo.State) (t0, t1 float64)
	reference func(sol *trajectory.Trajectory) Reference
}

// Problem returns the problem functions. analytic attaches the Jacobians.
func (e *Entry) Problem(analytic bool) bvp.Problem {
	p := e.build(analytic)
	p.Name = e.Name
	return p
}

// ConstantVector returns k with overrides applied by name.
func (e *Entry) ConstantVector(overrides map[string]float64) (dynamo.State, error) {
	k := make(dynamo.State, len(e.Constants))
	index := make(map[string]int, len(e.Constants))
	for i, c := range e.Constants {
		k[i] = c.Value
		index[c.Name] = i
	}
	for name, v := range overrides {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownConstant, name, e.Name)
		}
		k[i] = v
	}
	return k, nil
}

// Guess builds the initial guess on nodes uniform points.
func (e *Entry) Guess(nodes int, k dynamo.State) (*trajectory.Trajectory, error) {
	if nodes < 2 {
		return nil, ErrTooFewNodes
	}
	t0, t1 := e.interval(k)
	g := e.guess(trajectory.Linspace(t0, t1, nodes), k)
	g.K = k.Clone()
	return g, nil
}

// Check evaluates the entry's reference quantity on a solution.
func (e *Entry) Check(sol *trajectory.Trajectory) Reference {
	return e.reference(sol)
}

func unitInterval(dynamo.State) (float64, float64) { return 0, 1 }

// slope is y'(t0) read from the second state column.
func slope(sol *trajectory.Trajectory) float64 {
	return sol.Y.At(0, 1)
}

func matrix(rows ...[]float64) *dynamo.Matrix {
	m, err := dynamo.FromRows(rows)
	if err != nil {
		panic(err)
	}
	return m
}
