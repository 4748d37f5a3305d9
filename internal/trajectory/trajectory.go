// Package trajectory holds the solution record exchanged with BVP solvers:
// a mesh, the state, quadrature and costate histories on it, and the
// parameter and constant vectors that go with them.
package trajectory

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/bvpsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyMesh  = errors.New("trajectory: mesh is empty")
	ErrShape      = errors.New("trajectory: inconsistent shape")
	ErrNilStates  = errors.New("trajectory: state matrix is nil")
	ErrNotOrdered = errors.New("trajectory: mesh is not strictly increasing")
)

// Aux keys written by solvers.
const (
	AuxCompTime = "comp_time"
	AuxNIter    = "niter"
)

// Trajectory is both the initial guess handed to a solver and the solution it
// returns. Matrices hold one row per mesh node.
type Trajectory struct {
	T   []float64
	Y   *dynamo.Matrix
	Q   *dynamo.Matrix
	P   dynamo.State
	Nu  dynamo.State
	K   dynamo.State
	Lam *dynamo.Matrix

	// Aux carries solver metadata. Clone copies slices, matrices and maps
	// stored here; other reference types are shared.
	Aux       map[string]any
	Converged bool
}

// New builds a trajectory from a mesh and node-major state rows. Quadratures
// start empty and costates start at zero.
func New(t []float64, y *dynamo.Matrix) *Trajectory {
	return &Trajectory{
		T:   append([]float64(nil), t...),
		Y:   y,
		Q:   dynamo.NewMatrix(y.Rows(), 0),
		P:   dynamo.State{},
		Nu:  dynamo.State{},
		K:   dynamo.State{},
		Lam: dynamo.ZerosLike(y),
		Aux: make(map[string]any),
	}
}

func (tr *Trajectory) NumNodes() int { return len(tr.T) }

// NumStates is the column count of Y.
func (tr *Trajectory) NumStates() int {
	if tr.Y == nil {
		return 0
	}
	return tr.Y.Cols()
}

// NumQuads is the column count of Q, zero when Q is absent or empty.
func (tr *Trajectory) NumQuads() int {
	if tr.Q == nil || tr.Q.Rows() == 0 {
		return 0
	}
	return tr.Q.Cols()
}

// Clone returns a deep copy. Aux values are copied shallowly; solvers only
// store scalars there.
func (tr *Trajectory) Clone() *Trajectory {
	if tr == nil {
		return nil
	}
	c := &Trajectory{
		T:         append([]float64(nil), tr.T...),
		Y:         tr.Y.Clone(),
		Q:         tr.Q.Clone(),
		P:         tr.P.Clone(),
		Nu:        tr.Nu.Clone(),
		K:         tr.K.Clone(),
		Lam:       tr.Lam.Clone(),
		Converged: tr.Converged,
	}
	c.Aux = cloneAux(tr.Aux)
	return c
}

// cloneAux copies aux deeply for the value kinds solvers and callers store:
// float slices, states, matrices, nested maps and slices of those. Other
// values are copied as is.
func cloneAux(aux map[string]any) map[string]any {
	out := make(map[string]any, len(aux))
	for k, v := range aux {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []float64:
		return slices.Clone(v)
	case dynamo.State:
		return v.Clone()
	case []int:
		return slices.Clone(v)
	case []string:
		return slices.Clone(v)
	case *dynamo.Matrix:
		return v.Clone()
	case map[string]float64:
		return maps.Clone(v)
	case map[string]any:
		return cloneAux(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// Validate checks the shape invariants a solver relies on.
func (tr *Trajectory) Validate() error {
	if len(tr.T) == 0 {
		return ErrEmptyMesh
	}
	if tr.Y == nil {
		return ErrNilStates
	}
	m := len(tr.T)
	if tr.Y.Rows() != m {
		return fmt.Errorf("%w: y has %d rows for %d nodes", ErrShape, tr.Y.Rows(), m)
	}
	if tr.Q != nil && tr.Q.Cols() > 0 && tr.Q.Rows() != m {
		return fmt.Errorf("%w: q has %d rows for %d nodes", ErrShape, tr.Q.Rows(), m)
	}
	if tr.Lam != nil && tr.Lam.Rows() > 0 {
		if tr.Lam.Rows() != m {
			return fmt.Errorf("%w: lam has %d rows for %d nodes", ErrShape, tr.Lam.Rows(), m)
		}
	}
	for i := 1; i < m; i++ {
		if tr.T[i] <= tr.T[i-1] {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrNotOrdered, i, tr.T[i], i-1, tr.T[i-1])
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [a, b].
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{a}
	}
	return floats.Span(make([]float64, n), a, b)
}
