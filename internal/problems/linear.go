package problems

import (
	"math"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// Harmonic: y'' = -y, y(0) = 0, y(tf) = 1, so y = sin t / sin tf.
func Harmonic() *Entry {
	return &Entry{
		Name:        "harmonic",
		Description: "y'' = -y with y(0)=0, y(tf)=1",
		Constants:   []Constant{{Name: "tf", Value: math.Pi / 2}},
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], -y[0]}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0], yb[0] - 1}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{0, 1}, []float64{-1, 0}), nil
				}
				p.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{1, 0}, []float64{0, 0}),
						matrix([]float64{0, 0}, []float64{1, 0}),
						dynamo.NewMatrix(2, 0)
				}
			}
			return p
		},
		interval: func(k dynamo.State) (float64, float64) { return 0, k[0] },
		guess: func(t []float64, k dynamo.State) *trajectory.Trajectory {
			y := dynamo.NewMatrix(len(t), 2)
			for i, ti := range t {
				y.Set(i, 0, ti/k[0])
				y.Set(i, 1, 1/k[0])
			}
			return trajectory.New(t, y)
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			return Reference{Quantity: "y'(0)", Got: slope(sol), Want: 1 / math.Sin(sol.K[0]), Tol: 1e-3}
		},
	}
}

// BoundaryLayer: y'' = c^2 y, y(0) = 1, y(1) = 0, so
// y = sinh(c(1-t)) / sinh(c). Large c pushes refinement toward t = 0.
func BoundaryLayer() *Entry {
	return &Entry{
		Name:        "boundary_layer",
		Description: "y'' = c^2 y with y(0)=1, y(1)=0",
		Constants:   []Constant{{Name: "c", Value: 10}},
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], k[0] * k[0] * y[0]}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0] - 1, yb[0]}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{0, 1}, []float64{k[0] * k[0], 0}), nil
				}
				p.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{1, 0}, []float64{0, 0}),
						matrix([]float64{0, 0}, []float64{1, 0}),
						nil
				}
			}
			return p
		},
		interval: unitInterval,
		guess: func(t []float64, k dynamo.State) *trajectory.Trajectory {
			y := dynamo.NewMatrix(len(t), 2)
			for i, ti := range t {
				y.Set(i, 0, 1-ti)
				y.Set(i, 1, -1)
			}
			return trajectory.New(t, y)
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			c := sol.K[0]
			return Reference{Quantity: "y'(0)", Got: slope(sol), Want: -c / math.Tanh(c), Tol: 1e-2 * c}
		},
	}
}

// NonDynamic: y'' = 0, y(0) = 0, y(1) = nu, with nu pinned to the target by
// an extra condition. nu appears only in the boundary conditions.
func NonDynamic() *Entry {
	return &Entry{
		Name:        "nondynamic",
		Description: "y'' = 0 with y(0)=0, y(1)=nu, nu=target",
		Constants:   []Constant{{Name: "target", Value: 2}},
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], 0}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0], yb[0] - nu[0], nu[0] - k[0]}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{0, 1}, []float64{0, 0}), nil
				}
				p.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{1, 0}, []float64{0, 0}, []float64{0, 0}),
						matrix([]float64{0, 0}, []float64{1, 0}, []float64{0, 0}),
						matrix([]float64{0}, []float64{-1}, []float64{1})
				}
			}
			return p
		},
		interval: unitInterval,
		guess: func(t []float64, k dynamo.State) *trajectory.Trajectory {
			g := trajectory.New(t, dynamo.NewMatrix(len(t), 2))
			g.Nu = dynamo.State{0}
			return g
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			return Reference{Quantity: "nu", Got: sol.Nu[0], Want: sol.K[0], Tol: 1e-6}
		},
	}
}
