package problems

import (
	"math"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// Eigenvalue: y'' + lambda^2 y = 0, y(0) = y(1) = 0, y'(0) = lambda. lambda
// is a dynamic parameter, started from lambda0. The eigenvalues are n pi.
func Eigenvalue() *Entry {
	return &Entry{
		Name:        "eigenvalue",
		Description: "y'' + lambda^2 y = 0 with y(0)=y(1)=0, y'(0)=lambda",
		Constants:   []Constant{{Name: "lambda0", Value: 3}},
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], -p[0] * p[0] * y[0]}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0], yb[0], ya[1] - p[0]}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					dfdy := matrix([]float64{0, 1}, []float64{-p[0] * p[0], 0})
					// one dynamic parameter, returned row-shaped
					dfdp := matrix([]float64{0, -2 * p[0] * y[0]})
					return dfdy, dfdp
				}
				p.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{1, 0}, []float64{0, 0}, []float64{0, 1}),
						matrix([]float64{0, 0}, []float64{1, 0}, []float64{0, 0}),
						matrix([]float64{0}, []float64{0}, []float64{-1})
				}
			}
			return p
		},
		interval: unitInterval,
		guess: func(t []float64, k dynamo.State) *trajectory.Trajectory {
			l := k[0]
			y := dynamo.NewMatrix(len(t), 2)
			for i, ti := range t {
				y.Set(i, 0, math.Sin(l*ti))
				y.Set(i, 1, l*math.Cos(l*ti))
			}
			g := trajectory.New(t, y)
			g.P = dynamo.State{l}
			return g
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			// the eigenvalue nearest the starting guess
			want := math.Pi * math.Max(1, math.Round(sol.K[0]/math.Pi))
			return Reference{Quantity: "lambda", Got: sol.P[0], Want: want, Tol: 1e-3}
		},
	}
}

// Quadrature: the harmonic problem on [0, pi/2] carrying q' = y^2 with
// q(0) = 0, so q(pi/2) = pi/4.
func Quadrature() *Entry {
	return &Entry{
		Name:        "quadrature",
		Description: "y'' = -y with y(0)=0, y(pi/2)=1 and q = integral of y^2",
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], -y[0]}
				},
				Quadrature: func(y, p, k []float64) []float64 {
					return []float64{y[0] * y[0]}
				},
				QuadBoundary: func(ya, qa, yb, qb, p, nu, k []float64) []float64 {
					return []float64{ya[0], yb[0] - 1, qa[0]}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{0, 1}, []float64{-1, 0}), nil
				}
				p.QuadBoundaryJac = func(ya, qa, yb, qb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{1, 0, 0}, []float64{0, 0, 0}, []float64{0, 0, 1}),
						matrix([]float64{0, 0, 0}, []float64{1, 0, 0}, []float64{0, 0, 0}),
						nil
				}
			}
			return p
		},
		interval: func(dynamo.State) (float64, float64) { return 0, math.Pi / 2 },
		guess: func(t []float64, k dynamo.State) *trajectory.Trajectory {
			g := trajectory.New(t, dynamo.NewMatrix(len(t), 2))
			g.Q = dynamo.NewMatrix(len(t), 1)
			return g
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			last := sol.Q.Rows() - 1
			return Reference{Quantity: "q(pi/2)", Got: sol.Q.At(last, 0), Want: math.Pi / 4, Tol: 1e-3}
		},
	}
}

// Bratu: y'' + lambda e^y = 0, y(0) = y(1) = 0. From a zero guess the lower
// branch is found; for lambda = 1 its slope y'(0) is 0.5493.
func Bratu() *Entry {
	return &Entry{
		Name:        "bratu",
		Description: "y'' + lambda exp(y) = 0 with y(0)=y(1)=0",
		Constants:   []Constant{{Name: "lambda", Value: 1}},
		build: func(analytic bool) bvp.Problem {
			p := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], -k[0] * math.Exp(y[0])}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0], yb[0]}
				},
			}
			if analytic {
				p.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
					return matrix([]float64{0, 1}, []float64{-k[0] * math.Exp(y[0]), 0}), nil
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
			return trajectory.New(t, dynamo.NewMatrix(len(t), 2))
		},
		reference: func(sol *trajectory.Trajectory) Reference {
			want := bratuLowerSlope(sol.K[0])
			return Reference{Quantity: "y'(0)", Got: slope(sol), Want: want, Tol: 1e-3 * math.Max(1, math.Abs(want))}
		},
	}
}

// bratuLowerSlope is y'(0) on the lower solution branch,
// y = -2 ln(cosh((t-1/2) theta/2) / cosh(theta/4)) with
// theta = sqrt(2 lambda) cosh(theta/4). Newton from zero climbs to the
// smaller root. Past the fold (lambda ~ 3.5138) there is none and the
// result is NaN.
func bratuLowerSlope(lambda float64) float64 {
	if lambda < 0 {
		return math.NaN()
	}
	a := math.Sqrt(2 * lambda)
	theta := 0.0
	for range 100 {
		g := theta - a*math.Cosh(theta/4)
		dg := 1 - a/4*math.Sinh(theta/4)
		if dg <= 0 {
			return math.NaN()
		}
		step := g / dg
		theta -= step
		if math.Abs(step) < 1e-14 {
			break
		}
	}
	return theta * math.Tanh(theta/4)
}
