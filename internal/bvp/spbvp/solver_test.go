package spbvp

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/collocation"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// harmonicGuess spans [0, tf] with nodes rows of zeros for nstates states.
func harmonicGuess(tf float64, nodes, nstates int) *trajectory.Trajectory {
	return trajectory.New(trajectory.Linspace(0, tf, nodes), dynamo.NewMatrix(nodes, nstates))
}

func harmonic() bvp.Problem {
	return bvp.Problem{
		Name: "harmonic",
		Derivative: func(y, p, k []float64) []float64 {
			return []float64{y[1], -y[0]}
		},
		// y(0) = 0, y(pi/2) = 1, so y = sin t.
		Boundary: func(ya, yb, p, nu, k []float64) []float64 {
			return []float64{ya[0], yb[0] - 1}
		},
	}
}

func expectSine(sol *trajectory.Trajectory, amplitude, tol float64) {
	for i, t := range sol.T {
		Expect(sol.Y.At(i, 0)).To(BeNumerically("~", amplitude*math.Sin(t), tol))
		Expect(sol.Y.At(i, 1)).To(BeNumerically("~", amplitude*math.Cos(t), tol))
	}
}

var _ = Describe("Solver", func() {
	var solver *Solver

	Describe("New", func() {
		It("rejects max nodes of two or less", func() {
			_, err := New(harmonic(), bvp.WithMaxNodes(2))
			Expect(err).To(MatchError(bvp.ErrMaxNodes))
		})

		It("defaults to 2000 nodes", func() {
			s, err := New(harmonic())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Options().MaxNodes).To(Equal(2000))
			Expect(s.Close()).To(Succeed())
		})
	})

	Context("without quadratures or parameters", func() {
		BeforeEach(func() {
			var err error
			solver, err = New(harmonic())
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches the closed form", func() {
			res, err := solver.Solve(harmonicGuess(math.Pi/2, 10, 2))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Status).To(Equal(collocation.StatusConverged))
			Expect(res.Message).To(Equal(collocation.StatusMessage(collocation.StatusConverged)))

			sol := res.Solution
			expectSine(sol, 1, 1e-3)
			Expect(sol.Converged).To(BeTrue())
			Expect(sol.Q.Rows()).To(Equal(len(sol.T)))
			Expect(sol.Q.Cols()).To(BeZero())
			Expect(sol.P).To(BeEmpty())
			Expect(sol.Nu).To(BeEmpty())
			Expect(sol.Lam.Rows()).To(Equal(sol.Y.Rows()))
			Expect(sol.Lam.Cols()).To(Equal(sol.Y.Cols()))
			Expect(sol.Aux).To(HaveKey(trajectory.AuxCompTime))
			Expect(sol.Aux).To(HaveKeyWithValue(trajectory.AuxNIter, res.NIter))
			Expect(sol.Aux[trajectory.AuxCompTime]).To(BeNumerically(">=", 0))
		})

		It("leaves the guess untouched", func() {
			guess := harmonicGuess(math.Pi/2, 6, 2)
			guess.Y.Set(3, 0, 0.25)
			guess.Lam.Set(2, 1, 4)
			guess.K = dynamo.State{1}
			before := guess.Clone()

			res, err := solver.Solve(guess)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Solution).NotTo(BeIdenticalTo(guess))

			Expect(guess.T).To(Equal(before.T))
			Expect(guess.Y.Equal(before.Y, 0)).To(BeTrue())
			Expect(guess.Q.Equal(before.Q, 0)).To(BeTrue())
			Expect(guess.Lam.Equal(before.Lam, 0)).To(BeTrue())
			Expect(guess.K).To(Equal(before.K))
			Expect(guess.Aux).To(BeEmpty())
			Expect(guess.Converged).To(BeFalse())
		})

		It("zeroes costates", func() {
			guess := harmonicGuess(math.Pi/2, 6, 2)
			guess.Lam.Set(0, 0, 1)
			res, err := solver.Solve(guess)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range res.Solution.Lam.Data() {
				Expect(v).To(BeZero())
			}
		})

		It("is reusable", func() {
			for range 3 {
				res, err := solver.Solve(harmonicGuess(math.Pi/2, 5, 2))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Success).To(BeTrue())
			}
		})
	})

	Context("with quadratures", func() {
		It("integrates the quadrature alongside the states", func() {
			prob := harmonic()
			prob.Boundary = nil
			prob.Quadrature = func(y, p, k []float64) []float64 {
				return []float64{y[0]}
			}
			// q(0) = 0, so q(pi/2) = 1 - cos(pi/2) = 1.
			prob.QuadBoundary = func(ya, qa, yb, qb, p, nu, k []float64) []float64 {
				return []float64{ya[0], yb[0] - 1, qa[0]}
			}
			s, err := New(prob)
			Expect(err).NotTo(HaveOccurred())

			guess := harmonicGuess(math.Pi/2, 10, 2)
			guess.Q = dynamo.NewMatrix(10, 1)
			res, err := s.Solve(guess)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())

			sol := res.Solution
			Expect(sol.Y.Cols()).To(Equal(2))
			Expect(sol.Q.Cols()).To(Equal(1))
			Expect(sol.Q.Rows()).To(Equal(len(sol.T)))
			expectSine(sol, 1, 1e-3)
			for i, t := range sol.T {
				Expect(sol.Q.At(i, 0)).To(BeNumerically("~", 1-math.Cos(t), 1e-3))
			}
		})

		It("requires the quadrature functions", func() {
			s, err := New(harmonic())
			Expect(err).NotTo(HaveOccurred())
			guess := harmonicGuess(1, 4, 2)
			guess.Q = dynamo.NewMatrix(4, 1)
			_, err = s.Solve(guess)
			Expect(err).To(MatchError(bvp.ErrNoQuadrature))

			prob := harmonic()
			prob.Quadrature = func(y, p, k []float64) []float64 { return []float64{0} }
			s, err = New(prob)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Solve(guess)
			Expect(err).To(MatchError(bvp.ErrNoQuadBoundary))
		})
	})

	Context("with parameters", func() {
		// y'' = -p y with y(0) = 0, y'(0) = 1, y(pi) = 0 has p = 1 nearest
		// to the guess.
		eigen := func() bvp.Problem {
			return bvp.Problem{
				Name: "eigen",
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], -p[0] * y[0]}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0], ya[1] - 1, yb[0]}
				},
			}
		}
		eigenGuess := func() *trajectory.Trajectory {
			t := trajectory.Linspace(0, math.Pi, 12)
			y := dynamo.NewMatrix(len(t), 2)
			for i, ti := range t {
				y.Set(i, 0, math.Sin(ti))
				y.Set(i, 1, math.Cos(ti))
			}
			g := trajectory.New(t, y)
			g.P = dynamo.State{0.8}
			return g
		}

		It("recovers a dynamic parameter", func() {
			s, err := New(eigen())
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Solve(eigenGuess())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Solution.P).To(HaveLen(1))
			Expect(res.Solution.P[0]).To(BeNumerically("~", 1, 1e-3))
			Expect(res.Solution.Nu).To(BeEmpty())
		})

		It("agrees with analytic jacobians", func() {
			prob := eigen()
			prob.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
				dfdy, _ := dynamo.FromRows([][]float64{{0, 1}, {-p[0], 0}})
				// single dynamic parameter, returned as a row
				dfdp, _ := dynamo.FromRows([][]float64{{0, -y[0]}})
				return dfdy, dfdp
			}
			prob.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
				dya, _ := dynamo.FromRows([][]float64{{1, 0}, {0, 1}, {0, 0}})
				dyb, _ := dynamo.FromRows([][]float64{{0, 0}, {0, 0}, {1, 0}})
				return dya, dyb, dynamo.NewMatrix(3, 1)
			}
			s, err := New(prob)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Solve(eigenGuess())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Solution.P[0]).To(BeNumerically("~", 1, 1e-3))
		})

		It("keeps non-dynamic parameters out of the dynamics", func() {
			prob := harmonic()
			prob.Derivative = func(y, p, k []float64) []float64 {
				Expect(p).To(BeEmpty())
				return []float64{y[1], -y[0]}
			}
			// y(pi/2) = nu and nu = 2, so y = 2 sin t.
			prob.Boundary = func(ya, yb, p, nu, k []float64) []float64 {
				return []float64{ya[0], yb[0] - nu[0], nu[0] - 2}
			}
			s, err := New(prob)
			Expect(err).NotTo(HaveOccurred())

			guess := harmonicGuess(math.Pi/2, 8, 2)
			guess.Nu = dynamo.State{0.5}
			res, err := s.Solve(guess)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Solution.P).To(BeEmpty())
			Expect(res.Solution.Nu).To(HaveLen(1))
			Expect(res.Solution.Nu[0]).To(BeNumerically("~", 2, 1e-4))
			expectSine(res.Solution, 2, 2e-3)
		})
	})

	Context("when the engine gives up", func() {
		It("reports a node budget overrun without an error", func() {
			prob := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					return []float64{y[1], 100 * y[0]}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 {
					return []float64{ya[0] - 1, yb[0]}
				},
			}
			s, err := New(prob, bvp.WithMaxNodes(3))
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Solve(harmonicGuess(1, 2, 2))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.Status).To(Equal(collocation.StatusMaxNodes))
			Expect(res.Message).To(Equal(collocation.StatusMessage(collocation.StatusMaxNodes)))
			Expect(res.Solution.Converged).To(BeFalse())
		})
	})

	Context("with unusable input", func() {
		BeforeEach(func() {
			var err error
			solver, err = New(harmonic())
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a nil guess", func() {
			_, err := solver.Solve(nil)
			Expect(err).To(MatchError(bvp.ErrNilGuess))
		})

		It("rejects a malformed guess", func() {
			guess := harmonicGuess(1, 4, 2)
			guess.T = []float64{0, 1, 1, 2}
			_, err := solver.Solve(guess)
			Expect(err).To(MatchError(trajectory.ErrNotOrdered))
		})

		It("requires derivative and boundary functions", func() {
			s, err := New(bvp.Problem{})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Solve(harmonicGuess(1, 4, 2))
			Expect(err).To(MatchError(bvp.ErrNoDerivative))

			s, err = New(bvp.Problem{Derivative: harmonic().Derivative})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Solve(harmonicGuess(1, 4, 2))
			Expect(err).To(MatchError(bvp.ErrNoBoundary))
		})

		It("surfaces wrongly shaped functions as errors", func() {
			prob := harmonic()
			prob.Derivative = func(y, p, k []float64) []float64 { return []float64{0} }
			s, err := New(prob)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Solve(harmonicGuess(1, 4, 2))
			Expect(err).To(MatchError(collocation.ErrFieldShape))
		})
	})
})
