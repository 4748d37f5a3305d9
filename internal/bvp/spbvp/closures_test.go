package spbvp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
)

func engineStates(rows ...[]float64) *dynamo.Matrix {
	m, err := dynamo.FromRows(rows)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("closures", func() {
	derivative := func(y, p, k []float64) []float64 {
		return []float64{y[1], -y[0]}
	}

	Describe("selectMode", func() {
		It("picks the convention from quadratures and jacobians", func() {
			plain := bvp.Problem{Derivative: derivative}
			Expect(selectMode(dims{nstates: 2}, plain)).To(Equal(modePlain))
			Expect(selectMode(dims{nstates: 2, nquads: 1}, plain)).To(Equal(modeQuad))

			withJac := plain
			withJac.BoundaryJac = func(ya, yb, p, nu, k []float64) (*dynamo.Matrix, *dynamo.Matrix, *dynamo.Matrix) {
				return nil, nil, nil
			}
			Expect(selectMode(dims{nstates: 2}, withJac)).To(Equal(modePlainJac))
			// A plain boundary jacobian is meaningless once quadratures exist.
			Expect(selectMode(dims{nstates: 2, nquads: 1}, withJac)).To(Equal(modeQuad))

			withJac.DerivativeJac = func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) { return nil, nil }
			Expect(selectMode(dims{nstates: 2, nquads: 1}, withJac)).To(Equal(modeQuadJac))
		})
	})

	Describe("dynamics", func() {
		It("stacks the quadrature integrand under the derivative", func() {
			d := dims{nstates: 2, nquads: 1, ndyn: 1, nnondyn: 1}
			var seenP [][]float64
			prob := bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					seenP = append(seenP, append([]float64(nil), p...))
					return []float64{y[1], -p[0] * y[0]}
				},
				Quadrature: func(y, p, k []float64) []float64 {
					return []float64{y[0] * y[0]}
				},
				QuadBoundary: func(ya, qa, yb, qb, p, nu, k []float64) []float64 { return nil },
			}
			cs := buildClosures(d, prob, nil)
			Expect(cs.mode).To(Equal(modeQuad))

			// engine layout: rows are [y0, y1, q0], columns are nodes
			y := engineStates(
				[]float64{1, 2, 3},
				[]float64{4, 5, 6},
				[]float64{7, 8, 9},
			)
			f := cs.field.Eval([]float64{0, 1, 2}, y, []float64{2, 99})
			Expect(f).NotTo(BeNil())
			Expect(f.Rows()).To(Equal(3))
			Expect(f.Cols()).To(Equal(3))
			for j := 0; j < 3; j++ {
				Expect(f.At(0, j)).To(Equal(y.At(1, j)))
				Expect(f.At(1, j)).To(Equal(-2 * y.At(0, j)))
				Expect(f.At(2, j)).To(Equal(y.At(0, j) * y.At(0, j)))
			}
			for _, p := range seenP {
				Expect(p).To(Equal([]float64{2}))
			}
		})

		It("never calls the quadrature function without quadratures", func() {
			d := dims{nstates: 2}
			prob := bvp.Problem{
				Derivative: derivative,
				Quadrature: func(y, p, k []float64) []float64 {
					Fail("quadrature called")
					return nil
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 { return nil },
			}
			cs := buildClosures(d, prob, nil)
			y := engineStates([]float64{1, 2}, []float64{3, 4})
			f := cs.field.Eval([]float64{0, 1}, y, nil)
			Expect(f.Rows()).To(Equal(2))
			Expect(f.At(0, 1)).To(Equal(4.0))
			Expect(f.At(1, 1)).To(Equal(-2.0))
		})

		It("signals a wrongly sized derivative with nil", func() {
			cs := buildClosures(dims{nstates: 2}, bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 { return []float64{1} },
				Boundary:   func(ya, yb, p, nu, k []float64) []float64 { return nil },
			}, nil)
			Expect(cs.field.Eval([]float64{0}, engineStates([]float64{1}, []float64{2}), nil)).To(BeNil())
		})

		It("passes constants through", func() {
			var got []float64
			cs := buildClosures(dims{nstates: 1}, bvp.Problem{
				Derivative: func(y, p, k []float64) []float64 {
					got = k
					return []float64{0}
				},
				Boundary: func(ya, yb, p, nu, k []float64) []float64 { return nil },
			}, dynamo.State{3, 4})
			cs.field.Eval([]float64{0}, engineStates([]float64{1}), nil)
			Expect(got).To(Equal(dynamo.State{3, 4}))
		})
	})

	Describe("boundary conditions", func() {
		It("splits the parameter vector into p and nu", func() {
			d := dims{nstates: 1, ndyn: 2, nnondyn: 1}
			var p, nu []float64
			cs := buildClosures(d, bvp.Problem{
				Derivative: derivative,
				Boundary: func(ya, yb, pp, nn, k []float64) []float64 {
					p, nu = pp, nn
					return []float64{ya[0], yb[0]}
				},
			}, nil)
			r := cs.boundary.Eval([]float64{1}, []float64{2}, []float64{10, 20, 30})
			Expect(r).To(Equal([]float64{1, 2}))
			Expect(p).To(Equal([]float64{10, 20}))
			Expect(nu).To(Equal([]float64{30}))
		})

		It("hands empty, non-nil classes when there are no parameters", func() {
			var p, nu []float64
			cs := buildClosures(dims{nstates: 1}, bvp.Problem{
				Derivative: derivative,
				Boundary: func(ya, yb, pp, nn, k []float64) []float64 {
					p, nu = pp, nn
					return nil
				},
			}, nil)
			cs.boundary.Eval([]float64{1}, []float64{2}, nil)
			Expect(p).NotTo(BeNil())
			Expect(p).To(BeEmpty())
			Expect(nu).NotTo(BeNil())
			Expect(nu).To(BeEmpty())
		})

		It("splits boundary vectors into states and quadratures", func() {
			d := dims{nstates: 2, nquads: 1}
			var ya, qa, yb, qb []float64
			cs := buildClosures(d, bvp.Problem{
				Derivative: derivative,
				Quadrature: func(y, p, k []float64) []float64 { return []float64{0} },
				QuadBoundary: func(a, qA, b, qB, p, nu, k []float64) []float64 {
					ya, qa, yb, qb = a, qA, b, qB
					return nil
				},
			}, nil)
			cs.boundary.Eval([]float64{1, 2, 3}, []float64{4, 5, 6}, nil)
			Expect(ya).To(Equal([]float64{1, 2}))
			Expect(qa).To(Equal([]float64{3}))
			Expect(yb).To(Equal([]float64{4, 5}))
			Expect(qb).To(Equal([]float64{6}))
		})
	})

	Describe("field jacobian", func() {
		jac := func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
			dfdy, _ := dynamo.FromRows([][]float64{{0, 1}, {-1, 0}})
			var dfdp *dynamo.Matrix
			if len(p) > 0 {
				dfdp, _ = dynamo.FromRows([][]float64{{0}, {-y[0]}})
			}
			return dfdy, dfdp
		}
		y := func() *dynamo.Matrix { return engineStates([]float64{1, 2}, []float64{3, 4}) }

		It("omits df/dp when there are no parameters", func() {
			fj := &fieldJacobian{dims: dims{nstates: 2}, jac: jac}
			dfdy, dfdp := fj.Eval([]float64{0, 1}, y(), nil)
			Expect(dfdp).To(BeNil())
			r, c, n := dfdy.Dims()
			Expect([]int{r, c, n}).To(Equal([]int{2, 2, 2}))
			Expect(dfdy.At(1, 0, 1)).To(Equal(-1.0))
		})

		It("pads non-dynamic parameter columns with zeros", func() {
			fj := &fieldJacobian{dims: dims{nstates: 2, ndyn: 1, nnondyn: 2}, jac: jac}
			_, dfdp := fj.Eval([]float64{0, 1}, y(), []float64{1, 5, 6})
			r, c, n := dfdp.Dims()
			Expect([]int{r, c, n}).To(Equal([]int{2, 3, 2}))
			Expect(dfdp.At(1, 0, 0)).To(Equal(-1.0))
			Expect(dfdp.At(1, 0, 1)).To(Equal(-2.0))
			for node := 0; node < n; node++ {
				for row := 0; row < r; row++ {
					Expect(dfdp.At(row, 1, node)).To(BeZero())
					Expect(dfdp.At(row, 2, node)).To(BeZero())
				}
			}
		})

		It("gives all-zero df/dp when only non-dynamic parameters exist", func() {
			fj := &fieldJacobian{dims: dims{nstates: 2, nnondyn: 1}, jac: jac}
			_, dfdp := fj.Eval([]float64{0, 1}, y(), []float64{7})
			Expect(dfdp).NotTo(BeNil())
			for _, v := range dfdp.BlockView(0) {
				Expect(v).To(BeZero())
			}
		})

		It("promotes a row-shaped single parameter sensitivity", func() {
			row := func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
				dfdy, _ := dynamo.FromRows([][]float64{{0, 1}, {-p[0], 0}})
				dfdp, _ := dynamo.FromRows([][]float64{{0, -y[0]}})
				return dfdy, dfdp
			}
			fj := &fieldJacobian{dims: dims{nstates: 2, ndyn: 1}, jac: row}
			_, dfdp := fj.Eval([]float64{0, 1}, y(), []float64{3})
			Expect(dfdp.At(0, 0, 0)).To(BeZero())
			Expect(dfdp.At(1, 0, 0)).To(Equal(-1.0))
		})

		It("differences quadrature rows", func() {
			fj := &fieldJacobian{
				dims: dims{nstates: 2, nquads: 1, ndyn: 1},
				jac:  jac,
				quadrature: func(y, p, k []float64) []float64 {
					return []float64{3*y[0] + p[0]*y[1]}
				},
			}
			dfdy, dfdp := fj.Eval([]float64{0, 1}, engineStates(
				[]float64{1, 2},
				[]float64{3, 4},
				[]float64{0, 0},
			), []float64{2})
			r, c, _ := dfdy.Dims()
			Expect(r).To(Equal(3))
			Expect(c).To(Equal(3))
			Expect(dfdy.At(2, 0, 0)).To(BeNumerically("~", 3, 1e-6))
			Expect(dfdy.At(2, 1, 0)).To(BeNumerically("~", 2, 1e-6))
			Expect(dfdy.At(2, 2, 0)).To(BeZero())
			Expect(dfdp.At(2, 0, 1)).To(BeNumerically("~", 4, 1e-6))
		})

		It("signals an unusable shape with nil", func() {
			bad := func(y, p, k []float64) (*dynamo.Matrix, *dynamo.Matrix) {
				return dynamo.NewMatrix(2, 2), dynamo.NewMatrix(3, 3)
			}
			fj := &fieldJacobian{dims: dims{nstates: 2, ndyn: 1}, jac: bad}
			dfdy, dfdp := fj.Eval([]float64{0, 1}, y(), []float64{1})
			Expect(dfdy).To(BeNil())
			Expect(dfdp).To(BeNil())
		})
	})

	Describe("promote", func() {
		It("accepts the canonical shape as is", func() {
			m := dynamo.NewMatrix(3, 2)
			Expect(promote(m, 3, 2)).To(BeIdenticalTo(m))
		})

		It("treats a missing sensitivity as empty without dynamic parameters", func() {
			m := promote(nil, 3, 0)
			Expect(m.Rows()).To(Equal(3))
			Expect(m.Cols()).To(BeZero())
		})

		It("rejects a missing sensitivity with dynamic parameters", func() {
			Expect(promote(nil, 3, 1)).To(BeNil())
		})
	})
})
