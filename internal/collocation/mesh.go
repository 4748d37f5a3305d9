package collocation

import (
	"math"
	"slices"
	"sort"

	"github.com/san-kum/bvpsim/internal/dynamo"
)

// hermite is the piecewise cubic through the nodes with slopes f. On interval
// i, with s = x - x[i]:
//
//	y(x) = c0 s^3 + c1 s^2 + c2 s + c3
type hermite struct {
	x              []float64
	c0, c1, c2, c3 *dynamo.Matrix // n x m-1
}

func newHermite(y, yp *dynamo.Matrix, x, h []float64) *hermite {
	n, m := y.Rows(), y.Cols()
	sp := &hermite{
		x:  x,
		c0: dynamo.NewMatrix(n, m-1),
		c1: dynamo.NewMatrix(n, m-1),
		c2: dynamo.NewMatrix(n, m-1),
		c3: dynamo.NewMatrix(n, m-1),
	}
	for v := 0; v < n; v++ {
		for i := 0; i < m-1; i++ {
			slope := (y.At(v, i+1) - y.At(v, i)) / h[i]
			t := (yp.At(v, i) + yp.At(v, i+1) - 2*slope) / h[i]
			sp.c0.Set(v, i, t/h[i])
			sp.c1.Set(v, i, (slope-yp.At(v, i))/h[i]-t)
			sp.c2.Set(v, i, yp.At(v, i))
			sp.c3.Set(v, i, y.At(v, i))
		}
	}
	return sp
}

// interval returns i with x[i] <= xq < x[i+1], clamped to the first and last
// intervals so that the spline extrapolates.
func (sp *hermite) interval(xq float64) int {
	i := sort.Search(len(sp.x), func(j int) bool { return sp.x[j] > xq }) - 1
	if i < 0 {
		return 0
	}
	if i > len(sp.x)-2 {
		return len(sp.x) - 2
	}
	return i
}

// eval returns the spline (deriv == false) or its derivative at xq, n x len(xq).
func (sp *hermite) eval(xq []float64, deriv bool) *dynamo.Matrix {
	n := sp.c0.Rows()
	out := dynamo.NewMatrix(n, len(xq))
	for j, xv := range xq {
		i := sp.interval(xv)
		s := xv - sp.x[i]
		for v := 0; v < n; v++ {
			c0, c1, c2, c3 := sp.c0.At(v, i), sp.c1.At(v, i), sp.c2.At(v, i), sp.c3.At(v, i)
			if deriv {
				out.Set(v, j, (3*c0*s+2*c1)*s+c2)
			} else {
				out.Set(v, j, ((c0*s+c1)*s+c2)*s+c3)
			}
		}
	}
	return out
}

// rmsResiduals estimates the RMS of the relative residual
// (y' - f) / (1 + |f|) on each interval with 5-point Lobatto quadrature. The
// end points contribute nothing because the spline matches f there, and the
// midpoint residual is recovered from the collocation residual.
func (s *system) rmsResiduals(sp *hermite, p []float64, c *collocation) ([]float64, error) {
	n := s.n
	intervals := s.m - 1

	x1 := make([]float64, intervals)
	x2 := make([]float64, intervals)
	for i := 0; i < intervals; i++ {
		off := 0.5 * s.h[i] * math.Sqrt(3.0/7.0)
		x1[i] = s.xMid[i] + off
		x2[i] = s.xMid[i] - off
	}

	y1 := sp.eval(x1, false)
	y2 := sp.eval(x2, false)
	y1p := sp.eval(x1, true)
	y2p := sp.eval(x2, true)
	f1, err := s.field(x1, y1, p)
	if err != nil {
		return nil, err
	}
	f2, err := s.field(x2, y2, p)
	if err != nil {
		return nil, err
	}

	rms := make([]float64, intervals)
	for i := 0; i < intervals; i++ {
		var sum1, sum2, sumMid float64
		for v := 0; v < n; v++ {
			r1 := (y1p.At(v, i) - f1.At(v, i)) / (1 + math.Abs(f1.At(v, i)))
			r2 := (y2p.At(v, i) - f2.At(v, i)) / (1 + math.Abs(f2.At(v, i)))
			rMid := 1.5 * c.colRes.At(v, i) / s.h[i] / (1 + math.Abs(c.fMid.At(v, i)))
			sum1 += r1 * r1
			sum2 += r2 * r2
			sumMid += rMid * rMid
		}
		rms[i] = math.Sqrt(0.5 * (32.0/45.0*sumMid + 49.0/90.0*(sum1+sum2)))
	}
	return rms, nil
}

// refine inserts one node in the middle of each interval in insert1 and two
// nodes at the thirds of each interval in insert2.
func refine(x []float64, insert1, insert2 []int) []float64 {
	out := make([]float64, 0, len(x)+len(insert1)+2*len(insert2))
	out = append(out, x...)
	for _, i := range insert1 {
		out = append(out, 0.5*(x[i]+x[i+1]))
	}
	for _, i := range insert2 {
		out = append(out, 2.0/3.0*x[i]+1.0/3.0*x[i+1], 1.0/3.0*x[i]+2.0/3.0*x[i+1])
	}
	slices.Sort(out)
	return out
}
