package collocation

import (
	"fmt"
	"math"

	"github.com/san-kum/bvpsim/internal/dynamo"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

var sqrtEps = math.Sqrt(eps)

// system binds the callbacks to one mesh.
type system struct {
	n, m, k int
	x, h    []float64
	xMid    []float64
	prob    Problem
}

func newSystem(prob Problem, x []float64, n, k int) *system {
	m := len(x)
	h := make([]float64, m-1)
	xMid := make([]float64, m-1)
	for i := 0; i < m-1; i++ {
		h[i] = x[i+1] - x[i]
		xMid[i] = x[i] + 0.5*h[i]
	}
	return &system{n: n, m: m, k: k, x: x, h: h, xMid: xMid, prob: prob}
}

func (s *system) field(x []float64, y *dynamo.Matrix, p []float64) (*dynamo.Matrix, error) {
	f := s.prob.Field.Eval(x, y, p)
	if f == nil || f.Rows() != s.n || f.Cols() != len(x) {
		got := [2]int{0, 0}
		if f != nil {
			got = [2]int{f.Rows(), f.Cols()}
		}
		return nil, fmt.Errorf("%w: %v", ErrFieldShape, &dynamo.ShapeError{
			Op: "field", Want: [2]int{s.n, len(x)}, Got: got, Wrapped: dynamo.ErrDimensionMismatch,
		})
	}
	return f, nil
}

func (s *system) boundary(ya, yb, p []float64) ([]float64, error) {
	r := s.prob.Boundary.Eval(ya, yb, p)
	if len(r) != s.n+s.k {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrBoundaryShape, s.n+s.k, len(r))
	}
	return r, nil
}

// collocation holds the residual state for one (y, p) pair.
type collocation struct {
	colRes *dynamo.Matrix // n x m-1
	yMid   *dynamo.Matrix // n x m-1
	f      *dynamo.Matrix // n x m
	fMid   *dynamo.Matrix // n x m-1
	bcRes  []float64
}

// evaluate computes the collocation residuals
//
//	y[i+1] - y[i] - h/6 (f[i] + f[i+1] + 4 f_mid)
//	y_mid = (y[i] + y[i+1])/2 - h/8 (f[i+1] - f[i])
//
// together with the boundary residuals.
func (s *system) evaluate(y *dynamo.Matrix, p []float64) (*collocation, error) {
	f, err := s.field(s.x, y, p)
	if err != nil {
		return nil, err
	}

	n, m := s.n, s.m
	yMid := dynamo.NewMatrix(n, m-1)
	for v := 0; v < n; v++ {
		for i := 0; i < m-1; i++ {
			yMid.Set(v, i, 0.5*(y.At(v, i+1)+y.At(v, i))-0.125*s.h[i]*(f.At(v, i+1)-f.At(v, i)))
		}
	}

	fMid, err := s.field(s.xMid, yMid, p)
	if err != nil {
		return nil, err
	}

	colRes := dynamo.NewMatrix(n, m-1)
	for v := 0; v < n; v++ {
		for i := 0; i < m-1; i++ {
			colRes.Set(v, i, y.At(v, i+1)-y.At(v, i)-s.h[i]/6*(f.At(v, i)+f.At(v, i+1)+4*fMid.At(v, i)))
		}
	}

	bcRes, err := s.boundary(y.Col(0), y.Col(m-1), p)
	if err != nil {
		return nil, err
	}

	return &collocation{colRes: colRes, yMid: yMid, f: f, fMid: fMid, bcRes: bcRes}, nil
}

// residualVector flattens collocation residuals interval by interval and
// appends the boundary residuals, matching the unknown ordering used by the
// global Jacobian.
func (s *system) residualVector(c *collocation) []float64 {
	n, m := s.n, s.m
	res := make([]float64, n*m+s.k)
	for i := 0; i < m-1; i++ {
		for v := 0; v < n; v++ {
			res[i*n+v] = c.colRes.At(v, i)
		}
	}
	copy(res[(m-1)*n:], c.bcRes)
	return res
}

// fieldJacobian evaluates or estimates df/dy and df/dp at the columns of y.
func (s *system) fieldJacobian(x []float64, y *dynamo.Matrix, p []float64, f0 *dynamo.Matrix) (*dynamo.Tensor3, *dynamo.Tensor3, error) {
	if s.prob.FieldJac == nil {
		return s.estimateFieldJacobian(x, y, p, f0)
	}

	dfdy, dfdp := s.prob.FieldJac.Eval(x, y, p)
	if dfdy == nil {
		return nil, nil, fmt.Errorf("%w: df/dy is nil", ErrJacobianShape)
	}
	if r, c, nodes := dfdy.Dims(); r != s.n || c != s.n || nodes != len(x) {
		return nil, nil, fmt.Errorf("%w: df/dy is %dx%dx%d, want %dx%dx%d", ErrJacobianShape, r, c, nodes, s.n, s.n, len(x))
	}
	if s.k > 0 {
		if dfdp == nil {
			return nil, nil, fmt.Errorf("%w: df/dp is nil for %d parameters", ErrJacobianShape, s.k)
		}
		if r, c, nodes := dfdp.Dims(); r != s.n || c != s.k || nodes != len(x) {
			return nil, nil, fmt.Errorf("%w: df/dp is %dx%dx%d, want %dx%dx%d", ErrJacobianShape, r, c, nodes, s.n, s.k, len(x))
		}
	}
	return dfdy, dfdp, nil
}

// estimateFieldJacobian uses forward differences with step sqrt(eps)(1+|v|).
func (s *system) estimateFieldJacobian(x []float64, y *dynamo.Matrix, p []float64, f0 *dynamo.Matrix) (*dynamo.Tensor3, *dynamo.Tensor3, error) {
	n, nodes := y.Rows(), y.Cols()

	dfdy := dynamo.NewTensor3(n, n, nodes)
	steps := make([]float64, nodes)
	for col := 0; col < n; col++ {
		yNew := y.Clone()
		for j := 0; j < nodes; j++ {
			v := y.At(col, j)
			yNew.Set(col, j, v+sqrtEps*(1+math.Abs(v)))
			steps[j] = yNew.At(col, j) - v
		}
		fNew, err := s.field(x, yNew, p)
		if err != nil {
			return nil, nil, err
		}
		for j := 0; j < nodes; j++ {
			for row := 0; row < n; row++ {
				dfdy.Set(row, col, j, (fNew.At(row, j)-f0.At(row, j))/steps[j])
			}
		}
	}

	if s.k == 0 {
		return dfdy, nil, nil
	}

	dfdp := dynamo.NewTensor3(n, s.k, nodes)
	for col := 0; col < s.k; col++ {
		pNew := append([]float64(nil), p...)
		pNew[col] += sqrtEps * (1 + math.Abs(p[col]))
		step := pNew[col] - p[col]
		fNew, err := s.field(x, y, pNew)
		if err != nil {
			return nil, nil, err
		}
		for j := 0; j < nodes; j++ {
			for row := 0; row < n; row++ {
				dfdp.Set(row, col, j, (fNew.At(row, j)-f0.At(row, j))/step)
			}
		}
	}
	return dfdy, dfdp, nil
}

// boundaryJacobian evaluates or estimates the boundary sensitivities.
func (s *system) boundaryJacobian(ya, yb, p, bc0 []float64) (dya, dyb, dp *dynamo.Matrix, err error) {
	rows := s.n + s.k
	if s.prob.BoundaryJac == nil {
		return s.estimateBoundaryJacobian(ya, yb, p, bc0)
	}

	dya, dyb, dp = s.prob.BoundaryJac.Eval(ya, yb, p)
	for name, blk := range map[string]*dynamo.Matrix{"dbc/dya": dya, "dbc/dyb": dyb} {
		if blk == nil || blk.Rows() != rows || blk.Cols() != s.n {
			return nil, nil, nil, fmt.Errorf("%w: %s must be %dx%d", ErrJacobianShape, name, rows, s.n)
		}
	}
	if s.k > 0 && (dp == nil || dp.Rows() != rows || dp.Cols() != s.k) {
		return nil, nil, nil, fmt.Errorf("%w: dbc/dp must be %dx%d", ErrJacobianShape, rows, s.k)
	}
	return dya, dyb, dp, nil
}

func (s *system) estimateBoundaryJacobian(ya, yb, p, bc0 []float64) (dya, dyb, dp *dynamo.Matrix, err error) {
	rows := s.n + s.k

	column := func(dst *dynamo.Matrix, col int, eval func() ([]float64, error), step float64) error {
		r, err := eval()
		if err != nil {
			return err
		}
		for i := 0; i < rows; i++ {
			dst.Set(i, col, (r[i]-bc0[i])/step)
		}
		return nil
	}

	dya = dynamo.NewMatrix(rows, s.n)
	dyb = dynamo.NewMatrix(rows, s.n)
	for col := 0; col < s.n; col++ {
		yaNew := append([]float64(nil), ya...)
		yaNew[col] += sqrtEps * (1 + math.Abs(ya[col]))
		step := yaNew[col] - ya[col]
		if err := column(dya, col, func() ([]float64, error) { return s.boundary(yaNew, yb, p) }, step); err != nil {
			return nil, nil, nil, err
		}

		ybNew := append([]float64(nil), yb...)
		ybNew[col] += sqrtEps * (1 + math.Abs(yb[col]))
		step = ybNew[col] - yb[col]
		if err := column(dyb, col, func() ([]float64, error) { return s.boundary(ya, ybNew, p) }, step); err != nil {
			return nil, nil, nil, err
		}
	}

	if s.k == 0 {
		return dya, dyb, nil, nil
	}

	dp = dynamo.NewMatrix(rows, s.k)
	for col := 0; col < s.k; col++ {
		pNew := append([]float64(nil), p...)
		pNew[col] += sqrtEps * (1 + math.Abs(p[col]))
		step := pNew[col] - p[col]
		if err := column(dp, col, func() ([]float64, error) { return s.boundary(ya, yb, pNew) }, step); err != nil {
			return nil, nil, nil, err
		}
	}
	return dya, dyb, dp, nil
}

// globalJacobian assembles the dense (nm+k) x (nm+k) Newton matrix.
//
// Rows [i*n, (i+1)*n) hold interval i's collocation residual, the last n+k
// rows the boundary residual. Columns [j*n, (j+1)*n) hold node j's unknowns,
// the last k columns the parameters.
func (s *system) globalJacobian(y *dynamo.Matrix, p []float64, c *collocation) (*dynamo.Matrix, error) {
	n, m, k := s.n, s.m, s.k
	size := n*m + k

	dfdy, dfdp, err := s.fieldJacobian(s.x, y, p, c.f)
	if err != nil {
		return nil, err
	}
	dfdyMid, dfdpMid, err := s.fieldJacobian(s.xMid, c.yMid, p, c.fMid)
	if err != nil {
		return nil, err
	}
	dya, dyb, dp, err := s.boundaryJacobian(y.Col(0), y.Col(m-1), p, c.bcRes)
	if err != nil {
		return nil, err
	}

	J := dynamo.NewMatrix(size, size)
	a := make([]float64, n*n)
	b := make([]float64, n*n)
	for i := 0; i < m-1; i++ {
		h := s.h[i]
		fi := dfdy.BlockView(i)
		fj := dfdy.BlockView(i + 1)
		fm := dfdyMid.BlockView(i)

		// dPhi/dy_i = -I - h/6 (Fi + 2Fm) - h^2/12 Fm Fi
		// dPhi/dy_{i+1} = I - h/6 (Fj + 2Fm) + h^2/12 Fm Fj
		matmul(a, fm, fi, n, n, n)
		matmul(b, fm, fj, n, n, n)
		for r := 0; r < n; r++ {
			for col := 0; col < n; col++ {
				idx := r*n + col
				eye := 0.0
				if r == col {
					eye = 1
				}
				J.Set(i*n+r, i*n+col, -eye-h/6*(fi[idx]+2*fm[idx])-h*h/12*a[idx])
				J.Set(i*n+r, (i+1)*n+col, eye-h/6*(fj[idx]+2*fm[idx])+h*h/12*b[idx])
			}
		}

		if k > 0 {
			// df/dp at the midpoint picks up the dependence of y_mid on p.
			pi := dfdp.BlockView(i)
			pj := dfdp.BlockView(i + 1)
			pm := dfdpMid.BlockView(i)
			diff := make([]float64, n*k)
			for idx := range diff {
				diff[idx] = pi[idx] - pj[idx]
			}
			t := make([]float64, n*k)
			matmul(t, fm, diff, n, n, k)
			for r := 0; r < n; r++ {
				for col := 0; col < k; col++ {
					idx := r*k + col
					mid := pm[idx] + 0.125*h*t[idx]
					J.Set(i*n+r, n*m+col, -h/6*(pi[idx]+pj[idx]+4*mid))
				}
			}
		}
	}

	row0 := (m - 1) * n
	for r := 0; r < n+k; r++ {
		for col := 0; col < n; col++ {
			J.Set(row0+r, col, dya.At(r, col))
			J.Set(row0+r, (m-1)*n+col, dyb.At(r, col))
		}
		for col := 0; col < k; col++ {
			J.Set(row0+r, n*m+col, dp.At(r, col))
		}
	}
	return J, nil
}

// matmul computes dst = a (r x inner) * b (inner x c), all row-major.
func matmul(dst, a, b []float64, r, inner, c int) {
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: r, Cols: inner, Stride: inner, Data: a},
		blas64.General{Rows: inner, Cols: c, Stride: c, Data: b},
		0,
		blas64.General{Rows: r, Cols: c, Stride: c, Data: dst})
}
