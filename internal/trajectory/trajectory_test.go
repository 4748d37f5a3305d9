package trajectory

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bvpsim/internal/dynamo"
)

func sample() *Trajectory {
	y, _ := dynamo.FromRows([][]float64{{0, 1}, {0.5, 0.8}, {1, 0}})
	tr := New([]float64{0, 0.5, 1}, y)
	tr.P = dynamo.State{2}
	tr.Nu = dynamo.State{3, 4}
	tr.K = dynamo.State{9.81}
	tr.Aux["tag"] = "guess"
	return tr
}

func TestNew_Defaults(t *testing.T) {
	tr := sample()
	if tr.NumStates() != 2 {
		t.Errorf("NumStates = %d", tr.NumStates())
	}
	if tr.NumQuads() != 0 {
		t.Errorf("NumQuads = %d", tr.NumQuads())
	}
	if tr.Lam.Rows() != 3 || tr.Lam.Cols() != 2 {
		t.Errorf("lam shape %dx%d", tr.Lam.Rows(), tr.Lam.Cols())
	}
}

func TestClone_NoAliasing(t *testing.T) {
	orig := sample()
	c := orig.Clone()

	c.T[0] = -1
	c.Y.Set(0, 0, 42)
	c.P[0] = 0
	c.Nu[1] = 0
	c.K[0] = 0
	c.Lam.Set(0, 0, 7)
	c.Aux["tag"] = "changed"
	c.Converged = true

	if orig.T[0] != 0 || orig.Y.At(0, 0) != 0 || orig.P[0] != 2 || orig.Nu[1] != 4 {
		t.Error("clone shares numeric storage with original")
	}
	if orig.K[0] != 9.81 || orig.Lam.At(0, 0) != 0 {
		t.Error("clone shares constants or costates with original")
	}
	if orig.Aux["tag"] != "guess" || orig.Converged {
		t.Error("clone shares aux map or flags with original")
	}
}

func TestClone_AuxIsDeep(t *testing.T) {
	orig := sample()
	m := dynamo.NewMatrix(1, 1)
	orig.Aux["history"] = []float64{1, 2}
	orig.Aux["jac"] = m
	orig.Aux["nested"] = map[string]any{"steps": []int{3}}
	orig.Aux["list"] = []any{dynamo.State{5}}

	c := orig.Clone()
	c.Aux["history"].([]float64)[0] = -1
	c.Aux["jac"].(*dynamo.Matrix).Set(0, 0, 8)
	c.Aux["nested"].(map[string]any)["steps"].([]int)[0] = -3
	c.Aux["list"].([]any)[0].(dynamo.State)[0] = -5

	if orig.Aux["history"].([]float64)[0] != 1 {
		t.Error("clone shares aux slices")
	}
	if m.At(0, 0) != 0 {
		t.Error("clone shares aux matrices")
	}
	if orig.Aux["nested"].(map[string]any)["steps"].([]int)[0] != 3 {
		t.Error("clone shares nested aux maps")
	}
	if orig.Aux["list"].([]any)[0].(dynamo.State)[0] != 5 {
		t.Error("clone shares aux list elements")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Trajectory)
		wantErr error
	}{
		{"ok", func(*Trajectory) {}, nil},
		{"empty mesh", func(tr *Trajectory) { tr.T = nil }, ErrEmptyMesh},
		{"nil states", func(tr *Trajectory) { tr.Y = nil }, ErrNilStates},
		{"row mismatch", func(tr *Trajectory) { tr.Y = dynamo.NewMatrix(2, 2) }, ErrShape},
		{"quad mismatch", func(tr *Trajectory) { tr.Q = dynamo.NewMatrix(2, 1) }, ErrShape},
		{"unordered", func(tr *Trajectory) { tr.T[2] = 0.25 }, ErrNotOrdered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := sample()
			tt.mutate(tr)
			err := tr.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLinspace(t *testing.T) {
	xs := Linspace(0, math.Pi, 5)
	if len(xs) != 5 || xs[0] != 0 || xs[4] != math.Pi {
		t.Errorf("Linspace = %v", xs)
	}
	if math.Abs(xs[2]-math.Pi/2) > 1e-12 {
		t.Errorf("midpoint = %v", xs[2])
	}
	if len(Linspace(0, 1, 0)) != 0 {
		t.Error("n=0 must give empty mesh")
	}
}
