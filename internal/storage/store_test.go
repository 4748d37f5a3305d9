package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

func testResult(withQuads bool) *bvp.Result {
	y, _ := dynamo.FromRows([][]float64{{0, 1}, {0.5, 0.8660254037844386}, {1, 0}})
	sol := trajectory.New([]float64{0, 0.5235987755982988, 1.5707963267948966}, y)
	if withQuads {
		sol.Q, _ = dynamo.FromRows([][]float64{{0}, {0.1}, {0.7853981633974483}})
	}
	sol.P = dynamo.State{3.14159}
	sol.K = dynamo.State{1.5}
	sol.Converged = true
	return &bvp.Result{
		Solution:     sol,
		Success:      true,
		Message:      "ok",
		RMSResiduals: []float64{1e-5, 3e-4},
		NIter:        2,
		CompTime:     1500 * time.Microsecond,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := Run{Problem: "harmonic", Algorithm: "spbvp", MaxNodes: 100, Tol: 1e-3, Constants: map[string]float64{"tf": 1.5}}
	runID, err := st.Save(run, testResult(false))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Problem != "harmonic" || meta.Algorithm != "spbvp" {
		t.Errorf("run fields lost: %+v", meta.Run)
	}
	if meta.MaxRMS != 3e-4 {
		t.Errorf("expected max rms 3e-4, got %g", meta.MaxRMS)
	}
	if meta.CompTime != 0.0015 {
		t.Errorf("expected comp time 0.0015, got %g", meta.CompTime)
	}
	if meta.NStates != 2 || meta.NQuads != 0 || meta.Nodes != 3 {
		t.Errorf("unexpected shape: %d states, %d quads, %d nodes", meta.NStates, meta.NQuads, meta.Nodes)
	}
	if meta.Nu == nil || len(meta.Nu) != 0 {
		t.Errorf("expected empty nu, got %v", meta.Nu)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(states))
	}
	if states[1][1] != 0.8660254037844386 {
		t.Errorf("values must survive exactly, got %v", states[1][1])
	}
}

func TestLoadTrajectory(t *testing.T) {
	st := New(t.TempDir())
	res := testResult(true)
	runID, err := st.Save(Run{Problem: "quadrature"}, res)
	if err != nil {
		t.Fatal(err)
	}

	tr, meta, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Validate(); err != nil {
		t.Fatal(err)
	}
	if !tr.Y.Equal(res.Solution.Y, 0) || !tr.Q.Equal(res.Solution.Q, 0) {
		t.Error("trajectory values changed in storage")
	}
	if tr.P[0] != 3.14159 || tr.K[0] != 1.5 || len(tr.Nu) != 0 {
		t.Errorf("parameters lost: p=%v nu=%v k=%v", tr.P, tr.Nu, tr.K)
	}
	if !tr.Converged || meta.NQuads != 1 {
		t.Errorf("metadata lost: converged=%v nquads=%d", tr.Converged, meta.NQuads)
	}
	if tr.Aux[trajectory.AuxNIter] != 2 {
		t.Errorf("expected niter 2 in aux, got %v", tr.Aux[trajectory.AuxNIter])
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	first, _ := st.Save(Run{Problem: "a"}, testResult(false))
	second, _ := st.Save(Run{Problem: "b"}, testResult(false))
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(Run{Problem: "quadrature"}, testResult(true))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.ID != runID || data.Problem != "quadrature" {
		t.Errorf("metadata missing from export: %+v", data.RunMetadata)
	}
	if len(data.Times) != 3 || len(data.States) != 3 || len(data.Quadratures) != 3 {
		t.Errorf("unexpected export sizes: %d times, %d states, %d quads", len(data.Times), len(data.States), len(data.Quadratures))
	}
}

func TestSaveWithoutSolution(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Save(Run{}, &bvp.Result{}); !errors.Is(err, ErrNoSolution) {
		t.Errorf("expected ErrNoSolution, got %v", err)
	}
	if _, err := st.Load("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
