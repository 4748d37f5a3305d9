package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

var ErrNoSolution = errors.New("storage: result has no solution")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Run identifies what was solved and how.
type Run struct {
	Problem   string             `json:"problem"`
	Algorithm string             `json:"algorithm"`
	Analytic  bool               `json:"analytic"`
	MaxNodes  int                `json:"max_nodes"`
	Tol       float64            `json:"tol"`
	Constants map[string]float64 `json:"constants,omitempty"`
}

type RunMetadata struct {
	Run
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Success  bool    `json:"success"`
	Status   int     `json:"status"`
	Message  string  `json:"message"`
	NIter    int     `json:"niter"`
	CompTime float64 `json:"comp_time"`
	MaxRMS   float64 `json:"max_rms_residual"`

	Nodes   int       `json:"nodes"`
	NStates int       `json:"nstates"`
	NQuads  int       `json:"nquads"`
	P       []float64 `json:"p"`
	Nu      []float64 `json:"nu"`
	K       []float64 `json:"k"`
}

// Save writes metadata.json and states.csv for one solve and returns the run
// id.
func (s *Store) Save(run Run, res *bvp.Result) (string, error) {
	if res == nil || res.Solution == nil {
		return "", ErrNoSolution
	}
	sol := res.Solution

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Problem, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		Run:       run,
		ID:        runID,
		Timestamp: now,
		Success:   res.Success,
		Status:    res.Status,
		Message:   res.Message,
		NIter:     res.NIter,
		CompTime:  res.CompTime.Seconds(),
		Nodes:     sol.NumNodes(),
		NStates:   sol.NumStates(),
		NQuads:    sol.NumQuads(),
		P:         nonNil(sol.P),
		Nu:        nonNil(sol.Nu),
		K:         nonNil(sol.K),
	}
	if len(res.RMSResiduals) > 0 {
		meta.MaxRMS = slices.Max(res.RMSResiduals)
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), sol); err != nil {
		return "", err
	}
	return runID, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeStates(path string, sol *trajectory.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	nstates, nquads := sol.NumStates(), sol.NumQuads()

	header := []string{"time"}
	for i := 0; i < nstates; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	for i := 0; i < nquads; i++ {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range sol.T {
		row := []string{formatFloat(t)}
		for _, v := range sol.Y.RowView(i) {
			row = append(row, formatFloat(v))
		}
		if nquads > 0 {
			for _, v := range sol.Q.RowView(i) {
				row = append(row, formatFloat(v))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every run, newest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates returns the raw rows of states.csv: times and one row of
// [y..., q...] per node.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: states.csv line %d: %w", i+2, err)
			}
			row[j] = v
		}
		times = append(times, row[0])
		states = append(states, row[1:])
	}
	return states, times, nil
}

// LoadTrajectory rebuilds the solved trajectory of a run.
func (s *Store) LoadTrajectory(runID string) (*trajectory.Trajectory, *RunMetadata, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	rows, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	all, err := dynamo.FromRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(rows) > 0 && all.Cols() != meta.NStates+meta.NQuads {
		return nil, nil, fmt.Errorf("storage: %s: %d columns for %d states and %d quadratures",
			runID, all.Cols(), meta.NStates, meta.NQuads)
	}

	tr := trajectory.New(times, all.Columns(0, meta.NStates))
	tr.Q = all.Columns(meta.NStates, meta.NStates+meta.NQuads)
	tr.P = dynamo.State(meta.P).Clone()
	tr.Nu = dynamo.State(meta.Nu).Clone()
	tr.K = dynamo.State(meta.K).Clone()
	tr.Converged = meta.Success
	tr.Aux[trajectory.AuxCompTime] = meta.CompTime
	tr.Aux[trajectory.AuxNIter] = meta.NIter
	return tr, meta, nil
}

// ExportData is the self-contained JSON form of a run.
type ExportData struct {
	RunMetadata
	Times       []float64   `json:"times"`
	States      [][]float64 `json:"states"`
	Quadratures [][]float64 `json:"quadratures,omitempty"`
}

// ExportJSON writes run runID as indented JSON to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	tr, meta, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       tr.T,
		States:      make([][]float64, tr.NumNodes()),
	}
	for i := range data.States {
		data.States[i] = tr.Y.Row(i)
	}
	if tr.NumQuads() > 0 {
		data.Quadratures = make([][]float64, tr.NumNodes())
		for i := range data.Quadratures {
			data.Quadratures[i] = tr.Q.Row(i)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
