// Package automation runs scripted sequences of solves read from YAML.
//
// A step may warm start from the previous step's solution, which turns a
// scenario into a natural parameter continuation: solve an easy member of a
// family, then walk a constant towards the hard one.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/config"
	"github.com/san-kum/bvpsim/internal/problems"
	"github.com/san-kum/bvpsim/internal/storage"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

var (
	ErrEmptyScenario = errors.New("automation: scenario has no steps")
	ErrUnknownPreset = errors.New("automation: unknown preset")
	ErrNoStore       = errors.New("automation: step asks to save but no store is configured")
)

// Scenario defines a scripted solve sequence.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single solve. Zero fields keep the preset or default value.
type Step struct {
	Problem   string             `yaml:"problem"`
	Preset    string             `yaml:"preset,omitempty"`
	Algorithm string             `yaml:"algorithm,omitempty"`
	Nodes     int                `yaml:"nodes,omitempty"`
	MaxNodes  int                `yaml:"max_nodes,omitempty"`
	Tol       float64            `yaml:"tol,omitempty"`
	Analytic  bool               `yaml:"analytic,omitempty"`
	Constants map[string]float64 `yaml:"constants,omitempty"`
	// WarmStart reuses the previous solution as the guess when it solved
	// the same problem on the same interval.
	WarmStart bool `yaml:"warm_start,omitempty"`
	Save      bool `yaml:"save,omitempty"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index       int
	Config      *config.Config
	Result      *bvp.Result
	Ref         problems.Reference
	WarmStarted bool
	RunID       string
}

// Saver persists a run. *storage.Store satisfies it.
type Saver interface {
	Save(run storage.Run, res *bvp.Result) (string, error)
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parsing %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	return &scenario, nil
}

// Config resolves the step over its preset, or over the defaults.
func (s Step) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Problem, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPreset, s.Problem, s.Preset)
		}
	}
	if s.Problem != "" {
		cfg.Problem = s.Problem
	}
	if s.Algorithm != "" {
		cfg.Algorithm = s.Algorithm
	}
	if s.Nodes > 0 {
		cfg.Nodes = s.Nodes
	}
	if s.MaxNodes > 0 {
		cfg.MaxNodes = s.MaxNodes
	}
	if s.Tol > 0 {
		cfg.Tol = s.Tol
	}
	if s.Analytic {
		cfg.Analytic = true
	}
	if len(s.Constants) > 0 {
		if cfg.Constants == nil {
			cfg.Constants = make(map[string]float64, len(s.Constants))
		}
		maps.Copy(cfg.Constants, s.Constants)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Catalog resolves problems and algorithms by name. *problems.Registry
// satisfies it.
type Catalog interface {
	GetProblem(name string) (*problems.Entry, error)
	GetAlgorithm(name string, p bvp.Problem, opts ...bvp.Option) (bvp.Algorithm, error)
}

type Runner struct {
	reg   Catalog
	store Saver
	log   *slog.Logger
}

type Option func(*Runner)

func WithStore(s Saver) Option {
	return func(r *Runner) { r.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRunner(reg Catalog, opts ...Option) *Runner {
	r := &Runner{
		reg: reg,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps in order. A step that fails to converge does not
// stop the scenario, but it is never used as a warm start.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	results := make([]StepResult, 0, len(sc.Steps))

	var (
		prev        *trajectory.Trajectory
		prevProblem string
	)
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.log.Info("running step", "step", i+1, "of", len(sc.Steps), "problem", cfg.Problem)

		entry, err := r.reg.GetProblem(cfg.Problem)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		k, err := entry.ConstantVector(cfg.Constants)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		guess, err := entry.Guess(cfg.Nodes, k)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		warm := false
		if step.WarmStart && prevProblem == cfg.Problem {
			guess, warm = warmGuess(prev, guess)
			if !warm {
				r.log.Warn("previous solution does not fit, using the catalog guess", "step", i+1)
			}
		}

		opts := append(cfg.SolverOptions(), bvp.WithLogger(r.log))
		alg, err := r.reg.GetAlgorithm(cfg.Algorithm, entry.Problem(cfg.Analytic), opts...)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, err := alg.Solve(guess)
		if err = errors.Join(err, alg.Close()); err != nil {
			return results, fmt.Errorf("step %d solve: %w", i+1, err)
		}

		sr := StepResult{
			Index:       i,
			Config:      cfg,
			Result:      res,
			Ref:         entry.Check(res.Solution),
			WarmStarted: warm,
		}

		if step.Save {
			if r.store == nil {
				return results, fmt.Errorf("step %d: %w", i+1, ErrNoStore)
			}
			sr.RunID, err = r.store.Save(storage.Run{
				Problem:   cfg.Problem,
				Algorithm: cfg.Algorithm,
				Analytic:  cfg.Analytic,
				MaxNodes:  cfg.MaxNodes,
				Tol:       cfg.Tol,
				Constants: cfg.Constants,
			}, res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		if res.Success {
			prev, prevProblem = res.Solution, cfg.Problem
		} else {
			prev, prevProblem = nil, ""
		}
		results = append(results, sr)
	}

	return results, nil
}

// warmGuess returns prev with the constants of fresh when the two agree on
// interval and unknown counts, and fresh otherwise.
func warmGuess(prev, fresh *trajectory.Trajectory) (*trajectory.Trajectory, bool) {
	if prev == nil || prev.NumNodes() < 2 {
		return fresh, false
	}
	if prev.NumStates() != fresh.NumStates() || prev.NumQuads() != fresh.NumQuads() ||
		len(prev.P) != len(fresh.P) || len(prev.Nu) != len(fresh.Nu) {
		return fresh, false
	}
	last, freshLast := prev.NumNodes()-1, fresh.NumNodes()-1
	if prev.T[0] != fresh.T[0] || prev.T[last] != fresh.T[freshLast] {
		return fresh, false
	}

	g := prev.Clone()
	g.K = fresh.K.Clone()
	g.Aux = make(map[string]any)
	g.Converged = false
	return g, true
}

// Stats counts converged and failed steps.
func Stats(results []StepResult) (converged, failed int) {
	for _, r := range results {
		if r.Result.Success {
			converged++
		} else {
			failed++
		}
	}
	return
}
