package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bvpsim/internal/bvp"
)

const (
	DefaultProblem   = "harmonic"
	DefaultAlgorithm = "spbvp"
	DefaultNodes     = 11
	DefaultOutput    = ".bvpsim"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Problem   string  `yaml:"problem"`
	Algorithm string  `yaml:"algorithm"`
	MaxNodes  int     `yaml:"max_nodes"`
	Tol       float64 `yaml:"tol"`
	BCTol     float64 `yaml:"bc_tol,omitempty"`
	// Nodes is the size of the initial uniform mesh.
	Nodes int `yaml:"nodes"`
	// Analytic attaches the problem's Jacobians instead of finite differences.
	Analytic  bool               `yaml:"analytic"`
	Constants map[string]float64 `yaml:"constants,omitempty"`
	// Output is the run store directory used by solve --save unless --data
	// is given.
	Output string `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:   DefaultProblem,
		Algorithm: DefaultAlgorithm,
		MaxNodes:  bvp.DefaultMaxNodes,
		Tol:       bvp.DefaultTol,
		Nodes:     DefaultNodes,
		Output:    DefaultOutput,
	}
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads path over a copy of base. Keys absent from the file keep
// base's values; constants are merged by name.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Problem == "":
		return fmt.Errorf("%w: problem is empty", ErrInvalidConfig)
	case c.Algorithm == "":
		return fmt.Errorf("%w: algorithm is empty", ErrInvalidConfig)
	case c.MaxNodes <= 2:
		return fmt.Errorf("%w: max_nodes must be greater than 2, got %d", ErrInvalidConfig, c.MaxNodes)
	case c.Tol <= 0:
		return fmt.Errorf("%w: tol must be positive, got %g", ErrInvalidConfig, c.Tol)
	case c.BCTol < 0:
		return fmt.Errorf("%w: bc_tol must not be negative, got %g", ErrInvalidConfig, c.BCTol)
	case c.Nodes < 2:
		return fmt.Errorf("%w: nodes must be at least 2, got %d", ErrInvalidConfig, c.Nodes)
	}
	return nil
}

// Clone returns a copy that shares nothing with c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Constants != nil {
		out.Constants = make(map[string]float64, len(c.Constants))
		for k, v := range c.Constants {
			out.Constants[k] = v
		}
	}
	return &out
}

// SolverOptions translates the solver settings into algorithm options.
func (c *Config) SolverOptions() []bvp.Option {
	return []bvp.Option{
		bvp.WithMaxNodes(c.MaxNodes),
		bvp.WithTolerance(c.Tol),
		bvp.WithBCTolerance(c.BCTol),
	}
}
