package config

import (
	"math"
	"slices"
)

var Presets = map[string]map[string]*Config{
	"harmonic": {
		"quarter": {
			Problem: "harmonic", Nodes: 11,
			Constants: map[string]float64{"tf": math.Pi / 2},
		},
		"long": {
			Problem: "harmonic", Nodes: 21,
			Constants: map[string]float64{"tf": 3},
		},
	},
	"boundary_layer": {
		"mild": {
			Problem: "boundary_layer", Nodes: 11,
			Constants: map[string]float64{"c": 3},
		},
		"steep": {
			Problem: "boundary_layer", Nodes: 21, Analytic: true,
			Constants: map[string]float64{"c": 30},
		},
		"sharp": {
			Problem: "boundary_layer", Nodes: 41, MaxNodes: 5000, Analytic: true,
			Constants: map[string]float64{"c": 100},
		},
	},
	"eigenvalue": {
		"first": {
			Problem: "eigenvalue", Nodes: 11,
			Constants: map[string]float64{"lambda0": 3},
		},
		"second": {
			Problem: "eigenvalue", Nodes: 21,
			Constants: map[string]float64{"lambda0": 6},
		},
	},
	"quadrature": {
		"default": {
			Problem: "quadrature", Nodes: 11,
		},
		"analytic": {
			Problem: "quadrature", Nodes: 11, Analytic: true,
		},
	},
	"nondynamic": {
		"unit": {
			Problem: "nondynamic", Nodes: 5,
			Constants: map[string]float64{"target": 1},
		},
		"steep": {
			Problem: "nondynamic", Nodes: 5,
			Constants: map[string]float64{"target": 10},
		},
	},
	"bratu": {
		"lower": {
			Problem: "bratu", Nodes: 11,
			Constants: map[string]float64{"lambda": 1},
		},
		"near_fold": {
			Problem: "bratu", Nodes: 21, Analytic: true,
			Constants: map[string]float64{"lambda": 3.4},
		},
	},
}

// GetPreset returns a complete configuration for a preset: the preset's
// fields over the defaults. It returns nil for unknown names.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	p, ok := problemPresets[preset]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Problem = p.Problem
	cfg.Analytic = p.Analytic
	if p.Nodes > 0 {
		cfg.Nodes = p.Nodes
	}
	if p.MaxNodes > 0 {
		cfg.MaxNodes = p.MaxNodes
	}
	if p.Tol > 0 {
		cfg.Tol = p.Tol
	}
	if p.Constants != nil {
		cfg.Constants = p.Clone().Constants
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
