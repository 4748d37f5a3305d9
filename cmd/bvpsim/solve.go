package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/bvpsim/internal/analysis"
	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/config"
	"github.com/san-kum/bvpsim/internal/problems"
	"github.com/san-kum/bvpsim/internal/storage"
	"github.com/san-kum/bvpsim/internal/sweep"
	"github.com/san-kum/bvpsim/internal/tui"
	"github.com/san-kum/bvpsim/internal/viz"
)

// parseConstants turns name=value pairs into overrides.
func parseConstants(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("constant %q is not name=value", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// resolveConfig layers defaults, preset, config file and flags, in that
// order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Problem = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Problem, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Problem))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 && loaded.Problem != args[0] {
			return nil, fmt.Errorf("config is for %s, not %s", loaded.Problem, args[0])
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = algorithm
	}
	if flags.Changed("max-nodes") {
		cfg.MaxNodes = maxNodes
	}
	if flags.Changed("tol") {
		cfg.Tol = tol
	}
	if flags.Changed("bc-tol") {
		cfg.BCTol = bcTol
	}
	if flags.Changed("nodes") {
		cfg.Nodes = nodes
	}
	if flags.Changed("analytic") {
		cfg.Analytic = analytic
	}
	if len(constants) > 0 {
		overrides, err := parseConstants(constants)
		if err != nil {
			return nil, err
		}
		if cfg.Constants == nil {
			cfg.Constants = make(map[string]float64, len(overrides))
		}
		for k, v := range overrides {
			cfg.Constants[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// outputDir is --data when given on the command line and the config's
// output directory otherwise.
func outputDir(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("data") || cfg.Output == "" {
		return dataDir
	}
	return cfg.Output
}

func solveProblem(cmd *cobra.Command, args []string) (err error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	reg := problems.NewRegistry()
	entry, err := reg.GetProblem(cfg.Problem)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, reg.ListProblems())
	}
	k, err := entry.ConstantVector(cfg.Constants)
	if err != nil {
		return err
	}
	guess, err := entry.Guess(cfg.Nodes, k)
	if err != nil {
		return err
	}

	prob := entry.Problem(cfg.Analytic)
	opts := append(cfg.SolverOptions(), bvp.WithLogger(logger))
	alg, err := reg.GetAlgorithm(cfg.Algorithm, prob, opts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, alg.Close()) }()

	logger.Info("solving", "problem", cfg.Problem, "algorithm", cfg.Algorithm, "nodes", cfg.Nodes, "analytic", cfg.Analytic)

	var res *bvp.Result
	if useTUI {
		res, err = tui.Run(cfg.Problem, viz.GetTheme(theme), func() (*bvp.Result, error) {
			return alg.Solve(guess)
		})
	} else {
		res, err = alg.Solve(guess)
	}
	if err != nil {
		return err
	}

	ref := entry.Check(res.Solution)
	fmt.Println(viz.Summary(viz.GetTheme(theme), cfg.Problem, res, &ref, cfg.Tol))

	if check {
		var opts []analysis.DefectOption
		if fixedSteps > 0 {
			opts = append(opts, analysis.WithFixedSteps(fixedSteps))
		}
		rep, err := analysis.Defect(prob, res.Solution, 1e-10, opts...)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		fmt.Printf("\nre-integration defect: max %.3e in interval %d of %d\n", rep.Max, rep.Worst, len(rep.Intervals))
	}

	if plotSeries != "" {
		graph, err := viz.Plot(res.Solution, plotSeries, 80, 10)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(graph)
	}

	if save {
		st := storage.New(outputDir(cmd, cfg))
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.Run{
			Problem:   cfg.Problem,
			Algorithm: cfg.Algorithm,
			Analytic:  cfg.Analytic,
			MaxNodes:  cfg.MaxNodes,
			Tol:       cfg.Tol,
			Constants: cfg.Constants,
		}, res)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved: %s\n", runID)
	}
	return nil
}

func sweepProblem(cmd *cobra.Command, args []string) (err error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	reg := problems.NewRegistry()
	entry, err := reg.GetProblem(cfg.Problem)
	if err != nil {
		return err
	}
	opts := append(cfg.SolverOptions(), bvp.WithLogger(logger))
	alg, err := reg.GetAlgorithm(cfg.Algorithm, entry.Problem(cfg.Analytic), opts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, alg.Close()) }()

	sw, err := sweep.New(entry, alg, sweepConst, sweep.WithNodes(cfg.Nodes), sweep.WithWorkers(workers))
	if err != nil {
		return err
	}
	points, err := sw.Run(context.Background(), sweepValues, cfg.Constants)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTATUS\tNODES\tITER\tTIME\t%s\tWANT\n", strings.ToUpper(sweepConst), strings.ToUpper(points[0].Ref.Quantity))
	for _, p := range points {
		status := "ok"
		if !p.Result.Success {
			status = fmt.Sprintf("fail(%d)", p.Result.Status)
		}
		fmt.Fprintf(w, "%g\t%s\t%d\t%d\t%s\t%.6g\t%.6g\n",
			p.Value,
			status,
			p.Result.Solution.NumNodes(),
			p.Result.NIter,
			p.Result.CompTime.Round(time.Microsecond),
			p.Ref.Got,
			p.Ref.Want,
		)
	}
	return w.Flush()
}
