package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/bvpsim/internal/config"
	"github.com/san-kum/bvpsim/internal/problems"
	"github.com/san-kum/bvpsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   = slog.New(slog.DiscardHandler)

	// solve flags
	configFile string
	preset     string
	algorithm  string
	maxNodes   int
	tol        float64
	bcTol      float64
	nodes      int
	constants  []string
	analytic   bool
	check      bool
	fixedSteps int
	useTUI     bool
	save       bool
	theme      string
	plotSeries string

	// sweep flags
	sweepConst  string
	sweepValues []float64
	workers     int

	// analyze flags
	column  int
	samples int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bvpsim",
		Short: "boundary value problem solver for indirect optimal control",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = newLogger(os.Stderr, level)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutput, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a catalogued problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveProblem,
	}
	addSolverFlags(solveCmd)
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	solveCmd.Flags().BoolVar(&check, "check", false, "verify the solution by re-integration")
	solveCmd.Flags().IntVar(&fixedSteps, "fixed-steps", 0, "re-integrate with this many RK4 steps per interval instead of RK45")
	solveCmd.Flags().BoolVar(&useTUI, "tui", false, "show a progress view while solving")
	solveCmd.Flags().BoolVar(&save, "save", false, "store the run in the data directory")
	solveCmd.Flags().StringVar(&theme, "theme", "minimal", "summary color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	solveCmd.Flags().StringVar(&plotSeries, "plot", "", "plot a series after solving (y0, q0, ...)")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list catalogued problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored solution",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSeries, "series", "", "series to plot (default: all states)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored solution",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&column, "column", 0, "state column")
	analyzeCmd.Flags().IntVar(&samples, "samples", 256, "uniform resampling size")

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "solve a problem for several values of one constant",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepProblem,
	}
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepConst, "const-name", "", "constant to sweep")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", nil, "values to solve for")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (default GOMAXPROCS)")
	_ = sweepCmd.MarkFlagRequired("const-name")
	_ = sweepCmd.MarkFlagRequired("values")

	scenarioCmd := &cobra.Command{
		Use:   "run-scenario [file]",
		Short: "run a scripted sequence of solves (yaml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(solveCmd, problemsCmd, presetsCmd, listCmd, plotCmd, exportJSONCmd, analyzeCmd, sweepCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&algorithm, "algorithm", config.DefaultAlgorithm, "solver algorithm")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "mesh node budget")
	cmd.Flags().Float64Var(&tol, "tol", 0, "collocation tolerance")
	cmd.Flags().Float64Var(&bcTol, "bc-tol", 0, "boundary condition tolerance")
	cmd.Flags().IntVar(&nodes, "nodes", 0, "initial mesh size")
	cmd.Flags().StringSliceVar(&constants, "const", nil, "constant override name=value")
	cmd.Flags().BoolVar(&analytic, "analytic", false, "use analytic jacobians")
}

func listProblems(cmd *cobra.Command, args []string) error {
	reg := problems.NewRegistry()
	for _, name := range reg.ListProblems() {
		e, err := reg.GetProblem(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-16s %s\n", name, e.Description)
		for _, c := range e.Constants {
			fmt.Printf("  %-16s   %s = %g\n", "", c.Name, c.Value)
		}
	}
	fmt.Printf("\nalgorithms: %s\n", strings.Join(reg.ListAlgorithms(), ", "))
	return nil
}
