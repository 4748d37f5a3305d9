package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bvpsim/internal/analysis"
	"github.com/san-kum/bvpsim/internal/storage"
	"github.com/san-kum/bvpsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tSTATUS\tNODES\tITER\tSOLVE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.4fs\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Nodes,
			run.NIter,
			run.CompTime,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, meta, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Problem)

	series := []string{plotSeries}
	if plotSeries == "" {
		series = series[:0]
		for i := 0; i < meta.NStates; i++ {
			series = append(series, fmt.Sprintf("y%d", i))
		}
		for i := 0; i < meta.NQuads; i++ {
			series = append(series, fmt.Sprintf("q%d", i))
		}
	}

	for _, name := range series {
		graph, err := viz.Plot(tr, name, 80, 10)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tr, meta, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	freqs, mag, err := analysis.Spectrum(tr, column, samples)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	plotData := mag[1:]
	if len(plotData) > 64 {
		plotData = plotData[:64]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("magnitude spectrum (y%d)", column)),
	)
	fmt.Println(graph)
	fmt.Println()

	dom, err := analysis.DominantFrequency(tr, column, samples)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.4g cycles per unit (bin width %.4g)\n", dom, freqs[1])
	return nil
}
