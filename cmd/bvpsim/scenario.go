package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/bvpsim/internal/automation"
	"github.com/san-kum/bvpsim/internal/problems"
	"github.com/san-kum/bvpsim/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runner := automation.NewRunner(problems.NewRegistry(),
		automation.WithStore(st),
		automation.WithLogger(logger),
	)

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	results, err := runner.Run(context.Background(), sc)
	printScenario(results)
	if err != nil {
		return err
	}

	conv, failed := automation.Stats(results)
	fmt.Printf("\n%d converged, %d failed\n", conv, failed)
	return nil
}

func printScenario(results []automation.StepResult) {
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPROBLEM\tCONSTANTS\tWARM\tSTATUS\tNODES\tTIME\tCHECK\tRUN")
	for _, r := range results {
		status := "ok"
		if !r.Result.Success {
			status = fmt.Sprintf("fail(%d)", r.Result.Status)
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%v\t%s\t%d\t%s\t%s=%.6g\t%s\n",
			r.Index+1,
			r.Config.Problem,
			r.Result.Solution.K,
			r.WarmStarted,
			status,
			r.Result.Solution.NumNodes(),
			r.Result.CompTime.Round(time.Microsecond),
			r.Ref.Quantity,
			r.Ref.Got,
			r.RunID,
		)
	}
	w.Flush()
}
