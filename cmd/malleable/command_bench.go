package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"malleableSched/internal/bench"
)

var gridFile string

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Запустить сетку экспериментов и записать CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := bench.LoadGrid(gridFile)
		if err != nil {
			return err
		}
		records, err := bench.RunGrid(cmd.Context(), g, log)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range records {
			fmt.Fprintf(out, "%s %s: makespan лучшее=%d среднее=%.2f (нижняя граница %.2f) | время среднее=%.2fms | таймауты=%d сбои=%d\n",
				r.Engine, r.Case, r.MakespanBest, r.MakespanMean, r.LowerBoundMean, r.TimeMeanMs, r.Timeouts, r.Failures)
		}
		if g.Output != "" {
			fmt.Fprintln(out, "Saved:", g.Output)
		}
		return nil
	},
}

func registerBenchCommand(root *cobra.Command) {
	root.AddCommand(benchCmd)
	benchCmd.Flags().StringVarP(&gridFile, "grid", "g", "grid.yaml", "YAML-файл сетки экспериментов")
}
