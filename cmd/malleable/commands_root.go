package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malleableSched/internal/logging"
	"malleableSched/internal/tracing"
)

var (
	logLevel  string
	traceRuns bool

	jobFile        string
	constraintFile string
	declaredWidth  int

	log         *zap.Logger
	stopTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "malleable",
	Short:         "Планирование malleable-задач с ограничениями предшествования",
	Long:          "malleable строит расписания с минимальным makespan (DP, LP и релаксационный ILP), генерирует экземпляры и запускает бенчмарки",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logging.New(logLevel)
		if err != nil {
			return err
		}
		if traceRuns {
			stopTracing, err = tracing.Setup(os.Stderr)
			if err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if stopTracing != nil {
			return stopTracing(context.Background())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "уровень логирования: error | info | debug")
	rootCmd.PersistentFlags().BoolVar(&traceRuns, "trace", false, "печатать спаны OpenTelemetry в stderr")

	registerSolveCommand(rootCmd)
	registerGenerateCommand(rootCmd)
	registerBenchCommand(rootCmd)
	registerWidthCommand(rootCmd)
}

// instanceFlags binds the input file flags shared by solve and width.
func instanceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&jobFile, "jobs", "j", "", "CSV-файл с временами работ (id,p1..pm)")
	cmd.Flags().StringVarP(&constraintFile, "constraints", "c", "", "CSV-файл с ограничениями (id0,id1)")
	cmd.Flags().IntVarP(&declaredWidth, "width", "w", 0, "заявленная ширина порядка; 0 = не задана")
	_ = cmd.MarkFlagRequired("jobs")
	_ = cmd.MarkFlagRequired("constraints")
}
