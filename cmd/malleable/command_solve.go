package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malleableSched/internal/csvfile"
	"malleableSched/internal/engine"
	"malleableSched/internal/render"
	"malleableSched/internal/tracing"
)

var (
	compact     bool
	strictWidth bool
	standalone  bool
	renderOut   bool
	renderPath  string
	solveSeed   int64
)

var solveCmd = &cobra.Command{
	Use:       "solve dp|lp|ilp|sa",
	Short:     "Построить расписание выбранным алгоритмом",
	Long:      "Читает экземпляр из двух CSV-файлов, строит расписание и печатает строку tag,n,m,makespan",
	Args:      cobra.ExactArgs(1),
	ValidArgs: engine.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		return solve(cmd, args[0])
	},
}

func registerSolveCommand(root *cobra.Command) {
	root.AddCommand(solveCmd)

	instanceFlags(solveCmd)
	solveCmd.Flags().BoolVar(&compact, "compact", false, "уплотнить расписание LP/ILP/SA")
	solveCmd.Flags().BoolVar(&strictWidth, "strict-width", false, "DP: ошибка, если реальная ширина больше заявленной")
	solveCmd.Flags().BoolVar(&standalone, "standalone", false, "LP/ILP: только собственное округление, без сверки с DP и LP")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 1, "сид для SA")
	solveCmd.Flags().BoolVar(&renderOut, "render", false, "сохранить диаграмму Ганта")
	solveCmd.Flags().StringVarP(&renderPath, "out", "o", "", "путь к диаграмме (по умолчанию schedules/<alg>_n<n>_m<m>.svg)")
}

func solve(cmd *cobra.Command, name string) error {
	inst, err := csvfile.ReadInstance(jobFile, constraintFile, declaredWidth)
	if err != nil {
		return err
	}
	op, err := engine.New(name, engine.Options{Compact: compact, StrictWidth: strictWidth, Seed: solveSeed, Standalone: standalone}, log)
	if err != nil {
		return err
	}

	res, err := tracing.Solve(cmd.Context(), op, inst, log)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := res.Schedule.Validate(inst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info("Schedule built",
		zap.String("engine", name),
		zap.Int("makespan", res.Makespan),
		zap.Int("lower_bound", inst.LowerBound()),
		zap.Duration("duration", res.Duration))

	if err := csvfile.WriteResult(cmd.OutOrStdout(), name, inst.N(), inst.Machines, res.Makespan); err != nil {
		return err
	}

	if renderOut {
		path := renderPath
		if path == "" {
			path = render.FileName(name, inst.N(), inst.Machines)
		}
		title := fmt.Sprintf("%s: n=%d m=%d makespan=%d", name, inst.N(), inst.Machines, res.Makespan)
		if err := render.Write(res.Schedule, title, path); err != nil {
			log.Error("Render failed", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("Gantt chart saved", zap.String("path", path))
		}
	}
	return nil
}
