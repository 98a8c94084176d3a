package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malleableSched/internal/csvfile"
	"malleableSched/internal/generate"
)

var genCfg = generate.DefaultConfig()

var (
	arbitrary bool
	genSeed   int64
	jobsOut   string
	consOut   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Сгенерировать случайный экземпляр из omega цепочек",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := genCfg
		cfg.Concave = !arbitrary
		inst, err := generate.Instance(cfg, rand.New(rand.NewSource(genSeed)))
		if err != nil {
			return err
		}
		if err := csvfile.WriteInstance(jobsOut, consOut, inst); err != nil {
			return err
		}
		log.Info("Instance written",
			zap.String("jobs", jobsOut),
			zap.String("constraints", consOut),
			zap.Int("n", inst.N()),
			zap.Int("m", inst.Machines),
			zap.Int("width", inst.Width))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", jobsOut, consOut)
		return nil
	},
}

func registerGenerateCommand(root *cobra.Command) {
	root.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&genCfg.Jobs, "size", "n", genCfg.Jobs, "количество работ")
	generateCmd.Flags().IntVarP(&genCfg.Machines, "machines", "m", genCfg.Machines, "количество процессоров")
	generateCmd.Flags().IntVar(&genCfg.Omega, "omega", genCfg.Omega, "количество цепочек (ширина порядка)")
	generateCmd.Flags().IntVar(&genCfg.MinChain, "min-chain", genCfg.MinChain, "минимальная длина цепочки")
	generateCmd.Flags().IntVar(&genCfg.MaxChain, "max-chain", genCfg.MaxChain, "максимальная длина цепочки")
	generateCmd.Flags().IntVar(&genCfg.MinTime, "min-time", genCfg.MinTime, "минимальное время на одном процессоре")
	generateCmd.Flags().IntVar(&genCfg.MaxTime, "max-time", genCfg.MaxTime, "максимальное время на одном процессоре")
	generateCmd.Flags().BoolVar(&arbitrary, "arbitrary", false, "произвольные невозрастающие времена вместо p/min(k, cutoff)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "сид генератора")
	generateCmd.Flags().StringVar(&jobsOut, "jobs-out", "data/jobs.csv", "куда записать файл работ")
	generateCmd.Flags().StringVar(&consOut, "constraints-out", "data/constraints.csv", "куда записать файл ограничений")
}
