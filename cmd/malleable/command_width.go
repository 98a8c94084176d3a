package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"malleableSched/internal/csvfile"
)

var widthCmd = &cobra.Command{
	Use:   "width",
	Short: "Вычислить ширину порядка (наибольшую антицепь)",
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := csvfile.ReadInstance(jobFile, constraintFile, declaredWidth)
		if err != nil {
			return err
		}
		w := inst.PrecedenceWidth()
		if inst.Width > 0 && w > inst.Width {
			fmt.Fprintf(cmd.OutOrStdout(), "%d (заявлено %d)\n", w, inst.Width)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), w)
		return nil
	},
}

func registerWidthCommand(root *cobra.Command) {
	root.AddCommand(widthCmd)
	instanceFlags(widthCmd)
}
