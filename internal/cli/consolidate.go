package cli

import (
	"github.com/spf13/cobra"
)

var consolidateDeltaT float64

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run one consolidation cycle (decay, transfer, replay, layer transitions)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		report, err := e.Consolidate(cmd.Context(), consolidateDeltaT)
		if err != nil {
			exitErr("consolidate", err)
		}
		return printJSON(report)
	},
}

func init() {
	consolidateCmd.Flags().Float64Var(&consolidateDeltaT, "delta-t", 1.0, "Elapsed simulated days since the last cycle")
	RootCmd.AddCommand(consolidateCmd)
}
