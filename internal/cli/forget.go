package cli

import (
	"github.com/spf13/cobra"
)

var (
	forgetID        string
	forgetThreshold float64
	forgetHasThresh bool
)

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove a memory by id, or prune everything below an effective-strength threshold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		forgetHasThresh = cmd.Flags().Changed("threshold")

		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		n, err := e.Forget(cmd.Context(), forgetID, forgetThreshold, forgetHasThresh)
		if err != nil {
			exitErr("forget", err)
		}
		return printJSON(map[string]int{"removed": n})
	},
}

func init() {
	forgetCmd.Flags().StringVar(&forgetID, "id", "", "ID of a single memory to remove")
	forgetCmd.Flags().Float64Var(&forgetThreshold, "threshold", 0, "Prune all unpinned, non-root memories with effective strength below this value")
	RootCmd.AddCommand(forgetCmd)
}
