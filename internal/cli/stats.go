package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database-wide counts and anomaly flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		st, err := e.Stats(cmd.Context())
		if err != nil {
			exitErr("stats", err)
		}
		return printJSON(st)
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
