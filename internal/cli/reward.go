package cli

import (
	"github.com/spf13/cobra"
)

var rewardCmd = &cobra.Command{
	Use:   "reward [feedback]",
	Short: "Apply reward-polarity feedback to recently-accessed memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		n, err := e.Reward(cmd.Context(), args[0])
		if err != nil {
			exitErr("reward", err)
		}
		return printJSON(map[string]int{"affected": n})
	},
}

func init() {
	RootCmd.AddCommand(rewardCmd)
}
