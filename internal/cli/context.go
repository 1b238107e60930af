package cli

import (
	"github.com/spf13/cobra"
)

var contextBudget int

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble a character-budgeted context block from relevant memories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		text, used, err := e.AssembleContext(cmd.Context(), args[0], contextBudget)
		if err != nil {
			exitErr("context", err)
		}
		return printJSON(map[string]interface{}{
			"context": text,
			"sources": used,
		})
	},
}

func init() {
	contextCmd.Flags().IntVar(&contextBudget, "budget", 2000, "Maximum characters in the assembled context")
	RootCmd.AddCommand(contextCmd)
}
