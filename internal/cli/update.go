package cli

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [old-id] [new-content]",
	Short: "Supersede a memory with corrected content, preserving the contradiction chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		newID, err := e.UpdateMemory(cmd.Context(), args[0], args[1])
		if err != nil {
			exitErr("update", err)
		}
		return printJSON(map[string]string{"id": newID})
	},
}

func init() {
	RootCmd.AddCommand(updateCmd)
}
