package cli

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the database to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		if err := e.Export(cmd.Context(), args[0]); err != nil {
			exitErr("export", err)
		}
		return printJSON(map[string]bool{"ok": true})
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
}
