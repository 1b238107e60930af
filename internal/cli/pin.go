package cli

import (
	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin [id]",
	Short: "Pin a memory, making it immune to consolidation and pruning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		if err := e.Pin(cmd.Context(), args[0]); err != nil {
			exitErr("pin", err)
		}
		return printJSON(map[string]bool{"ok": true})
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin [id]",
	Short: "Clear a memory's pinned flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		if err := e.Unpin(cmd.Context(), args[0]); err != nil {
			exitErr("unpin", err)
		}
		return printJSON(map[string]bool{"ok": true})
	},
}

func init() {
	RootCmd.AddCommand(pinCmd)
	RootCmd.AddCommand(unpinCmd)
}
