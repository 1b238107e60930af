package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonitangpotato/neuromemory-ai/internal/engine"
	"github.com/tonitangpotato/neuromemory-ai/internal/importmd"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

var (
	importMDKind   string
	importMDSource string
)

var importMDCmd = &cobra.Command{
	Use:   "import-md [file]",
	Short: "Bulk-ingest a markdown document, one memory per section",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			exitErr("read markdown", err)
		}

		sections := importmd.Split(string(raw))

		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		ids := make([]string, 0, len(sections))
		for _, sec := range sections {
			id, err := e.Add(cmd.Context(), engine.AddInput{
				Content: sec.Content,
				Kind:    model.Kind(importMDKind),
				Source:  importMDSource,
				Tags:    sec.Tags,
			})
			if err != nil {
				exitErr("add section", err)
			}
			ids = append(ids, id)
		}
		return printJSON(map[string]interface{}{"imported": len(ids), "ids": ids})
	},
}

func init() {
	importMDCmd.Flags().StringVar(&importMDKind, "kind", "factual", "Memory kind to assign to each imported section")
	importMDCmd.Flags().StringVar(&importMDSource, "source", "", "Source attribution for imported sections")
	RootCmd.AddCommand(importMDCmd)
}
