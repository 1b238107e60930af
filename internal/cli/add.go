package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonitangpotato/neuromemory-ai/internal/engine"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

var (
	addKind        string
	addImportance  float64
	addSource      string
	addTags        []string
	addEntities    []string
	addContradicts string
	addEmbed       bool
)

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Add a new memory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := contentFromArgsOrStdin(args)
		if err != nil {
			return err
		}

		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		id, err := e.Add(cmd.Context(), engine.AddInput{
			Content:       content,
			Kind:          model.Kind(addKind),
			Importance:    addImportance,
			Source:        addSource,
			Tags:          addTags,
			Entities:      addEntities,
			Contradicts:   addContradicts,
			WithEmbedding: addEmbed,
		})
		if err != nil {
			exitErr("add", err)
		}
		return printJSON(map[string]string{"id": id})
	},
}

func contentFromArgsOrStdin(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	info, err := os.Stdin.Stat()
	if err == nil && (info.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return "", nil
}

func init() {
	addCmd.Flags().StringVar(&addKind, "kind", "factual", "Memory kind: factual, episodic, relational, emotional, procedural, opinion")
	addCmd.Flags().Float64Var(&addImportance, "importance", 0, "Importance override 0-1 (0 = kind default)")
	addCmd.Flags().StringVar(&addSource, "source", "", "Source attribution")
	addCmd.Flags().StringSliceVar(&addTags, "tags", nil, "Comma-separated tags")
	addCmd.Flags().StringSliceVar(&addEntities, "entities", nil, "Comma-separated entity names for graph links")
	addCmd.Flags().StringVar(&addContradicts, "contradicts", "", "ID of a memory this one supersedes")
	addCmd.Flags().BoolVar(&addEmbed, "embed", false, "Compute and store a semantic embedding")
	RootCmd.AddCommand(addCmd)
}
