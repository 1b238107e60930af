package cli

import (
	"github.com/spf13/cobra"

	"github.com/tonitangpotato/neuromemory-ai/internal/engine"
	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

var (
	recallK             int
	recallKinds         []string
	recallMinConfidence float64
	recallGraphExpand   bool
	recallContext       []string
)

var recallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Retrieve memories relevant to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		var kinds []model.Kind
		for _, k := range recallKinds {
			kinds = append(kinds, model.Kind(k))
		}

		results, err := e.Recall(cmd.Context(), engine.RecallInput{
			Query:         args[0],
			K:             recallK,
			Context:       recallContext,
			Kinds:         kinds,
			MinConfidence: recallMinConfidence,
			GraphExpand:   recallGraphExpand,
		})
		if err != nil {
			exitErr("recall", err)
		}
		return printJSON(results)
	},
}

func init() {
	recallCmd.Flags().IntVar(&recallK, "k", 10, "Maximum number of results")
	recallCmd.Flags().StringSliceVar(&recallKinds, "kind", nil, "Restrict to these kinds (repeatable/comma-separated)")
	recallCmd.Flags().Float64Var(&recallMinConfidence, "min-confidence", 0, "Drop results below this confidence")
	recallCmd.Flags().BoolVar(&recallGraphExpand, "graph-expand", false, "Expand candidates via shared-entity graph links")
	recallCmd.Flags().StringSliceVar(&recallContext, "context", nil, "Recent conversation turns for spreading activation")
	RootCmd.AddCommand(recallCmd)
}
