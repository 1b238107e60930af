package cli

import (
	"github.com/spf13/cobra"
)

var linkRelation string

var linkCmd = &cobra.Command{
	Use:   "link [id] [entity]",
	Short: "Attach an entity-graph link to an existing memory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		if err := e.Link(cmd.Context(), args[0], args[1], linkRelation); err != nil {
			exitErr("link", err)
		}
		return printJSON(map[string]bool{"ok": true})
	},
}

var relatedCmd = &cobra.Command{
	Use:   "related [entity]",
	Short: "List entities reachable from an entity via graph links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			exitErr("open engine", err)
		}
		defer e.Close()

		entities, err := e.RelatedEntities(cmd.Context(), args[0], relatedHops)
		if err != nil {
			exitErr("related", err)
		}
		return printJSON(entities)
	},
}

var relatedHops int

func init() {
	linkCmd.Flags().StringVar(&linkRelation, "rel", "", "Relation label for the link")
	relatedCmd.Flags().IntVar(&relatedHops, "hops", 1, "Maximum graph hops to traverse")
	RootCmd.AddCommand(linkCmd)
	RootCmd.AddCommand(relatedCmd)
}
