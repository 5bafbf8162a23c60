package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cosmoclear/cmd/cosmoclear/handlers"
)

// Browse returns the browse command.
func Browse() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse resources interactively",
		Long: `Open an interactive tree of the Cosmos DB resources.

Keys:
  ↑/↓      move
  →/enter  expand
  ←        collapse
  r        refresh the selected node
  R        reload everything
  c        clear the selected node
  q        quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Browse(cmd.Context(), configPath)
		},
	}
}
