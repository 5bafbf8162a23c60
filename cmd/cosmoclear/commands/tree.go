package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cosmoclear/cmd/cosmoclear/handlers"
)

// Tree returns the tree command.
func Tree() *cobra.Command {
	var (
		depth  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the resource hierarchy",
		Long: `Print subscriptions, accounts, databases and containers.

Levels are fetched lazily down to --depth (1 = subscriptions only,
4 = down to containers). Lists that are empty or cannot be read are shown
as placeholders.

Example:
  cosmoclear tree --depth 4
  cosmoclear tree --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Tree(cmd.Context(), configPath, depth, asJSON)
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "Number of levels to expand (1-4)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON")

	return cmd
}
