package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/cosmoclear/cmd/cosmoclear/handlers"
)

// Clear returns the clear command.
func Clear() *cobra.Command {
	var opts handlers.ClearOptions

	cmd := &cobra.Command{
		Use:   "clear <subscription>[/<account>[/<database>[/<container>]]]",
		Short: "Delete every document below a resource",
		Long: `Delete every document in every container at or below the given resource.

Path segments are matched against display names, then ids. Subscriptions,
accounts and databases require typing the exact name to confirm; containers
require choosing Yes. The databases and containers themselves are kept.

Example:
  cosmoclear clear "Production/orders-account/orders"
  cosmoclear clear "Production/orders-account/orders/events" --confirm Yes

WARNING: Deleted documents cannot be recovered unless archiving is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.HasConfirm = cmd.Flags().Changed("confirm")
			return handlers.Clear(cmd.Context(), configPath, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", "Answer the confirmation prompt non-interactively")

	return cmd
}
