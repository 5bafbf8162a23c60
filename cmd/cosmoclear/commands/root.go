// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// configPath is bound to the persistent --config flag.
var configPath string

// Root returns the root command for the cosmoclear CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cosmoclear",
		Short: "Browse Azure Cosmos DB resources and clear their documents",
		Long: `cosmoclear lists the Cosmos DB resources reachable by the configured
tenants and deletes every document below a subscription, account, database
or container after an explicit confirmation.

Configuration is read from cosmoclear.yaml (searched upwards from the current
directory) and the environment, including a .env file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: search for cosmoclear.yaml)")

	cmd.AddCommand(Tree())
	cmd.AddCommand(Browse())
	cmd.AddCommand(Clear())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
