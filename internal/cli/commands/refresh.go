package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch the signed-in user's profile",
		Long: `Re-fetch the signed-in user's profile from the server.

A failed refresh keeps the last known profile and does not sign you out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(commandContext(cmd), asJSON,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the user record as JSON")

	return cmd
}

func runRefresh(ctx context.Context, asJSON bool, opts ...Option) error {
	o, err := resolve(opts)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	store.Restore(ctx)
	store.RefreshUser(ctx)

	return printSessionUser(o, store, asJSON)
}
