package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}
}

func runLogout(opts ...Option) error {
	o, err := resolve(opts)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "Signing out of %s (%s)\n", o.server.Alias, o.server.URL)
	store.Logout()

	return nil
}
