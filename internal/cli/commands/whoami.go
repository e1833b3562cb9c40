package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/querydesk/querydesk/internal/session"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(commandContext(cmd), asJSON,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the user record as JSON")

	return cmd
}

func runWhoami(ctx context.Context, asJSON bool, opts ...Option) error {
	o, err := resolve(opts)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	// An invalid stored token is cleared and reported by the navigator
	store.Restore(ctx)

	return printSessionUser(o, store, asJSON)
}

func printSessionUser(o *runOptions, store *session.Store, asJSON bool) error {
	user := store.User()
	if user == nil {
		// An invalid token already produced the sign-in hint
		if o.nav.last != session.RouteLogin {
			fmt.Fprintf(o.out, "Not signed in to %s (%s)\n", o.server.Alias, o.server.URL)
		}
		return nil
	}

	if asJSON {
		data, err := json.MarshalIndent(user, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		fmt.Fprintln(o.out, string(data))
		return nil
	}

	fmt.Fprintf(o.out, "Signed in to %s (%s)\n", o.server.Alias, o.server.URL)
	printUser(o.out, user)
	return nil
}
