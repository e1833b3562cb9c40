package commands

import (
	"context"
	"fmt"

	"github.com/querydesk/querydesk/internal/session"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	var token, email, username string

	cmd := &cobra.Command{
		Use:   "token [redirect-url]",
		Short: "Sign in with a token issued by an external login",
		Long: `Sign in with a token issued by an external login such as Google sign-in.

Pass the full redirect URL the browser landed on, or the token directly:

  $ querydesk token 'https://app.example.com/auth/callback?token=...&email=...&username=...'
  $ querydesk token --token eyJ... --email me@example.com --username me`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial := session.PartialUser{Email: email, Username: username}
			if len(args) == 1 {
				var err error
				token, partial, err = session.ParseHandoffURL(args[0])
				if err != nil {
					return err
				}
			}
			return runToken(commandContext(cmd), token, partial,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&email, "email", "", "Email the token was issued for")
	cmd.Flags().StringVar(&username, "username", "", "Username the token was issued for")

	return cmd
}

func runToken(ctx context.Context, token string, partial session.PartialUser, opts ...Option) error {
	if token == "" {
		return fmt.Errorf("a token is required (pass a redirect URL or use --token)")
	}

	o, err := resolve(opts)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	if err := store.LoginWithToken(ctx, token, partial); err != nil {
		return fmt.Errorf("token login failed: %w", err)
	}

	if user := store.User(); user != nil {
		printUser(o.out, user)
	}

	return nil
}
