package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a QueryDesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(commandContext(cmd), email, password,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set QUERYDESK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set QUERYDESK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("QUERYDESK_EMAIL")
	}
	if password == "" {
		password = os.Getenv("QUERYDESK_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or QUERYDESK_EMAIL env var)")
	}

	if password == "" {
		var err error
		password, err = readPassword("Password")
		if errors.Is(err, errNonInteractive) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or QUERYDESK_PASSWORD env var)")
		}
		if err != nil {
			return err
		}
	}

	o, err := resolve(opts)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "Logging in to %s (%s)...\n", o.server.Alias, o.server.URL)

	if err := store.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if user := store.User(); user != nil {
		printUser(o.out, user)
	}

	return nil
}
