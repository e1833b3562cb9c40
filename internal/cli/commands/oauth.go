package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/querydesk/querydesk/internal/session"
	"github.com/spf13/cobra"
)

const googleLoginPath = "/api/auth/google/login"

// NewOAuthCmd creates the oauth command
func NewOAuthCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Sign in with Google in the browser",
		Long: `Sign in with Google in the browser.

After the browser finishes, copy the address it was redirected to and paste it
at the prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOAuth(commandContext(cmd), noBrowser,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL instead of opening it")

	return cmd
}

func runOAuth(ctx context.Context, noBrowser bool, opts ...Option) error {
	o, err := resolve(opts)
	if err != nil {
		return err
	}

	loginURL := strings.TrimRight(o.server.URL, "/") + googleLoginPath
	fmt.Fprintf(o.out, "Opening Google sign-in for %s (%s)...\n", o.server.Alias, o.server.URL)

	if noBrowser {
		fmt.Fprintf(o.out, "Please visit: %s\n", loginURL)
	} else if err := openBrowser(loginURL); err != nil {
		fmt.Fprintf(o.out, "⚠ Could not open browser automatically: %v\n", err)
		fmt.Fprintf(o.out, "Please visit: %s\n", loginURL)
	}

	redirect, err := promptLine("Redirect URL")
	if errors.Is(err, errNonInteractive) {
		return fmt.Errorf("oauth needs a terminal; use 'querydesk token <redirect-url>' instead")
	}
	if err != nil {
		return err
	}

	token, partial, err := session.ParseHandoffURL(redirect)
	if err != nil {
		return err
	}

	store, err := o.newSession()
	if err != nil {
		return err
	}

	if err := store.LoginWithToken(ctx, token, partial); err != nil {
		return fmt.Errorf("oauth login failed: %w", err)
	}

	if user := store.User(); user != nil {
		printUser(o.out, user)
	}

	return nil
}
