package commands

import (
	"context"
	"fmt"

	"github.com/querydesk/querydesk/internal/cli/auth"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server and whether a token is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(commandContext(cmd), withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}
}

func runStatus(ctx context.Context, opts ...Option) error {
	o, err := resolve(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "Server: %s (%s)\n", o.server.Alias, o.server.URL)

	health, err := o.api.Health(ctx)
	if err != nil {
		fmt.Fprintf(o.out, "  API:   unreachable (%v)\n", err)
	} else {
		fmt.Fprintf(o.out, "  API:   %s\n", health.Status)
	}

	// Reads the persisted slot only; 'whoami' validates the token
	token, err := auth.ServerToken{Store: o.tokens, ServerURL: o.server.URL}.Load()
	switch {
	case err != nil:
		fmt.Fprintf(o.out, "  Token: unreadable (%v)\n", err)
	case token == "":
		fmt.Fprintln(o.out, "  Token: none")
	default:
		fmt.Fprintln(o.out, "  Token: stored")
	}

	return nil
}
