package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/querydesk/querydesk/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on a QueryDesk server",
		Long: `Create an account on a QueryDesk server.

Missing fields are prompted for when running in a terminal. If the server
signs new accounts in immediately, you are logged in; otherwise confirm your
email and run 'querydesk login'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(commandContext(cmd), req,
				withServerRef(serverFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func runRegister(ctx context.Context, req client.RegisterRequest, opts ...Option) error {
	fields := []struct {
		label string
		flag  string
		value *string
	}{
		{"Email", "--email", &req.Email},
		{"Username", "--username", &req.Username},
		{"Full name", "--full-name", &req.FullName},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := promptLine(f.label)
		if errors.Is(err, errNonInteractive) {
			return fmt.Errorf("%s is required in non-interactive mode", f.flag)
		}
		if err != nil {
			return err
		}
		*f.value = v
	}

	if req.Password == "" {
		var err error
		req.Password, err = readPassword("Password")
		if errors.Is(err, errNonInteractive) {
			return fmt.Errorf("--password is required in non-interactive mode")
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

	fmt.Fprintf(o.out, "Creating account on %s (%s)...\n", o.server.Alias, o.server.URL)

	if err := store.Register(ctx, req); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if user := store.User(); user != nil {
		printUser(o.out, user)
	} else {
		fmt.Fprintln(o.out, "✓ Account created. Check your email to verify it before logging in.")
	}

	return nil
}
