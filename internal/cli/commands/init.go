package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/querydesk/querydesk/internal/cli/client"
	"github.com/querydesk/querydesk/internal/cli/config"
	"github.com/spf13/cobra"
)

// initOptions controls side effects of init, so tests can skip the network
type initOptions struct {
	skipHealthCheck bool
	insecure        bool
	alias           string
	out             io.Writer
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <url>",
		Short: "Add a QueryDesk server to querydesk.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			return runInitWithOptions(commandContext(cmd), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Alias for the server (default production, then server-N)")
	cmd.Flags().BoolVar(&opts.insecure, "insecure", false, "Skip TLS verification for this server")

	return cmd
}

func runInitWithOptions(ctx context.Context, args []string, opts *initOptions) error {
	out := opts.out
	if out == nil {
		out = os.Stdout
	}

	serverURL := strings.TrimRight(strings.TrimSpace(args[0]), "/")
	if !strings.Contains(serverURL, "://") {
		serverURL = "https://" + serverURL
	}

	newServer := config.Server{URL: serverURL, Alias: opts.alias, Insecure: opts.insecure}
	if err := newServer.Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)
	for _, name := range []string{config.YAMLConfigFileName, "querydesk.yml"} {
		if p := filepath.Join(currentDir, name); fileExists(p) {
			configPath = p
			break
		}
	}

	var cfg *config.Config
	isNewConfig := false

	if fileExists(configPath) {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", filepath.Base(configPath))
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetServerByURL(serverURL); err == nil {
		fmt.Fprintf(out, "Server %s already exists in %s\n", serverURL, filepath.Base(configPath))
	} else {
		if newServer.Alias == "" {
			if len(cfg.Servers) == 0 {
				newServer.Alias = "production"
			} else {
				newServer.Alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
			}
		}
		if _, err := cfg.GetServerByAlias(newServer.Alias); err == nil {
			return fmt.Errorf("alias %q is already used in %s", newServer.Alias, filepath.Base(configPath))
		}

		cfg.Servers = append(cfg.Servers, newServer)

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", filepath.Base(configPath), serverURL, newServer.Alias)
		} else {
			fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", serverURL, newServer.Alias, filepath.Base(configPath))
		}
	}

	if !opts.skipHealthCheck {
		var clientOpts []client.Option
		if opts.insecure {
			clientOpts = append(clientOpts, client.WithInsecureTLS())
		}
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := client.New(serverURL, clientOpts...).Health(checkCtx); err != nil {
			fmt.Fprintf(out, "⚠ Could not reach %s: %v\n", serverURL, err)
		}
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'querydesk register' to create an account")
	fmt.Fprintln(out, "  2. Run 'querydesk login' to sign in")

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
