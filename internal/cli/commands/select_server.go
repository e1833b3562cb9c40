package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/querydesk/querydesk/internal/cli/config"
	"github.com/querydesk/querydesk/internal/cli/serverselect"
	"github.com/querydesk/querydesk/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ querydesk select-server                          # Interactive selection
  $ querydesk select-server https://api.example.com  # Select by URL
  $ querydesk select-server production               # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(urlOrAlias, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runSelectServer(urlOrAlias string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'querydesk init <url>' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		server, err = serverselect.GetServerByURLOrAlias(cfg, urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
