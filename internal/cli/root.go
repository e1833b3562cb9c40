package cli

import (
	"fmt"
	"os"

	"github.com/querydesk/querydesk/internal/cli/commands"
	"github.com/querydesk/querydesk/internal/logger"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var (
	serverRef string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "querydesk",
	Short: "QueryDesk - sign in to QueryDesk servers from the terminal",
	Long: `QueryDesk CLI - Manage your QueryDesk session.

Sign in, register and inspect the signed-in user for each server listed in
querydesk.json. Tokens are kept in the OS keychain by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logLevel
		if !cmd.Flags().Changed("log-level") && os.Getenv("QUERYDESK_LOG_LEVEL") != "" {
			level = os.Getenv("QUERYDESK_LOG_LEVEL")
		}
		// Diagnostics go to stderr so command output stays scriptable
		logger.InitTo(os.Stderr, level, "console")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverRef, "server", "", "Server URL or alias to use (or set QUERYDESK_SERVER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, off; or set QUERYDESK_LOG_LEVEL)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "querydesk version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewRefreshCmd())
	rootCmd.AddCommand(commands.NewTokenCmd())
	rootCmd.AddCommand(commands.NewOAuthCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
