package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/querydesk/querydesk/internal/cli/auth"
	"github.com/querydesk/querydesk/internal/cli/client"
	"github.com/querydesk/querydesk/internal/cli/config"
	"github.com/querydesk/querydesk/internal/cli/serverselect"
	"github.com/querydesk/querydesk/internal/cli/userconfig"
	"github.com/querydesk/querydesk/internal/session"
	"github.com/spf13/cobra"
)

// APIClient is what commands need from the QueryDesk API
type APIClient interface {
	session.API
	Health(ctx context.Context) (*client.HealthResponse, error)
}

type runOptions struct {
	api       APIClient
	tokens    auth.TokenStore
	server    *config.Server
	out       io.Writer
	serverRef string
	nav       *terminalNavigator
}

// Option overrides a dependency of a command, mainly for tests
type Option func(*runOptions)

// WithAPIClient sets the API client
func WithAPIClient(api APIClient) Option {
	return func(o *runOptions) {
		o.api = api
	}
}

// WithTokenStore sets the token storage backend
func WithTokenStore(store auth.TokenStore) Option {
	return func(o *runOptions) {
		o.tokens = store
	}
}

// WithServer skips server resolution and uses the given server
func WithServer(server *config.Server) Option {
	return func(o *runOptions) {
		o.server = server
	}
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(o *runOptions) {
		o.out = w
	}
}

// withServerRef selects a server by URL or alias (the --server flag)
func withServerRef(ref string) Option {
	return func(o *runOptions) {
		o.serverRef = ref
	}
}

// resolve fills in every dependency that was not injected
func resolve(opts []Option) (*runOptions, error) {
	o := &runOptions{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	if o.server == nil {
		server, err := getSelectedServer(o.serverRef)
		if err != nil {
			return nil, err
		}
		o.server = server
	}

	if o.api == nil {
		var clientOpts []client.Option
		if o.server.Insecure {
			clientOpts = append(clientOpts, client.WithInsecureTLS())
		}
		o.api = client.New(o.server.URL, clientOpts...)
	}

	if o.tokens == nil {
		store, err := openTokenStore()
		if err != nil {
			return nil, err
		}
		o.tokens = store
	}

	return o, nil
}

// newSession builds the session store for the resolved server
func (o *runOptions) newSession() (*session.Store, error) {
	o.nav = &terminalNavigator{out: o.out, server: o.server}
	return session.New(session.Options{
		API:       o.api,
		Tokens:    auth.ServerToken{Store: o.tokens, ServerURL: o.server.URL},
		Navigator: o.nav,
	})
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(urlOrAlias string) (*config.Server, error) {
	if urlOrAlias == "" {
		urlOrAlias = os.Getenv("QUERYDESK_SERVER")
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'querydesk init <url>' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, urlOrAlias)
	if err != nil {
		return nil, err
	}

	if err := server.Validate(); err != nil {
		return nil, err
	}

	return server, nil
}

// openTokenStore picks the token backend from QUERYDESK_TOKEN_STORE or the user config
func openTokenStore() (auth.TokenStore, error) {
	backend := os.Getenv("QUERYDESK_TOKEN_STORE")
	if backend == "" {
		var err error
		backend, err = userconfig.GetTokenStore()
		if err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}
	return auth.Open(backend)
}

// serverFlag reads the persistent --server flag
func serverFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("server")
	return v
}

// commandContext returns the command's context, or Background when run directly
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// terminalNavigator turns session navigation into next-step hints
type terminalNavigator struct {
	out    io.Writer
	server *config.Server
	last   session.Route
}

func (n *terminalNavigator) Navigate(route session.Route) {
	n.last = route
	switch route {
	case session.RouteHome:
		fmt.Fprintf(n.out, "✓ Signed in to %s (%s)\n", n.server.Alias, n.server.URL)
	case session.RouteLogin:
		fmt.Fprintln(n.out, "Not signed in. Run 'querydesk login' to sign in.")
	}
}

// printUser writes the user's profile
func printUser(w io.Writer, user *session.User) {
	fmt.Fprintf(w, "  User:  %s (%s)\n", user.DisplayName(), user.Email)
	if user.Username != "" {
		fmt.Fprintf(w, "  Login: %s\n", user.Username)
	}
	if user.Role != "" {
		fmt.Fprintf(w, "  Role:  %s\n", user.Role)
	}
	if user.IsActive != nil && !*user.IsActive {
		fmt.Fprintln(w, "  Status: inactive")
	}
	if user.CreatedAt != nil {
		fmt.Fprintf(w, "  Since: %s\n", user.CreatedAt.Format("2006-01-02"))
	}
}
