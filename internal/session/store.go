// Package session holds the signed-in state of the CLI: the bearer token,
// the user it authenticates, and the operations that change them by calling
// the QueryDesk auth API.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API is the subset of the remote auth service the store depends on
type API interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Register(ctx context.Context, payload any) (*TokenResponse, error)
	Me(ctx context.Context, token string) (*User, error)
}

// PersistedToken is the durable slot holding the token across restarts.
// Load returns an empty string when nothing is stored.
type PersistedToken interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Options configures a Store. API and Tokens are required.
type Options struct {
	API       API
	Tokens    PersistedToken
	Navigator Navigator
	Logger    *zerolog.Logger
}

// Store is the single source of truth for who is signed in.
// The mutex guards field access only; operations are not serialized
// against each other.
type Store struct {
	api    API
	tokens PersistedToken
	nav    Navigator
	logger zerolog.Logger

	mu        sync.RWMutex
	token     string
	user      *User
	isLoading bool
	restored  bool
}

// New creates a store in the loading state. Call Restore to finish startup.
func New(opts Options) (*Store, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("%w: API", ErrMissingDependency)
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token storage", ErrMissingDependency)
	}

	nav := opts.Navigator
	if nav == nil {
		nav = noopNavigator{}
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Store{
		api:       opts.API,
		tokens:    opts.Tokens,
		nav:       nav,
		logger:    logger.With().Str("component", "session").Logger(),
		isLoading: true,
	}, nil
}

// Token returns the current bearer token, or "" when signed out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.clone()
}

// IsLoading reports whether the startup restore is still running
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// SignedIn reports whether a token is held
func (s *Store) SignedIn() bool {
	return s.Token() != ""
}

// Snapshot returns a consistent copy of the whole session
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Token:     s.token,
		User:      s.user.clone(),
		IsLoading: s.isLoading,
	}
}

// Restore loads the persisted token and re-derives the user from the server.
// Any failure leaves the session signed out. Only the first call does work.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	s.restored = true
	s.mu.Unlock()

	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read persisted token")
		token = ""
	}

	if token == "" {
		s.setLoading(false)
		return
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Stored session is no longer valid")
		s.clear()
		s.setLoading(false)
		s.nav.Navigate(RouteLogin)
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.isLoading = false
	s.mu.Unlock()

	s.logger.Debug().Int64("user_id", user.ID).Msg("Session restored")
}

// Login exchanges credentials for a token. Non-2xx responses return an
// *AuthError and leave the session untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return newAuthError(err, loginFailedMessage)
	}

	if resp == nil || resp.AccessToken == "" {
		return &AuthError{Message: loginFailedMessage, Err: ErrMissingAccessToken}
	}

	if err := s.establish(ctx, resp, loginFailedMessage); err != nil {
		return err
	}

	s.nav.Navigate(RouteHome)
	return nil
}

// Register creates an account. A 2xx response without a token (for example
// when email verification is required) sends the user to the login view
// without establishing a session.
func (s *Store) Register(ctx context.Context, payload any) error {
	resp, err := s.api.Register(ctx, payload)
	if err != nil {
		return newAuthError(err, registrationFailedMessage)
	}

	if resp == nil || resp.AccessToken == "" {
		s.logger.Info().Msg("Registration accepted without a session")
		s.nav.Navigate(RouteLogin)
		return nil
	}

	if err := s.establish(ctx, resp, registrationFailedMessage); err != nil {
		return err
	}

	s.nav.Navigate(RouteHome)
	return nil
}

// LoginWithToken adopts an externally issued token. A failed profile fetch
// does not revert the handoff: the user is synthesized from partial.
func (s *Store) LoginWithToken(ctx context.Context, token string, partial PartialUser) error {
	if token == "" {
		return ErrNoHandoffToken
	}

	if err := s.tokens.Save(token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", partial.Email).Msg("Profile fetch failed after token handoff, using partial user data")
		user = partial.placeholder()
	}

	s.mu.Lock()
	if s.token == token {
		s.user = user
	}
	s.mu.Unlock()

	s.nav.Navigate(RouteHome)
	return nil
}

// Logout forgets the token everywhere and sends the user to the login view.
// It never fails and is idempotent.
func (s *Store) Logout() {
	s.clear()
	s.nav.Navigate(RouteLogin)
}

// RefreshUser re-fetches the profile for the current token. Failures are
// logged and the existing user is kept.
func (s *Store) RefreshUser(ctx context.Context) {
	token := s.Token()
	if token == "" {
		return
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to refresh user")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A logout or a new login may have landed while the request was in flight
	if s.token == token {
		s.user = user
	}
}

// establish stores the token and populates the user after a successful
// login or registration.
func (s *Store) establish(ctx context.Context, resp *TokenResponse, failMessage string) error {
	if err := s.tokens.Save(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	user := resp.User
	if user == nil {
		s.mu.Lock()
		s.token = resp.AccessToken
		s.mu.Unlock()

		fetched, err := s.api.Me(ctx, resp.AccessToken)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to load profile for new session")
			s.Logout()
			var re remoteError
			status := 0
			if errors.As(err, &re) {
				status = re.StatusCode()
			}
			return &AuthError{Message: failMessage, StatusCode: status, Err: err}
		}
		user = fetched
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = user
	s.mu.Unlock()

	s.logger.Debug().Int64("user_id", user.ID).Msg("Session established")
	return nil
}

func (s *Store) clear() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted token")
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.isLoading = v
	s.mu.Unlock()
}
