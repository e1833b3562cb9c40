package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusErr mimics the client's API error
type statusErr struct {
	code   int
	detail string
}

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d: %s", e.code, e.detail) }
func (e *statusErr) StatusCode() int { return e.code }
func (e *statusErr) Detail() string  { return e.detail }

type fakeAPI struct {
	mu sync.Mutex

	loginResp *TokenResponse
	loginErr  error
	regResp   *TokenResponse
	regErr    error
	meUser    *User
	meErr     error

	loginCalls  int
	meCalls     int
	meTokens    []string
	lastPayload any
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(ctx context.Context, payload any) (*TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPayload = payload
	return f.regResp, f.regErr
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	f.meTokens = append(f.meTokens, token)
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.meUser.clone(), nil
}

type memToken struct {
	value   string
	saveErr error
	loadErr error
}

func (m *memToken) Load() (string, error) { return m.value, m.loadErr }
func (m *memToken) Save(token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.value = token
	return nil
}
func (m *memToken) Clear() error {
	m.value = ""
	return nil
}

type recordingNav struct {
	routes []Route
}

func (r *recordingNav) Navigate(route Route) {
	r.routes = append(r.routes, route)
}

func (r *recordingNav) last() Route {
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func newTestStore(t *testing.T, api *fakeAPI, tokens *memToken) (*Store, *recordingNav) {
	t.Helper()
	nav := &recordingNav{}
	logger := zerolog.Nop()
	s, err := New(Options{API: api, Tokens: tokens, Navigator: nav, Logger: &logger})
	require.NoError(t, err)
	return s, nav
}

func sampleUser(id int64) *User {
	return &User{ID: id, Email: "a@b.com", Username: "alice", FullName: "Alice A", Role: "employee"}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Tokens: &memToken{}})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = New(Options{API: &fakeAPI{}})
	assert.ErrorIs(t, err, ErrMissingDependency)

	s, err := New(Options{API: &fakeAPI{}, Tokens: &memToken{}})
	require.NoError(t, err)
	assert.True(t, s.IsLoading())
	assert.False(t, s.SignedIn())
}

func TestRestore_NoToken(t *testing.T) {
	api := &fakeAPI{}
	s, nav := newTestStore(t, api, &memToken{})

	s.Restore(context.Background())

	assert.False(t, s.IsLoading())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Zero(t, api.meCalls)
	assert.Empty(t, nav.routes)
}

func TestRestore_ValidToken(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(7)}
	s, nav := newTestStore(t, api, &memToken{value: "stored"})

	s.Restore(context.Background())

	assert.False(t, s.IsLoading())
	assert.Equal(t, "stored", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, int64(7), s.User().ID)
	assert.Equal(t, []string{"stored"}, api.meTokens)
	assert.Empty(t, nav.routes)
}

func TestRestore_InvalidTokenSignsOut(t *testing.T) {
	for name, meErr := range map[string]error{
		"unauthorized":  &statusErr{code: 401, detail: "Could not validate credentials"},
		"network error": errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			tokens := &memToken{value: "stale"}
			s, nav := newTestStore(t, &fakeAPI{meErr: meErr}, tokens)

			s.Restore(context.Background())

			assert.False(t, s.IsLoading())
			assert.Empty(t, s.Token())
			assert.Nil(t, s.User())
			assert.Empty(t, tokens.value, "persisted token should be cleared")
			assert.Equal(t, RouteLogin, nav.last())
		})
	}
}

func TestRestore_RunsOnce(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(1)}
	s, _ := newTestStore(t, api, &memToken{value: "T"})

	s.Restore(context.Background())
	s.Restore(context.Background())

	assert.Equal(t, 1, api.meCalls)
}

func TestLogin_ResponseWithUser(t *testing.T) {
	user := sampleUser(1)
	api := &fakeAPI{loginResp: &TokenResponse{AccessToken: "T", User: user}}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)

	err := s.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "T", s.Token())
	assert.Equal(t, "T", tokens.value)
	assert.Equal(t, user, s.User())
	assert.Zero(t, api.meCalls, "user in response must not trigger a profile fetch")
	assert.Equal(t, []Route{RouteHome}, nav.routes)
}

func TestLogin_ResponseWithoutUserFetchesProfile(t *testing.T) {
	api := &fakeAPI{
		loginResp: &TokenResponse{AccessToken: "T"},
		meUser:    sampleUser(42),
	}
	s, nav := newTestStore(t, api, &memToken{})

	require.NoError(t, s.Login(context.Background(), "a@b.com", "pw"))

	assert.Equal(t, []string{"T"}, api.meTokens)
	assert.Equal(t, int64(42), s.User().ID)
	assert.Equal(t, RouteHome, nav.last())
}

func TestLogin_ProfileFetchFailureSignsOut(t *testing.T) {
	api := &fakeAPI{
		loginResp: &TokenResponse{AccessToken: "T"},
		meErr:     &statusErr{code: 500},
	}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)

	err := s.Login(context.Background(), "a@b.com", "pw")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login failed", authErr.Message)
	assert.Empty(t, s.Token())
	assert.Empty(t, tokens.value)
	assert.Equal(t, RouteLogin, nav.last())
}

func TestLogin_Unauthorized(t *testing.T) {
	api := &fakeAPI{loginErr: &statusErr{code: 401, detail: "Invalid credentials"}}
	tokens := &memToken{value: "previous"}
	s, nav := newTestStore(t, api, tokens)
	before := s.Snapshot()

	err := s.Login(context.Background(), "a@b.com", "bad")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Error())
	assert.Equal(t, 401, authErr.StatusCode)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, "previous", tokens.value)
	assert.Empty(t, nav.routes)
}

func TestLogin_GenericMessageWithoutDetail(t *testing.T) {
	api := &fakeAPI{loginErr: &statusErr{code: 500}}
	s, _ := newTestStore(t, api, &memToken{})

	err := s.Login(context.Background(), "a@b.com", "pw")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login failed", authErr.Message)
}

func TestLogin_TransportErrorIsNotAuthError(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("dial tcp: connection refused")}
	s, _ := newTestStore(t, api, &memToken{})

	err := s.Login(context.Background(), "a@b.com", "pw")

	require.Error(t, err)
	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, s.Token())
}

func TestLogin_MissingAccessToken(t *testing.T) {
	api := &fakeAPI{loginResp: &TokenResponse{}}
	s, _ := newTestStore(t, api, &memToken{})

	err := s.Login(context.Background(), "a@b.com", "pw")

	assert.ErrorIs(t, err, ErrMissingAccessToken)
	assert.Empty(t, s.Token())
}

func TestLogin_PersistFailureLeavesStateUnchanged(t *testing.T) {
	api := &fakeAPI{loginResp: &TokenResponse{AccessToken: "T", User: sampleUser(1)}}
	s, nav := newTestStore(t, api, &memToken{saveErr: errors.New("keyring locked")})

	err := s.Login(context.Background(), "a@b.com", "pw")

	require.Error(t, err)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Empty(t, nav.routes)
}

func TestRegister_WithoutTokenNavigatesToLogin(t *testing.T) {
	api := &fakeAPI{regResp: &TokenResponse{}}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)

	payload := map[string]string{"email": "a@b.com"}
	require.NoError(t, s.Register(context.Background(), payload))

	assert.Equal(t, payload, api.lastPayload)
	assert.Equal(t, []Route{RouteLogin}, nav.routes)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Empty(t, tokens.value)
}

func TestRegister_WithTokenSignsIn(t *testing.T) {
	api := &fakeAPI{regResp: &TokenResponse{AccessToken: "R", User: sampleUser(3)}}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)

	require.NoError(t, s.Register(context.Background(), map[string]string{}))

	assert.Equal(t, "R", s.Token())
	assert.Equal(t, "R", tokens.value)
	assert.Equal(t, int64(3), s.User().ID)
	assert.Equal(t, []Route{RouteHome}, nav.routes)
}

func TestRegister_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"server detail", &statusErr{code: 400, detail: "Email already registered"}, "Email already registered"},
		{"no detail", &statusErr{code: 500}, "Registration failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, nav := newTestStore(t, &fakeAPI{regErr: tt.err}, &memToken{})

			err := s.Register(context.Background(), nil)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.message, authErr.Message)
			assert.Empty(t, nav.routes)
		})
	}
}

func TestLoginWithToken_UsesServerRecord(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(9)}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)

	err := s.LoginWithToken(context.Background(), "ext", PartialUser{Email: "x@y.com", Username: "x"})
	require.NoError(t, err)

	assert.Equal(t, "ext", tokens.value)
	assert.Equal(t, "ext", s.Token())
	assert.Equal(t, int64(9), s.User().ID)
	assert.Equal(t, RouteHome, nav.last())
}

func TestLoginWithToken_FallsBackToPartialData(t *testing.T) {
	for name, meErr := range map[string]error{
		"non-2xx":       &statusErr{code: 401},
		"network error": errors.New("timeout"),
	} {
		t.Run(name, func(t *testing.T) {
			tokens := &memToken{}
			s, _ := newTestStore(t, &fakeAPI{meErr: meErr}, tokens)

			err := s.LoginWithToken(context.Background(), "ext", PartialUser{Email: "x@y.com", Username: "xavier"})
			require.NoError(t, err)

			user := s.User()
			require.NotNil(t, user)
			assert.Equal(t, int64(0), user.ID)
			assert.Equal(t, "user", user.Role)
			assert.Equal(t, "xavier", user.FullName)
			assert.Equal(t, "xavier", user.Username)
			assert.Equal(t, "x@y.com", user.Email)
			assert.Equal(t, "ext", s.Token())
			assert.Equal(t, "ext", tokens.value)
		})
	}
}

func TestLoginWithToken_EmptyToken(t *testing.T) {
	s, _ := newTestStore(t, &fakeAPI{}, &memToken{})
	assert.ErrorIs(t, s.LoginWithToken(context.Background(), "", PartialUser{}), ErrNoHandoffToken)
}

func TestLogout_ClearsAndIsIdempotent(t *testing.T) {
	api := &fakeAPI{loginResp: &TokenResponse{AccessToken: "T", User: sampleUser(1)}}
	tokens := &memToken{}
	s, nav := newTestStore(t, api, tokens)
	require.NoError(t, s.Login(context.Background(), "a@b.com", "pw"))

	s.Logout()
	first := s.Snapshot()
	s.Logout()

	assert.Equal(t, first, s.Snapshot())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Empty(t, tokens.value)
	assert.Equal(t, []Route{RouteHome, RouteLogin, RouteLogin}, nav.routes)
}

func TestLogout_WhenSignedOut(t *testing.T) {
	s, nav := newTestStore(t, &fakeAPI{}, &memToken{})

	s.Logout()

	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Equal(t, RouteLogin, nav.last())
}

func TestRefreshUser_NoTokenIsNoop(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(1)}
	s, _ := newTestStore(t, api, &memToken{})

	s.RefreshUser(context.Background())

	assert.Zero(t, api.meCalls)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestRefreshUser_UpdatesUser(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(1)}
	s, _ := newTestStore(t, api, &memToken{value: "T"})
	s.Restore(context.Background())

	api.meUser = &User{ID: 1, Email: "a@b.com", FullName: "Renamed"}
	s.RefreshUser(context.Background())

	assert.Equal(t, "Renamed", s.User().FullName)
}

func TestRefreshUser_FailureKeepsUser(t *testing.T) {
	api := &fakeAPI{meUser: sampleUser(1)}
	s, nav := newTestStore(t, api, &memToken{value: "T"})
	s.Restore(context.Background())

	api.meErr = &statusErr{code: 503}
	s.RefreshUser(context.Background())

	assert.Equal(t, "T", s.Token())
	assert.Equal(t, sampleUser(1), s.User())
	assert.Empty(t, nav.routes)
}

func TestUser_ReturnsCopy(t *testing.T) {
	api := &fakeAPI{loginResp: &TokenResponse{AccessToken: "T", User: sampleUser(1)}}
	s, _ := newTestStore(t, api, &memToken{})
	require.NoError(t, s.Login(context.Background(), "a@b.com", "pw"))

	u := s.User()
	u.FullName = "mutated"

	assert.Equal(t, "Alice A", s.User().FullName)
}

func TestContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	s, _ := newTestStore(t, &fakeAPI{}, &memToken{})
	ctx := NewContext(context.Background(), s)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, s, got)
}
