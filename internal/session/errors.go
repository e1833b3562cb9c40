package session

import (
	"errors"
	"fmt"
)

const (
	loginFailedMessage        = "Login failed"
	registrationFailedMessage = "Registration failed"
)

var (
	// ErrMissingDependency is returned by New when a required collaborator is nil
	ErrMissingDependency = errors.New("missing session dependency")
	// ErrNoSession is returned when session state is read without an initialized store
	ErrNoSession = errors.New("session store not initialized")
	// ErrMissingAccessToken means a 2xx login response carried no token
	ErrMissingAccessToken = errors.New("response did not include an access token")
	// ErrNoHandoffToken means a handoff URL carried no token parameter
	ErrNoHandoffToken = errors.New("handoff URL has no token")
)

// AuthError is a user-facing failure of a credential operation
type AuthError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// remoteError is implemented by API errors that carry an HTTP response
type remoteError interface {
	error
	StatusCode() int
	Detail() string
}

// newAuthError converts a non-2xx API error into an AuthError. Other errors
// (transport, decoding) are returned unchanged with context.
func newAuthError(err error, fallback string) error {
	var re remoteError
	if !errors.As(err, &re) {
		return fmt.Errorf("%s: %w", fallback, err)
	}

	msg := re.Detail()
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Message: msg, StatusCode: re.StatusCode(), Err: err}
}
