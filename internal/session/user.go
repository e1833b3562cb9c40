package session

import (
	"time"
)

// DefaultRole is assigned to users synthesized from handoff data.
const DefaultRole = "user"

// User is the identity returned by GET /api/auth/me
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	Role           string     `json:"role"`
}

// DisplayName returns the best human-readable name for the user
func (u *User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ProfilePicture != nil {
		v := *u.ProfilePicture
		c.ProfilePicture = &v
	}
	if u.IsActive != nil {
		v := *u.IsActive
		c.IsActive = &v
	}
	if u.CreatedAt != nil {
		v := *u.CreatedAt
		c.CreatedAt = &v
	}
	return &c
}

// PartialUser is the identity data that accompanies an externally issued token
type PartialUser struct {
	Email    string
	Username string
}

// placeholder builds the minimal user record used when the profile fetch fails
func (p PartialUser) placeholder() *User {
	return &User{
		ID:       0,
		Email:    p.Email,
		Username: p.Username,
		FullName: p.Username,
		Role:     DefaultRole,
	}
}

// TokenResponse is the body returned by the login and register endpoints
type TokenResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
	Message     string `json:"message,omitempty"`
}

// State is a point-in-time copy of the session
type State struct {
	Token     string
	User      *User
	IsLoading bool
}

// SignedIn reports whether the snapshot carries a token
func (s State) SignedIn() bool {
	return s.Token != ""
}
