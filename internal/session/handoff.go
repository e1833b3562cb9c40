package session

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseHandoffURL extracts the token and identity from an OAuth redirect such as
// https://app.example.com/?token=T&email=E&username=U
func ParseHandoffURL(raw string) (string, PartialUser, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", PartialUser{}, fmt.Errorf("failed to parse handoff URL: %w", err)
	}

	q := u.Query()
	// Some frontends put the parameters in the fragment
	if q.Get("token") == "" && u.Fragment != "" {
		if fq, err := url.ParseQuery(strings.TrimPrefix(u.Fragment, "?")); err == nil {
			q = fq
		}
	}

	token := q.Get("token")
	if token == "" {
		return "", PartialUser{}, ErrNoHandoffToken
	}

	return token, PartialUser{
		Email:    q.Get("email"),
		Username: q.Get("username"),
	}, nil
}
