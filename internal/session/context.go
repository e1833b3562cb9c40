package session

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying the store
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store attached to ctx, or ErrNoSession
func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// MustFromContext is like FromContext but panics when no store is attached.
// Reaching for the session outside its owner is a programming error.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
