// Package auth carries the authenticated user identity through a context.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthorized is returned when an operation requires a user and none is set.
var ErrUnauthorized = errors.New("unauthorized: no user in context")

type contextKey struct{}

// WithUser returns a context carrying the given user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, strings.TrimSpace(userID))
}

// UserID resolves the authenticated user id from the context.
func UserID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(contextKey{}).(string)
	if id == "" {
		return "", ErrUnauthorized
	}
	return id, nil
}
