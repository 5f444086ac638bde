// Package access resolves session tokens to principals and enforces role
// requirements. Every privileged entry point passes through the gate before
// any repository is touched.
package access

import (
	"context"
	"errors"

	"skincheck.org/internal/account"
	"skincheck.org/internal/session"
)

var (
	// ErrUnauthenticated covers missing, unknown and expired sessions alike.
	ErrUnauthenticated = errors.New("access: unauthenticated")
	// ErrForbidden means the session is valid but the role is insufficient.
	ErrForbidden = errors.New("access: forbidden")
)

// Resolver resolves a session token to a principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*session.Principal, error)
}

// Gate composes the session manager into an authorization check.
type Gate struct {
	sessions Resolver
}

func NewGate(sessions Resolver) *Gate {
	return &Gate{sessions: sessions}
}

// Authenticate resolves the token to a principal, or ErrUnauthenticated if
// no valid session backs it. Storage failures pass through unchanged.
func (g *Gate) Authenticate(ctx context.Context, token string) (*session.Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	principal, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return principal, nil
}

// RequireRole fails with ErrForbidden unless the principal holds the role.
func (g *Gate) RequireRole(principal *session.Principal, role account.Role) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	if principal.Role != role {
		return ErrForbidden
	}
	return nil
}
