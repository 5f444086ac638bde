// Package session issues and resolves opaque, time-bounded session tokens.
package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"skincheck.org/internal/account"
)

// ErrNotFound covers both missing and expired sessions; callers cannot tell
// the two apart.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL is the fixed session lifetime. There is no sliding expiry.
const DefaultTTL = 24 * time.Hour

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// Session is a persisted authentication session keyed by its opaque token.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Principal is the authenticated identity resolved from a valid session.
type Principal struct {
	AccountID string
	Email     string
	Name      string
	Role      account.Role
}

// Manager owns the session lifecycle against the shared store.
type Manager struct {
	db  *sql.DB
	now func() time.Time
	ttl time.Duration
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{db: db, now: time.Now, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create persists a fresh session for the account and returns its token and
// absolute expiry. The caller delivers the token to the client, typically as
// an HTTP-only cookie with a matching max-age.
func (m *Manager) Create(ctx context.Context, accountID string) (string, time.Time, error) {
	token, err := generateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	_, err = m.db.ExecContext(ctx,
		`insert into sessions(token, user_id, expires_at, created_at) values($1,$2,$3,$4)`,
		token, accountID, expiresAt, now,
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve joins the session to its owning account and returns the principal.
// Expired sessions are filtered in the query itself, so an expired token is
// indistinguishable from an absent one.
func (m *Manager) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	row := m.db.QueryRowContext(ctx,
		`select u.id, u.email, u.name, u.role
		 from sessions s
		 join users u on u.id = s.user_id
		 where s.token = $1 and s.expires_at > $2`,
		token, m.now().UTC(),
	)
	var (
		p    Principal
		role string
	)
	err := row.Scan(&p.AccountID, &p.Email, &p.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Role = account.Role(role)
	return &p, nil
}

// Revoke deletes the session row. Revoking an already-gone token is not an
// error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := m.db.ExecContext(ctx, `delete from sessions where token = $1`, token)
	return err
}

// SweepExpired bulk-deletes expired sessions and returns the removed count.
// Best-effort hygiene only; Resolve already filters on expiry.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, `delete from sessions where expires_at <= $1`, m.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
