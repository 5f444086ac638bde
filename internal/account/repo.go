package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"skincheck.org/internal/ids"
)

// Repository persists accounts in the shared store.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// RepositoryOption configures Repository behavior.
type RepositoryOption func(*Repository)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if fn != nil {
			r.now = fn
		}
	}
}

func NewRepository(db *sql.DB, opts ...RepositoryOption) *Repository {
	r := &Repository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new account with role "user". The email must be unused;
// the uniqueness constraint on the table backs up the pre-check so a race
// cannot produce duplicate rows.
func (r *Repository) Create(ctx context.Context, email, password, name string) (*Account, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLen)
	}

	if _, err := r.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         RoleUser,
		CreatedAt:    r.now().UTC(),
	}
	acc.UpdatedAt = acc.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, name, role, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		acc.ID, acc.Email, acc.PasswordHash, acc.Name, string(acc.Role), acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return acc, nil
}

// FindByEmail looks up an account by exact, case-sensitive email match.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		`select id, email, password_hash, name, role, created_at, updated_at
		 from users where email=$1`, email)
	return scanAccount(row)
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		`select id, email, password_hash, name, role, created_at, updated_at
		 from users where id=$1`, id)
	return scanAccount(row)
}

// ListAll returns every account, newest first. The password digest is
// excluded from the projection.
func (r *Repository) ListAll(ctx context.Context) ([]*Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, email, name, role, created_at, updated_at
		 from users order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Account
	for rows.Next() {
		var (
			acc  Account
			role string
		)
		if err := rows.Scan(&acc.ID, &acc.Email, &acc.Name, &role, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		acc.Role = Role(role)
		res = append(res, &acc)
	}
	return res, rows.Err()
}

// EnsureAdmin creates the seed administrator account if it does not exist.
// Idempotent; called once at startup.
func (r *Repository) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := r.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, name, role, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)
		 on conflict (email) do nothing`,
		ids.New(), email, hash, "Administrator", string(RoleAdmin), now, now,
	)
	return err
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		acc  Account
		role string
	)
	err := row.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.Name, &role, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.Role = Role(role)
	return &acc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
