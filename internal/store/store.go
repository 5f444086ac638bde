// Package store owns the shared database handle and schema bootstrap.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps the shared *sql.DB handed to the repositories. The handle is
// injected explicitly; nothing in the service reaches for a global.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL through the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// schemaStatements create the four core tables. Every statement is
// idempotent so EnsureSchema can run on each startup.
var schemaStatements = []string{
	`create table if not exists users (
		id            text primary key,
		email         text not null unique,
		password_hash text not null,
		name          text not null,
		role          text not null default 'user',
		created_at    timestamptz not null default now(),
		updated_at    timestamptz not null default now()
	)`,
	`create table if not exists sessions (
		token      text primary key,
		user_id    text not null references users(id),
		expires_at timestamptz not null,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists sessions_expires_at_idx on sessions(expires_at)`,
	`create table if not exists analyses (
		id              text primary key,
		user_id         text not null references users(id),
		image_ref       text not null,
		disease         text not null,
		confidence      double precision not null check (confidence >= 0 and confidence <= 100),
		severity        text not null,
		description     text not null default '',
		symptoms        text not null default '[]',
		recommendations text not null default '[]',
		created_at      timestamptz not null default now()
	)`,
	`create index if not exists analyses_user_created_idx on analyses(user_id, created_at desc)`,
	`create table if not exists medications (
		id          text primary key,
		analysis_id text not null references analyses(id),
		name        text not null,
		dosage      text not null,
		frequency   text not null
	)`,
}

// EnsureSchema applies the schema DDL inside a single transaction.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return tx.Commit()
}
