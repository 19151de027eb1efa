// Package store provides storage backends for Montap.
//
// Durable state (user accounts and saved builds) lives behind the Store
// interface with SQLite and PostgreSQL implementations plus an in-memory
// fallback for tests. Session-scoped state (transcripts, requirement records,
// pending actions) lives behind SessionRepository, backed by Redis with a TTL
// or by memory.
package store

import (
	"context"

	"github.com/jonpedu/montap/internal/models"
)

// Store is the durable user-scoped storage interface.
type Store interface {
	// AddUser persists a new user with its password hash. Returns
	// models.ErrEmailTaken when the email is already registered.
	AddUser(user models.User, passwordHash string) error

	// GetUser retrieves a user by id. Returns nil when not found.
	GetUser(id string) (*models.User, error)

	// GetUserByEmail retrieves a user and its password hash by email.
	// Returns a nil user when not found.
	GetUserByEmail(email string) (*models.User, string, error)

	// SaveBuild upserts a build into the owning user's collection, keyed by
	// build id.
	SaveBuild(userID string, build models.Build) error

	// GetBuilds lists all builds saved by a user.
	GetBuilds(userID string) ([]models.Build, error)

	// Close releases any underlying resources.
	Close() error
}

// SessionRepository is the session-scoped storage interface. Entries expire
// with the configured TTL; completion or cancellation clears them explicitly.
type SessionRepository interface {
	// PutSession creates or replaces a session snapshot.
	PutSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session. Returns models.ErrSessionNotFound when
	// absent or expired.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// DeleteSession removes a session and its turn guard.
	DeleteSession(ctx context.Context, id string) error

	// TryBeginTurn acquires the per-session turn guard. Returns false when a
	// dialogue turn is already in flight for the session.
	TryBeginTurn(ctx context.Context, sessionID string) (bool, error)

	// EndTurn releases the turn guard.
	EndTurn(ctx context.Context, sessionID string) error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a functional option for configuring stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
