// Package store provides storage backends for Montap.
//
// This file implements the PostgreSQL-backed durable store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/jonpedu/montap/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists users and builds in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run PostgreSQL migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddUser(user models.User, passwordHash string) error {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		slog.Error("PostgresStore AddUser failed", "error", err, "email", user.Email)
		return fmt.Errorf("failed to insert user %s: %w", user.Email, err)
	}
	return nil
}

func (s *PostgresStore) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(email string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := s.db.QueryRow(`SELECT id, name, email, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserByEmail failed", "error", err)
		return nil, "", fmt.Errorf("failed to query user by email: %w", err)
	}
	return &u, hash, nil
}

func (s *PostgresStore) SaveBuild(userID string, build models.Build) error {
	build.UserID = userID
	data, err := json.Marshal(build)
	if err != nil {
		return fmt.Errorf("failed to marshal build %s: %w", build.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO builds (id, user_id, name, data) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, name = EXCLUDED.name,
		data = EXCLUDED.data, updated_at = NOW()`,
		build.ID, userID, build.Name, string(data))
	if err != nil {
		slog.Error("PostgresStore SaveBuild failed", "error", err, "buildID", build.ID, "userID", userID)
		return fmt.Errorf("failed to upsert build %s: %w", build.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetBuilds(userID string) ([]models.Build, error) {
	rows, err := s.db.Query(`SELECT data FROM builds WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		slog.Error("PostgresStore GetBuilds query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	var builds []models.Build
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan build row: %w", err)
		}
		var b models.Build
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode stored build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate build rows: %w", err)
	}
	return builds, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
