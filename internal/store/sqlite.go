// Package store provides storage backends for Montap.
//
// This file implements the SQLite-backed durable store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/jonpedu/montap/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists users and builds in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is a
// file path to the database file; missing directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddUser(user models.User, passwordHash string) error {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			slog.Debug("SQLiteStore AddUser email taken", "email", user.Email)
			return models.ErrEmailTaken
		}
		slog.Error("SQLiteStore AddUser failed", "error", err, "email", user.Email)
		return fmt.Errorf("failed to insert user %s: %w", user.Email, err)
	}
	slog.Debug("SQLiteStore AddUser succeeded", "userID", user.ID)
	return nil
}

func (s *SQLiteStore) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	return &u, nil
}

func (s *SQLiteStore) GetUserByEmail(email string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := s.db.QueryRow(`SELECT id, name, email, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserByEmail failed", "error", err)
		return nil, "", fmt.Errorf("failed to query user by email: %w", err)
	}
	return &u, hash, nil
}

func (s *SQLiteStore) SaveBuild(userID string, build models.Build) error {
	build.UserID = userID
	data, err := json.Marshal(build)
	if err != nil {
		return fmt.Errorf("failed to marshal build %s: %w", build.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO builds (id, user_id, name, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, name = excluded.name,
		data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		build.ID, userID, build.Name, string(data))
	if err != nil {
		slog.Error("SQLiteStore SaveBuild failed", "error", err, "buildID", build.ID, "userID", userID)
		return fmt.Errorf("failed to upsert build %s: %w", build.ID, err)
	}
	slog.Debug("SQLiteStore SaveBuild succeeded", "buildID", build.ID, "userID", userID)
	return nil
}

func (s *SQLiteStore) GetBuilds(userID string) ([]models.Build, error) {
	rows, err := s.db.Query(`SELECT data FROM builds WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		slog.Error("SQLiteStore GetBuilds query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	var builds []models.Build
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			slog.Error("SQLiteStore GetBuilds scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan build row: %w", err)
		}
		var b models.Build
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			slog.Error("SQLiteStore GetBuilds unmarshal failed", "error", err)
			return nil, fmt.Errorf("failed to decode stored build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate build rows: %w", err)
	}
	slog.Debug("SQLiteStore GetBuilds succeeded", "userID", userID, "count", len(builds))
	return builds, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
