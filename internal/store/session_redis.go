// Package store provides storage backends for Montap.
//
// This file implements the Redis-backed session repository. Sessions are
// keyed per conversation and expire with a TTL that is refreshed on every
// touch, so abandoned intake conversations clean themselves up.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonpedu/montap/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// turnGuardTTL bounds how long the in-flight-turn guard can stay held, so a
// crashed worker cannot wedge a session forever.
const turnGuardTTL = 2 * time.Minute

// RedisSessionRepository implements SessionRepository on Redis.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisSessionRepository creates a session repository on the given client.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(id string) string {
	return fmt.Sprintf("session:%s:data", id)
}

func (r *RedisSessionRepository) turnKey(id string) string {
	return fmt.Sprintf("session:%s:turn", id)
}

func (r *RedisSessionRepository) PutSession(ctx context.Context, session *models.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		slog.Error("RedisSessionRepository PutSession marshal failed", "error", err, "sessionID", session.ID)
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(session.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		slog.Error("RedisSessionRepository PutSession set failed", "error", err, "key", key)
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	key := r.sessionKey(id)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("RedisSessionRepository GetSession failed", "error", err, "key", key)
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		slog.Error("RedisSessionRepository GetSession unmarshal failed", "error", err, "key", key)
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	// Extend TTL on touch.
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		slog.Warn("RedisSessionRepository failed to refresh session TTL", "error", err, "key", key)
	}
	return &s, nil
}

func (r *RedisSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.sessionKey(id), r.turnKey(id)).Err(); err != nil {
		slog.Error("RedisSessionRepository DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) TryBeginTurn(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.turnKey(sessionID), "1", turnGuardTTL).Result()
	if err != nil {
		slog.Error("RedisSessionRepository TryBeginTurn failed", "error", err, "sessionID", sessionID)
		return false, fmt.Errorf("acquire turn guard: %w", err)
	}
	return ok, nil
}

func (r *RedisSessionRepository) EndTurn(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.turnKey(sessionID)).Err(); err != nil {
		slog.Error("RedisSessionRepository EndTurn failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("release turn guard: %w", err)
	}
	return nil
}

var _ SessionRepository = (*RedisSessionRepository)(nil)
var _ SessionRepository = (*InMemorySessionRepository)(nil)
var _ Store = (*InMemoryStore)(nil)
var _ Store = (*SQLiteStore)(nil)
var _ Store = (*PostgresStore)(nil)
