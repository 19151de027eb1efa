// Package store provides storage backends for Montap.
//
// This file implements the in-memory store used by tests and by local runs
// without a database.
package store

import (
	"context"
	"sync"

	"github.com/jonpedu/montap/internal/models"
)

// InMemoryStore keeps users and builds in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	hashes map[string]string // keyed by email
	emails map[string]string // email -> user id
	builds map[string]map[string]models.Build
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[string]models.User),
		hashes: make(map[string]string),
		emails: make(map[string]string),
		builds: make(map[string]map[string]models.Build),
	}
}

func (s *InMemoryStore) AddUser(user models.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[user.Email]; taken {
		return models.ErrEmailTaken
	}
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	s.hashes[user.Email] = passwordHash
	return nil
}

func (s *InMemoryStore) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *InMemoryStore) GetUserByEmail(email string) (*models.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, "", nil
	}
	u := s.users[id]
	return &u, s.hashes[email], nil
}

func (s *InMemoryStore) SaveBuild(userID string, build models.Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builds[userID] == nil {
		s.builds[userID] = make(map[string]models.Build)
	}
	build.UserID = userID
	s.builds[userID][build.ID] = build
	return nil
}

func (s *InMemoryStore) GetBuilds(userID string) ([]models.Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Build
	for _, b := range s.builds[userID] {
		out = append(out, b)
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

// InMemorySessionRepository keeps sessions in process memory. Used by tests
// and as the fallback when no Redis address is configured.
type InMemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	inFlight map[string]bool
}

// NewInMemorySessionRepository creates an empty in-memory session repository.
func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*models.Session),
		inFlight: make(map[string]bool),
	}
}

func (r *InMemorySessionRepository) PutSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *InMemorySessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *InMemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	delete(r.inFlight, id)
	return nil
}

func (r *InMemorySessionRepository) TryBeginTurn(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[sessionID] {
		return false, nil
	}
	r.inFlight[sessionID] = true
	return true, nil
}

func (r *InMemorySessionRepository) EndTurn(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, sessionID)
	return nil
}
