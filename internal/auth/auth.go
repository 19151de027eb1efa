// Package auth provides account registration and login with bcrypt password
// hashing and JWT session tokens, plus the save/export gate that defers
// actions for anonymous users until they authenticate.
package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/store"
)

// DefaultTokenTTL is the lifetime of issued session tokens.
const DefaultTokenTTL = 24 * time.Hour

// Service handles account management and token issuance.
type Service struct {
	store    store.Store
	secret   []byte
	tokenTTL time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.tokenTTL = ttl }
}

// NewService creates an auth service signing tokens with the given secret.
func NewService(st store.Store, secret string, opts ...ServiceOption) *Service {
	s := &Service{store: st, secret: []byte(secret), tokenTTL: DefaultTokenTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns the user with a fresh session token.
func (s *Service) Register(name, email, password string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	switch {
	case name == "":
		return nil, "", models.ErrEmptyName
	case email == "":
		return nil, "", models.ErrEmptyEmail
	case password == "":
		return nil, "", models.ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.User{ID: uuid.NewString(), Name: name, Email: email}
	if err := s.store.AddUser(user, string(hash)); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("auth.Register: user registered", "userID", user.ID)
	return &user, token, nil
}

// Login verifies credentials and returns the user with a fresh session token.
// A missing account and a wrong password are indistinguishable to the caller.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", models.ErrInvalidCredentials
	}
	user, hash, err := s.store.GetUserByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}
	token, err := s.issueToken(*user)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("auth.Login: user authenticated", "userID", user.ID)
	return user, token, nil
}

// ValidateToken checks a session token and returns the user id it carries.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", models.ErrUnauthenticated
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", models.ErrUnauthenticated
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", models.ErrUnauthenticated
	}
	return sub, nil
}

// GetUser looks up a user by id.
func (s *Service) GetUser(id string) (*models.User, error) {
	return s.store.GetUser(id)
}

func (s *Service) issueToken(user models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
