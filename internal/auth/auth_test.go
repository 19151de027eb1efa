package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/store"
)

func newTestService(opts ...ServiceOption) *Service {
	return NewService(store.NewInMemoryStore(), "test-secret", opts...)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	user, token, err := svc.Register("Ana", "Ana@Example.com", "s3nha-forte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if token == "" {
		t.Fatal("expected a session token on registration")
	}

	logged, token2, err := svc.Login("ana@example.com", "s3nha-forte")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("login returned a different user: %q vs %q", logged.ID, user.ID)
	}
	if token2 == "" {
		t.Fatal("expected a session token on login")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"", "a@b.com", "x", models.ErrEmptyName},
		{"Ana", "", "x", models.ErrEmptyEmail},
		{"Ana", "a@b.com", "", models.ErrEmptyPassword},
	}
	for _, tc := range cases {
		if _, _, err := svc.Register(tc.name, tc.email, tc.password); !errors.Is(err, tc.want) {
			t.Errorf("Register(%q, %q): expected %v, got %v", tc.name, tc.email, tc.want, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	if _, _, err := svc.Register("Ana", "ana@example.com", "senha"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.Register("Outra Ana", "ANA@example.com", "outra"); !errors.Is(err, models.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestService()
	svc.Register("Ana", "ana@example.com", "senha-certa")

	if _, _, err := svc.Login("ana@example.com", "senha-errada"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	// Unknown account yields the same error as a wrong password.
	if _, _, err := svc.Login("ninguem@example.com", "qualquer"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc := newTestService()
	user, token, err := svc.Register("Ana", "ana@example.com", "senha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != user.ID {
		t.Errorf("token carried wrong user id: %q vs %q", userID, user.ID)
	}

	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for garbage token, got %v", err)
	}

	// Tokens signed with another secret are rejected.
	other := NewService(store.NewInMemoryStore(), "other-secret")
	if _, err := other.ValidateToken(token); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for foreign token, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(WithTokenTTL(-time.Hour))
	_, token, err := svc.Register("Ana", "ana@example.com", "senha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}
