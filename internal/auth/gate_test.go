package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/store"
)

func newGateWithSession(t *testing.T) (*Gate, *store.InMemorySessionRepository, *models.Session) {
	t.Helper()
	repo := store.NewInMemorySessionRepository()
	session := &models.Session{ID: "s1", CreatedAt: time.Now().UTC()}
	if err := repo.PutSession(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewGate(repo), repo, session
}

func sampleBuild() *models.Build {
	return &models.Build{ID: "b1", Name: "Build IA para Jogos", TotalPrice: 4400}
}

func TestContinueAnonymously(t *testing.T) {
	gate, repo, session := newGateWithSession(t)
	ctx := context.Background()

	updated, err := gate.ContinueAnonymously(ctx, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.AnonymousContinue {
		t.Error("anonymous flag not set")
	}
	stored, _ := repo.GetSession(ctx, session.ID)
	if !stored.AnonymousContinue {
		t.Error("anonymous flag not persisted")
	}
}

func TestQueueAndResumeExactlyOnce(t *testing.T) {
	gate, repo, session := newGateWithSession(t)
	ctx := context.Background()

	if err := gate.QueueAction(ctx, session.ID, models.PendingActionSave, sampleBuild(), "notas da ia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := repo.GetSession(ctx, session.ID)
	if stored.PendingAction != models.PendingActionSave || stored.PendingBuild == nil {
		t.Fatalf("pending action not persisted: %+v", stored)
	}

	res, err := gate.ResumePending(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != models.PendingActionSave || res.Build == nil || res.Notes != "notas da ia" {
		t.Fatalf("unexpected resume result: %+v", res)
	}

	stored, _ = repo.GetSession(ctx, session.ID)
	if stored.PendingAction != "" || stored.PendingBuild != nil || stored.PendingNotes != "" {
		t.Error("pending state not cleared after resume")
	}
	if stored.UserID != "user-1" {
		t.Errorf("session not attached to user, got %q", stored.UserID)
	}

	// Second resume finds nothing: exactly-once.
	if _, err := gate.ResumePending(ctx, session.ID, "user-1"); !errors.Is(err, models.ErrNoPendingAction) {
		t.Errorf("expected ErrNoPendingAction on second resume, got %v", err)
	}
}

func TestQueueReplacesPreviousAction(t *testing.T) {
	gate, _, session := newGateWithSession(t)
	ctx := context.Background()

	gate.QueueAction(ctx, session.ID, models.PendingActionSave, sampleBuild(), "")
	gate.QueueAction(ctx, session.ID, models.PendingActionExport, sampleBuild(), "")

	res, err := gate.ResumePending(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != models.PendingActionExport {
		t.Errorf("expected latest queued action, got %q", res.Action)
	}
}

func TestQueueRejectsUnknownAction(t *testing.T) {
	gate, _, session := newGateWithSession(t)
	err := gate.QueueAction(context.Background(), session.ID, "delete", nil, "")
	if !errors.Is(err, models.ErrInvalidPendingation) {
		t.Errorf("expected ErrInvalidPendingation, got %v", err)
	}
}

func TestCancelPending(t *testing.T) {
	gate, repo, session := newGateWithSession(t)
	ctx := context.Background()

	gate.QueueAction(ctx, session.ID, models.PendingActionExport, sampleBuild(), "")
	if err := gate.CancelPending(ctx, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := repo.GetSession(ctx, session.ID)
	if stored.PendingAction != "" || stored.PendingBuild != nil {
		t.Error("pending state survived cancellation")
	}

	// Cancelling with nothing queued is a no-op.
	if err := gate.CancelPending(ctx, session.ID); err != nil {
		t.Errorf("unexpected error on idle cancel: %v", err)
	}
}

func TestResumeRequiresAuthenticatedUser(t *testing.T) {
	gate, _, session := newGateWithSession(t)
	ctx := context.Background()
	gate.QueueAction(ctx, session.ID, models.PendingActionSave, sampleBuild(), "")
	if _, err := gate.ResumePending(ctx, session.ID, ""); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGateUnknownSession(t *testing.T) {
	gate := NewGate(store.NewInMemorySessionRepository())
	ctx := context.Background()
	if _, err := gate.ContinueAnonymously(ctx, "missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := gate.ResumePending(ctx, "missing", "user-1"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
