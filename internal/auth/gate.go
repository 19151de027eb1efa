package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/store"
)

// Gate manages the save/export decision point for anonymous users: either the
// user continues anonymously, or the intended action is queued on the session
// and resumed exactly once after login.
type Gate struct {
	sessions store.SessionRepository
}

// NewGate creates a Gate over the session repository.
func NewGate(sessions store.SessionRepository) *Gate {
	return &Gate{sessions: sessions}
}

// ResumeResult is the action handed back by ResumePending, cleared from the
// session before it is returned.
type ResumeResult struct {
	Action models.PendingAction
	Build  *models.Build
	Notes  string
}

// ContinueAnonymously records that the user chose to proceed without an
// account. Save stays unavailable; export remains possible.
func (g *Gate) ContinueAnonymously(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.AnonymousContinue = true
	session.UpdatedAt = time.Now().UTC()
	if err := g.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist anonymous choice: %w", err)
	}
	slog.Debug("auth.ContinueAnonymously: session marked anonymous", "sessionID", sessionID)
	return session, nil
}

// QueueAction stores a pending save or export on the session, replacing any
// previously queued action, so it can be resumed after the login redirect.
func (g *Gate) QueueAction(ctx context.Context, sessionID string, action models.PendingAction, build *models.Build, notes string) error {
	if action != models.PendingActionSave && action != models.PendingActionExport {
		return models.ErrInvalidPendingation
	}
	session, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.PendingAction = action
	session.PendingBuild = build
	session.PendingNotes = notes
	session.UpdatedAt = time.Now().UTC()
	if err := g.sessions.PutSession(ctx, session); err != nil {
		return fmt.Errorf("failed to queue pending action: %w", err)
	}
	slog.Debug("auth.QueueAction: action queued", "sessionID", sessionID, "action", action)
	return nil
}

// CancelPending discards any queued action.
func (g *Gate) CancelPending(ctx context.Context, sessionID string) error {
	session, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.PendingAction == "" {
		return nil
	}
	clearPending(session)
	session.UpdatedAt = time.Now().UTC()
	if err := g.sessions.PutSession(ctx, session); err != nil {
		return fmt.Errorf("failed to cancel pending action: %w", err)
	}
	slog.Debug("auth.CancelPending: pending action discarded", "sessionID", sessionID)
	return nil
}

// ResumePending hands back the queued action exactly once: the pending fields
// are cleared and persisted before the result is returned, and the session is
// attached to the now-authenticated user. Returns models.ErrNoPendingAction
// when nothing is queued.
func (g *Gate) ResumePending(ctx context.Context, sessionID, userID string) (*ResumeResult, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	session, err := g.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PendingAction == "" {
		return nil, models.ErrNoPendingAction
	}
	result := &ResumeResult{
		Action: session.PendingAction,
		Build:  session.PendingBuild,
		Notes:  session.PendingNotes,
	}
	clearPending(session)
	session.UserID = userID
	session.UpdatedAt = time.Now().UTC()
	if err := g.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to clear pending action: %w", err)
	}
	slog.Debug("auth.ResumePending: action resumed", "sessionID", sessionID, "action", result.Action, "userID", userID)
	return result, nil
}

func clearPending(session *models.Session) {
	session.PendingAction = ""
	session.PendingBuild = nil
	session.PendingNotes = ""
}
