package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonpedu/montap/internal/auth"
	"github.com/jonpedu/montap/internal/catalog"
	"github.com/jonpedu/montap/internal/flow"
	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/recommend"
	"github.com/jonpedu/montap/internal/store"
)

// Server wires the dialogue manager, recommendation requester, auth gate and
// stores behind the HTTP API.
type Server struct {
	flow        *flow.Manager
	recommender *recommend.Requester
	authSvc     *auth.Service
	gate        *auth.Gate
	store       store.Store
	catalog     *catalog.Catalog
}

// NewServer creates a Server over the given components.
func NewServer(fl *flow.Manager, rq *recommend.Requester, authSvc *auth.Service, gate *auth.Gate, st store.Store, cat *catalog.Catalog) *Server {
	return &Server{
		flow:        fl,
		recommender: rq,
		authSvc:     authSvc,
		gate:        gate,
		store:       st,
		catalog:     cat,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/catalog", s.catalogHandler)

	mux.HandleFunc("POST /api/auth/register", s.registerHandler)
	mux.HandleFunc("POST /api/auth/login", s.loginHandler)

	mux.HandleFunc("POST /api/sessions", s.createSessionHandler)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.postMessageHandler)
	mux.HandleFunc("POST /api/sessions/{id}/location", s.locationHandler)
	mux.HandleFunc("POST /api/sessions/{id}/recommendation", s.recommendationHandler)
	mux.HandleFunc("POST /api/sessions/{id}/anonymous", s.anonymousHandler)
	mux.HandleFunc("POST /api/sessions/{id}/actions", s.queueActionHandler)
	mux.HandleFunc("DELETE /api/sessions/{id}/actions", s.cancelActionHandler)
	mux.HandleFunc("POST /api/sessions/{id}/actions/resume", s.resumeActionHandler)

	mux.HandleFunc("POST /api/builds", s.saveBuildHandler)
	mux.HandleFunc("GET /api/builds", s.listBuildsHandler)
	mux.HandleFunc("POST /api/builds/export", s.exportBuildHandler)

	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Run: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrNoPendingAction):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTurnInFlight),
		errors.Is(err, models.ErrIntakeComplete),
		errors.Is(err, models.ErrIntakeIncomplete),
		errors.Is(err, models.ErrLocationDone),
		errors.Is(err, models.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmptyUtterance),
		errors.Is(err, models.ErrUtteranceTooLong),
		errors.Is(err, models.ErrInvalidPendingation),
		errors.Is(err, models.ErrEmptyName),
		errors.Is(err, models.ErrEmptyEmail),
		errors.Is(err, models.ErrEmptyPassword):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("api: request failed", "error", err)
		writeJSONResponse(w, status, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, status, models.Error(err.Error()))
}
