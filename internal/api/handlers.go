package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jonpedu/montap/internal/export"
	"github.com/jonpedu/montap/internal/flow"
	"github.com/jonpedu/montap/internal/models"
)

// authenticate extracts and validates the bearer token, returning the user id
// or empty for anonymous requests.
func (s *Server) authenticate(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ""
	}
	userID, err := s.authSvc.ValidateToken(token)
	if err != nil {
		return ""
	}
	return userID
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(s.catalog.All()))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	user, token, err := s.authSvc.Register(req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(authResponse{User: user, Token: token}))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	user, token, err := s.authSvc.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(authResponse{User: user, Token: token}))
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.authenticate(r)
	session, err := s.flow.StartSession(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(session))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(session))
}

type messageRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Reply    models.ChatMessage `json:"reply"`
	Session  *models.Session    `json:"session,omitempty"`
	Degraded bool               `json:"degraded,omitempty"`
	Complete bool               `json:"complete"`
}

func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	res, err := s.flow.ProcessTurn(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(turnResponse{
		Reply:    res.Reply,
		Session:  res.Session,
		Degraded: res.Degraded,
		Complete: isComplete(res.Session),
	}))
}

type locationRequest struct {
	Granted bool `json:"granted"`
}

func (s *Server) locationHandler(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	res, err := s.flow.ResolveLocation(r.Context(), r.PathValue("id"), req.Granted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(turnResponse{
		Reply:    res.Reply,
		Session:  res.Session,
		Complete: isComplete(res.Session),
	}))
}

type recommendationResponse struct {
	Build          *models.Build            `json:"build"`
	Recommendation *models.AIRecommendation `json:"recommendation"`
	Summary        export.Summary           `json:"summary"`
}

func (s *Server) recommendationHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	build, rec, err := s.recommender.GenerateBuild(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(recommendationResponse{
		Build:          build,
		Recommendation: rec,
		Summary:        export.Sections(build, rec.Justification),
	}))
}

func (s *Server) anonymousHandler(w http.ResponseWriter, r *http.Request) {
	session, err := s.gate.ContinueAnonymously(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(session))
}

type queueActionRequest struct {
	Action models.PendingAction `json:"action"`
	Build  *models.Build        `json:"build,omitempty"`
	Notes  string               `json:"notes,omitempty"`
}

func (s *Server) queueActionHandler(w http.ResponseWriter, r *http.Request) {
	var req queueActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	if err := s.gate.QueueAction(r.Context(), r.PathValue("id"), req.Action, req.Build, req.Notes); err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("action queued", nil))
}

func (s *Server) cancelActionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.CancelPending(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("pending action cancelled", nil))
}

type resumeResponse struct {
	Action models.PendingAction `json:"action"`
	Build  *models.Build        `json:"build,omitempty"`
	Export *exportResponse      `json:"export,omitempty"`
}

// resumeActionHandler replays the queued action for the now-authenticated
// user: a pending save persists the build, a pending export renders the
// document. Either way the queue is consumed.
func (s *Server) resumeActionHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.authenticate(r)
	if userID == "" {
		writeError(w, models.ErrUnauthenticated)
		return
	}
	sessionID := r.PathValue("id")
	res, err := s.gate.ResumePending(r.Context(), sessionID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := resumeResponse{Action: res.Action, Build: res.Build}
	switch res.Action {
	case models.PendingActionSave:
		if res.Build != nil {
			res.Build.UserID = userID
			if err := s.store.SaveBuild(userID, *res.Build); err != nil {
				// Put the action back so a retry can replay it; the resume
				// consumed it before the save ran.
				if qErr := s.gate.QueueAction(r.Context(), sessionID, res.Action, res.Build, res.Notes); qErr != nil {
					slog.Error("failed to re-queue pending action after save failure",
						"sessionID", sessionID, "error", qErr)
				}
				writeError(w, err)
				return
			}
		}
	case models.PendingActionExport:
		if res.Build != nil {
			resp.Export = &exportResponse{
				Filename: export.Filename(res.Build),
				Content:  export.Render(res.Build, res.Notes),
			}
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

type saveBuildRequest struct {
	Build models.Build `json:"build"`
}

func (s *Server) saveBuildHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.authenticate(r)
	if userID == "" {
		writeError(w, models.ErrUnauthenticated)
		return
	}
	var req saveBuildRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	if req.Build.ID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("build id is required"))
		return
	}
	req.Build.UserID = userID
	if err := s.store.SaveBuild(userID, req.Build); err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(req.Build))
}

func (s *Server) listBuildsHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.authenticate(r)
	if userID == "" {
		writeError(w, models.ErrUnauthenticated)
		return
	}
	builds, err := s.store.GetBuilds(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(builds))
}

type exportRequest struct {
	Build models.Build `json:"build"`
	Notes string       `json:"notes,omitempty"`
}

type exportResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// exportBuildHandler renders the download document. Export is available to
// anonymous users as well.
func (s *Server) exportBuildHandler(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid JSON body"))
		return
	}
	if len(req.Build.Components) == 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("build has no components"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(exportResponse{
		Filename: export.Filename(&req.Build),
		Content:  export.Render(&req.Build, req.Notes),
	}))
}

func isComplete(session *models.Session) bool {
	return session != nil && flow.IntakeComplete(session)
}
