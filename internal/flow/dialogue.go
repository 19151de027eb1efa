package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/jonpedu/montap/internal/genai"
	"github.com/jonpedu/montap/internal/geo"
	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/store"
	"github.com/jonpedu/montap/internal/util"
	"github.com/jonpedu/montap/internal/weather"
)

// Greeting opens every new session, followed by the first question.
const Greeting = "Olá! Sou o assistente da Montap e vou te ajudar a montar a máquina ideal."

// ApologyMessage is the fixed reply surfaced when the dialogue service fails.
// The session is left untouched so the user can simply try again.
const ApologyMessage = "Desculpe, tive um problema para processar sua mensagem. Pode tentar novamente em instantes?"

// transcriptWindow bounds how much conversation history is replayed to the
// dialogue service per turn.
const transcriptWindow = 12

// Locator resolves the caller's coarse location. Lookup returns nil on any
// failure; location is always optional.
type Locator interface {
	Lookup(ctx context.Context) *geo.Location
}

// WeatherService resolves current conditions for a city. Returns nil on any
// failure.
type WeatherService interface {
	CityWeather(ctx context.Context, city, countryCode string) *weather.CityWeather
}

// TurnResult is the outcome of one dialogue turn.
type TurnResult struct {
	Session *models.Session
	Reply   models.ChatMessage
	// Degraded marks the apology path: the dialogue service failed and the
	// session was left exactly as it was before the turn.
	Degraded bool
}

// Manager drives the intake conversation: it applies local extraction to each
// user reply, consults the dialogue service, merges both into the requirement
// record and selects the next question from the tree.
type Manager struct {
	sessions store.SessionRepository
	ai       genai.ClientInterface
	locator  Locator
	weather  WeatherService
}

// NewManager creates a dialogue manager. locator and weatherSvc may be nil;
// the location step then records a miss and the general environment chain is
// used.
func NewManager(sessions store.SessionRepository, ai genai.ClientInterface, locator Locator, weatherSvc WeatherService) *Manager {
	return &Manager{sessions: sessions, ai: ai, locator: locator, weather: weatherSvc}
}

func newMessage(sender models.Sender, text, marker string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Marker:    marker,
		Timestamp: time.Now().UTC(),
	}
}

// StartSession creates a new session with the greeting and the first intake
// question already in the transcript.
func (m *Manager) StartSession(ctx context.Context, userID string) (*models.Session, error) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	first, ok := NextQuestion(session)
	if !ok {
		return nil, fmt.Errorf("question tree produced no opening question")
	}
	session.Transcript = append(session.Transcript,
		newMessage(models.SenderAssistant, Greeting+" "+first.Prompt, first.Marker))
	if err := m.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}
	slog.Debug("flow.StartSession: session created", "sessionID", session.ID, "userID", userID)
	return session, nil
}

// GetSession loads a session by id.
func (m *Manager) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return m.sessions.GetSession(ctx, id)
}

// IntakeComplete reports whether the intake conversation has finished: the
// completion message was surfaced and the structurally required fields
// (machine type plus a budget or budget range) are present.
func IntakeComplete(s *models.Session) bool {
	if !s.Record.IsSet(models.FieldMachineType) || !budgetKnown(&s.Record) {
		return false
	}
	if s.MarkerSurfaced(MarkerComplete) {
		return true
	}
	for _, msg := range s.Transcript {
		if msg.Sender == models.SenderAssistant && strings.Contains(msg.Text, CompletionPhrase) {
			return true
		}
	}
	return false
}

// ProcessTurn runs one dialogue turn for the given user utterance.
//
// Local extraction for the question last asked takes precedence over the
// dialogue service's own extraction; a populated record field is never
// overwritten by either. On service failure the session is left untouched and
// the result carries the fixed apology with Degraded set.
func (m *Manager) ProcessTurn(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return nil, models.ErrEmptyUtterance
	}
	if utf8.RuneCountInString(trimmed) > models.MaxUtteranceLength {
		return nil, models.ErrUtteranceTooLong
	}

	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if IntakeComplete(session) {
		return nil, models.ErrIntakeComplete
	}

	ok, err := m.sessions.TryBeginTurn(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn guard: %w", err)
	}
	if !ok {
		return nil, models.ErrTurnInFlight
	}
	defer func() {
		if err := m.sessions.EndTurn(ctx, sessionID); err != nil {
			slog.Error("flow.ProcessTurn: failed to release turn guard", "sessionID", sessionID, "error", err)
		}
	}()

	lastMarker := session.LastAssistantMarker()
	patch := Extract(lastMarker, trimmed)
	userMsg := newMessage(models.SenderUser, trimmed, "")

	// Decide the next question against a scratch copy so a service failure
	// leaves the persisted session untouched.
	scratch := *session
	scratch.Transcript = append(append([]models.ChatMessage{}, session.Transcript...), userMsg)
	applyPatch(&scratch.Record, patch)
	next, hasNext := NextQuestion(&scratch)
	phrasedMarker := ""
	if hasNext {
		phrasedMarker = next.Marker
	}

	replyText, err := m.ai.GenerateWithMessages(ctx, m.buildTurnMessages(&scratch, next, hasNext))
	if err != nil {
		slog.Error("flow.ProcessTurn: dialogue service failed", "sessionID", sessionID, "error", err)
		return &TurnResult{
			Session:  session,
			Reply:    newMessage(models.SenderSystem, ApologyMessage, ""),
			Degraded: true,
		}, nil
	}

	assistantText, serviceRecord := parseServiceReply(replyText)

	// Commit: local extraction first, service extraction as fallback.
	session.Transcript = append(session.Transcript, userMsg)
	applyPatch(&session.Record, patch)
	if serviceRecord != nil {
		sanitizeServiceRecord(serviceRecord)
		session.Record.Merge(serviceRecord)
	}

	// The committed record may differ from the scratch one when the service
	// filled extra fields, so select the question again.
	next, hasNext = NextQuestion(session)
	marker := ""
	if hasNext {
		marker = next.Marker
		// The service text phrases the question selected before the merge.
		// When the merge moved the flow past that question, keeping the text
		// would surface one question under another question's marker.
		if assistantText == "" || marker != phrasedMarker {
			assistantText = next.Prompt
		}
		if marker == MarkerComplete && !strings.Contains(assistantText, CompletionPhrase) {
			assistantText = next.Prompt
		}
	} else if assistantText == "" {
		assistantText = "Certo, anotei."
	}

	reply := newMessage(models.SenderAssistant, assistantText, marker)
	session.Transcript = append(session.Transcript, reply)
	session.UpdatedAt = time.Now().UTC()
	if err := m.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session after turn: %w", err)
	}
	slog.Debug("flow.ProcessTurn: turn committed", "sessionID", sessionID, "asked", marker)
	return &TurnResult{Session: session, Reply: reply}, nil
}

// ResolveLocation completes the one-shot location permission step. When the
// user grants access the coarse location and current weather enrich the
// record; any lookup miss simply records the step as done. The step never
// runs twice for a session.
func (m *Manager) ResolveLocation(ctx context.Context, sessionID string, granted bool) (*TurnResult, error) {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Record.LocationStepDone {
		return nil, models.ErrLocationDone
	}

	ok, err := m.sessions.TryBeginTurn(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn guard: %w", err)
	}
	if !ok {
		return nil, models.ErrTurnInFlight
	}
	defer func() {
		if err := m.sessions.EndTurn(ctx, sessionID); err != nil {
			slog.Error("flow.ResolveLocation: failed to release turn guard", "sessionID", sessionID, "error", err)
		}
	}()

	session.Record.LocationStepDone = true
	note := "O usuário preferiu não compartilhar a localização."
	if granted {
		note = "O usuário autorizou a localização, mas ela não pôde ser detectada."
		if m.locator != nil {
			if loc := m.locator.Lookup(ctx); loc != nil && loc.City != "" {
				session.Record.Set(models.FieldCity, loc.City)
				session.Record.Set(models.FieldCountryCode, loc.CountryCode)
				note = fmt.Sprintf("Localização detectada: %s, %s.", loc.City, loc.CountryCode)
				if m.weather != nil {
					if w := m.weather.CityWeather(ctx, loc.City, loc.CountryCode); w != nil {
						session.Record.Set(models.FieldCityAvgTemp, w.AvgTemp)
						session.Record.Set(models.FieldCityMaxTemp, w.MaxTemp)
						session.Record.Set(models.FieldCityMinTemp, w.MinTemp)
						session.Record.Set(models.FieldCityWeatherDesc, w.Description)
						note = fmt.Sprintf("Localização detectada: %s, %s. Clima atual: %.0f°C, %s.",
							loc.City, loc.CountryCode, w.AvgTemp, w.Description)
					}
				}
			}
		}
	}
	session.Transcript = append(session.Transcript, newMessage(models.SenderSystem, note, ""))

	next, hasNext := NextQuestion(session)
	marker := ""
	text := "Certo, vamos continuar."
	if hasNext {
		marker = next.Marker
		text = next.Prompt
		if phrased, err := m.ai.GenerateWithMessages(ctx, m.buildTurnMessages(session, next, true)); err == nil {
			if t, _ := parseServiceReply(phrased); t != "" && (marker != MarkerComplete || strings.Contains(t, CompletionPhrase)) {
				text = t
			}
		} else {
			slog.Error("flow.ResolveLocation: dialogue service failed, using fallback prompt", "sessionID", sessionID, "error", err)
		}
	}

	reply := newMessage(models.SenderAssistant, text, marker)
	session.Transcript = append(session.Transcript, reply)
	session.UpdatedAt = time.Now().UTC()
	if err := m.sessions.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session after location step: %w", err)
	}
	slog.Debug("flow.ResolveLocation: location step resolved",
		"sessionID", sessionID, "granted", granted, "city", session.Record.City)
	return &TurnResult{Session: session, Reply: reply}, nil
}

// applyPatch folds a local extraction result into the record under set-once
// semantics.
func applyPatch(r *models.RequirementRecord, patch Patch) {
	for name, value := range patch.Fields {
		if _, err := r.Set(name, value); err != nil {
			slog.Error("flow.applyPatch: rejected field value", "field", name, "error", err)
		}
	}
	if patch.PrefText != "" {
		r.AppendPreference(patch.PrefTag, patch.PrefText)
	}
}

// sanitizeServiceRecord strips fields the dialogue service is not allowed to
// populate. Location and climate only enter the record via the location step.
func sanitizeServiceRecord(r *models.RequirementRecord) {
	r.City = ""
	r.CountryCode = ""
	r.CityAvgTemp = nil
	r.CityMaxTemp = nil
	r.CityMinTemp = nil
	r.CityWeatherDesc = ""
	r.LocationStepDone = false
}

// serviceReply is the JSON contract the dialogue service answers with.
type serviceReply struct {
	AssistantUtterance string                    `json:"assistantUtterance"`
	UpdatedRecord      *models.RequirementRecord `json:"updatedRecord,omitempty"`
}

// parseServiceReply decodes the service response, tolerating code fences and
// prose around the JSON object. A reply with no usable object is treated as
// plain conversational text.
func parseServiceReply(raw string) (string, *models.RequirementRecord) {
	obj, ok := util.ExtractJSONObject(raw)
	if !ok {
		return strings.TrimSpace(raw), nil
	}
	var reply serviceReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		slog.Debug("flow.parseServiceReply: malformed reply object", "error", err)
		return strings.TrimSpace(raw), nil
	}
	return strings.TrimSpace(reply.AssistantUtterance), reply.UpdatedRecord
}

const systemPromptTemplate = `Você é o assistente de montagem de PCs da Montap. Conduza uma anamnese em português do Brasil, fazendo UMA pergunta por vez, de forma amigável e direta.

Estado atual dos requisitos (JSON):
%s

Sua próxima tarefa: %s

Responda SOMENTE com um objeto JSON neste formato:
{"assistantUtterance": "sua mensagem para o usuário", "updatedRecord": {campos extraídos da última resposta do usuário}}

Regras:
- Em updatedRecord inclua apenas campos que a última mensagem do usuário realmente respondeu, usando os nomes de campo do estado acima.
- Nunca altere campos já preenchidos.
- Não invente localização nem clima.`

// buildTurnMessages assembles the service prompt: persona and record state in
// the system message, a window of transcript history, ending at the pending
// user reply.
func (m *Manager) buildTurnMessages(s *models.Session, next Question, hasNext bool) []openai.ChatCompletionMessageParamUnion {
	recordJSON, err := json.Marshal(s.Record)
	if err != nil {
		recordJSON = []byte("{}")
	}
	task := "Todas as perguntas foram respondidas. Agradeça e encerre."
	if hasNext {
		if next.Marker == MarkerComplete {
			task = fmt.Sprintf("A coleta terminou. Confirme com o usuário incluindo literalmente a frase %q.", CompletionPhrase)
		} else {
			task = fmt.Sprintf("Faça a seguinte pergunta, reformulando naturalmente se quiser: %q", next.Prompt)
		}
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(fmt.Sprintf(systemPromptTemplate, recordJSON, task)),
	}
	transcript := s.Transcript
	if len(transcript) > transcriptWindow {
		transcript = transcript[len(transcript)-transcriptWindow:]
	}
	for _, msg := range transcript {
		switch msg.Sender {
		case models.SenderUser:
			messages = append(messages, openai.UserMessage(msg.Text))
		case models.SenderAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		case models.SenderSystem:
			messages = append(messages, openai.SystemMessage(msg.Text))
		}
	}
	return messages
}
