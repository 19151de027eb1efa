// Package models defines the core data structures for Montap.
//
// It includes the requirement record built by the intake dialogue, chat
// transcript messages, catalog components, builds, and the API response
// envelope shared across modules.
package models

import (
	"errors"
	"time"
)

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// MachineType identifies which branch of the intake question tree applies.
type MachineType string

const (
	MachinePersonalComputer MachineType = "Computador Pessoal"
	MachineServer           MachineType = "Servidor"
	MachineWorkstation      MachineType = "Workstation"
	MachineMiningRig        MachineType = "Mineração"
	MachineStreamingPC      MachineType = "PC para Streaming"
	MachineOther            MachineType = "Outro"
	MachineCustom           MachineType = "Personalizado"
)

// IsValidMachineType checks if the given machine type is one of the known branches.
func IsValidMachineType(mt MachineType) bool {
	switch mt {
	case MachinePersonalComputer, MachineServer, MachineWorkstation,
		MachineMiningRig, MachineStreamingPC, MachineOther, MachineCustom:
		return true
	default:
		return false
	}
}

// PendingAction identifies a save/export deferred behind a login redirect.
type PendingAction string

const (
	PendingActionSave   PendingAction = "save"
	PendingActionExport PendingAction = "export"
)

// Validation errors shared across modules.
var (
	ErrEmptyUtterance      = errors.New("utterance cannot be empty")
	ErrUtteranceTooLong    = errors.New("utterance exceeds maximum length")
	ErrSessionNotFound     = errors.New("session not found")
	ErrTurnInFlight        = errors.New("a dialogue turn is already in flight for this session")
	ErrIntakeComplete      = errors.New("intake already complete for this session")
	ErrIntakeIncomplete    = errors.New("intake is not complete yet")
	ErrInvalidPendingation = errors.New("invalid pending action")
	ErrLocationDone        = errors.New("location step already resolved")
	ErrNoPendingAction     = errors.New("no pending action queued")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// MaxUtteranceLength bounds user chat input.
const MaxUtteranceLength = 4096

// ChatMessage is one entry of the append-only conversation transcript.
// Marker carries the question token an assistant message surfaced, so the
// question-selection policy can check "already asked" mechanically instead of
// matching natural-language phrasing.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Marker    string    `json:"marker,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ComponentCategory is a pt-BR catalog category label.
type ComponentCategory string

const (
	CategoryCPU         ComponentCategory = "Processador"
	CategoryMotherboard ComponentCategory = "Placa-mãe"
	CategoryRAM         ComponentCategory = "Memória RAM"
	CategoryGPU         ComponentCategory = "Placa de Vídeo"
	CategoryStorage     ComponentCategory = "Armazenamento"
	CategoryPSU         ComponentCategory = "Fonte"
	CategoryCase        ComponentCategory = "Gabinete"
	CategoryCooler      ComponentCategory = "Cooler CPU"
)

// PCComponent is a static reference entity from the parts catalog. Never mutated.
type PCComponent struct {
	ID               string                 `json:"id"`
	Category         ComponentCategory      `json:"category"`
	Name             string                 `json:"name"`
	Brand            string                 `json:"brand"`
	Price            float64                `json:"price"`
	Specs            map[string]interface{} `json:"specs"`
	CompatibilityKey string                 `json:"compatibilityKey,omitempty"`
}

// ComponentSummary is the condensed catalog view embedded in LLM prompts.
type ComponentSummary struct {
	ID       string            `json:"id"`
	Category ComponentCategory `json:"category"`
	Name     string            `json:"name"`
	Price    float64           `json:"price"`
	KeySpecs string            `json:"key_specs"`
}

// AIRecommendation is the structured response expected from the
// recommendation service.
type AIRecommendation struct {
	RecommendedComponentIDs []string `json:"recommendedComponentIds"`
	Justification           string   `json:"justification"`
	EstimatedTotalPrice     *float64 `json:"estimatedTotalPrice,omitempty"`
	BudgetNotes             string   `json:"budgetNotes,omitempty"`
	CompatibilityWarnings   []string `json:"compatibilityWarnings,omitempty"`
}

// Build is a completed parts recommendation. Immutable after creation except
// for save, which attaches the owning user id.
type Build struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	UserID              string             `json:"userId,omitempty"`
	Components          []PCComponent      `json:"components"`
	TotalPrice          float64            `json:"totalPrice"`
	CreatedAt           time.Time          `json:"createdAt"`
	Requirements        *RequirementRecord `json:"requirements,omitempty"`
	CompatibilityIssues []string           `json:"compatibilityIssues,omitempty"`
}

// User is a registered account. The password hash never leaves the store layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session holds all per-conversation state: the transcript, the accumulating
// requirement record, the anonymous-continue flag and any pending action
// queued behind a login redirect.
type Session struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId,omitempty"`
	Transcript        []ChatMessage     `json:"transcript"`
	Record            RequirementRecord `json:"record"`
	AnonymousContinue bool              `json:"anonymousContinue"`
	PendingAction     PendingAction     `json:"pendingAction,omitempty"`
	PendingBuild      *Build            `json:"pendingBuild,omitempty"`
	PendingNotes      string            `json:"pendingNotes,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// LastAssistantMarker returns the marker of the most recent assistant message,
// or empty when the assistant has not asked anything yet.
func (s *Session) LastAssistantMarker() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Sender == SenderAssistant {
			return s.Transcript[i].Marker
		}
	}
	return ""
}

// MarkerSurfaced reports whether any assistant message in the transcript
// carries the given question marker.
func (s *Session) MarkerSurfaced(marker string) bool {
	for _, m := range s.Transcript {
		if m.Sender == SenderAssistant && m.Marker == marker {
			return true
		}
	}
	return false
}

// API response types for consistent JSON responses.

// APIStatus represents the possible status values for API responses.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
