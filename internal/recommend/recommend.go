// Package recommend turns a completed requirement record into a parts build
// by prompting the recommendation service with the record and a condensed
// catalog, then resolving the returned component ids against the catalog.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/jonpedu/montap/internal/catalog"
	"github.com/jonpedu/montap/internal/flow"
	"github.com/jonpedu/montap/internal/genai"
	"github.com/jonpedu/montap/internal/models"
	"github.com/jonpedu/montap/internal/util"
)

// ErrMalformedResponse indicates the recommendation service returned
// something that could not be decoded into a usable recommendation.
var ErrMalformedResponse = errors.New("recommendation service returned a malformed response")

// Requester drives build generation against the recommendation service.
type Requester struct {
	ai      genai.ClientInterface
	catalog *catalog.Catalog
}

// NewRequester creates a Requester over the given service client and catalog.
func NewRequester(ai genai.ClientInterface, cat *catalog.Catalog) *Requester {
	return &Requester{ai: ai, catalog: cat}
}

const promptTemplate = `Você é um especialista em montagem de PCs. Monte a melhor configuração possível usando SOMENTE componentes do catálogo abaixo, respeitando o orçamento e os requisitos do usuário.

Requisitos do usuário (JSON):
%s

Catálogo disponível (JSON):
%s

Responda SOMENTE com um objeto JSON neste formato:
{"recommendedComponentIds": ["id1", "id2"], "justification": "texto", "estimatedTotalPrice": 0, "budgetNotes": "texto opcional", "compatibilityWarnings": ["aviso opcional"]}

Regras:
- Use exatamente um componente de cada categoria essencial (Processador, Placa-mãe, Memória RAM, Armazenamento, Fonte, Gabinete, Cooler CPU) e inclua Placa de Vídeo quando o uso exigir.
- Garanta compatibilidade de socket entre processador, placa-mãe e cooler, e de tipo de memória com a placa-mãe.
- Escreva justification e budgetNotes em português do Brasil.`

// GenerateBuild produces a build for a session whose intake is complete.
// Returns models.ErrIntakeIncomplete before that point. The recommendation is
// returned alongside the build so callers can surface the justification and
// budget notes.
func (rq *Requester) GenerateBuild(ctx context.Context, session *models.Session) (*models.Build, *models.AIRecommendation, error) {
	if !flow.IntakeComplete(session) {
		return nil, nil, models.ErrIntakeIncomplete
	}

	recordJSON, err := json.Marshal(session.Record)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal requirement record: %w", err)
	}
	catalogJSON, err := json.Marshal(rq.catalog.Summaries())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal catalog summaries: %w", err)
	}

	raw, err := rq.ai.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(fmt.Sprintf(promptTemplate, recordJSON, catalogJSON)),
		openai.UserMessage("Gere a recomendação de componentes agora."),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recommendation request failed: %w", err)
	}

	rec, err := parseRecommendation(raw)
	if err != nil {
		return nil, nil, err
	}

	components, dropped := rq.resolveComponents(rec.RecommendedComponentIDs)
	if len(components) == 0 {
		return nil, nil, fmt.Errorf("%w: no recommended component id resolved against the catalog", ErrMalformedResponse)
	}
	for _, id := range dropped {
		slog.Warn("recommend.GenerateBuild: dropping unknown component id", "sessionID", session.ID, "componentID", id)
	}

	total := 0.0
	for _, comp := range components {
		total += comp.Price
	}
	if rec.EstimatedTotalPrice != nil && *rec.EstimatedTotalPrice > 0 {
		total = *rec.EstimatedTotalPrice
	}

	record := session.Record
	build := &models.Build{
		ID:                  uuid.NewString(),
		Name:                buildName(&record),
		Components:          components,
		TotalPrice:          total,
		CreatedAt:           time.Now().UTC(),
		Requirements:        &record,
		CompatibilityIssues: mergeWarnings(rec.CompatibilityWarnings, CheckCompatibility(components)),
	}
	slog.Debug("recommend.GenerateBuild: build generated",
		"sessionID", session.ID, "components", len(components), "total", build.TotalPrice)
	return build, rec, nil
}

// parseRecommendation decodes the service response, tolerating code fences
// and surrounding prose.
func parseRecommendation(raw string) (*models.AIRecommendation, error) {
	obj, ok := util.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	var rec models.AIRecommendation
	if err := json.Unmarshal([]byte(obj), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(rec.RecommendedComponentIDs) == 0 {
		return nil, fmt.Errorf("%w: empty component list", ErrMalformedResponse)
	}
	return &rec, nil
}

// resolveComponents maps recommended ids to catalog components, collecting the
// ids the catalog does not know.
func (rq *Requester) resolveComponents(ids []string) ([]models.PCComponent, []string) {
	var components []models.PCComponent
	var dropped []string
	for _, id := range ids {
		if comp, ok := rq.catalog.ByID(id); ok {
			components = append(components, comp)
		} else {
			dropped = append(dropped, id)
		}
	}
	return components, dropped
}

func buildName(r *models.RequirementRecord) string {
	switch {
	case r.Purpose != "":
		return "Build IA para " + r.Purpose
	case r.MachineType != "":
		return "Build IA para " + string(r.MachineType)
	default:
		return "Build IA para Uso Geral"
	}
}

func mergeWarnings(groups ...[]string) []string {
	var merged []string
	seen := map[string]bool{}
	for _, group := range groups {
		for _, w := range group {
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			merged = append(merged, w)
		}
	}
	return merged
}
