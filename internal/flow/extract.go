package flow

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonpedu/montap/internal/models"
)

// Patch is the outcome of local extraction for one user reply: field values
// keyed by canonical name, plus an optional tagged preference fragment.
type Patch struct {
	Fields   map[string]interface{}
	PrefTag  string
	PrefText string
}

// Empty reports whether the extraction produced nothing.
func (p Patch) Empty() bool {
	return len(p.Fields) == 0 && p.PrefText == ""
}

// freeTextMinRunes is the minimum reply length stored via the free-text
// fallback when no keyword matched.
const freeTextMinRunes = 3

// minBudgetValue filters out numbers too small to be a BRL budget, such as a
// monitor count leaking into the budget answer.
const minBudgetValue = 100

type keywordRule struct {
	keywords []string
	value    string
}

func matchRules(utterance string, rules []keywordRule) (string, bool) {
	lower := strings.ToLower(utterance)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.value, true
			}
		}
	}
	return "", false
}

var machineTypeRules = []keywordRule{
	{[]string{"servidor", "server"}, string(models.MachineServer)},
	{[]string{"workstation", "estação de trabalho", "estacao de trabalho"}, string(models.MachineWorkstation)},
	{[]string{"minera", "mining"}, string(models.MachineMiningRig)},
	{[]string{"streaming", "stream", "transmiss"}, string(models.MachineStreamingPC)},
	{[]string{"computador pessoal", "pessoal", "desktop", "pc", "computador", "gamer", "jogos", "casa"}, string(models.MachinePersonalComputer)},
	{[]string{"outro"}, string(models.MachineOther)},
}

var purposeRules = []keywordRule{
	{[]string{"jog", "game", "gamer"}, PurposeGaming},
	{[]string{"trabalho", "trabalhar", "escritório", "escritorio", "profissional"}, PurposeWork},
	{[]string{"edição", "edicao", "edito", "criação", "criacao", "design", "vídeo", "video", "foto", "render"}, PurposeCreative},
	{[]string{"geral", "estud", "navegar", "básico", "basico", "dia a dia"}, PurposeGeneral},
}

var gamingTypeRules = []keywordRule{
	{[]string{"competitivo", "esport", "e-sport", "csgo", "cs2", "valorant"}, "Competitivo (eSports)"},
	{[]string{"aaa", "pesado", "triple"}, "AAA (Jogos Pesados)"},
	{[]string{"simula", "flight", "corrida"}, "Simulação"},
	{[]string{"casual", "leve", "indie"}, "Casual"},
}

var creativeTypeRules = []keywordRule{
	{[]string{"vídeo", "video", "premiere", "davinci"}, "Edição de Vídeo"},
	{[]string{"foto", "photoshop", "lightroom"}, "Edição de Fotos"},
	{[]string{"3d", "render", "blender", "maya"}, "Modelagem 3D"},
	{[]string{"áudio", "audio", "música", "musica", "som"}, "Produção de Áudio"},
}

var serverWorkloadRules = []keywordRule{
	{[]string{"web", "site", "api"}, "Servidor Web"},
	{[]string{"banco", "dados", "database"}, "Banco de Dados"},
	{[]string{"arquivo", "nas", "backup"}, "Servidor de Arquivos"},
	{[]string{"jog", "game"}, "Servidor de Jogos"},
	{[]string{"virtualiza", "vm", "container", "docker"}, "Virtualização"},
}

var ventilationRules = []keywordRule{
	{[]string{"ar condicionado", "ar-condicionado", "climatizado"}, "Ar Condicionado"},
	{[]string{"ventilador"}, "Ventilador"},
	{[]string{"janela", "natural"}, "Ventilação Natural"},
	{[]string{"nenhuma", "nenhum", "sem ventila"}, "Sem Ventilação"},
}

var dustRules = []keywordRule{
	{[]string{"média", "media", "moderada", "normal"}, "Média"},
	{[]string{"pouca", "pouco", "baixa", "baixo", "limpo", "limpa"}, "Baixa"},
	{[]string{"muita", "muito", "alta", "alto", "bastante"}, "Alta"},
}

var roomRules = []keywordRule{
	{[]string{"quarto"}, "Quarto"},
	{[]string{"escritório", "escritorio"}, "Escritório"},
	{[]string{"estúdio", "estudio"}, "Estúdio"},
	{[]string{"sala"}, "Sala"},
}

var tempControlRules = []keywordRule{
	{[]string{"ar condicionado", "ar-condicionado", "climatizado", "sim"}, "Climatizado"},
	{[]string{"ventilador", "ventilação simples", "ventilacao simples"}, "Ventilação Simples"},
	{[]string{"não", "nao", "sem controle", "nenhum"}, "Sem Controle"},
}

// budgetBuckets maps budget-range keywords to the pt-BR range label and a
// representative numeric budget used for price filtering downstream.
var budgetBuckets = []struct {
	keywords       []string
	label          string
	representative float64
}{
	{[]string{"econômico", "economico", "econômica", "economica", "barato", "básico", "basico"}, "Econômico [R$2-4k]", 3000},
	{[]string{"intermediário", "intermediario", "intermediária", "intermediaria", "médio", "medio"}, "Intermediário [R$4-8k]", 6000},
	{[]string{"high-end", "high end", "highend", "topo de linha", "avançado", "avancado"}, "High-End [R$8-15k]", 11500},
	{[]string{"entusiasta", "sem limite", "o melhor"}, "Entusiasta [R$15k+]", 20000},
}

// negativeReplies are replies that decline an open question; they never reach
// the free-text fallback or the preferences accumulator.
var negativeReplies = []string{
	"não", "nao", "não sei", "nao sei", "nenhum", "nenhuma", "nada", "tanto faz", "sem preferência", "sem preferencia",
}

func isNegative(utterance string) bool {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	lower = strings.TrimRight(lower, ".!,")
	for _, n := range negativeReplies {
		if lower == n {
			return true
		}
	}
	return false
}

var numberPattern = regexp.MustCompile(`\d[\d.,]*`)

// parseBRLNumber extracts the first numeric literal from a pt-BR utterance,
// handling "4.500,50", "4500.50", "4500" and the "mil"/"k" multipliers.
func parseBRLNumber(utterance string) (float64, bool) {
	loc := numberPattern.FindStringIndex(utterance)
	if loc == nil {
		return 0, false
	}
	raw := strings.Trim(utterance[loc[0]:loc[1]], ".,")
	var normalized string
	switch {
	case strings.Contains(raw, ",") && strings.Contains(raw, "."):
		// pt-BR convention: dot groups thousands, comma is the decimal.
		normalized = strings.ReplaceAll(raw, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	case strings.Contains(raw, ","):
		normalized = strings.Replace(raw, ",", ".", 1)
	case strings.Contains(raw, "."):
		// "4.500" is four thousand five hundred, "4.5" is four and a half.
		parts := strings.Split(raw, ".")
		grouped := true
		for _, p := range parts[1:] {
			if len(p) != 3 {
				grouped = false
				break
			}
		}
		if grouped {
			normalized = strings.Join(parts, "")
		} else {
			normalized = raw
		}
	default:
		normalized = raw
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	tail := strings.ToLower(strings.TrimSpace(utterance[loc[1]:]))
	if strings.HasPrefix(tail, "mil") || strings.HasPrefix(tail, "k") {
		v *= 1000
	}
	return v, true
}

// Extract runs the local heuristics for the reply to the question identified
// by marker. It is pure: no session state is touched. The returned patch is
// merged into the record by the dialogue manager with precedence over the
// dialogue service's own extraction.
func Extract(marker, utterance string) Patch {
	patch := Patch{Fields: map[string]interface{}{}}
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return patch
	}

	q, ok := QuestionByMarker(marker)
	if !ok {
		return patch
	}

	if q.PrefTag != "" {
		if !isNegative(trimmed) && utf8.RuneCountInString(trimmed) >= freeTextMinRunes {
			patch.PrefTag = q.PrefTag
			patch.PrefText = trimmed
		}
		return patch
	}

	switch marker {
	case MarkerMachineType:
		if v, ok := matchRules(trimmed, machineTypeRules); ok {
			patch.Fields[models.FieldMachineType] = v
		} else if utf8.RuneCountInString(trimmed) >= freeTextMinRunes {
			// Unrecognised machine types flow into the custom sub-flow; the
			// raw description seeds both the type and its first answer.
			patch.Fields[models.FieldMachineType] = trimmed
			patch.Fields[models.FieldCustomDescription] = trimmed
		}
	case MarkerPurpose:
		assignMatched(&patch, models.FieldPurpose, trimmed, purposeRules)
	case MarkerGamingType:
		assignMatched(&patch, models.FieldGamingType, trimmed, gamingTypeRules)
	case MarkerCreativeType:
		assignMatched(&patch, models.FieldCreativeEditingType, trimmed, creativeTypeRules)
	case MarkerServerWorkload:
		assignMatched(&patch, models.FieldServerWorkload, trimmed, serverWorkloadRules)
	case MarkerPCVentilation:
		assignMatched(&patch, models.FieldPCVentilation, trimmed, ventilationRules)
	case MarkerPCDust:
		assignMatched(&patch, models.FieldPCDustLevel, trimmed, dustRules)
	case MarkerEnvDust:
		assignMatched(&patch, models.FieldEnvDust, trimmed, dustRules)
	case MarkerPCRoom:
		assignMatched(&patch, models.FieldPCRoomType, trimmed, roomRules)
	case MarkerEnvTempControl:
		assignMatched(&patch, models.FieldEnvTempControl, trimmed, tempControlRules)
	case MarkerBudget:
		extractBudget(&patch, trimmed)
	case MarkerLocationPermission, MarkerComplete:
		// Answered out of band (location) or terminal (completion); nothing to
		// extract from chat text.
	default:
		// Open free-text questions: store the reply verbatim when substantive.
		if q.Field != "" && !isNegative(trimmed) && utf8.RuneCountInString(trimmed) >= freeTextMinRunes {
			patch.Fields[q.Field] = trimmed
		}
	}
	return patch
}

// assignMatched sets the field from the keyword table, falling back to the
// verbatim reply for substantive answers the table does not cover.
func assignMatched(patch *Patch, field, utterance string, rules []keywordRule) {
	if v, ok := matchRules(utterance, rules); ok {
		patch.Fields[field] = v
		return
	}
	if !isNegative(utterance) && utf8.RuneCountInString(utterance) >= freeTextMinRunes {
		patch.Fields[field] = utterance
	}
}

// extractBudget tries the range buckets first; a matched bucket also pins the
// representative numeric budget. Otherwise the first plausible numeric
// literal becomes the budget.
func extractBudget(patch *Patch, utterance string) {
	lower := strings.ToLower(utterance)
	for _, bucket := range budgetBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				patch.Fields[models.FieldBudgetRange] = bucket.label
				patch.Fields[models.FieldBudget] = bucket.representative
				return
			}
		}
	}
	if v, ok := parseBRLNumber(utterance); ok && v >= minBudgetValue {
		patch.Fields[models.FieldBudget] = v
	}
}
