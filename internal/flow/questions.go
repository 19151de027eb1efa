// Package flow implements the slot-filling dialogue manager: the question
// tree, the local extraction heuristics applied to each user reply, and the
// completion predicate that hands the session off to the recommendation stage.
package flow

import (
	"github.com/jonpedu/montap/internal/models"
)

// Question markers. Each question surfaced by the assistant carries one of
// these tokens in the transcript, so "already asked" and "never ask twice"
// are checked against stable identifiers instead of natural-language phrasing.
const (
	MarkerMachineType        = "machine_type"
	MarkerPurpose            = "pc_purpose"
	MarkerGamingType         = "gaming_type"
	MarkerMonitorSpecs       = "monitor_specs"
	MarkerPeripherals        = "peripherals"
	MarkerWorkField          = "work_field"
	MarkerSoftwareUsed       = "software_used"
	MarkerCreativeType       = "creative_type"
	MarkerProjectScale       = "project_scale"
	MarkerGeneralUsage       = "general_usage"
	MarkerServerWorkload     = "server_workload"
	MarkerAvailability       = "availability"
	MarkerWorkstationField   = "workstation_field"
	MarkerMiningFocus        = "mining_focus"
	MarkerStreamingPlatform  = "streaming_platform"
	MarkerStreamingSetup     = "streaming_setup"
	MarkerBudget             = "budget"
	MarkerLocationPermission = "location_permission"
	MarkerPCVentilation      = "pc_ventilation"
	MarkerPCDust             = "pc_dust"
	MarkerPCRoom             = "pc_room"
	MarkerEnvTempControl     = "env_temp_control"
	MarkerEnvDust            = "env_dust"
	MarkerPrefCaseSize       = "pref_case_size"
	MarkerPrefNoise          = "pref_noise"
	MarkerPrefPorts          = "pref_ports"
	MarkerPrefOpen           = "pref_open"
	MarkerCustomDescription  = "custom_description"
	MarkerCustomReferences   = "custom_references"
	MarkerCustomCritical     = "custom_critical"
	MarkerCustomUsage        = "custom_usage"
	MarkerCustomPhysical     = "custom_physical"
	MarkerCustomSpecial      = "custom_special"
	MarkerComplete           = "complete"
)

// CompletionPhrase is the recognizable substring the completion message must
// contain. The completion predicate checks it as a secondary signal behind
// the structured marker.
const CompletionPhrase = "posso prosseguir para gerar uma recomendação"

// Canonical purpose values for the personal-computer branch.
const (
	PurposeGaming   = "Jogos"
	PurposeWork     = "Trabalho"
	PurposeCreative = "Edição/Criação"
	PurposeGeneral  = "Uso Geral"
)

// Question is one node of the intake decision tree.
type Question struct {
	// Marker is the stable token identifying this question in transcripts.
	Marker string
	// Field is the canonical record field the answer fills. Empty for the
	// location-permission step (answered out-of-band) and the completion step.
	Field string
	// PrefTag tags answers routed into the preferences accumulator.
	PrefTag string
	// Prompt is the pt-BR question the assistant should surface. The dialogue
	// service is asked to phrase it conversationally; it also serves as the
	// verbatim fallback when the service is unavailable.
	Prompt string
	// Applies gates the question on the current session, beyond "field unset"
	// and "marker not surfaced yet".
	Applies func(s *models.Session) bool
}

func always(*models.Session) bool { return true }

func rec(s *models.Session) *models.RequirementRecord { return &s.Record }

// questionTree is the full ordered decision tree. Per-branch chains are
// strictly linear; a question fires only when its Applies predicate holds,
// its field is still unset and its marker has not surfaced yet.
var questionTree = []Question{
	{
		Marker:  MarkerMachineType,
		Field:   models.FieldMachineType,
		Prompt:  "Que tipo de máquina você quer montar? (Computador Pessoal, Servidor, Workstation, Mineração, PC para Streaming ou outro)",
		Applies: always,
	},

	// Personal-computer branch
	{
		Marker:  MarkerPurpose,
		Field:   models.FieldPurpose,
		Prompt:  "Qual será o propósito principal do seu computador? (Ex: jogos, trabalho, edição/criação, uso geral)",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachinePersonalComputer },
	},
	{
		Marker:  MarkerGamingType,
		Field:   models.FieldGamingType,
		Prompt:  "Que tipo de jogos você pretende rodar? (Competitivo/eSports, AAA pesados, casuais, simulação)",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeGaming },
	},
	{
		Marker:  MarkerMonitorSpecs,
		Field:   models.FieldMonitorSpecs,
		Prompt:  "Quantos monitores você vai usar e em qual resolução/taxa de atualização?",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeGaming && rec(s).GamingType != "" },
	},
	{
		Marker:  MarkerPeripherals,
		Field:   models.FieldPeripheralsNeeded,
		Prompt:  "Você precisa de periféricos junto com a máquina? (teclado, mouse, headset)",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeGaming && rec(s).MonitorSpecs != "" },
	},
	{
		Marker:  MarkerWorkField,
		Field:   models.FieldWorkField,
		Prompt:  "Em qual área você trabalha? (Ex: programação, engenharia, escritório, dados)",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeWork },
	},
	{
		Marker: MarkerSoftwareUsed,
		Field:  models.FieldSoftwareUsed,
		Prompt: "Quais programas mais pesados você usa no dia a dia?",
		Applies: func(s *models.Session) bool {
			r := rec(s)
			return (r.Purpose == PurposeWork && r.WorkField != "") ||
				(r.MachineType == models.MachineWorkstation && r.WorkstationField != "")
		},
	},
	{
		Marker:  MarkerCreativeType,
		Field:   models.FieldCreativeEditingType,
		Prompt:  "Que tipo de edição/criação você faz? (vídeo, fotos, modelagem 3D, produção de áudio)",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeCreative },
	},
	{
		Marker:  MarkerProjectScale,
		Field:   models.FieldProjectScale,
		Prompt:  "Qual a escala dos seus projetos? (Ex: vídeos curtos em 1080p, longas em 4K, cenas 3D complexas)",
		Applies: func(s *models.Session) bool { return rec(s).Purpose == PurposeCreative && rec(s).CreativeEditingType != "" },
	},
	{
		Marker: MarkerGeneralUsage,
		Field:  models.FieldGeneralUsageDetails,
		Prompt: "Me conte um pouco mais sobre como você pretende usar a máquina no dia a dia.",
		Applies: func(s *models.Session) bool {
			return rec(s).Purpose == PurposeGeneral || rec(s).MachineType == models.MachineOther
		},
	},

	// Server branch
	{
		Marker:  MarkerServerWorkload,
		Field:   models.FieldServerWorkload,
		Prompt:  "Qual será a carga principal do servidor? (web, banco de dados, arquivos, jogos, virtualização)",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineServer },
	},
	{
		Marker:  MarkerAvailability,
		Field:   models.FieldAvailabilityNeeds,
		Prompt:  "O servidor precisa operar 24/7? Há requisitos de redundância ou tolerância a falhas?",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineServer && rec(s).ServerWorkload != "" },
	},

	// Workstation branch
	{
		Marker:  MarkerWorkstationField,
		Field:   models.FieldWorkstationField,
		Prompt:  "Para qual área profissional é a workstation? (Ex: CAD, renderização, ciência de dados, vídeo)",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineWorkstation },
	},

	// Mining branch
	{
		Marker:  MarkerMiningFocus,
		Field:   models.FieldMiningFocus,
		Prompt:  "Qual criptomoeda ou algoritmo você pretende minerar, e em qual escala?",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineMiningRig },
	},

	// Streaming branch
	{
		Marker:  MarkerStreamingPlatform,
		Field:   models.FieldStreamingPlatform,
		Prompt:  "Em qual plataforma você faz streaming e que tipo de conteúdo transmite?",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineStreamingPC },
	},
	{
		Marker:  MarkerStreamingSetup,
		Field:   models.FieldStreamingSetup,
		Prompt:  "Você pretende jogar e transmitir na mesma máquina, ou usar um PC dedicado só para a transmissão?",
		Applies: func(s *models.Session) bool { return rec(s).MachineType == models.MachineStreamingPC && rec(s).StreamingPlatform != "" },
	},

	// Custom six-step sub-flow, strictly ordered
	{
		Marker:  MarkerCustomDescription,
		Field:   models.FieldCustomDescription,
		Prompt:  "Descreva em detalhes o que essa máquina precisa fazer.",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType },
	},
	{
		Marker:  MarkerCustomReferences,
		Field:   models.FieldReferenceSystems,
		Prompt:  "Existe algum sistema ou máquina de referência parecida com o que você quer?",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType && rec(s).CustomDescription != "" },
	},
	{
		Marker:  MarkerCustomCritical,
		Field:   models.FieldCriticalComponents,
		Prompt:  "Quais componentes são críticos para esse uso? (Ex: GPU, muita RAM, armazenamento rápido)",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType && rec(s).ReferenceSystems != "" },
	},
	{
		Marker:  MarkerCustomUsage,
		Field:   models.FieldUsagePatterns,
		Prompt:  "Como será o padrão de uso? (horas por dia, cargas contínuas ou picos)",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType && rec(s).CriticalComponents != "" },
	},
	{
		Marker:  MarkerCustomPhysical,
		Field:   models.FieldPhysicalConstraints,
		Prompt:  "Há restrições físicas de espaço, energia ou transporte para a máquina?",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType && rec(s).UsagePatterns != "" },
	},
	{
		Marker:  MarkerCustomSpecial,
		Field:   models.FieldSpecialRequirements,
		Prompt:  "Algum requisito especial que ainda não cobrimos?",
		Applies: func(s *models.Session) bool { return rec(s).IsCustomType && rec(s).PhysicalConstraints != "" },
	},

	// Shared tail: budget, location, environment, preferences
	{
		Marker: MarkerBudget,
		Field:  models.FieldBudget,
		Prompt: "Qual o seu orçamento aproximado em Reais (BRL)? Se preferir, diga uma faixa: econômico, intermediário, high-end ou entusiasta.",
		Applies: func(s *models.Session) bool {
			return branchComplete(rec(s)) && !budgetKnown(rec(s))
		},
	},
	{
		Marker: MarkerLocationPermission,
		Prompt: "Posso usar sua localização para considerar o clima da sua região na recomendação? (responda pelos botões Sim/Não)",
		Applies: func(s *models.Session) bool {
			r := rec(s)
			return budgetKnown(r) && r.City == "" && !r.LocationStepDone
		},
	},
	{
		Marker: MarkerPCVentilation,
		Field:  models.FieldPCVentilation,
		Prompt: "Como é a ventilação do ambiente onde o PC vai ficar? (ar condicionado, ventilador, ventilação natural, nenhuma)",
		Applies: func(s *models.Session) bool {
			return budgetKnown(rec(s)) && rec(s).City != "" && !generalEnvStarted(s)
		},
	},
	{
		Marker:  MarkerPCDust,
		Field:   models.FieldPCDustLevel,
		Prompt:  "Qual o nível de poeira no local onde o PC vai ficar? (baixa, média, alta)",
		Applies: func(s *models.Session) bool { return rec(s).City != "" && rec(s).PCVentilation != "" },
	},
	{
		Marker:  MarkerPCRoom,
		Field:   models.FieldPCRoomType,
		Prompt:  "Em que tipo de cômodo o PC vai ficar? (quarto, sala, escritório, estúdio)",
		Applies: func(s *models.Session) bool { return rec(s).City != "" && rec(s).PCDustLevel != "" },
	},
	{
		Marker: MarkerEnvTempControl,
		Field:  models.FieldEnvTempControl,
		Prompt: "O ambiente da máquina tem controle de temperatura? (climatizado, ventilação simples, sem controle)",
		Applies: func(s *models.Session) bool {
			r := rec(s)
			if !budgetKnown(r) {
				return false
			}
			// Once this chain has started it runs to the end, even if a late
			// location grant fills the city afterwards.
			if generalEnvStarted(s) {
				return true
			}
			return r.City == "" && (r.LocationStepDone || s.MarkerSurfaced(MarkerLocationPermission))
		},
	},
	{
		Marker: MarkerEnvDust,
		Field:  models.FieldEnvDust,
		Prompt: "Como é o nível de poeira do ambiente em geral? (baixa, média, alta)",
		Applies: func(s *models.Session) bool {
			return generalEnvStarted(s) && rec(s).EnvTempControl != ""
		},
	},
	{
		Marker:  MarkerPrefCaseSize,
		PrefTag: "Gabinete",
		Prompt:  "Você tem preferência de tamanho de gabinete? (compacto, médio, torre grande)",
		Applies: environmentDone,
	},
	{
		Marker:  MarkerPrefNoise,
		PrefTag: "Ruído",
		Prompt:  "O nível de ruído da máquina importa para você?",
		Applies: environmentDone,
	},
	{
		Marker:  MarkerPrefPorts,
		PrefTag: "Portas",
		Prompt:  "Precisa de portas ou conexões específicas? (USB-C, Thunderbolt, muitas USB)",
		Applies: environmentDone,
	},
	{
		Marker:  MarkerPrefOpen,
		PrefTag: "Outros",
		Prompt:  "Mais alguma preferência que eu deva considerar? (marcas, iluminação, estética)",
		Applies: environmentDone,
	},
	{
		Marker: MarkerComplete,
		Prompt: "Perfeito, coletei tudo o que precisava! Se estiver tudo certo, " + CompletionPhrase + ".",
		Applies: func(s *models.Session) bool {
			return rec(s).IsSet(models.FieldMachineType) && budgetKnown(rec(s))
		},
	},
}

// branchComplete reports whether the machine-type branch has bottomed out, so
// the shared tail (budget onwards) may start.
func branchComplete(r *models.RequirementRecord) bool {
	switch r.MachineType {
	case models.MachinePersonalComputer:
		switch r.Purpose {
		case PurposeGaming:
			return r.PeripheralsNeeded != ""
		case PurposeWork:
			return r.SoftwareUsed != ""
		case PurposeCreative:
			return r.ProjectScale != ""
		case PurposeGeneral:
			return r.GeneralUsageDetails != ""
		default:
			return r.Purpose != ""
		}
	case models.MachineServer:
		return r.AvailabilityNeeds != ""
	case models.MachineWorkstation:
		return r.WorkstationField != "" && r.SoftwareUsed != ""
	case models.MachineMiningRig:
		return r.MiningFocus != ""
	case models.MachineStreamingPC:
		return r.StreamingSetup != ""
	case models.MachineOther:
		return r.GeneralUsageDetails != ""
	case models.MachineCustom:
		return r.SpecialRequirements != ""
	}
	return false
}

func budgetKnown(r *models.RequirementRecord) bool {
	return r.IsSet(models.FieldBudget) || r.IsSet(models.FieldBudgetRange)
}

// generalEnvStarted reports whether the general environment chain has begun,
// either because its first question surfaced or was answered. The two
// environment chains are mutually exclusive per session: whichever starts
// first locks the other out.
func generalEnvStarted(s *models.Session) bool {
	return rec(s).EnvTempControl != "" || s.MarkerSurfaced(MarkerEnvTempControl)
}

// environmentDone gates the preference questions on whichever environment
// chain applied having finished.
func environmentDone(s *models.Session) bool {
	r := rec(s)
	if !budgetKnown(r) {
		return false
	}
	if generalEnvStarted(s) {
		return r.EnvDust != ""
	}
	if r.City != "" {
		return r.PCRoomType != ""
	}
	return false
}

// QuestionByMarker returns the tree node carrying the given marker.
func QuestionByMarker(marker string) (Question, bool) {
	for _, q := range questionTree {
		if q.Marker == marker {
			return q, true
		}
	}
	return Question{}, false
}

// NextQuestion selects the next question to surface. A field question is
// consumed once its field is set, so an answered question is never asked
// again; an unanswered one may be restated until the field fills. Questions
// with no backing field (location permission, preferences, completion) are
// one-shot by marker.
func NextQuestion(s *models.Session) (Question, bool) {
	for _, q := range questionTree {
		if !q.Applies(s) {
			continue
		}
		if q.Field != "" {
			if s.Record.IsSet(q.Field) {
				continue
			}
		} else if s.MarkerSurfaced(q.Marker) {
			continue
		}
		return q, true
	}
	return Question{}, false
}
