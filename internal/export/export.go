// Package export renders a build as the plain-text document offered for
// download, with pt-BR labels for every requirement field.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonpedu/montap/internal/models"
)

// fieldOrder fixes the rendering order of requirement fields; fieldLabels maps
// canonical names to pt-BR labels. Names missing from the map fall back to a
// mechanical humanization of the camelCase name.
var fieldOrder = []string{
	models.FieldMachineType,
	"isCustomType",
	models.FieldPurpose,
	models.FieldGamingType,
	models.FieldMonitorSpecs,
	models.FieldPeripheralsNeeded,
	models.FieldWorkField,
	models.FieldSoftwareUsed,
	models.FieldCreativeEditingType,
	models.FieldProjectScale,
	models.FieldGeneralUsageDetails,
	models.FieldServerWorkload,
	models.FieldAvailabilityNeeds,
	models.FieldWorkstationField,
	models.FieldMiningFocus,
	models.FieldStreamingPlatform,
	models.FieldStreamingSetup,
	models.FieldBudget,
	models.FieldBudgetRange,
	models.FieldCity,
	models.FieldCountryCode,
	models.FieldCityAvgTemp,
	models.FieldCityMaxTemp,
	models.FieldCityMinTemp,
	models.FieldCityWeatherDesc,
	models.FieldPCVentilation,
	models.FieldPCDustLevel,
	models.FieldPCRoomType,
	models.FieldEnvTempControl,
	models.FieldEnvDust,
	models.FieldPreferences,
	models.FieldCustomDescription,
	models.FieldReferenceSystems,
	models.FieldCriticalComponents,
	models.FieldUsagePatterns,
	models.FieldPhysicalConstraints,
	models.FieldSpecialRequirements,
}

var fieldLabels = map[string]string{
	models.FieldMachineType:         "Tipo de Máquina",
	"isCustomType":                  "Tipo Personalizado",
	models.FieldPurpose:             "Propósito",
	models.FieldGamingType:          "Tipo de Jogo",
	models.FieldMonitorSpecs:        "Monitores",
	models.FieldPeripheralsNeeded:   "Periféricos",
	models.FieldWorkField:           "Área de Trabalho",
	models.FieldSoftwareUsed:        "Softwares Utilizados",
	models.FieldCreativeEditingType: "Tipo de Edição",
	models.FieldProjectScale:        "Escala dos Projetos",
	models.FieldGeneralUsageDetails: "Detalhes de Uso",
	models.FieldServerWorkload:      "Carga do Servidor",
	models.FieldAvailabilityNeeds:   "Disponibilidade",
	models.FieldWorkstationField:    "Área da Workstation",
	models.FieldMiningFocus:         "Foco de Mineração",
	models.FieldStreamingPlatform:   "Plataforma de Streaming",
	models.FieldStreamingSetup:      "Setup de Streaming",
	models.FieldBudget:              "Orçamento",
	models.FieldBudgetRange:         "Faixa de Orçamento",
	models.FieldCity:                "Cidade",
	models.FieldCountryCode:         "País",
	models.FieldCityAvgTemp:         "Temperatura Média",
	models.FieldCityMaxTemp:         "Temperatura Máxima",
	models.FieldCityMinTemp:         "Temperatura Mínima",
	models.FieldCityWeatherDesc:     "Clima",
	models.FieldPCVentilation:       "Ventilação do Ambiente",
	models.FieldPCDustLevel:         "Nível de Poeira",
	models.FieldPCRoomType:          "Cômodo",
	models.FieldEnvTempControl:      "Controle de Temperatura",
	models.FieldEnvDust:             "Poeira do Ambiente",
	models.FieldPreferences:         "Preferências",
	models.FieldCustomDescription:   "Descrição",
	models.FieldReferenceSystems:    "Sistemas de Referência",
	models.FieldCriticalComponents:  "Componentes Críticos",
	models.FieldUsagePatterns:       "Padrões de Uso",
	models.FieldPhysicalConstraints: "Restrições Físicas",
	models.FieldSpecialRequirements: "Requisitos Especiais",
}

// Render produces the downloadable plain-text document for a build. aiNotes
// carries the recommendation justification when available.
func Render(build *models.Build, aiNotes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build: %s\n", build.Name)
	fmt.Fprintf(&b, "Data: %s\n", build.CreatedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Preço Total Estimado: R$ %.2f\n", build.TotalPrice)

	b.WriteString("\nComponentes:\n")
	for _, comp := range build.Components {
		fmt.Fprintf(&b, "- %s: %s (%s) - R$ %.2f\n", comp.Category, comp.Name, comp.Brand, comp.Price)
	}

	if build.Requirements != nil {
		b.WriteString("\nRequisitos:\n")
		for _, name := range fieldOrder {
			value, ok := fieldValue(build.Requirements, name)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", label(name), value)
		}
	}

	if aiNotes != "" {
		b.WriteString("\nNotas da IA:\n")
		b.WriteString(aiNotes)
		b.WriteString("\n")
	}

	if len(build.CompatibilityIssues) > 0 {
		b.WriteString("\nAvisos de Compatibilidade:\n")
		for _, w := range build.CompatibilityIssues {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// Summary is the displayable breakdown of a build: one entry per component
// plus the total, notes and warnings the summary view shows alongside.
type Summary struct {
	Name       string        `json:"name"`
	Items      []SummaryItem `json:"items"`
	TotalPrice float64       `json:"totalPrice"`
	Notes      string        `json:"notes,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// SummaryItem is one component line of the summary view.
type SummaryItem struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
}

// Sections breaks a build into the structured summary view. aiNotes carries
// the recommendation justification when available.
func Sections(build *models.Build, aiNotes string) Summary {
	items := make([]SummaryItem, 0, len(build.Components))
	for _, comp := range build.Components {
		items = append(items, SummaryItem{
			Category: string(comp.Category),
			Name:     comp.Name,
			Brand:    comp.Brand,
			Price:    comp.Price,
		})
	}
	return Summary{
		Name:       build.Name,
		Items:      items,
		TotalPrice: build.TotalPrice,
		Notes:      aiNotes,
		Warnings:   build.CompatibilityIssues,
	}
}

// Filename derives a safe download filename for a build.
func Filename(build *models.Build) string {
	name := strings.ToLower(build.Name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "montap"
	}
	return "build-" + slug + ".txt"
}

// fieldValue formats one requirement field, reporting false for empty fields
// and fields that never surface in exports.
func fieldValue(r *models.RequirementRecord, name string) (string, bool) {
	switch name {
	case models.FieldMachineType:
		if r.MachineType == "" {
			return "", false
		}
		return string(r.MachineType), true
	case "isCustomType":
		if !r.IsCustomType {
			return "", false
		}
		return "Sim", true
	case models.FieldBudget:
		if r.Budget <= 0 {
			return "", false
		}
		return fmt.Sprintf("R$ %.2f", r.Budget), true
	case models.FieldCityAvgTemp:
		return tempValue(r.CityAvgTemp)
	case models.FieldCityMaxTemp:
		return tempValue(r.CityMaxTemp)
	case models.FieldCityMinTemp:
		return tempValue(r.CityMinTemp)
	}
	switch name {
	case models.FieldPurpose:
		return nonEmpty(r.Purpose)
	case models.FieldGamingType:
		return nonEmpty(r.GamingType)
	case models.FieldMonitorSpecs:
		return nonEmpty(r.MonitorSpecs)
	case models.FieldPeripheralsNeeded:
		return nonEmpty(r.PeripheralsNeeded)
	case models.FieldWorkField:
		return nonEmpty(r.WorkField)
	case models.FieldSoftwareUsed:
		return nonEmpty(r.SoftwareUsed)
	case models.FieldCreativeEditingType:
		return nonEmpty(r.CreativeEditingType)
	case models.FieldProjectScale:
		return nonEmpty(r.ProjectScale)
	case models.FieldGeneralUsageDetails:
		return nonEmpty(r.GeneralUsageDetails)
	case models.FieldServerWorkload:
		return nonEmpty(r.ServerWorkload)
	case models.FieldAvailabilityNeeds:
		return nonEmpty(r.AvailabilityNeeds)
	case models.FieldWorkstationField:
		return nonEmpty(r.WorkstationField)
	case models.FieldMiningFocus:
		return nonEmpty(r.MiningFocus)
	case models.FieldStreamingPlatform:
		return nonEmpty(r.StreamingPlatform)
	case models.FieldStreamingSetup:
		return nonEmpty(r.StreamingSetup)
	case models.FieldBudgetRange:
		return nonEmpty(r.BudgetRange)
	case models.FieldCity:
		return nonEmpty(r.City)
	case models.FieldCountryCode:
		return nonEmpty(r.CountryCode)
	case models.FieldCityWeatherDesc:
		return nonEmpty(r.CityWeatherDesc)
	case models.FieldPCVentilation:
		return nonEmpty(r.PCVentilation)
	case models.FieldPCDustLevel:
		return nonEmpty(r.PCDustLevel)
	case models.FieldPCRoomType:
		return nonEmpty(r.PCRoomType)
	case models.FieldEnvTempControl:
		return nonEmpty(r.EnvTempControl)
	case models.FieldEnvDust:
		return nonEmpty(r.EnvDust)
	case models.FieldPreferences:
		return nonEmpty(r.Preferences)
	case models.FieldCustomDescription:
		return nonEmpty(r.CustomDescription)
	case models.FieldReferenceSystems:
		return nonEmpty(r.ReferenceSystems)
	case models.FieldCriticalComponents:
		return nonEmpty(r.CriticalComponents)
	case models.FieldUsagePatterns:
		return nonEmpty(r.UsagePatterns)
	case models.FieldPhysicalConstraints:
		return nonEmpty(r.PhysicalConstraints)
	case models.FieldSpecialRequirements:
		return nonEmpty(r.SpecialRequirements)
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}

func tempValue(t *float64) (string, bool) {
	if t == nil {
		return "", false
	}
	return fmt.Sprintf("%.0f°C", *t), true
}

func label(name string) string {
	if l, ok := fieldLabels[name]; ok {
		return l
	}
	return humanize(name)
}

// humanize turns a camelCase field name into a readable label, inserting a
// space before each capital and upper-casing the first rune.
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
