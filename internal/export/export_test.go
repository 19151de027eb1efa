package export

import (
	"strings"
	"testing"
	"time"

	"github.com/jonpedu/montap/internal/models"
)

func sampleBuild() *models.Build {
	avg := 29.0
	return &models.Build{
		ID:         "b1",
		Name:       "Build IA para Jogos",
		TotalPrice: 4400,
		CreatedAt:  time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC),
		Components: []models.PCComponent{
			{Category: models.CategoryCPU, Name: "AMD Ryzen 5 5600X", Brand: "AMD", Price: 1200},
			{Category: models.CategoryMotherboard, Name: "MSI B550 TOMAHAWK", Brand: "MSI", Price: 900},
		},
		Requirements: &models.RequirementRecord{
			MachineType: models.MachinePersonalComputer,
			Purpose:     "Jogos",
			Budget:      4500,
			City:        "Teresina",
			CityAvgTemp: &avg,
			Preferences: "Gabinete: compacto | Ruído: silencioso",
		},
		CompatibilityIssues: []string{"A fonte escolhida fica no limite para a placa de vídeo."},
	}
}

func TestSections(t *testing.T) {
	s := Sections(sampleBuild(), "Configuração equilibrada para o orçamento.")

	if s.Name != "Build IA para Jogos" {
		t.Errorf("name = %q", s.Name)
	}
	if s.TotalPrice != 4400 {
		t.Errorf("total = %v, want 4400", s.TotalPrice)
	}
	if len(s.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(s.Items))
	}
	first := s.Items[0]
	if first.Category != "Processador" || first.Name != "AMD Ryzen 5 5600X" || first.Brand != "AMD" || first.Price != 1200 {
		t.Errorf("first item = %+v", first)
	}
	if s.Notes != "Configuração equilibrada para o orçamento." {
		t.Errorf("notes = %q", s.Notes)
	}
	if len(s.Warnings) != 1 || !strings.Contains(s.Warnings[0], "fonte") {
		t.Errorf("warnings = %v", s.Warnings)
	}

	empty := Sections(&models.Build{Name: "Vazia"}, "")
	if len(empty.Items) != 0 || empty.Notes != "" || len(empty.Warnings) != 0 {
		t.Errorf("empty build summary not empty: %+v", empty)
	}
}

func TestRenderHeaderAndComponents(t *testing.T) {
	out := Render(sampleBuild(), "Configuração equilibrada para o orçamento.")

	for _, want := range []string{
		"Build: Build IA para Jogos\n",
		"Data: 14/03/2026\n",
		"Preço Total Estimado: R$ 4400.00\n",
		"Componentes:\n",
		"- Processador: AMD Ryzen 5 5600X (AMD) - R$ 1200.00\n",
		"- Placa-mãe: MSI B550 TOMAHAWK (MSI) - R$ 900.00\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered export:\n%s", want, out)
		}
	}
}

func TestRenderRequirements(t *testing.T) {
	out := Render(sampleBuild(), "")

	for _, want := range []string{
		"Requisitos:\n",
		"- Tipo de Máquina: Computador Pessoal\n",
		"- Propósito: Jogos\n",
		"- Orçamento: R$ 4500.00\n",
		"- Cidade: Teresina\n",
		"- Temperatura Média: 29°C\n",
		"- Preferências: Gabinete: compacto | Ruído: silencioso\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered export:\n%s", want, out)
		}
	}

	// Empty fields never render.
	if strings.Contains(out, "Carga do Servidor") {
		t.Error("empty field rendered in export")
	}
}

func TestRenderNotesAndWarnings(t *testing.T) {
	out := Render(sampleBuild(), "Notas geradas pela IA.")
	if !strings.Contains(out, "Notas da IA:\nNotas geradas pela IA.\n") {
		t.Errorf("missing AI notes section:\n%s", out)
	}
	if !strings.Contains(out, "Avisos de Compatibilidade:\n- A fonte escolhida fica no limite") {
		t.Errorf("missing compatibility section:\n%s", out)
	}

	// Without notes the section is omitted entirely.
	out = Render(sampleBuild(), "")
	if strings.Contains(out, "Notas da IA") {
		t.Error("AI notes section rendered without notes")
	}
}

func TestHumanizeFallbackLabel(t *testing.T) {
	if got := humanize("someNewField"); got != "Some New Field" {
		t.Errorf("expected humanized label, got %q", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(sampleBuild()); got != "build-build-ia-para-jogos.txt" {
		t.Errorf("unexpected filename %q", got)
	}
	if got := Filename(&models.Build{Name: "???"}); got != "build-montap.txt" {
		t.Errorf("unexpected fallback filename %q", got)
	}
}