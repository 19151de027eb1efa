package flow

import (
	"testing"

	"github.com/jonpedu/montap/internal/models"
)

func TestExtractBudgetNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"tenho uns 4500 reais", 4500},
		{"R$ 4.500,50", 4500.50},
		{"uns 5 mil", 5000},
		{"5k no máximo", 5000},
		{"4500.50", 4500.50},
	}
	for _, tc := range cases {
		patch := Extract(MarkerBudget, tc.in)
		got, ok := patch.Fields[models.FieldBudget].(float64)
		if !ok {
			t.Errorf("%q: expected numeric budget, got %v", tc.in, patch.Fields)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected budget %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestExtractBudgetBucket(t *testing.T) {
	patch := Extract(MarkerBudget, "quero algo econômico")
	if rng, _ := patch.Fields[models.FieldBudgetRange].(string); rng != "Econômico [R$2-4k]" {
		t.Errorf("expected econômico range label, got %v", patch.Fields[models.FieldBudgetRange])
	}
	if b, _ := patch.Fields[models.FieldBudget].(float64); b != 3000 {
		t.Errorf("expected representative budget 3000, got %v", patch.Fields[models.FieldBudget])
	}
}

func TestExtractBudgetRejectsSmallNumbers(t *testing.T) {
	patch := Extract(MarkerBudget, "uns 2 monitores")
	if _, ok := patch.Fields[models.FieldBudget]; ok {
		t.Errorf("expected no budget from %v", patch.Fields)
	}
}

func TestExtractMachineTypeKeywords(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"quero um servidor para minha empresa", string(models.MachineServer)},
		{"um pc gamer", string(models.MachinePersonalComputer)},
		{"máquina de mineração", string(models.MachineMiningRig)},
		{"um pc para streaming", string(models.MachineStreamingPC)},
	}
	for _, tc := range cases {
		patch := Extract(MarkerMachineType, tc.in)
		if got, _ := patch.Fields[models.FieldMachineType].(string); got != tc.want {
			t.Errorf("%q: expected machine type %q, got %v", tc.in, tc.want, patch.Fields[models.FieldMachineType])
		}
	}
}

func TestExtractMachineTypeUnrecognisedSeedsCustom(t *testing.T) {
	in := "uma máquina para farm de render distribuído"
	patch := Extract(MarkerMachineType, in)
	if got, _ := patch.Fields[models.FieldMachineType].(string); got != in {
		t.Fatalf("expected raw utterance as machine type, got %v", patch.Fields[models.FieldMachineType])
	}
	if got, _ := patch.Fields[models.FieldCustomDescription].(string); got != in {
		t.Errorf("expected raw utterance to seed custom description, got %v", patch.Fields[models.FieldCustomDescription])
	}

	var r models.RequirementRecord
	applyPatch(&r, patch)
	if r.MachineType != models.MachineCustom || !r.IsCustomType {
		t.Errorf("expected custom machine type after applying patch, got %q (custom=%v)", r.MachineType, r.IsCustomType)
	}
}

func TestExtractPreferenceTagged(t *testing.T) {
	patch := Extract(MarkerPrefCaseSize, "compacto, por favor")
	if patch.PrefTag != "Gabinete" || patch.PrefText != "compacto, por favor" {
		t.Errorf("expected tagged preference, got tag=%q text=%q", patch.PrefTag, patch.PrefText)
	}
}

func TestExtractNegativeSkipsPreference(t *testing.T) {
	for _, in := range []string{"não", "nenhuma", "tanto faz", "Não."} {
		patch := Extract(MarkerPrefNoise, in)
		if !patch.Empty() {
			t.Errorf("%q: expected empty patch, got %+v", in, patch)
		}
	}
}

func TestExtractDustLevels(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"bem limpo", "Baixa"},
		{"muita poeira", "Alta"},
		{"normal", "Média"},
	}
	for _, tc := range cases {
		patch := Extract(MarkerPCDust, tc.in)
		if got, _ := patch.Fields[models.FieldPCDustLevel].(string); got != tc.want {
			t.Errorf("%q: expected dust %q, got %v", tc.in, tc.want, patch.Fields[models.FieldPCDustLevel])
		}
	}
}

func TestExtractFreeTextFallback(t *testing.T) {
	patch := Extract(MarkerMonitorSpecs, "dois monitores 1440p 165hz")
	if got, _ := patch.Fields[models.FieldMonitorSpecs].(string); got != "dois monitores 1440p 165hz" {
		t.Errorf("expected verbatim free text, got %v", patch.Fields[models.FieldMonitorSpecs])
	}

	// Replies below the length threshold are dropped.
	patch = Extract(MarkerMonitorSpecs, "ok")
	if !patch.Empty() {
		t.Errorf("expected empty patch for trivial reply, got %+v", patch)
	}
}

func TestExtractUnknownMarker(t *testing.T) {
	patch := Extract("no_such_marker", "qualquer coisa")
	if !patch.Empty() {
		t.Errorf("expected empty patch for unknown marker, got %+v", patch)
	}
}
