package flow

import (
	"testing"

	"github.com/jonpedu/montap/internal/models"
)

func markAsked(s *models.Session, marker string) {
	s.Transcript = append(s.Transcript, models.ChatMessage{
		Sender: models.SenderAssistant,
		Marker: marker,
	})
}

func nextMarker(t *testing.T, s *models.Session) string {
	t.Helper()
	q, ok := NextQuestion(s)
	if !ok {
		t.Fatal("expected a next question, tree returned none")
	}
	return q.Marker
}

func TestGamingBranchOrder(t *testing.T) {
	s := &models.Session{}
	steps := []struct {
		wantMarker string
		field      string
		answer     interface{}
	}{
		{MarkerMachineType, models.FieldMachineType, string(models.MachinePersonalComputer)},
		{MarkerPurpose, models.FieldPurpose, PurposeGaming},
		{MarkerGamingType, models.FieldGamingType, "Competitivo (eSports)"},
		{MarkerMonitorSpecs, models.FieldMonitorSpecs, "um monitor 1080p 144hz"},
		{MarkerPeripherals, models.FieldPeripheralsNeeded, "teclado e mouse"},
		{MarkerBudget, models.FieldBudget, 4500.0},
	}
	for _, step := range steps {
		if got := nextMarker(t, s); got != step.wantMarker {
			t.Fatalf("expected question %q, got %q", step.wantMarker, got)
		}
		markAsked(s, step.wantMarker)
		if _, err := s.Record.Set(step.field, step.answer); err != nil {
			t.Fatalf("failed to set %s: %v", step.field, err)
		}
	}
	if got := nextMarker(t, s); got != MarkerLocationPermission {
		t.Fatalf("expected location permission after budget, got %q", got)
	}
}

func TestServerBranchOrder(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, string(models.MachineServer))
	if got := nextMarker(t, s); got != MarkerServerWorkload {
		t.Fatalf("expected server workload question, got %q", got)
	}
	s.Record.Set(models.FieldServerWorkload, "Banco de Dados")
	if got := nextMarker(t, s); got != MarkerAvailability {
		t.Fatalf("expected availability question, got %q", got)
	}
	s.Record.Set(models.FieldAvailabilityNeeds, "24/7 com redundância")
	if got := nextMarker(t, s); got != MarkerBudget {
		t.Fatalf("expected budget after server branch, got %q", got)
	}
}

func TestCustomFlowOrder(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, "render farm caseira")
	if !s.Record.IsCustomType {
		t.Fatal("unrecognised machine type should activate the custom flow")
	}
	want := []struct {
		marker string
		field  string
	}{
		{MarkerCustomDescription, models.FieldCustomDescription},
		{MarkerCustomReferences, models.FieldReferenceSystems},
		{MarkerCustomCritical, models.FieldCriticalComponents},
		{MarkerCustomUsage, models.FieldUsagePatterns},
		{MarkerCustomPhysical, models.FieldPhysicalConstraints},
		{MarkerCustomSpecial, models.FieldSpecialRequirements},
	}
	for _, step := range want {
		if got := nextMarker(t, s); got != step.marker {
			t.Fatalf("expected %q, got %q", step.marker, got)
		}
		markAsked(s, step.marker)
		s.Record.Set(step.field, "resposta do usuário")
	}
	if got := nextMarker(t, s); got != MarkerBudget {
		t.Fatalf("expected budget after custom flow, got %q", got)
	}
}

func TestEnvironmentChainsMutuallyExclusive(t *testing.T) {
	withCity := &models.Session{}
	withCity.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	withCity.Record.Set(models.FieldMiningFocus, "ethereum em pequena escala")
	withCity.Record.Set(models.FieldBudget, 8000.0)
	withCity.Record.Set(models.FieldCity, "Teresina")
	withCity.Record.LocationStepDone = true
	if got := nextMarker(t, withCity); got != MarkerPCVentilation {
		t.Fatalf("city known: expected PC ventilation chain, got %q", got)
	}

	noCity := &models.Session{}
	noCity.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	noCity.Record.Set(models.FieldMiningFocus, "ethereum em pequena escala")
	noCity.Record.Set(models.FieldBudget, 8000.0)
	noCity.Record.LocationStepDone = true
	if got := nextMarker(t, noCity); got != MarkerEnvTempControl {
		t.Fatalf("city unknown: expected general environment chain, got %q", got)
	}

	// A city filled after the general chain started must not switch chains.
	lateCity := &models.Session{}
	lateCity.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	lateCity.Record.Set(models.FieldMiningFocus, "ethereum em pequena escala")
	lateCity.Record.Set(models.FieldBudget, 8000.0)
	markAsked(lateCity, MarkerLocationPermission)
	markAsked(lateCity, MarkerEnvTempControl)
	lateCity.Record.Set(models.FieldEnvTempControl, "Climatizado")
	lateCity.Record.Set(models.FieldCity, "Teresina")
	lateCity.Record.LocationStepDone = true
	if got := nextMarker(t, lateCity); got != MarkerEnvDust {
		t.Fatalf("late city fill: expected general chain to continue, got %q", got)
	}
}

func TestLocationPermissionIsOneShot(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	s.Record.Set(models.FieldMiningFocus, "bitcoin")
	s.Record.Set(models.FieldBudget, 10000.0)

	if got := nextMarker(t, s); got != MarkerLocationPermission {
		t.Fatalf("expected location permission, got %q", got)
	}
	markAsked(s, MarkerLocationPermission)
	// Surfaced but unresolved: never offered again, the general environment
	// chain proceeds.
	if got := nextMarker(t, s); got != MarkerEnvTempControl {
		t.Fatalf("expected environment chain after surfaced location question, got %q", got)
	}
}

func TestAnsweredQuestionNeverReasked(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, string(models.MachinePersonalComputer))
	markAsked(s, MarkerMachineType)
	for i := 0; i < 3; i++ {
		if got := nextMarker(t, s); got == MarkerMachineType {
			t.Fatal("answered machine-type question was offered again")
		}
	}
}

func TestUnansweredQuestionMayBeRestated(t *testing.T) {
	s := &models.Session{}
	markAsked(s, MarkerMachineType)
	// Field still empty, so the question is restated rather than skipped.
	if got := nextMarker(t, s); got != MarkerMachineType {
		t.Fatalf("expected machine-type question to be restated, got %q", got)
	}
}

func TestCompletionRequiresBudget(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	if q, ok := NextQuestion(s); ok && q.Marker == MarkerComplete {
		t.Fatal("completion offered without a budget")
	}
}

func TestCompletionAfterAllQuestions(t *testing.T) {
	s := &models.Session{}
	s.Record.Set(models.FieldMachineType, string(models.MachineMiningRig))
	s.Record.Set(models.FieldMiningFocus, "bitcoin")
	s.Record.Set(models.FieldBudget, 10000.0)
	s.Record.LocationStepDone = true
	s.Record.Set(models.FieldEnvTempControl, "Climatizado")
	s.Record.Set(models.FieldEnvDust, "Baixa")
	for _, marker := range []string{MarkerPrefCaseSize, MarkerPrefNoise, MarkerPrefPorts, MarkerPrefOpen} {
		if got := nextMarker(t, s); got != marker {
			t.Fatalf("expected preference question %q, got %q", marker, got)
		}
		markAsked(s, marker)
	}
	if got := nextMarker(t, s); got != MarkerComplete {
		t.Fatalf("expected completion, got %q", got)
	}
}
