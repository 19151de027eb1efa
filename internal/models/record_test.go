package models

import "testing"

func TestRecordSetOnce(t *testing.T) {
	var r RequirementRecord

	set, err := r.Set(FieldPurpose, "Jogos")
	if err != nil || !set {
		t.Fatalf("Set = %v, %v, want true", set, err)
	}
	set, err = r.Set(FieldPurpose, "Trabalho")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if set {
		t.Error("Set on a populated field should be a no-op")
	}
	if r.Purpose != "Jogos" {
		t.Errorf("purpose = %q, want first value kept", r.Purpose)
	}
}

func TestRecordSetMachineType(t *testing.T) {
	var r RequirementRecord
	if _, err := r.Set(FieldMachineType, "Servidor"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if r.MachineType != MachineServer || r.IsCustomType {
		t.Errorf("machineType = %q custom=%v, want Servidor non-custom", r.MachineType, r.IsCustomType)
	}

	var custom RequirementRecord
	if _, err := custom.Set(FieldMachineType, "computador de bordo de um drone"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if custom.MachineType != MachineCustom || !custom.IsCustomType {
		t.Errorf("unrecognised type should coerce to custom, got %q custom=%v", custom.MachineType, custom.IsCustomType)
	}
}

func TestRecordSetValidation(t *testing.T) {
	var r RequirementRecord
	if _, err := r.Set("notAField", "x"); err == nil {
		t.Error("Set with unknown field should fail")
	}
	if _, err := r.Set(FieldBudget, "quatro mil"); err == nil {
		t.Error("Set budget with non-number should fail")
	}
	if set, err := r.Set(FieldBudget, -50.0); err != nil || set {
		t.Errorf("Set budget <= 0 = %v, %v, want silent no-op", set, err)
	}
	if set, err := r.Set(FieldGamingType, "   "); err != nil || set {
		t.Errorf("Set blank string = %v, %v, want silent no-op", set, err)
	}
}

func TestAppendPreference(t *testing.T) {
	var r RequirementRecord
	r.AppendPreference("Marcas", "prefiro AMD")
	r.AppendPreference("", "gabinete branco")
	r.AppendPreference("Marcas", "prefiro AMD") // duplicate, ignored
	r.AppendPreference("", "  ")

	want := "Marcas: prefiro AMD | gabinete branco"
	if r.Preferences != want {
		t.Errorf("preferences = %q, want %q", r.Preferences, want)
	}
}

func TestMergeNeverOverwrites(t *testing.T) {
	var r RequirementRecord
	r.Set(FieldMachineType, "Computador Pessoal")
	r.Set(FieldPurpose, "Jogos")
	r.Set(FieldBudget, 4500.0)

	other := &RequirementRecord{
		MachineType: MachineServer,
		Purpose:     "Trabalho",
		Budget:      9000,
		GamingType:  "Competitivo",
	}
	r.Merge(other)

	if r.MachineType != MachinePersonalComputer {
		t.Errorf("machineType overwritten by merge: %q", r.MachineType)
	}
	if r.Purpose != "Jogos" {
		t.Errorf("purpose overwritten by merge: %q", r.Purpose)
	}
	if r.Budget != 4500 {
		t.Errorf("budget overwritten by merge: %v", r.Budget)
	}
	if r.GamingType != "Competitivo" {
		t.Errorf("merge should fill empty fields, gamingType = %q", r.GamingType)
	}
}

func TestSessionMarkers(t *testing.T) {
	s := &Session{Transcript: []ChatMessage{
		{Sender: SenderAssistant, Marker: "machine_type"},
		{Sender: SenderUser},
		{Sender: SenderAssistant, Marker: "pc_purpose"},
	}}

	if got := s.LastAssistantMarker(); got != "pc_purpose" {
		t.Errorf("LastAssistantMarker = %q, want pc_purpose", got)
	}
	if !s.MarkerSurfaced("machine_type") {
		t.Error("MarkerSurfaced should see earlier assistant markers")
	}
	if s.MarkerSurfaced("budget") {
		t.Error("MarkerSurfaced reported a marker never asked")
	}

	empty := &Session{}
	if got := empty.LastAssistantMarker(); got != "" {
		t.Errorf("LastAssistantMarker on empty transcript = %q, want empty", got)
	}
}
