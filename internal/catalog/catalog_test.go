package catalog

import (
	"testing"

	"github.com/jonpedu/montap/internal/models"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 38 {
		t.Errorf("catalog has %d components, want 38", c.Len())
	}

	comp, ok := c.ByID("cpu1")
	if !ok {
		t.Fatal("ByID(cpu1) not found")
	}
	if comp.Category != models.CategoryCPU {
		t.Errorf("cpu1 category = %q, want %q", comp.Category, models.CategoryCPU)
	}
	if comp.Price <= 0 {
		t.Errorf("cpu1 price = %v, want positive", comp.Price)
	}

	if _, ok := c.ByID("nope"); ok {
		t.Error("ByID with unknown id should report not found")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	all := c.All()
	all[0].Name = "mutated"
	if again := c.All(); again[0].Name == "mutated" {
		t.Error("All should hand out a copy, not the backing slice")
	}
}

func TestSummaries(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	summaries := c.Summaries()
	if len(summaries) != c.Len() {
		t.Fatalf("Summaries returned %d entries, want %d", len(summaries), c.Len())
	}
	for _, s := range summaries {
		if s.ID == "" || s.Category == "" || s.Name == "" {
			t.Errorf("summary missing identity fields: %+v", s)
		}
		if s.KeySpecs == "" {
			t.Errorf("summary %s has empty key specs", s.ID)
		}
	}
}

func TestParseRejectsBadData(t *testing.T) {
	if _, err := parse([]byte(`not json`)); err == nil {
		t.Error("parse should reject malformed JSON")
	}
	if _, err := parse([]byte(`[{"id":"a","name":"A"},{"id":"a","name":"B"}]`)); err == nil {
		t.Error("parse should reject duplicate ids")
	}
	if _, err := parse([]byte(`[{"name":"sem id"}]`)); err == nil {
		t.Error("parse should reject entries without an id")
	}
}
