// Package catalog provides the static parts reference dataset.
//
// The catalog is embedded at build time and read-only: components are never
// mutated, and lookups by id are the only access path the recommendation
// resolver needs.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/jonpedu/montap/internal/models"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog is an immutable collection of PC components.
type Catalog struct {
	components []models.PCComponent
	byID       map[string]models.PCComponent
}

// Load parses the embedded parts dataset.
func Load() (*Catalog, error) {
	return parse(catalogJSON)
}

func parse(data []byte) (*Catalog, error) {
	var components []models.PCComponent
	if err := json.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("failed to parse catalog data: %w", err)
	}
	byID := make(map[string]models.PCComponent, len(components))
	for _, c := range components {
		if c.ID == "" {
			return nil, fmt.Errorf("catalog entry %q has no id", c.Name)
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", c.ID)
		}
		byID[c.ID] = c
	}
	return &Catalog{components: components, byID: byID}, nil
}

// All returns every component in catalog order.
func (c *Catalog) All() []models.PCComponent {
	out := make([]models.PCComponent, len(c.components))
	copy(out, c.components)
	return out
}

// ByID looks up a component by id.
func (c *Catalog) ByID(id string) (models.PCComponent, bool) {
	comp, ok := c.byID[id]
	return comp, ok
}

// Len returns the number of components in the catalog.
func (c *Catalog) Len() int {
	return len(c.components)
}

// Summaries returns the condensed catalog view embedded in recommendation
// prompts: id, category, name, price and a one-line spec digest.
func (c *Catalog) Summaries() []models.ComponentSummary {
	out := make([]models.ComponentSummary, 0, len(c.components))
	for _, comp := range c.components {
		out = append(out, models.ComponentSummary{
			ID:       comp.ID,
			Category: comp.Category,
			Name:     comp.Name,
			Price:    comp.Price,
			KeySpecs: keySpecs(comp.Specs),
		})
	}
	return out
}

// keySpecs condenses the compatibility-relevant specs into a short string,
// mirroring what the recommendation prompt needs: socket/type, chipset or
// capacity, and power figures.
func keySpecs(specs map[string]interface{}) string {
	var parts []string
	for _, key := range []string{"socket", "type", "chipset", "capacity_gb", "capacity_tb", "memory_gb", "tdp", "wattage_w", "recommended_psu_w", "ram_type"} {
		if v, ok := specs[key]; ok {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, " ")
}
