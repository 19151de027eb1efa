package recommend

import (
	"fmt"

	"github.com/jonpedu/montap/internal/models"
)

// CheckCompatibility runs a small set of structural checks over a component
// list and returns pt-BR warnings. It is a sanity net behind the
// recommendation service, not a full compatibility engine: socket between CPU,
// motherboard and cooler, memory type against the board, and PSU headroom for
// the GPU.
func CheckCompatibility(components []models.PCComponent) []string {
	var warnings []string
	byCategory := map[models.ComponentCategory]models.PCComponent{}
	for _, comp := range components {
		if _, dup := byCategory[comp.Category]; !dup {
			byCategory[comp.Category] = comp
		}
	}

	cpu, hasCPU := byCategory[models.CategoryCPU]
	mobo, hasMobo := byCategory[models.CategoryMotherboard]
	ram, hasRAM := byCategory[models.CategoryRAM]
	gpu, hasGPU := byCategory[models.CategoryGPU]
	psu, hasPSU := byCategory[models.CategoryPSU]
	cooler, hasCooler := byCategory[models.CategoryCooler]

	if hasCPU && hasMobo {
		cpuSocket := specString(cpu.Specs, "socket")
		moboSocket := specString(mobo.Specs, "socket")
		if cpuSocket != "" && moboSocket != "" && cpuSocket != moboSocket {
			warnings = append(warnings, fmt.Sprintf(
				"O processador %s (socket %s) não é compatível com a placa-mãe %s (socket %s).",
				cpu.Name, cpuSocket, mobo.Name, moboSocket))
		}
	}

	if hasRAM && hasMobo {
		ramType := specString(ram.Specs, "type")
		moboRAM := specString(mobo.Specs, "ram_type")
		if ramType != "" && moboRAM != "" && ramType != moboRAM {
			warnings = append(warnings, fmt.Sprintf(
				"A memória %s (%s) não é compatível com a placa-mãe %s (%s).",
				ram.Name, ramType, mobo.Name, moboRAM))
		}
	}

	if hasGPU && hasPSU {
		needed := specNumber(gpu.Specs, "recommended_psu_w")
		available := specNumber(psu.Specs, "wattage_w")
		if needed > 0 && available > 0 && available < needed {
			warnings = append(warnings, fmt.Sprintf(
				"A fonte %s (%.0fW) fica abaixo dos %.0fW recomendados para a placa de vídeo %s.",
				psu.Name, available, needed, gpu.Name))
		}
	}

	if hasCPU && hasCooler {
		cpuSocket := specString(cpu.Specs, "socket")
		supported, declared := specStringList(cooler.Specs, "socket_support")
		if cpuSocket != "" && declared && !contains(supported, cpuSocket) {
			warnings = append(warnings, fmt.Sprintf(
				"O cooler %s não lista suporte ao socket %s do processador %s.",
				cooler.Name, cpuSocket, cpu.Name))
		}
	}

	return warnings
}

func specString(specs map[string]interface{}, key string) string {
	s, _ := specs[key].(string)
	return s
}

func specNumber(specs map[string]interface{}, key string) float64 {
	switch n := specs[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func specStringList(specs map[string]interface{}, key string) ([]string, bool) {
	raw, ok := specs[key].([]interface{})
	if !ok {
		return nil, false
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
