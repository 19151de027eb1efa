// Package models defines the requirement record accumulated by the intake dialogue.
package models

import (
	"fmt"
	"strings"
)

// Canonical requirement field names. The question tree, the extraction
// heuristics and the dialogue-service merge all address fields through these
// names, so they double as the wire format of the record.
const (
	FieldMachineType         = "machineType"
	FieldPurpose             = "purpose"
	FieldGamingType          = "gamingType"
	FieldMonitorSpecs        = "monitorSpecs"
	FieldPeripheralsNeeded   = "peripheralsNeeded"
	FieldWorkField           = "workField"
	FieldSoftwareUsed        = "softwareUsed"
	FieldCreativeEditingType = "creativeEditingType"
	FieldProjectScale        = "projectScale"
	FieldGeneralUsageDetails = "generalUsageDetails"
	FieldServerWorkload      = "serverWorkload"
	FieldAvailabilityNeeds   = "availabilityNeeds"
	FieldWorkstationField    = "workstationField"
	FieldMiningFocus         = "miningFocus"
	FieldStreamingPlatform   = "streamingPlatform"
	FieldStreamingSetup      = "streamingSetup"
	FieldBudget              = "budget"
	FieldBudgetRange         = "budgetRange"
	FieldCity                = "city"
	FieldCountryCode         = "countryCode"
	FieldCityAvgTemp         = "cityAvgTemp"
	FieldCityMaxTemp         = "cityMaxTemp"
	FieldCityMinTemp         = "cityMinTemp"
	FieldCityWeatherDesc     = "cityWeatherDescription"
	FieldPCVentilation       = "pcVentilation"
	FieldPCDustLevel         = "pcDustLevel"
	FieldPCRoomType          = "pcRoomType"
	FieldEnvTempControl      = "envTempControl"
	FieldEnvDust             = "envDust"
	FieldPreferences         = "preferences"
	FieldCustomDescription   = "customDescription"
	FieldReferenceSystems    = "referenceSystems"
	FieldCriticalComponents  = "criticalComponents"
	FieldUsagePatterns       = "usagePatterns"
	FieldPhysicalConstraints = "physicalConstraints"
	FieldSpecialRequirements = "specialRequirements"
)

// RequirementRecord is the accumulating structured answer set built during the
// intake conversation. Fields are set-once: a populated field is never
// overwritten or cleared for the remainder of the session. Preferences is the
// only exception — it is an append-only free-text accumulator.
type RequirementRecord struct {
	MachineType  MachineType `json:"machineType,omitempty"`
	IsCustomType bool        `json:"isCustomType,omitempty"`

	// Personal-computer branch
	Purpose             string `json:"purpose,omitempty"`
	GamingType          string `json:"gamingType,omitempty"`
	MonitorSpecs        string `json:"monitorSpecs,omitempty"`
	PeripheralsNeeded   string `json:"peripheralsNeeded,omitempty"`
	WorkField           string `json:"workField,omitempty"`
	SoftwareUsed        string `json:"softwareUsed,omitempty"`
	CreativeEditingType string `json:"creativeEditingType,omitempty"`
	ProjectScale        string `json:"projectScale,omitempty"`
	GeneralUsageDetails string `json:"generalUsageDetails,omitempty"`

	// Other machine-type branches
	ServerWorkload    string `json:"serverWorkload,omitempty"`
	AvailabilityNeeds string `json:"availabilityNeeds,omitempty"`
	WorkstationField  string `json:"workstationField,omitempty"`
	MiningFocus       string `json:"miningFocus,omitempty"`
	StreamingPlatform string `json:"streamingPlatform,omitempty"`
	StreamingSetup    string `json:"streamingSetup,omitempty"`

	// Budget
	Budget      float64 `json:"budget,omitempty"`
	BudgetRange string  `json:"budgetRange,omitempty"`

	// Location/climate — populated only via the location sub-flow
	City             string   `json:"city,omitempty"`
	CountryCode      string   `json:"countryCode,omitempty"`
	CityAvgTemp      *float64 `json:"cityAvgTemp,omitempty"`
	CityMaxTemp      *float64 `json:"cityMaxTemp,omitempty"`
	CityMinTemp      *float64 `json:"cityMinTemp,omitempty"`
	CityWeatherDesc  string   `json:"cityWeatherDescription,omitempty"`
	LocationStepDone bool     `json:"locationStepDone,omitempty"`

	// Environment — the PC-local chain (city known) or the general fallback
	// chain, mutually exclusive per session.
	PCVentilation  string `json:"pcVentilation,omitempty"`
	PCDustLevel    string `json:"pcDustLevel,omitempty"`
	PCRoomType     string `json:"pcRoomType,omitempty"`
	EnvTempControl string `json:"envTempControl,omitempty"`
	EnvDust        string `json:"envDust,omitempty"`

	// Tagged free-text accumulator, e.g. "Gabinete: compacto | Ruído: silencioso".
	Preferences string `json:"preferences,omitempty"`

	// Custom-type six-step sub-flow
	CustomDescription   string `json:"customDescription,omitempty"`
	ReferenceSystems    string `json:"referenceSystems,omitempty"`
	CriticalComponents  string `json:"criticalComponents,omitempty"`
	UsagePatterns       string `json:"usagePatterns,omitempty"`
	PhysicalConstraints string `json:"physicalConstraints,omitempty"`
	SpecialRequirements string `json:"specialRequirements,omitempty"`
}

// stringField returns a pointer to the struct field backing a canonical
// free-text field name, or nil for non-string fields.
func (r *RequirementRecord) stringField(name string) *string {
	switch name {
	case FieldPurpose:
		return &r.Purpose
	case FieldGamingType:
		return &r.GamingType
	case FieldMonitorSpecs:
		return &r.MonitorSpecs
	case FieldPeripheralsNeeded:
		return &r.PeripheralsNeeded
	case FieldWorkField:
		return &r.WorkField
	case FieldSoftwareUsed:
		return &r.SoftwareUsed
	case FieldCreativeEditingType:
		return &r.CreativeEditingType
	case FieldProjectScale:
		return &r.ProjectScale
	case FieldGeneralUsageDetails:
		return &r.GeneralUsageDetails
	case FieldServerWorkload:
		return &r.ServerWorkload
	case FieldAvailabilityNeeds:
		return &r.AvailabilityNeeds
	case FieldWorkstationField:
		return &r.WorkstationField
	case FieldMiningFocus:
		return &r.MiningFocus
	case FieldStreamingPlatform:
		return &r.StreamingPlatform
	case FieldStreamingSetup:
		return &r.StreamingSetup
	case FieldBudgetRange:
		return &r.BudgetRange
	case FieldCity:
		return &r.City
	case FieldCountryCode:
		return &r.CountryCode
	case FieldCityWeatherDesc:
		return &r.CityWeatherDesc
	case FieldPCVentilation:
		return &r.PCVentilation
	case FieldPCDustLevel:
		return &r.PCDustLevel
	case FieldPCRoomType:
		return &r.PCRoomType
	case FieldEnvTempControl:
		return &r.EnvTempControl
	case FieldEnvDust:
		return &r.EnvDust
	case FieldCustomDescription:
		return &r.CustomDescription
	case FieldReferenceSystems:
		return &r.ReferenceSystems
	case FieldCriticalComponents:
		return &r.CriticalComponents
	case FieldUsagePatterns:
		return &r.UsagePatterns
	case FieldPhysicalConstraints:
		return &r.PhysicalConstraints
	case FieldSpecialRequirements:
		return &r.SpecialRequirements
	}
	return nil
}

// IsSet reports whether the named field already holds a value.
func (r *RequirementRecord) IsSet(name string) bool {
	switch name {
	case FieldMachineType:
		return r.MachineType != ""
	case FieldBudget:
		return r.Budget > 0
	case FieldCityAvgTemp:
		return r.CityAvgTemp != nil
	case FieldCityMaxTemp:
		return r.CityMaxTemp != nil
	case FieldCityMinTemp:
		return r.CityMinTemp != nil
	case FieldPreferences:
		return r.Preferences != ""
	}
	if p := r.stringField(name); p != nil {
		return *p != ""
	}
	return false
}

// Set assigns a value to the named field, honouring set-once semantics:
// assigning to an already-populated field is a silent no-op and returns false.
// Preferences always appends; use AppendPreference for tagged fragments.
func (r *RequirementRecord) Set(name string, value interface{}) (bool, error) {
	if name == FieldPreferences {
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field %s expects a string, got %T", name, value)
		}
		r.AppendPreference("", s)
		return true, nil
	}
	if r.IsSet(name) {
		return false, nil
	}
	switch name {
	case FieldMachineType:
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("field %s expects a string, got %T", name, value)
		}
		r.MachineType = MachineType(s)
		if !IsValidMachineType(r.MachineType) {
			// Unrecognised type activates the custom six-step sub-flow.
			r.MachineType = MachineCustom
			r.IsCustomType = true
		}
		return true, nil
	case FieldBudget:
		f, ok := toFloat(value)
		if !ok {
			return false, fmt.Errorf("field %s expects a number, got %T", name, value)
		}
		if f <= 0 {
			return false, nil
		}
		r.Budget = f
		return true, nil
	case FieldCityAvgTemp, FieldCityMaxTemp, FieldCityMinTemp:
		f, ok := toFloat(value)
		if !ok {
			return false, fmt.Errorf("field %s expects a number, got %T", name, value)
		}
		switch name {
		case FieldCityAvgTemp:
			r.CityAvgTemp = &f
		case FieldCityMaxTemp:
			r.CityMaxTemp = &f
		case FieldCityMinTemp:
			r.CityMinTemp = &f
		}
		return true, nil
	}
	p := r.stringField(name)
	if p == nil {
		return false, fmt.Errorf("unknown requirement field %q", name)
	}
	s, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("field %s expects a string, got %T", name, value)
	}
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	*p = s
	return true, nil
}

// AppendPreference appends a tagged free-text fragment to the preferences
// accumulator. Fragments already present verbatim are not duplicated.
func (r *RequirementRecord) AppendPreference(tag, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fragment := text
	if tag != "" {
		fragment = tag + ": " + text
	}
	if strings.Contains(r.Preferences, fragment) {
		return
	}
	if r.Preferences == "" {
		r.Preferences = fragment
		return
	}
	r.Preferences += " | " + fragment
}

// Merge folds values from other into r without ever overwriting populated
// fields. Used to accept the dialogue service's own extraction as a fallback
// behind the local heuristics.
func (r *RequirementRecord) Merge(other *RequirementRecord) {
	if other == nil {
		return
	}
	if !r.IsSet(FieldMachineType) && other.MachineType != "" {
		r.MachineType = other.MachineType
		r.IsCustomType = other.IsCustomType
	}
	if !r.IsSet(FieldBudget) && other.Budget > 0 {
		r.Budget = other.Budget
	}
	for _, name := range stringFieldNames {
		if dst := r.stringField(name); dst != nil && *dst == "" {
			if src := other.stringField(name); src != nil && *src != "" {
				*dst = *src
			}
		}
	}
	if r.CityAvgTemp == nil && other.CityAvgTemp != nil {
		r.CityAvgTemp = other.CityAvgTemp
	}
	if r.CityMaxTemp == nil && other.CityMaxTemp != nil {
		r.CityMaxTemp = other.CityMaxTemp
	}
	if r.CityMinTemp == nil && other.CityMinTemp != nil {
		r.CityMinTemp = other.CityMinTemp
	}
	if other.Preferences != "" {
		r.AppendPreference("", other.Preferences)
	}
	if other.LocationStepDone {
		r.LocationStepDone = true
	}
}

// stringFieldNames lists every free-text field participating in Merge, in
// declaration order.
var stringFieldNames = []string{
	FieldPurpose, FieldGamingType, FieldMonitorSpecs, FieldPeripheralsNeeded,
	FieldWorkField, FieldSoftwareUsed, FieldCreativeEditingType,
	FieldProjectScale, FieldGeneralUsageDetails, FieldServerWorkload,
	FieldAvailabilityNeeds, FieldWorkstationField, FieldMiningFocus,
	FieldStreamingPlatform, FieldStreamingSetup, FieldBudgetRange,
	FieldCity, FieldCountryCode, FieldCityWeatherDesc,
	FieldPCVentilation, FieldPCDustLevel, FieldPCRoomType,
	FieldEnvTempControl, FieldEnvDust,
	FieldCustomDescription, FieldReferenceSystems, FieldCriticalComponents,
	FieldUsagePatterns, FieldPhysicalConstraints, FieldSpecialRequirements,
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
