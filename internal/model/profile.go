package model

import "fmt"

// PrintProfile holds the slicer settings the rewriter consumes, in the
// slicer's own units (mm and mm/s). Keys follow the slicer setting names so
// profiles can be exported from the slicer without renaming.
type PrintProfile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	IsBuiltIn   bool   `json:"-" yaml:"-"`

	// Retraction
	RetractionEnabled    bool    `json:"retraction_enable" yaml:"retraction_enable"`
	RetractionAmount     float64 `json:"retraction_amount" yaml:"retraction_amount"`           // mm of filament
	RetractionSpeed      float64 `json:"retraction_speed" yaml:"retraction_speed"`             // mm/s
	RetractionPrimeSpeed float64 `json:"retraction_prime_speed" yaml:"retraction_prime_speed"` // mm/s

	// Z hop
	HopEnabled bool    `json:"retraction_hop_enabled" yaml:"retraction_hop_enabled"`
	HopHeight  float64 `json:"retraction_hop" yaml:"retraction_hop"` // mm
	HopSpeed   float64 `json:"speed_z_hop" yaml:"speed_z_hop"`       // mm/s

	// Motion
	MaxFeedrateZ float64 `json:"machine_max_feedrate_z" yaml:"machine_max_feedrate_z"` // mm/s
	TravelSpeed  float64 `json:"speed_travel" yaml:"speed_travel"`                     // mm/s

	RelativeExtrusion  bool    `json:"relative_extrusion" yaml:"relative_extrusion"`
	InitialLayerHeight float64 `json:"layer_height_0" yaml:"layer_height_0"` // mm
}

// MachineConfig is the immutable, feedrate-converted view of a PrintProfile
// used for one rewrite pass. All speeds are in mm/min.
type MachineConfig struct {
	RetractionEnabled bool
	RetractionLength  float64
	RetractFeedrate   float64
	PrimeFeedrate     float64

	HopEnabled  bool
	HopHeight   float64
	HopFeedrate float64

	MaxZFeedrate   float64
	TravelFeedrate float64

	RelativeExtrusion  bool
	InitialLayerHeight float64
}

// MachineConfig converts the profile's speeds into feedrates. Disabled
// features keep zero lengths and speeds so predicates keyed on them never
// match.
func (p PrintProfile) MachineConfig() MachineConfig {
	cfg := MachineConfig{
		RetractionEnabled:  p.RetractionEnabled,
		HopEnabled:         p.HopEnabled,
		TravelFeedrate:     p.TravelSpeed * 60,
		RelativeExtrusion:  p.RelativeExtrusion,
		InitialLayerHeight: p.InitialLayerHeight,
	}
	if p.RetractionEnabled {
		cfg.RetractionLength = p.RetractionAmount
		cfg.RetractFeedrate = p.RetractionSpeed * 60
		cfg.PrimeFeedrate = p.RetractionPrimeSpeed * 60
	}
	if p.HopEnabled {
		cfg.HopHeight = p.HopHeight
		cfg.HopFeedrate = p.HopSpeed * 60
	} else {
		cfg.MaxZFeedrate = p.MaxFeedrateZ * 60
	}
	return cfg
}

// Validate reports settings that would make the rewritten gcode unusable.
func (p PrintProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.TravelSpeed <= 0 {
		return fmt.Errorf("profile %q: speed_travel must be positive", p.Name)
	}
	if p.RetractionEnabled {
		if p.RetractionAmount < 0 {
			return fmt.Errorf("profile %q: retraction_amount must not be negative", p.Name)
		}
		if p.RetractionSpeed <= 0 || p.RetractionPrimeSpeed <= 0 {
			return fmt.Errorf("profile %q: retraction speeds must be positive", p.Name)
		}
	}
	if p.HopEnabled && p.HopSpeed <= 0 {
		return fmt.Errorf("profile %q: speed_z_hop must be positive", p.Name)
	}
	if p.InitialLayerHeight < 0 {
		return fmt.Errorf("profile %q: layer_height_0 must not be negative", p.Name)
	}
	return nil
}

// Built-in print profiles
var PrintProfiles = []PrintProfile{
	{
		Name:                 "Ender-3",
		Description:          "Creality Ender-3 defaults (Bowden, absolute extrusion)",
		IsBuiltIn:            true,
		RetractionEnabled:    true,
		RetractionAmount:     5,
		RetractionSpeed:      45,
		RetractionPrimeSpeed: 45,
		HopEnabled:           false,
		HopHeight:            0.2,
		HopSpeed:             10,
		MaxFeedrateZ:         5,
		TravelSpeed:          150,
		RelativeExtrusion:    false,
		InitialLayerHeight:   0.2,
	},
	{
		Name:                 "Prusa MK3",
		Description:          "Prusa i3 MK3 style (direct drive, Z hop, relative extrusion)",
		IsBuiltIn:            true,
		RetractionEnabled:    true,
		RetractionAmount:     0.8,
		RetractionSpeed:      35,
		RetractionPrimeSpeed: 35,
		HopEnabled:           true,
		HopHeight:            0.4,
		HopSpeed:             10,
		MaxFeedrateZ:         12,
		TravelSpeed:          180,
		RelativeExtrusion:    true,
		InitialLayerHeight:   0.2,
	},
	{
		Name:                 "Generic",
		Description:          "Generic FFF printer",
		IsBuiltIn:            true,
		RetractionEnabled:    true,
		RetractionAmount:     6.5,
		RetractionSpeed:      25,
		RetractionPrimeSpeed: 25,
		HopEnabled:           false,
		HopHeight:            1,
		HopSpeed:             10,
		MaxFeedrateZ:         299792458000,
		TravelSpeed:          120,
		RelativeExtrusion:    false,
		InitialLayerHeight:   0.3,
	},
}

// GetPrintProfile returns a built-in profile by name, or the Generic profile if not found.
func GetPrintProfile(name string) PrintProfile {
	for _, p := range PrintProfiles {
		if p.Name == name {
			return p
		}
	}
	return PrintProfiles[len(PrintProfiles)-1]
}

// IsBuiltInProfile reports whether name matches a built-in profile.
func IsBuiltInProfile(name string) bool {
	for _, p := range PrintProfiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// GetPrintProfileNames returns a list of all built-in profile names.
func GetPrintProfileNames() []string {
	var names []string
	for _, p := range PrintProfiles {
		names = append(names, p.Name)
	}
	return names
}
