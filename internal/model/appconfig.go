package model

// DefaultDeferredCommands are the control commands held back until the end
// of a rewritten layer, where they are meant to take effect.
var DefaultDeferredCommands = []string{"M104", "M109", "M140", "M190", "M141", "M191"}

// RunSettings are the policy inputs of one rewrite run.
type RunSettings struct {
	Mode             ReorderMode `json:"mode"`
	TargetMarker     string      `json:"target_marker"`
	Profile          string      `json:"profile"`
	DeferredCommands []string    `json:"deferred_commands"`
	Debug            bool        `json:"debug"`
}

// DefaultRunSettings returns the settings used when nothing is configured.
func DefaultRunSettings() RunSettings {
	return RunSettings{
		Mode:             ModeSpoonsFirst,
		TargetMarker:     DefaultTargetMarker,
		Profile:          "Generic",
		DeferredCommands: append([]string(nil), DefaultDeferredCommands...),
	}
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	DefaultMode             ReorderMode `json:"default_mode"`
	DefaultTargetMarker     string      `json:"default_target_marker"`
	DefaultProfile          string      `json:"default_profile"`
	DefaultDeferredCommands []string    `json:"default_deferred_commands"`

	// Application preferences
	RecentFiles []string `json:"recent_files"`
	Debug       bool     `json:"debug"`
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultRunSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultRunSettings()
	return AppConfig{
		DefaultMode:             defaults.Mode,
		DefaultTargetMarker:     defaults.TargetMarker,
		DefaultProfile:          defaults.Profile,
		DefaultDeferredCommands: defaults.DeferredCommands,
		RecentFiles:             []string{},
		Debug:                   false,
	}
}

// ApplyToSettings copies the default values from AppConfig into a RunSettings struct.
// Empty values leave the corresponding setting untouched.
func (c AppConfig) ApplyToSettings(s *RunSettings) {
	if c.DefaultMode != "" {
		s.Mode = c.DefaultMode
	}
	if c.DefaultTargetMarker != "" {
		s.TargetMarker = c.DefaultTargetMarker
	}
	if c.DefaultProfile != "" {
		s.Profile = c.DefaultProfile
	}
	if len(c.DefaultDeferredCommands) > 0 {
		s.DeferredCommands = append([]string(nil), c.DefaultDeferredCommands...)
	}
	s.Debug = s.Debug || c.Debug
}

// AddRecentFile records path as the most recently processed file, keeping
// at most limit entries.
func (c *AppConfig) AddRecentFile(path string, limit int) {
	files := []string{path}
	for _, f := range c.RecentFiles {
		if f != path {
			files = append(files, f)
		}
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	c.RecentFiles = files
}
