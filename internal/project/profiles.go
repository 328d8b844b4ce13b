package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/spoonorder/internal/model"
)

// DefaultProfilesDir returns the default directory for storing custom profiles.
func DefaultProfilesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "spoonorder")
	return dir, nil
}

// DefaultProfilesPath returns the default file path for custom profiles.
func DefaultProfilesPath() (string, error) {
	dir, err := DefaultProfilesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.json"), nil
}

// isYAML reports whether path should be read and written as YAML rather
// than JSON.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func encode(path string, v any) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// SaveCustomProfiles saves custom profiles to a JSON or YAML file, chosen
// by the file extension.
func SaveCustomProfiles(path string, profiles []model.PrintProfile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := encode(path, profiles)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCustomProfiles loads custom profiles from a JSON or YAML file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]model.PrintProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.PrintProfile{}, nil
		}
		return nil, err
	}

	var profiles []model.PrintProfile
	if err := decode(path, data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Ensure loaded profiles are not marked as built-in
	for i := range profiles {
		profiles[i].IsBuiltIn = false
	}
	return profiles, nil
}

// SaveCustomProfilesToDefault saves custom profiles to the default path.
func SaveCustomProfilesToDefault(profiles []model.PrintProfile) error {
	path, err := DefaultProfilesPath()
	if err != nil {
		return err
	}
	return SaveCustomProfiles(path, profiles)
}

// LoadCustomProfilesFromDefault loads custom profiles from the default path.
func LoadCustomProfilesFromDefault() ([]model.PrintProfile, error) {
	path, err := DefaultProfilesPath()
	if err != nil {
		return nil, err
	}
	return LoadCustomProfiles(path)
}

// AddCustomProfile replaces the profile with the same name in profiles, or
// appends it.
func AddCustomProfile(profiles []model.PrintProfile, profile model.PrintProfile) []model.PrintProfile {
	profile.IsBuiltIn = false
	for i := range profiles {
		if profiles[i].Name == profile.Name {
			profiles[i] = profile
			return profiles
		}
	}
	return append(profiles, profile)
}

// ExportProfile exports a single profile to a JSON or YAML file (for sharing).
func ExportProfile(path string, profile model.PrintProfile) error {
	profile.IsBuiltIn = false
	data, err := encode(path, profile)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportProfile imports a single profile from a JSON or YAML file.
func ImportProfile(path string) (model.PrintProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PrintProfile{}, err
	}

	var profile model.PrintProfile
	if err := decode(path, data, &profile); err != nil {
		return model.PrintProfile{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	profile.IsBuiltIn = false
	if profile.Name == "" {
		return model.PrintProfile{}, errors.New("imported profile has no name")
	}
	if err := profile.Validate(); err != nil {
		return model.PrintProfile{}, err
	}
	return profile, nil
}

// ResolveProfile finds the profile named by ref. ref is either a path to a
// profile file, the name of a built-in profile, or the name of one of the
// custom profiles.
func ResolveProfile(ref string, custom []model.PrintProfile) (model.PrintProfile, error) {
	if ref == "" {
		return model.GetPrintProfile("Generic"), nil
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ImportProfile(ref)
	}
	if model.IsBuiltInProfile(ref) {
		return model.GetPrintProfile(ref), nil
	}
	for _, p := range custom {
		if p.Name == ref {
			return p, nil
		}
	}
	return model.PrintProfile{}, fmt.Errorf("unknown profile %q (built-in profiles: %s)",
		ref, strings.Join(model.GetPrintProfileNames(), ", "))
}
