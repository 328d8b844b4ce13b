package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/spoonorder/internal/model"
)

func testProfiles() []model.PrintProfile {
	return []model.PrintProfile{
		{
			Name:                 "TestProfile1",
			Description:          "Bowden, absolute",
			RetractionEnabled:    true,
			RetractionAmount:     5,
			RetractionSpeed:      45,
			RetractionPrimeSpeed: 25,
			TravelSpeed:          150,
			MaxFeedrateZ:         5,
			InitialLayerHeight:   0.3,
		},
		{
			Name:                 "TestProfile2",
			Description:          "Direct drive, relative, hop",
			RetractionEnabled:    true,
			RetractionAmount:     0.8,
			RetractionSpeed:      35,
			RetractionPrimeSpeed: 35,
			HopEnabled:           true,
			HopHeight:            0.4,
			HopSpeed:             10,
			TravelSpeed:          180,
			RelativeExtrusion:    true,
		},
	}
}

func TestSaveAndLoadCustomProfiles(t *testing.T) {
	for _, name := range []string{"profiles.json", "profiles.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			if err := SaveCustomProfiles(path, testProfiles()); err != nil {
				t.Fatalf("SaveCustomProfiles: %v", err)
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Fatal("profiles file was not created")
			}

			loaded, err := LoadCustomProfiles(path)
			if err != nil {
				t.Fatalf("LoadCustomProfiles: %v", err)
			}
			if len(loaded) != 2 {
				t.Fatalf("expected 2 profiles, got %d", len(loaded))
			}

			p := loaded[0]
			if p.Name != "TestProfile1" {
				t.Errorf("expected name TestProfile1, got %s", p.Name)
			}
			if p.RetractionAmount != 5 {
				t.Errorf("expected retraction_amount 5, got %v", p.RetractionAmount)
			}
			if p.RetractionPrimeSpeed != 25 {
				t.Errorf("expected retraction_prime_speed 25, got %v", p.RetractionPrimeSpeed)
			}
			if p.InitialLayerHeight != 0.3 {
				t.Errorf("expected layer_height_0 0.3, got %v", p.InitialLayerHeight)
			}

			q := loaded[1]
			if !q.HopEnabled || q.HopHeight != 0.4 {
				t.Errorf("expected hop 0.4 enabled, got %v %v", q.HopEnabled, q.HopHeight)
			}
			if !q.RelativeExtrusion {
				t.Error("expected relative extrusion")
			}

			// Speeds are stored in mm/s and converted to feedrates only once.
			cfg := q.MachineConfig()
			if cfg.TravelFeedrate != 180*60 {
				t.Errorf("expected travel feedrate 10800, got %v", cfg.TravelFeedrate)
			}
		})
	}
}

func TestSaveProfilesYAMLUsesSettingNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yml")
	if err := SaveCustomProfiles(path, testProfiles()); err != nil {
		t.Fatalf("SaveCustomProfiles: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"retraction_amount:", "speed_travel:", "retraction_hop_enabled:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected YAML to contain %q", key)
		}
	}
}

func TestLoadCustomProfiles_NonexistentFile(t *testing.T) {
	profiles, err := LoadCustomProfiles(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("expected no error for nonexistent file, got: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("expected empty slice, got %d profiles", len(profiles))
	}
}

func TestLoadCustomProfiles_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCustomProfiles(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadCustomProfiles_ClearsBuiltInFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	builtin := model.GetPrintProfile("Ender-3")
	if !builtin.IsBuiltIn {
		t.Fatal("expected Ender-3 to be built in")
	}
	if err := SaveCustomProfiles(path, []model.PrintProfile{builtin}); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadCustomProfiles(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].IsBuiltIn {
		t.Error("loaded profiles must not be marked built-in")
	}
}

func TestExportAndImportProfile(t *testing.T) {
	for _, name := range []string{"shared.json", "shared.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			profile := testProfiles()[1]
			profile.IsBuiltIn = true

			if err := ExportProfile(path, profile); err != nil {
				t.Fatalf("ExportProfile: %v", err)
			}
			imported, err := ImportProfile(path)
			if err != nil {
				t.Fatalf("ImportProfile: %v", err)
			}
			if imported.Name != profile.Name {
				t.Errorf("expected name %s, got %s", profile.Name, imported.Name)
			}
			if imported.IsBuiltIn {
				t.Error("imported profile should not be built-in")
			}
			if imported.HopSpeed != 10 {
				t.Errorf("expected speed_z_hop 10, got %v", imported.HopSpeed)
			}
		})
	}
}

func TestImportProfile_NoName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noname.json")
	if err := os.WriteFile(path, []byte(`{"speed_travel": 150}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportProfile(path); err == nil {
		t.Error("expected error for profile with no name")
	}
}

func TestImportProfile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "name: Broken\nspeed_travel: 0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportProfile(path); err == nil {
		t.Error("expected validation error for zero travel speed")
	}
}

func TestAddCustomProfile(t *testing.T) {
	profiles := testProfiles()

	updated := testProfiles()[0]
	updated.RetractionAmount = 7
	profiles = AddCustomProfile(profiles, updated)
	if len(profiles) != 2 {
		t.Fatalf("expected replacement, got %d profiles", len(profiles))
	}
	if profiles[0].RetractionAmount != 7 {
		t.Errorf("expected retraction_amount 7, got %v", profiles[0].RetractionAmount)
	}

	profiles = AddCustomProfile(profiles, model.PrintProfile{Name: "New", TravelSpeed: 100})
	if len(profiles) != 3 {
		t.Errorf("expected 3 profiles, got %d", len(profiles))
	}
}

func TestResolveProfile(t *testing.T) {
	custom := testProfiles()

	p, err := ResolveProfile("Prusa MK3", custom)
	if err != nil || p.Name != "Prusa MK3" {
		t.Errorf("expected built-in Prusa MK3, got %q (%v)", p.Name, err)
	}

	p, err = ResolveProfile("TestProfile2", custom)
	if err != nil || p.Name != "TestProfile2" {
		t.Errorf("expected custom TestProfile2, got %q (%v)", p.Name, err)
	}

	p, err = ResolveProfile("", custom)
	if err != nil || p.Name != "Generic" {
		t.Errorf("expected Generic for empty ref, got %q (%v)", p.Name, err)
	}

	path := filepath.Join(t.TempDir(), "file.yaml")
	if err := ExportProfile(path, custom[0]); err != nil {
		t.Fatal(err)
	}
	p, err = ResolveProfile(path, nil)
	if err != nil || p.Name != "TestProfile1" {
		t.Errorf("expected profile from file, got %q (%v)", p.Name, err)
	}

	if _, err := ResolveProfile("Nonexistent", custom); err == nil {
		t.Error("expected error for unknown profile")
	}
}
