package project

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/piwi3910/spoonorder/internal/model"
)

// Environment variables that override the saved application config.
const (
	EnvMode    = "SPOONORDER_MODE"
	EnvMarker  = "SPOONORDER_MARKER"
	EnvProfile = "SPOONORDER_PROFILE"
	EnvDebug   = "SPOONORDER_DEBUG"
)

// LoadEnv loads variables from the given .env files, ".env" when none are
// named. Variables already set in the process environment win. Missing
// files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides s with the SPOONORDER_* variables found by lookup.
// A nil lookup reads the process environment.
func ApplyEnv(s *model.RunSettings, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := nonEmpty(lookup, EnvMode); ok {
		mode, err := model.ParseReorderMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMode, err)
		}
		s.Mode = mode
	}
	if v, ok := nonEmpty(lookup, EnvMarker); ok {
		s.TargetMarker = v
	}
	if v, ok := nonEmpty(lookup, EnvProfile); ok {
		s.Profile = v
	}
	if v, ok := nonEmpty(lookup, EnvDebug); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		s.Debug = debug
	}
	return nil
}

func nonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
