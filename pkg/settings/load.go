package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// BaseFile is the conventional name of the base settings file.
	BaseFile = "settings.yaml"
	// OverlayFile is the conventional name of the test-only overlay.
	// When present next to the base file, its values replace same-named
	// base values for the duration of the test run.
	OverlayFile = "settings_test.yaml"
	// EnvPrefix marks environment variables that override loaded settings.
	// A double underscore separates nesting levels: TESTKIT_DATABASE__HOST
	// maps to "database.host".
	EnvPrefix = "TESTKIT_"
)

// Load reads the base settings file from dir, merges the test overlay over it
// when one exists, and applies prefixed environment variables on top.
// A missing base file is an error; a missing overlay is not.
func Load(dir string) (*Settings, error) {
	return LoadFiles(filepath.Join(dir, BaseFile), filepath.Join(dir, OverlayFile))
}

// LoadFiles is Load with explicit file paths. The overlay path may point at a
// nonexistent file, in which case the base settings apply unchanged.
func LoadFiles(base, overlay string) (*Settings, error) {
	s, err := loadFile(base)
	if err != nil {
		return nil, fmt.Errorf("load base settings: %w", err)
	}

	o, err := loadFile(overlay)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No test overlay; base applies unchanged.
	case err != nil:
		return nil, fmt.Errorf("load settings overlay: %w", err)
	default:
		s.Merge(o)
	}

	applyEnv(s, os.Environ())
	return s, nil
}

// loadFile parses a single YAML settings file into a flat namespace.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	return FromMap(raw), nil
}

// applyEnv overlays TESTKIT_-prefixed environment variables. Values are kept
// as strings; the typed getters coerce them on read.
func applyEnv(s *Settings, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := envToKey(strings.TrimPrefix(name, EnvPrefix))
		if key == "" {
			continue
		}
		s.Set(key, value)
	}
}

// envToKey converts DATABASE__HOST to "database.host".
func envToKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "__", "."))
}
