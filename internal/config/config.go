// Package config loads the external settings the simulation core consumes
// but does not own: the random seed, window size, and scene bounds.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings mirrors the original settings file's mandatory keys.
type Settings struct {
	RandSeed       uint64  `yaml:"RandSeed"`
	IsShowRandSeed bool    `yaml:"IsShowRandSeed"`
	WindowSizeX    int     `yaml:"WindowSizeX"`
	WindowSizeY    int     `yaml:"WindowSizeY"`
	SceneSizeX     float64 `yaml:"SceneSizeX"`
	SceneSizeY     float64 `yaml:"SceneSizeY"`
	SceneSizeZ     float64 `yaml:"SceneSizeZ"`
}

// ErrConfigError is returned for a missing or malformed settings key.
var ErrConfigError = fmt.Errorf("config error")

// Load reads and validates a settings file at path. Every key the original
// settings loader treats as mandatory must be present; RandSeed == 0 is
// permitted and means "seed from OS entropy" (see internal/rng.New).
func Load(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading %s: %w", path, ErrConfigError)
	}
	return parse(raw)
}

func parse(raw []byte) (Settings, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w: %v", ErrConfigError, err)
	}

	required := []string{
		"RandSeed", "IsShowRandSeed", "WindowSizeX", "WindowSizeY",
		"SceneSizeX", "SceneSizeY", "SceneSizeZ",
	}
	for _, key := range required {
		if _, ok := doc[key]; !ok {
			return Settings{}, fmt.Errorf("%s not found: %w", key, ErrConfigError)
		}
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w: %v", ErrConfigError, err)
	}
	return s, nil
}

// Default returns settings matching the spec's normative constants, for use
// where no settings file is supplied (e.g. cmd/headless's default run).
func Default() Settings {
	return Settings{
		RandSeed:       0,
		IsShowRandSeed: false,
		WindowSizeX:    1280,
		WindowSizeY:    720,
		SceneSizeX:     2000,
		SceneSizeY:     2000,
		SceneSizeZ:     1000,
	}
}
