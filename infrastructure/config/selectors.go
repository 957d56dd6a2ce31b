package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"browser_scripts/domain/entities"

	"gopkg.in/yaml.v3"
)

// LoadSelectors - reads the selector file over the defaults. A missing file yields the defaults.
func LoadSelectors(path string) (entities.SelectorSet, error) {
	set := entities.DefaultSelectors()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return set, fmt.Errorf("failed to read selectors: %w", err)
	}

	if err := yaml.Unmarshal(data, &set); err != nil {
		return entities.DefaultSelectors(), fmt.Errorf("failed to parse selectors %s: %w", path, err)
	}
	return set, nil
}

// SaveSelectors - writes the selector file
func SaveSelectors(path string, set entities.SelectorSet) error {
	data, err := yaml.Marshal(&set)
	if err != nil {
		return fmt.Errorf("failed to encode selectors: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create selectors directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
