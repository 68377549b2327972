// file: internal/config/persistence.go
// version: 1.7.0
// guid: 9c8d7e6f-5a4b-3c2d-1e0f-9a8b7c6d5e4f

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFilePath returns the path to the YAML config file next to the cache.
func ConfigFilePath() string {
	if AppConfig.CachePath != "" {
		return filepath.Join(filepath.Dir(AppConfig.CachePath), "config.yaml")
	}
	if AppConfig.RootDir != "" {
		return filepath.Join(AppConfig.RootDir, "config.yaml")
	}
	return ""
}

// LoadConfigFromFile loads settings from the YAML config file as a fallback.
// File values only fill in gaps left by flags and environment variables.
func LoadConfigFromFile() error {
	path := ConfigFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig map[string]any
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		log.Printf("Warning: Failed to parse config file %s: %v", path, err)
		return nil
	}

	applied := 0

	stringFallbacks := map[string]*string{
		"language":  &AppConfig.Language,
		"log_level": &AppConfig.LogLevel,
	}
	for key, ptr := range stringFallbacks {
		if *ptr == "" {
			if val, ok := fileConfig[key].(string); ok && val != "" {
				*ptr = val
				applied++
				log.Printf("[INFO] Loaded %s from config file", key)
			}
		}
	}

	if AppConfig.FuzzyThreshold == 0 {
		if val, ok := fileConfig["fuzzy_threshold"].(float64); ok && val > 0 {
			AppConfig.FuzzyThreshold = val
			applied++
		}
	}
	if AppConfig.CacheNegativeTTL == 0 {
		if val, ok := fileConfig["cache_negative_ttl"].(string); ok {
			if d, err := time.ParseDuration(val); err == nil {
				AppConfig.CacheNegativeTTL = d
				applied++
			}
		}
	}

	if applied > 0 {
		log.Printf("Applied %d settings from config file %s", applied, path)
	}
	return nil
}

// SaveConfigToFile writes the effective settings to a YAML config file next
// to the cache, so subsequent runs pick them up without flags.
func SaveConfigToFile() error {
	path := ConfigFilePath()
	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}

	fileConfig := map[string]any{
		"dir":                AppConfig.RootDir,
		"cache_path":         AppConfig.CachePath,
		"cache_negative_ttl": AppConfig.CacheNegativeTTL.String(),
		"min_source_delay":   AppConfig.MinSourceDelay.String(),
		"fuzzy":              AppConfig.Fuzzy,
		"fuzzy_threshold":    AppConfig.FuzzyThreshold,
		"workers":            AppConfig.Workers,
		"language":           AppConfig.Language,
		"log_level":          AppConfig.LogLevel,
	}

	data, err := yaml.Marshal(fileConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	log.Printf("[INFO] Saved configuration to %s", path)
	return nil
}
