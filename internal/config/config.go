// file: internal/config/config.go
// version: 1.3.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	RootDir             string
	CachePath           string
	CacheNegativeTTL    time.Duration
	MinSourceDelay      time.Duration
	Fuzzy               bool
	FuzzyThreshold      float64
	Workers             int
	Language            string
	LogLevel            string
	SupportedExtensions []string
}

var AppConfig Config

// InitConfig initializes the application configuration. Flag bindings
// registered with viper take precedence, then environment variables,
// then defaults.
func InitConfig() {
	// Set defaults
	viper.SetDefault("cache_negative_ttl", "720h")
	viper.SetDefault("min_source_delay", "2s")
	viper.SetDefault("fuzzy_threshold", 0.8)
	viper.SetDefault("workers", 4)
	viper.SetDefault("language", "en")
	viper.SetDefault("log_level", "info")

	AppConfig = Config{
		RootDir:          resolveRootDir(viper.GetString("dir")),
		CachePath:        viper.GetString("cache_path"),
		CacheNegativeTTL: viper.GetDuration("cache_negative_ttl"),
		MinSourceDelay:   viper.GetDuration("min_source_delay"),
		Fuzzy:            viper.GetBool("fuzzy"),
		FuzzyThreshold:   viper.GetFloat64("fuzzy_threshold"),
		Workers:          viper.GetInt("workers"),
		Language:         viper.GetString("language"),
		LogLevel:         viper.GetString("log_level"),
		SupportedExtensions: []string{
			".m4b", ".mp3", ".m4a", ".aac", ".ogg", ".flac", ".wma",
		},
	}

	if AppConfig.CachePath == "" {
		AppConfig.CachePath = filepath.Join(AppConfig.RootDir, ".asin-cache.json")
	}
	if AppConfig.Workers < 1 {
		AppConfig.Workers = 1
	}
}

// resolveRootDir picks the library root: explicit flag value, then the
// current environment variable, then the legacy one, then the working
// directory.
func resolveRootDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv("AUDIOBOOK_ASIN_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("AUDIOBOOK_DIR"); dir != "" {
		return dir
	}
	return "."
}
