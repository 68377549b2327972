// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eb5c6d7-e8f9-a0b1-c2d3-e4f5a6b7c8d9

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdfalk/audiobook-asin/internal/config"
	"github.com/jdfalk/audiobook-asin/internal/sources"
	"github.com/spf13/cobra"
)

func TestCommandRegistration(t *testing.T) {
	want := map[string]bool{"lookup": false, "batch": false, "write": false, "cache": false, "config": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestLookupFlags(t *testing.T) {
	for _, name := range []string{"title", "author", "language", "isbn", "series", "refresh", "fuzzy", "fuzzy-threshold", "sources"} {
		if lookupCmd.Flags().Lookup(name) == nil {
			t.Errorf("lookup is missing --%s", name)
		}
	}
	if f := lookupCmd.Flags().Lookup("fuzzy-threshold"); f != nil && f.DefValue != "0.8" {
		t.Errorf("fuzzy-threshold default = %s", f.DefValue)
	}
}

func TestNewResolverSourceFilter(t *testing.T) {
	config.AppConfig = config.Config{
		CachePath: filepath.Join(t.TempDir(), "asin-cache.json"),
	}

	if _, err := newResolver(nil); err != nil {
		t.Errorf("default source set: %v", err)
	}
	if _, err := newResolver([]string{string(sources.KindAudible)}); err != nil {
		t.Errorf("single source filter: %v", err)
	}
	if _, err := newResolver([]string{" Amazon ", "openlibrary"}); err != nil {
		t.Errorf("filter should trim and fold case: %v", err)
	}
	if _, err := newResolver([]string{"goodreads"}); err == nil {
		t.Error("unknown source name must be rejected")
	}
}

func TestTitleOrISBN(t *testing.T) {
	if err := titleOrISBN("Mistborn", ""); err != nil {
		t.Errorf("title alone: %v", err)
	}
	if err := titleOrISBN("", "9780765311788"); err != nil {
		t.Errorf("ISBN alone must be accepted: %v", err)
	}
	if err := titleOrISBN("", ""); err == nil {
		t.Error("empty query must be rejected")
	}
	// The flag itself must not be hard-required, or ISBN-only calls
	// die before RunE.
	if f := lookupCmd.Flags().Lookup("title"); f != nil {
		if _, required := f.Annotations[cobra.BashCompOneRequiredFlag]; required {
			t.Error("lookup --title must not be marked required")
		}
	}
	if f := writeCmd.Flags().Lookup("title"); f != nil {
		if _, required := f.Annotations[cobra.BashCompOneRequiredFlag]; required {
			t.Error("write --title must not be marked required")
		}
	}
}

func TestConfigSaveCommand(t *testing.T) {
	dir := t.TempDir()
	config.AppConfig = config.Config{
		RootDir:          dir,
		CachePath:        filepath.Join(dir, ".asin-cache.json"),
		CacheNegativeTTL: 720 * time.Hour,
		MinSourceDelay:   2 * time.Second,
		FuzzyThreshold:   0.8,
		Workers:          4,
		Language:         "en",
	}

	if err := configSaveCmd.RunE(configSaveCmd, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(config.ConfigFilePath()); err != nil {
		t.Fatalf("save did not create the config file: %v", err)
	}

	// A later run with bare AppConfig picks the saved values back up.
	config.AppConfig = config.Config{RootDir: dir, CachePath: filepath.Join(dir, ".asin-cache.json")}
	if err := config.LoadConfigFromFile(); err != nil {
		t.Fatal(err)
	}
	if config.AppConfig.Language != "en" {
		t.Errorf("saved language not reloaded, got %q", config.AppConfig.Language)
	}
}
