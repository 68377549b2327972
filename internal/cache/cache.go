// file: internal/cache/cache.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Entry is one resolved lookup. An empty ASIN records a negative result so
// that exhausted searches are not repeated on every run.
type Entry struct {
	ASIN      string    `json:"asin,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Negative reports whether the entry records a "not found" outcome.
func (e Entry) Negative() bool {
	return e.ASIN == ""
}

// Store is a durable key→Entry map backed by a single JSON document.
// Safe for concurrent use; writers are serialized and the document is
// rewritten wholesale via a temp-file rename.
type Store struct {
	mu          sync.RWMutex
	path        string
	entries     map[string]Entry
	negativeTTL time.Duration
}

// Open loads the cache document at path, creating an empty store when the
// file does not exist. A truncated or invalid document degrades to an empty
// cache rather than failing the caller. negativeTTL bounds how long a
// negative entry suppresses re-resolution; zero disables expiry.
func Open(path string, negativeTTL time.Duration) (*Store, error) {
	s := &Store{
		path:        path,
		entries:     make(map[string]Entry),
		negativeTTL: negativeTTL,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Printf("Warning: cache %s is corrupt, starting empty: %v", path, err)
		s.entries = make(map[string]Entry)
	}
	return s, nil
}

var keyNoise = regexp.MustCompile(`[^a-z0-9]+`)

// Key derives the normalized cache key for a (title, author, isbn) tuple.
// Case, punctuation, and spacing differences collapse to the same key.
func Key(title, author, isbn string) string {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.Trim(keyNoise.ReplaceAllString(s, "-"), "-")
	}
	return norm(title) + "|" + norm(author) + "|" + norm(isbn)
}

// Get returns the entry for key if present and not an expired negative.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	ttl := s.negativeTTL
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if e.Negative() && ttl > 0 && time.Since(e.Timestamp) > ttl {
		return Entry{}, false
	}
	return e, true
}

// Put stores an entry under key and rewrites the backing document.
// Last write wins. A persistence failure is returned but the in-memory
// entry is kept so the current process still benefits.
func (s *Store) Put(key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return s.flushLocked()
}

// Invalidate removes a single key, used by forced-refresh lookups.
func (s *Store) Invalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flushLocked()
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of all entries, including expired negatives,
// for inspection tooling.
func (s *Store) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// PruneExpired drops negative entries past their TTL and rewrites the
// document. Returns how many entries were removed.
func (s *Store) PruneExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negativeTTL <= 0 {
		return 0, nil
	}
	removed := 0
	for k, e := range s.entries {
		if e.Negative() && time.Since(e.Timestamp) > s.negativeTTL {
			delete(s.entries, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.flushLocked()
}

// flushLocked writes the document atomically. Caller holds s.mu.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".asin-cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache %s: %w", s.path, err)
	}
	return nil
}
