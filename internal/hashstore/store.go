// Package hashstore persists the last-known content fingerprint per monitored
// page. The on-disk format is a single JSON object mapping URL to hex digest,
// replaced atomically on every write.
package hashstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Fingerprint returns the lowercase hex SHA-256 digest of text (UTF-8 bytes).
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Store is the durable URL → fingerprint mapping.
//
// The in-memory map is authoritative for the current run; Save failures are
// reported to the caller but never clear it. All methods are safe for
// concurrent use, and Put serializes the read-modify-write-persist sequence
// so parallel updates cannot clobber each other's entries.
type Store struct {
	path string
	log  zerolog.Logger

	mu     sync.Mutex
	hashes map[string]string
}

func New(path string, log zerolog.Logger) *Store {
	return &Store{
		path:   path,
		log:    log.With().Str("component", "hashstore").Logger(),
		hashes: map[string]string{},
	}
}

// FileExists reports whether durable state is present on disk. The watcher
// uses this to decide between loading and a first-run bootstrap.
func (s *Store) FileExists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the state file. A missing file or malformed content is not an
// error: both leave the store empty, so every page is treated as never seen.
func (s *Store) Load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.log.Warn().Err(err).Str("path", s.path).Msg("state file unreadable, starting with empty history")
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("state file malformed, starting with empty history")
		return nil
	}

	s.mu.Lock()
	s.hashes = m
	if s.hashes == nil {
		s.hashes = map[string]string{}
	}
	s.mu.Unlock()
	return nil
}

// Save atomically replaces the state file with the current mapping.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	b, err := json.Marshal(s.hashes)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Get returns the stored fingerprint for url and whether one exists.
func (s *Store) Get(url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.hashes[url]
	return fp, ok
}

// Set records a fingerprint in memory only. Used by the bootstrap pass,
// which persists once at the end.
func (s *Store) Set(url, fingerprint string) {
	s.mu.Lock()
	s.hashes[url] = fingerprint
	s.mu.Unlock()
}

// Put records a fingerprint and immediately persists the whole mapping
// (write-through). The mutation survives even when the write fails.
func (s *Store) Put(url, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[url] = fingerprint
	return s.saveLocked()
}

// Len returns the number of tracked pages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}
