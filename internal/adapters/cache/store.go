// Package cache implements the content-addressed result cache that gates
// remote generation calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ResultCache = (*Store)(nil)

// Store maps cache keys to entries, persisted as a flat JSON document.
// It is read once at construction and rewritten whole on every record;
// the last full write wins.
type Store struct {
	path    string
	logger  ports.Logger
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewStore creates a result cache backed by the file at the given path.
// Unreadable or invalid prior state is treated as no prior state.
func NewStore(path string, logger ports.Logger) *Store {
	s := &Store{
		path:    filepath.Clean(path),
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]domain.CacheEntry),
	}
	s.load()
	return s
}

// Key derives the cache identity for one generation: the content hash of
// the source text joined with the model signature.
func Key(content []byte, modelSig string) string {
	return ContentHash(content) + "|" + modelSig
}

// ContentHash is the hex SHA-256 of the source text.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ModelSignature fingerprints the generation configuration so entries
// produced under different model settings never alias.
func ModelSignature(cfg domain.ModelConfig) string {
	h := xxhash.New()
	_, _ = h.WriteString(cfg.Name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(cfg.ReasoningEffort)
	_, _ = h.Write([]byte{0})
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("unreadable result cache, starting empty", "path", s.path, "error", err)
		}
		return
	}
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		// Fail open: a corrupt cache only costs regeneration.
		s.logger.Warn("invalid result cache, starting empty", "path", s.path, "error", err)
		s.entries = make(map[string]domain.CacheEntry)
	}
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal result cache")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for result cache")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write result cache")
	}
	return nil
}

// ShouldSkip reports whether the generation behind key is still valid:
// the stored hash matches the current content and every declared output
// still exists on disk.
func (s *Store) ShouldSkip(key string, content []byte, outputs []string) bool {
	if len(content) == 0 {
		return false
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || entry.Hash != ContentHash(content) {
		return false
	}

	for _, output := range outputs {
		if _, err := os.Stat(output); err != nil {
			return false
		}
	}
	return true
}

// Record stores the entry for key and persists the whole cache. Empty
// content is never cached: nothing to do is not a valid empty result.
func (s *Store) Record(key string, content []byte) error {
	if len(content) == 0 {
		return domain.ErrEmptyContent
	}

	s.mu.Lock()
	s.entries[key] = domain.CacheEntry{
		Hash:      ContentHash(content),
		UpdatedAt: s.now().Format(time.RFC3339),
	}
	s.mu.Unlock()

	return s.save()
}

// Reset drops every entry and removes the persisted document.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.entries = make(map[string]domain.CacheEntry)
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, "failed to remove result cache")
	}
	return nil
}
