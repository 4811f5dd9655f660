package ports

// ResultCache decides whether a generation already happened for the current
// source content and records completed generations.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ResultCache interface {
	// ShouldSkip reports whether the entry under key is still valid: every
	// output path exists and the stored hash matches the current content.
	ShouldSkip(key string, content []byte, outputs []string) bool

	// Record stores the entry for key with the fresh content hash and
	// persists the cache. Empty content is never recorded.
	Record(key string, content []byte) error

	// Reset discards all entries and the persisted document.
	Reset() error
}
