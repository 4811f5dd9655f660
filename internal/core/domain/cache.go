package domain

// CacheEntry records one completed generation: the hash of the source text
// it was produced from and a human-readable update timestamp.
type CacheEntry struct {
	Hash      string `json:"hash"`
	UpdatedAt string `json:"updated_at"`
}
