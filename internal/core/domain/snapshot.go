// Package domain holds the value objects of the document pipeline.
package domain

import (
	"maps"
	"slices"
	"strings"
)

// Snapshot captures the identity of the whole input set: the source file
// names per bucket and the prompt configuration feeding generation. Two
// snapshots are equal iff they would drive the pipeline to identical work.
type Snapshot struct {
	Buckets map[string][]string `json:"buckets"`
	Prompts map[string]string   `json:"prompts"`
}

// NewSnapshot builds a canonical snapshot: bucket file lists are sorted and
// deduplicated so equality is order-independent.
func NewSnapshot(buckets map[string][]string, prompts map[string]string) Snapshot {
	canonical := make(map[string][]string, len(buckets))
	for name, files := range buckets {
		canonical[name] = canonicalizeStrings(files)
	}
	return Snapshot{
		Buckets: canonical,
		Prompts: maps.Clone(prompts),
	}
}

// Equal reports whether two snapshots are structurally identical.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Buckets) != len(other.Buckets) || len(s.Prompts) != len(other.Prompts) {
		return false
	}
	for name, files := range s.Buckets {
		if !slices.Equal(files, other.Buckets[name]) {
			return false
		}
	}
	return maps.Equal(s.Prompts, other.Prompts)
}

// Render returns a deterministic textual form of the snapshot, suitable for
// fingerprinting. Sections and entries are NUL-separated in sorted order.
func (s Snapshot) Render() string {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(s.Buckets)) {
		b.WriteString(name)
		b.WriteByte(0)
		for _, file := range s.Buckets[name] {
			b.WriteString(file)
			b.WriteByte(0)
		}
		b.WriteByte(0)
	}
	b.WriteByte(0)
	for _, name := range slices.Sorted(maps.Keys(s.Prompts)) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.Prompts[name])
		b.WriteByte(0)
	}
	return b.String()
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return []string{}
	}
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
