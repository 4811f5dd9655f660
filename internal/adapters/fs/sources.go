// Package fs implements filesystem helpers for input listing, per-page
// text files and the merged document.
package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ListSources returns the names of the regular files directly under dir
// whose extension matches one of extensions (lowercase, with dot). The
// result is sorted case-insensitively and deduplicated. A missing
// directory is an empty bucket, not an error.
func ListSources(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to list input directory"), "dir", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(extensions, ext) {
			names = append(names, entry.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return slices.Compact(names), nil
}

// ResolveTextDir picks a per-document folder under textDir for the source's
// page files, appending _1, _2, ... when the stem collides with one already
// claimed this run. used tracks claimed folder names in lower case.
func ResolveTextDir(textDir, sourceName string, used map[string]bool) string {
	base := strings.TrimSpace(strings.TrimSuffix(sourceName, filepath.Ext(sourceName)))
	if base == "" {
		base = "doc"
	}
	candidate := base
	for index := 1; used[strings.ToLower(candidate)]; index++ {
		candidate = base + "_" + strconv.Itoa(index)
	}
	used[strings.ToLower(candidate)] = true
	return filepath.Join(textDir, candidate)
}

// WritePages writes one page_N.txt per page (1-based) plus lang.txt into
// dir, creating it as needed.
func WritePages(dir string, pages []string, lang string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create text directory"), "dir", dir)
	}
	for i, page := range pages {
		name := filepath.Join(dir, "page_"+strconv.Itoa(i+1)+".txt")
		if err := os.WriteFile(name, []byte(page), 0o644); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write page file"), "path", name)
		}
	}
	if lang != "" {
		if err := os.WriteFile(filepath.Join(dir, "lang.txt"), []byte(lang), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write language file")
		}
	}
	return nil
}

// ReadPages returns the non-empty page texts from dir in page-number order.
// A missing folder reads as no pages.
func ReadPages(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "page_*.txt"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	slices.SortFunc(matches, func(a, b string) int {
		return pageNumber(a) - pageNumber(b)
	})

	var pages []string
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func pageNumber(path string) int {
	stem := strings.TrimSuffix(filepath.Base(path), ".txt")
	suffix, ok := strings.CutPrefix(stem, "page_")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return n
}
