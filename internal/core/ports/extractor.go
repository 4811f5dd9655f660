// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/docmill/internal/core/domain"
)

// PageExtractor normalizes one source document to ordered page texts and a
// detected language.
//
//go:generate mockgen -source=extractor.go -destination=mocks/mock_extractor.go -package=mocks
type PageExtractor interface {
	// Extract reads the document at sourcePath and returns its page texts
	// in page order. Pages without recoverable text come back empty rather
	// than failing the document.
	Extract(ctx context.Context, sourcePath string) (domain.Extraction, error)
}
