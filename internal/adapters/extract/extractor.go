// Package extract implements the page extractor: PDFs through the poppler
// tools with an OCR fallback for scanned documents, DOCX through the
// package's own reader, photographs straight through OCR.
package extract

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/docmill/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

var _ ports.PageExtractor = (*Extractor)(nil)

// Extractor normalizes source documents to page texts. The OCR service is
// optional; without it scanned pages come back empty and a warning is
// recorded, matching the pipeline's partial-content error policy.
type Extractor struct {
	ocr    ports.OCRService
	pool   *scheduler.Pool
	logger ports.Logger
	run    commandRunner
}

// New creates an extractor. ocr may be nil when OCR credentials are not
// configured; pool bounds the per-page OCR fan-out.
func New(ocr ports.OCRService, pool *scheduler.Pool, logger ports.Logger) *Extractor {
	return &Extractor{
		ocr:    ocr,
		pool:   pool,
		logger: logger,
		run:    execRunner{},
	}
}

// Extract dispatches on the file extension.
func (e *Extractor) Extract(ctx context.Context, sourcePath string) (domain.Extraction, error) {
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".pdf":
		return e.extractPDF(ctx, sourcePath)
	case ".docx":
		return e.extractDOCX(sourcePath)
	case ".png", ".jpg", ".jpeg":
		return e.extractImage(ctx, sourcePath)
	default:
		return domain.Extraction{}, zerr.With(domain.ErrUnsupportedFormat, "path", sourcePath)
	}
}

// commandRunner abstracts external tool invocation for tests.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "command failed"), "command", name)
	}
	return out, nil
}
