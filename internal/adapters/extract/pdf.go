package extract

import (
	"context"
	"strconv"
	"strings"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/zerr"
)

// probePages is how many leading pages are checked for a text layer before
// a PDF is treated as scanned.
const probePages = 3

// extractPDF extracts one PDF: pages with a text layer via pdftotext,
// scanned documents via a per-page render + OCR fan-out through the pool.
func (e *Extractor) extractPDF(ctx context.Context, path string) (domain.Extraction, error) {
	count, err := e.pageCount(ctx, path)
	if err != nil {
		return domain.Extraction{}, err
	}
	if count == 0 {
		return domain.Extraction{Language: "en"}, nil
	}

	if e.hasTextLayer(ctx, path, count) {
		return e.extractTextPDF(ctx, path, count)
	}
	return e.extractScannedPDF(ctx, path, count)
}

// pageCount reads the page count from pdfinfo output.
func (e *Extractor) pageCount(ctx context.Context, path string) (int, error) {
	out, err := e.run.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to inspect PDF"), "path", path)
	}
	for line := range strings.Lines(string(out)) {
		value, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			break
		}
		return count, nil
	}
	return 0, zerr.With(zerr.New("no page count in PDF metadata"), "path", path)
}

func (e *Extractor) hasTextLayer(ctx context.Context, path string, count int) bool {
	for page := 1; page <= min(probePages, count); page++ {
		if strings.TrimSpace(e.pageText(ctx, path, page)) != "" {
			return true
		}
	}
	return false
}

func (e *Extractor) pageText(ctx context.Context, path string, page int) string {
	p := strconv.Itoa(page)
	out, err := e.run.Run(ctx, "pdftotext", "-f", p, "-l", p, "-layout", path, "-")
	if err != nil {
		return ""
	}
	return string(out)
}

func (e *Extractor) extractTextPDF(ctx context.Context, path string, count int) (domain.Extraction, error) {
	pages := make([]string, count)
	for page := 1; page <= count; page++ {
		pages[page-1] = strings.TrimRight(e.pageText(ctx, path, page), "\n")
	}
	return domain.Extraction{
		Pages:    pages,
		Language: DetectLanguage(languageSample(pages)),
	}, nil
}

// extractScannedPDF renders each page to PNG and recognizes it through the
// OCR service, one work unit per page. A failed page stays empty; it never
// fails the document.
func (e *Extractor) extractScannedPDF(ctx context.Context, path string, count int) (domain.Extraction, error) {
	pages := make([]string, count)
	if e.ocr == nil {
		e.logger.Warn("scanned PDF without OCR service, pages left empty", "path", path)
		return domain.Extraction{Pages: pages, Language: "en"}, nil
	}

	units := make([]domain.Unit, count)
	for page := 1; page <= count; page++ {
		p := strconv.Itoa(page)
		units[page-1] = domain.Unit{
			ID: path + "#page_" + p,
			Produce: func(ctx context.Context) (string, error) {
				image, err := e.run.Run(ctx, "pdftoppm", "-png", "-r", "150", "-f", p, "-l", p, path)
				if err != nil {
					return "", err
				}
				return e.ocr.Recognize(ctx, image)
			},
		}
	}

	for i, result := range e.pool.RunAll(ctx, units) {
		if result.Err != nil {
			e.logger.Warn("page recognition failed", "unit", result.ID, "error", result.Err)
			continue
		}
		pages[i] = result.Value
	}

	return domain.Extraction{
		Pages:    pages,
		Language: DetectLanguage(languageSample(pages)),
	}, nil
}
