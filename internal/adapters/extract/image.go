package extract

import (
	"context"
	"os"

	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/zerr"
)

// extractImage recognizes one photograph of text via the OCR service.
func (e *Extractor) extractImage(ctx context.Context, path string) (domain.Extraction, error) {
	if e.ocr == nil {
		return domain.Extraction{}, domain.ErrMissingCredentials
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}, zerr.With(zerr.Wrap(err, "failed to read image"), "path", path)
	}

	text, err := e.ocr.Recognize(ctx, image)
	if err != nil {
		return domain.Extraction{}, err
	}
	return domain.Extraction{
		Pages:    []string{text},
		Language: DetectLanguage(text),
	}, nil
}
