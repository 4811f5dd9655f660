package ports

import "go.trai.ch/docmill/internal/core/domain"

// DocumentRenderer turns generated text into a document of the requested
// format.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type DocumentRenderer interface {
	Render(text string, format domain.DocFormat) ([]byte, error)
}
