package ports

import "context"

// OCRService recognizes the text in one image. Implementations sign each
// request themselves and must enforce their own call deadline.
//
//go:generate mockgen -source=ocr.go -destination=mocks/mock_ocr.go -package=mocks
type OCRService interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
