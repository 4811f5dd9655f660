package ports

import (
	"context"

	"go.trai.ch/docmill/internal/core/domain"
)

// CompletionService produces generated text from a prompt. Failures coming
// from the network or the remote service are transient: the scheduler's
// retry budget applies to them without further distinction.
//
//go:generate mockgen -source=completion.go -destination=mocks/mock_completion.go -package=mocks
type CompletionService interface {
	Complete(ctx context.Context, messages []domain.Message, cfg domain.ModelConfig) (string, error)
}
