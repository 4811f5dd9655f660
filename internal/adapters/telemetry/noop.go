package telemetry

import (
	"context"

	"go.trai.ch/docmill/internal/core/ports"
)

// Noop is a telemetry implementation that records nothing. Used in tests
// and when no progress UI is wanted.
type Noop struct{}

var _ ports.Telemetry = Noop{}

// Record returns a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

// Close is a no-op.
func (Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Complete(error) {}
func (noopVertex) Cached()        {}
