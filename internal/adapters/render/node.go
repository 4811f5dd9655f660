package render

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/docmill/internal/core/ports"
)

const NodeID graft.ID = "adapter.renderer"

func init() {
	graft.Register(graft.Node[ports.DocumentRenderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.DocumentRenderer, error) {
			return New(), nil
		},
	})
}
