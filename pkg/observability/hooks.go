package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/timbre/pkg/domain"
)

// LoggingHooks logs every block transition at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(ctx context.Context, e *domain.BlockEvent) {
			logger.DebugContext(ctx, "block_enter",
				"spec_id", e.SpecID,
				"block_id", e.BlockID,
				"kind", e.BlockKind,
			)
		},
		OnBlockEnd: func(ctx context.Context, e *domain.BlockEvent) {
			logger.DebugContext(ctx, "block_end",
				"spec_id", e.SpecID,
				"block_id", e.BlockID,
				"kind", e.BlockKind,
				"recorded", e.Recorded,
				"cancelled", e.Cancelled,
			)
		},
		OnProgress: func(ctx context.Context, e *domain.ProgressEvent) {
			logger.DebugContext(ctx, "progress", "spec_id", e.SpecID, "value", e.Value)
		},
	}
}
