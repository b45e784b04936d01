package ports

import (
	"context"

	"github.com/aretw0/timbre/pkg/domain"
)

// ScreenHost is the execution substrate for leaves.
type ScreenHost interface {
	// Present shows a running step and blocks until the participant completes
	// it. It must return promptly with ctx.Err() once ctx is cancelled.
	// A nil Response is valid for steps that collect nothing.
	Present(ctx context.Context, step *domain.Step) (*domain.Response, error)

	// Notify surfaces an out-of-band message (upload result, export path).
	Notify(ctx context.Context, notice domain.Notice) error

	// Progress surfaces the weighted completion value (0.0 to 1.0).
	Progress(ctx context.Context, value float64)
}
