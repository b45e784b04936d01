package ports

import (
	"context"

	"github.com/aretw0/timbre/pkg/domain"
)

// SpecSource retrieves the experiment specification for a new session.
type SpecSource interface {
	FetchSpec(ctx context.Context) (*domain.ExperimentSpec, error)
}
