package ports

import (
	"context"

	"github.com/aretw0/timbre/pkg/domain"
)

// ResultSink submits a finished session's responses.
// Any returned error triggers the export fallback.
type ResultSink interface {
	Submit(ctx context.Context, submission domain.Submission) error
}

// ResultStore persists submissions on the server side.
type ResultStore interface {
	// Save stores the submission under its spec ID, replacing any previous one.
	Save(ctx context.Context, submission domain.Submission) error

	// Load returns domain.ErrSubmissionNotFound for unknown spec IDs.
	Load(ctx context.Context, specID string) (*domain.Submission, error)

	// List returns the spec IDs of all stored submissions.
	List(ctx context.Context) ([]string, error)
}

// Exporter writes a submission somewhere the operator can retrieve it manually.
// It returns a location (file path) to show the participant.
type Exporter interface {
	Export(ctx context.Context, submission domain.Submission) (string, error)
}
