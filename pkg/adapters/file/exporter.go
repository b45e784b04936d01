package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/timbre/pkg/domain"
)

// Exporter implements ports.Exporter by writing "responses-<specId>.json".
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Export writes the submission and returns the absolute file path.
func (e *Exporter) Export(ctx context.Context, sub domain.Submission) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := write(e.dir, sub)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", sub.SpecID, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}
