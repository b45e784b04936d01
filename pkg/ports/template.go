package ports

import "context"

// TemplateProvider maps a symbolic step name to populated content.
// Lookups may block on I/O; the composer resolves every name ahead of execution.
type TemplateProvider interface {
	Template(ctx context.Context, name string) (string, error)
}
