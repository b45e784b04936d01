package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
)

// Masked replaces redacted values.
const Masked = "***"

type piiMiddleware struct {
	next     ports.ResultStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks response values whose key matches any pattern.
// Patterns must compile; config validation checks them upfront.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ResultStore) ports.ResultStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sub domain.Submission) error {
	// The caller still holds the records; mask a copy.
	masked := domain.Submission{SpecID: sub.SpecID, Responses: make([]domain.ResponseRecord, len(sub.Responses))}
	for i, rec := range sub.Responses {
		if rec.Values != nil {
			rec.Values = maps.Clone(rec.Values)
			m.mask(rec.Values)
		}
		masked.Responses[i] = rec
	}
	return m.next.Save(ctx, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, specID string) (*domain.Submission, error) {
	return m.next.Load(ctx, specID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(values map[string]any) {
	for k := range values {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				values[k] = Masked
				break
			}
		}
	}
}
