package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Templates implements ports.TemplateProvider using an in-memory map.
type Templates struct {
	mu      sync.RWMutex
	content map[string]string
}

// NewTemplates creates a provider serving a copy of content.
func NewTemplates(content map[string]string) *Templates {
	c := make(map[string]string, len(content))
	for k, v := range content {
		c[k] = v
	}
	return &Templates{content: c}
}

// Set adds or replaces a template.
func (t *Templates) Set(name, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.content[name] = content
}

// Template returns the content registered under name.
func (t *Templates) Template(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	content, ok := t.content[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, domain.ErrTemplateNotFound)
	}
	return content, nil
}

// Names returns all registered names.
func (t *Templates) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.content))
	for k := range t.content {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys
}
