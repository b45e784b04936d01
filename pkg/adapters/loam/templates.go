// Package loam serves step content from a Loam markdown repository.
//
// Each template is a document whose ID (without extension) is the template
// name. Frontmatter is optional:
//
//	---
//	name: dissimilarity_rating
//	title: Rate the pair
//	---
//	Sound A: `{{.Left}}` ...
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/timbre/pkg/domain"
)

// TemplateMetadata is the frontmatter of a template document.
type TemplateMetadata struct {
	Name  string `json:"name" mapstructure:"name"`
	Title string `json:"title" mapstructure:"title"`
}

// Templates implements ports.TemplateProvider over a Loam repository. The
// repository is indexed on first use.
type Templates struct {
	Repo *loam.TypedRepository[TemplateMetadata]

	mu    sync.Mutex
	index map[string]string
}

// New creates a provider over repo.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Templates {
	return &Templates{Repo: repo}
}

// Open initializes a read-only repository at dir.
func Open(dir string) (*Templates, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve templates dir: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open templates repository: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// Template implements ports.TemplateProvider.
func (t *Templates) Template(ctx context.Context, name string) (string, error) {
	index, err := t.load(ctx)
	if err != nil {
		return "", err
	}
	content, ok := index[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, domain.ErrTemplateNotFound)
	}
	return content, nil
}

// Names lists the indexed template names.
func (t *Templates) Names(ctx context.Context) ([]string, error) {
	index, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	return names, nil
}

// Reset drops the index so the next lookup re-reads the repository.
func (t *Templates) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index = nil
}

func (t *Templates) load(ctx context.Context) (map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.index != nil {
		return t.index, nil
	}

	docs, err := t.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	index := make(map[string]string, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = doc.ID
		}
		name = trimExtension(name)
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("collision detected: template %q is defined twice", name)
		}

		content := strings.TrimSpace(doc.Content)
		if doc.Data.Title != "" {
			content = "# " + doc.Data.Title + "\n\n" + content
		}
		index[name] = content
	}
	t.index = index
	return index, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
