// Package templates embeds the default step content of the study.
package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/aretw0/timbre/pkg/domain"
)

//go:embed *.md
var files embed.FS

// FS exposes the embedded markdown files.
func FS() fs.FS {
	return files
}

// Provider serves content from a filesystem of "<name>.md" files.
type Provider struct {
	fsys fs.FS
}

// Default returns a provider over the embedded content.
func Default() *Provider {
	return &Provider{fsys: files}
}

// New returns a provider over fsys.
func New(fsys fs.FS) *Provider {
	return &Provider{fsys: fsys}
}

// Template implements ports.TemplateProvider.
func (p *Provider) Template(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(p.fsys, name+".md")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", name, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// Names lists the available template names.
func (p *Provider) Names() ([]string, error) {
	entries, err := fs.ReadDir(p.fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	return names, nil
}
