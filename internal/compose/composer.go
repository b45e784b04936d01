// Package compose builds the study's block tree from an ExperimentSpec and
// the step content supplied by a TemplateProvider.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"text/template"

	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of dissimilarity ratings between breaks.
const DefaultChunkSize = 70

// prefetchLimit bounds concurrent template lookups.
const prefetchLimit = 8

// Content maps template names to their content.
type Content map[string]string

// Interpolator populates a content template with a loop parameter.
type Interpolator func(content string, data any) (string, error)

// TextTemplate populates content with text/template. Missing keys fail.
func TextTemplate(content string, data any) (string, error) {
	tpl, err := template.New("step").Option("missingkey=error").Parse(content)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Composer assembles sections into the study tree.
type Composer struct {
	templates   ports.TemplateProvider
	logger      *slog.Logger
	chunkSize   int
	interpolate Interpolator
	welcome     bool
	headphones  bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures the Composer.
type Option func(*Composer)

// WithChunkSize sets the number of dissimilarity ratings between breaks.
func WithChunkSize(size int) Option {
	return func(c *Composer) {
		c.chunkSize = size
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithInterpolator replaces the default text/template population.
func WithInterpolator(fn Interpolator) Option {
	return func(c *Composer) {
		c.interpolate = fn
	}
}

// WithRand sets the source used to shuffle semantic files.
func WithRand(rng *rand.Rand) Option {
	return func(c *Composer) {
		c.rng = rng
	}
}

// WithWelcome includes the welcome and consent section.
func WithWelcome(enabled bool) Option {
	return func(c *Composer) {
		c.welcome = enabled
	}
}

// WithHeadphoneCheck includes the headphone check gate.
func WithHeadphoneCheck(enabled bool) Option {
	return func(c *Composer) {
		c.headphones = enabled
	}
}

// New creates a composer reading content from templates.
func New(templates ports.TemplateProvider, opts ...Option) *Composer {
	c := &Composer{
		templates:   templates,
		logger:      logging.NewNop(),
		chunkSize:   DefaultChunkSize,
		interpolate: TextTemplate,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	return c
}

// ChunkSize returns the configured chunk size.
func (c *Composer) ChunkSize() int {
	return c.chunkSize
}

// Templates lists every template the configured sections need.
func (c *Composer) Templates() []string {
	var names []string
	if c.welcome {
		names = append(names, welcomeTemplates...)
	}
	if c.headphones {
		names = append(names, headphoneTemplates...)
	}
	return append(names, coreTemplates...)
}

// Prefetch looks up names concurrently. The first failure cancels the rest.
func (c *Composer) Prefetch(ctx context.Context, names ...string) (Content, error) {
	var mu sync.Mutex
	content := make(Content, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for _, name := range names {
		g.Go(func() error {
			text, err := c.templates.Template(gctx, name)
			if err != nil {
				return fmt.Errorf("template %q: %w", name, err)
			}
			mu.Lock()
			content[name] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("templates prefetched", "count", len(content))
	return content, nil
}

func (c *Composer) semanticTrials(files, descriptors []string) []domain.SemanticTrial {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return SemanticTrials(c.rng, files, descriptors)
}

func (c *Composer) render(content string, data any) string {
	out, err := c.interpolate(content, data)
	if err != nil {
		c.logger.Warn("template population failed", "err", err)
		return content
	}
	return out
}
