// Package branch selects one of two language arms from the screening answer.
//
// Only the selected arm is ever built. Arms are built lazily, the moment they
// are entered, so the screening answer must be known by then; entering an arm
// earlier is an error instead of a silent full run.
package branch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
)

// Language identifies an arm.
type Language int

const (
	English Language = iota + 1
	NonEnglish
)

func (l Language) String() string {
	switch l {
	case English:
		return "english"
	case NonEnglish:
		return "non_english"
	}
	return "unknown"
}

// Builder constructs an arm's subtree. It is called at most once.
type Builder func(ctx context.Context) (flow.Block, error)

// Controller holds the screening answer shared by both arms.
type Controller struct {
	logger *slog.Logger

	mu       sync.Mutex
	answered bool
	selected Language
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller with no screening answer.
func New(opts ...Option) *Controller {
	c := &Controller{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Screen records the screening answer. The first answer wins: repeating it is
// a no-op, a different one fails with ErrAlreadyScreened.
func (c *Controller) Screen(nativeEnglish bool) error {
	lang := NonEnglish
	if nativeEnglish {
		lang = English
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answered {
		if c.selected == lang {
			return nil
		}
		return fmt.Errorf("screened as %s, got %s: %w", c.selected, lang, domain.ErrAlreadyScreened)
	}
	c.answered = true
	c.selected = lang
	c.logger.Info("language screening answered", "arm", lang.String())
	return nil
}

// Selected returns the selected arm, if screening has been answered.
func (c *Controller) Selected() (Language, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.answered
}

// Arm creates the block standing for lang in the flow tree.
func (c *Controller) Arm(id string, lang Language, build Builder) *Arm {
	return &Arm{
		Base:  flow.NewBase(id, lang.String(), domain.BlockArm, domain.SectionNone),
		ctrl:  c,
		lang:  lang,
		build: build,
	}
}
