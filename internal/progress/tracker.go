// Package progress computes the weighted completion value of the active arm.
package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
)

// Weights of each section in the completion value.
const (
	AuditionWeight = 0.05
	PracticeWeight = 0.05
	RatingWeight   = 0.9
)

// Inputs are the per-section fractions and the rating counts of an arm.
type Inputs struct {
	Audition      float64
	Practice      float64
	Dissimilarity float64
	Semantic      float64
	NumDissim     int
	NumSemantic   int
}

// Weighted combines the section fractions. Without semantic trials the rating
// weight goes entirely to dissimilarity.
func Weighted(in Inputs) float64 {
	v := AuditionWeight*in.Audition + PracticeWeight*in.Practice
	ratings := in.NumDissim + in.NumSemantic
	if in.NumSemantic == 0 || ratings == 0 {
		return v + RatingWeight*in.Dissimilarity
	}
	v += RatingWeight * in.Dissimilarity * float64(in.NumDissim) / float64(ratings)
	v += RatingWeight * in.Semantic * float64(in.NumSemantic) / float64(ratings)
	return v
}

// Parts are the blocks of an arm whose leaves are counted. Dissimilarity and
// Semantic hold only the rating loops so explanations and breaks don't count.
type Parts struct {
	Audition      []flow.Block
	Practice      []flow.Block
	Dissimilarity []flow.Block
	Semantic      []flow.Block
	NumDissim     int
	NumSemantic   int
}

// Fraction returns the share of ended leaves across blocks.
func Fraction(blocks []flow.Block) float64 {
	var done, total int
	for _, b := range blocks {
		d, t := b.Leaves()
		done += d
		total += t
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// Inputs snapshots the current fractions.
func (p Parts) Inputs() Inputs {
	return Inputs{
		Audition:      Fraction(p.Audition),
		Practice:      Fraction(p.Practice),
		Dissimilarity: Fraction(p.Dissimilarity),
		Semantic:      Fraction(p.Semantic),
		NumDissim:     p.NumDissim,
		NumSemantic:   p.NumSemantic,
	}
}

// Tracker recomputes progress on every leaf transition of the attached arm
// and publishes changes through the runtime.
type Tracker struct {
	logger *slog.Logger

	mu       sync.Mutex
	parts    *Parts
	last     float64
	reported bool
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates a tracker with no arm attached.
func New(opts ...Option) *Tracker {
	t := &Tracker{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach starts tracking parts. It is called when an arm is built.
func (t *Tracker) Attach(parts Parts) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parts = &parts
	t.logger.Debug("progress tracking attached", "num_dissim", parts.NumDissim, "num_semantic", parts.NumSemantic)
}

// Value returns the current completion value, 0 before an arm is attached.
func (t *Tracker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.parts == nil {
		return 0
	}
	return Weighted(t.parts.Inputs())
}

// Observe subscribes the tracker to rt's leaf transitions.
func (t *Tracker) Observe(rt *flow.Runtime) {
	update := func(ctx context.Context, e *domain.BlockEvent) {
		if e.BlockKind != domain.BlockLeaf {
			return
		}
		if v, changed := t.update(); changed {
			rt.EmitProgress(ctx, v)
		}
	}
	rt.Subscribe(domain.LifecycleHooks{
		OnBlockEnter: update,
		OnBlockEnd:   update,
	})
}

func (t *Tracker) update() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.parts == nil {
		return 0, false
	}
	v := Weighted(t.parts.Inputs())
	if t.reported && v == t.last {
		return v, false
	}
	t.last = v
	t.reported = true
	return v, true
}
