// Package trialgen produces the randomized experiment specification: the
// pairwise dissimilarity trials, the semantic descriptor vocabulary and the
// correlation identifier of a session.
package trialgen

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
)

// DefaultExtension is the stimulus file extension accepted by default.
const DefaultExtension = ".wav"

// Generator builds ExperimentSpecs. It is safe for concurrent use; the
// underlying random source is serialized.
type Generator struct {
	fsys      fs.FS
	files     []string
	extension string
	now       func() time.Time
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures the Generator.
type Option func(*Generator)

// WithDir reads candidate stimuli from a directory on disk.
func WithDir(dir string) Option {
	return func(g *Generator) {
		g.fsys = os.DirFS(dir)
	}
}

// WithFS reads candidate stimuli from the root of fsys.
func WithFS(fsys fs.FS) Option {
	return func(g *Generator) {
		g.fsys = fsys
	}
}

// WithFiles uses a fixed candidate list instead of listing a directory.
func WithFiles(files ...string) Option {
	return func(g *Generator) {
		g.files = append([]string(nil), files...)
	}
}

// WithExtension sets the accepted stimulus extension (default ".wav").
func WithExtension(ext string) Option {
	return func(g *Generator) {
		g.extension = ext
	}
}

// WithRand injects the random source. Tests pass a seeded PCG.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// WithClock injects the time source used for spec IDs.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator. Without WithDir, WithFS or WithFiles every call to
// MakeSpec fails with a ConfigurationError.
func New(opts ...Option) *Generator {
	g := &Generator{
		extension: DefaultExtension,
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// GenerateSpecID derives a correlation identifier from the current time and a
// random salt. It is not a secret.
func (g *Generator) GenerateSpecID() string {
	var salt float64
	g.withRand(func(r *rand.Rand) { salt = r.Float64() })

	sum := md5.Sum([]byte(g.now().String() + strconv.FormatFloat(salt, 'f', -1, 64)))
	return hex.EncodeToString(sum[:])
}

// ListCandidateFiles returns the eligible stimulus filenames in lexical order.
func (g *Generator) ListCandidateFiles() ([]string, error) {
	var files []string
	switch {
	case g.files != nil:
		files = append(files, g.files...)
	case g.fsys != nil:
		entries, err := fs.ReadDir(g.fsys, ".")
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "cannot list stimulus directory", Cause: err}
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), g.extension) {
				continue
			}
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if len(files) < 2 {
		return nil, &domain.ConfigurationError{
			Reason: fmt.Sprintf("need at least 2 stimulus files with extension %q, found %d", g.extension, len(files)),
		}
	}
	return files, nil
}

// MakeAllPairs returns every unordered combination (i, j) with i <= j,
// self-pairs included, each presented in a random order.
func (g *Generator) MakeAllPairs(files []string) []domain.Trial {
	pairs := make([]domain.Trial, 0, len(files)*(len(files)+1)/2)
	g.withRand(func(r *rand.Rand) {
		for i := range files {
			for j := i; j < len(files); j++ {
				left, right := files[i], files[j]
				if r.IntN(2) == 1 {
					left, right = right, left
				}
				pairs = append(pairs, domain.Trial{Left: left, Right: right})
			}
		}
	})
	return pairs
}

// MakeTrials shuffles all pairs and numbers them sequentially.
func (g *Generator) MakeTrials(files []string) []domain.Trial {
	trials := g.MakeAllPairs(files)
	g.withRand(func(r *rand.Rand) { Shuffle(r, trials) })
	for i := range trials {
		trials[i].TrialNumber = i + 1
		trials[i].TotalTrials = len(trials)
	}
	return trials
}

// MakeSemanticDescriptors returns the descriptor vocabulary in random order.
func (g *Generator) MakeSemanticDescriptors() []string {
	var descriptors []string
	g.withRand(func(r *rand.Rand) { descriptors = Shuffled(r, semanticDescriptors) })
	return descriptors
}

// MakePracticeTrials returns the fixed practice set.
func (g *Generator) MakePracticeTrials() []domain.Trial {
	return PracticeTrials()
}

// MakeSpec assembles a complete ExperimentSpec.
func (g *Generator) MakeSpec() (*domain.ExperimentSpec, error) {
	candidates, err := g.ListCandidateFiles()
	if err != nil {
		return nil, err
	}

	var files []string
	g.withRand(func(r *rand.Rand) { files = Shuffled(r, candidates) })

	spec := &domain.ExperimentSpec{
		SpecID:              g.GenerateSpecID(),
		PracticeTrials:      g.MakePracticeTrials(),
		Trials:              g.MakeTrials(candidates),
		Files:               files,
		SemanticDescriptors: g.MakeSemanticDescriptors(),
	}

	g.logger.Debug("experiment spec generated",
		"spec_id", spec.SpecID,
		"files", len(spec.Files),
		"trials", len(spec.Trials),
	)
	return spec, nil
}

// FetchSpec implements ports.SpecSource for in-process sessions.
func (g *Generator) FetchSpec(ctx context.Context) (*domain.ExperimentSpec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.MakeSpec()
}

// withRand serializes access to the random source.
func (g *Generator) withRand(fn func(*rand.Rand)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.rng)
}
