package compose

import (
	"context"

	"github.com/aretw0/timbre/internal/branch"
	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/progress"
	"github.com/aretw0/timbre/pkg/domain"
)

// Tree is the composed study for one session.
//
//	Full       = Seq[Experiment, complete]
//	Experiment = Seq[welcome?, headphones?, questionnaire, English, NonEnglish, feedback]
//
// Stop is run separately, only after a cancelled session.
type Tree struct {
	Full       *flow.Sequence
	Experiment *flow.Sequence
	Stop       *flow.Leaf

	Controller *branch.Controller
	English    *branch.Arm
	NonEnglish *branch.Arm
}

// Compose prefetches the content and builds the tree for spec. Arms are built
// when entered; the selected one attaches its parts to tracker (if not nil).
func (c *Composer) Compose(ctx context.Context, spec *domain.ExperimentSpec, tracker *progress.Tracker) (*Tree, error) {
	content, err := c.Prefetch(ctx, c.Templates()...)
	if err != nil {
		return nil, err
	}
	return c.Build(content, spec, tracker), nil
}

// Build assembles the tree from already fetched content.
func (c *Composer) Build(content Content, spec *domain.ExperimentSpec, tracker *progress.Tracker) *Tree {
	s := &sections{c: c, content: content, spec: spec}
	ctrl := branch.New(branch.WithLogger(c.logger))

	const root = "experiment"
	english := ctrl.Arm(join(root, branch.English.String()), branch.English, func(context.Context) (flow.Block, error) {
		id := join(root, branch.English.String())
		audition := s.Audition(id, true)
		practice, _ := s.Practice(id)
		dissim, loops := s.Dissimilarity(id)
		semantic, semLoop := s.Semantic(id)
		if tracker != nil {
			tracker.Attach(progress.Parts{
				Audition:      []flow.Block{audition},
				Practice:      []flow.Block{practice},
				Dissimilarity: asBlocks(loops),
				Semantic:      []flow.Block{semLoop},
				NumDissim:     len(spec.Trials),
				NumSemantic:   spec.NumSemantic(),
			})
		}
		c.logger.Debug("arm built", "arm", "english", "chunks", len(loops), "semantic_trials", semLoop.Len())
		return flow.NewSequence(id+"/sections", "english_sections", domain.SectionNone,
			audition, practice, dissim, s.AuditionAgain(id), semantic), nil
	})
	nonEnglish := ctrl.Arm(join(root, branch.NonEnglish.String()), branch.NonEnglish, func(context.Context) (flow.Block, error) {
		id := join(root, branch.NonEnglish.String())
		audition := s.Audition(id, false)
		practice, _ := s.Practice(id)
		dissim, loops := s.Dissimilarity(id)
		if tracker != nil {
			tracker.Attach(progress.Parts{
				Audition:      []flow.Block{audition},
				Practice:      []flow.Block{practice},
				Dissimilarity: asBlocks(loops),
				NumDissim:     len(spec.Trials),
			})
		}
		c.logger.Debug("arm built", "arm", "non_english", "chunks", len(loops))
		return flow.NewSequence(id+"/sections", "non_english_sections", domain.SectionNone,
			audition, practice, dissim), nil
	})

	var children []flow.Block
	if c.welcome {
		children = append(children, s.Welcome(root))
	}
	if c.headphones {
		children = append(children, s.Headphones(root))
	}
	children = append(children,
		s.Questionnaire(root, ctrl),
		english,
		nonEnglish,
		s.Feedback(root),
	)
	experiment := flow.NewSequence(root, root, domain.SectionNone, children...)
	full := flow.NewSequence("full", "full", domain.SectionNone, experiment, s.Complete("full"))

	return &Tree{
		Full:       full,
		Experiment: experiment,
		Stop:       s.Stop(""),
		Controller: ctrl,
		English:    english,
		NonEnglish: nonEnglish,
	}
}

func asBlocks[B flow.Block](blocks []B) []flow.Block {
	out := make([]flow.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
	}
	return out
}
