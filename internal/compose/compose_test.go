package compose_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/aretw0/timbre/internal/compose"
	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/progress"
	"github.com/aretw0/timbre/internal/testutils"
	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/aretw0/timbre/pkg/adapters/memory"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trials(n int) []domain.Trial {
	out := make([]domain.Trial, n)
	for i := range out {
		out[i] = domain.Trial{Left: "a.wav", Right: "b.wav", TrialNumber: i + 1, TotalTrials: n}
	}
	return out
}

func contentFor(c *compose.Composer) compose.Content {
	content := compose.Content{}
	for _, name := range c.Templates() {
		content[name] = name
	}
	return content
}

func testSpec() *domain.ExperimentSpec {
	g := trialgen.New(
		trialgen.WithFiles("a.wav", "b.wav", "c.wav"),
		trialgen.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	spec, err := g.MakeSpec()
	if err != nil {
		panic(err)
	}
	return spec
}

func TestChunk(t *testing.T) {
	chunks := compose.Chunk(trials(150), 70)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 70)
	assert.Len(t, chunks[1], 70)
	assert.Len(t, chunks[2], 10)
	assert.Equal(t, 141, chunks[2][0].TrialNumber, "order is preserved")

	assert.Len(t, compose.Chunk(trials(140), 70), 2)
	assert.Len(t, compose.Chunk(trials(5), 70), 1)
	assert.Empty(t, compose.Chunk([]domain.Trial{}, 70))
}

func TestDissimilarityBlock_Layout(t *testing.T) {
	c := compose.New(memory.NewTemplates(nil), compose.WithChunkSize(70))
	spec := &domain.ExperimentSpec{SpecID: "s", Trials: trials(150)}
	tree := c.Build(contentFor(c), spec, nil)
	require.NoError(t, tree.Controller.Screen(false))

	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		if s.Kind == domain.StepQuestionnaire {
			return testutils.Values("country_childhood", "Brazil"), nil
		}
		return testutils.Values("rating", 1), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession("s"))
	require.NoError(t, rt.Run(context.Background(), tree.NonEnglish))

	var explanations, breaks, completes, ratings int
	var trialNumbers []int
	for _, step := range host.Steps() {
		if step.Section != domain.SectionDissimilarity {
			continue
		}
		switch step.Name {
		case compose.TplDissimilarityExplanation:
			explanations++
			assert.Zero(t, ratings, "explanation comes first")
		case compose.TplDissimilarityBreak:
			breaks++
		case compose.TplDissimilarityComplete:
			completes++
			assert.Equal(t, 150, ratings, "completion comes last")
		case compose.NameDissimilarity:
			ratings++
			trialNumbers = append(trialNumbers, step.Params.(domain.Trial).TrialNumber)
			assert.Equal(t, 150, step.Params.(domain.Trial).TotalTrials)
		}
	}
	assert.Equal(t, 1, explanations)
	assert.Equal(t, 2, breaks)
	assert.Equal(t, 1, completes)
	assert.Equal(t, 150, ratings)
	for i, n := range trialNumbers {
		assert.Equal(t, i+1, n)
	}
}

func TestSemanticTrials(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	files := []string{"a.wav", "b.wav", "c.wav"}
	descriptors := []string{"bright", "warm"}

	got := compose.SemanticTrials(rng, files, descriptors)
	require.Len(t, got, 6)
	for i, trial := range got {
		assert.Equal(t, i+1, trial.TrialNumber)
		assert.Equal(t, 6, trial.TotalTrials)
		assert.Equal(t, descriptors[i/3], trial.Descriptor)
	}
	for d := range descriptors {
		seen := map[string]bool{}
		for _, trial := range got[d*3 : d*3+3] {
			seen[trial.File] = true
		}
		assert.Len(t, seen, 3, "each descriptor covers every file once")
	}
}

func TestCompose_EnglishSession(t *testing.T) {
	spec := testSpec()
	provider := memory.NewTemplates(nil)
	c := compose.New(provider)
	for _, name := range c.Templates() {
		provider.Set(name, name)
	}
	provider.Set(compose.TplDissimilarityRating, "{{.Left}} vs {{.Right}}")

	tracker := progress.New()
	tree, err := c.Compose(context.Background(), spec, tracker)
	require.NoError(t, err)

	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		switch s.Kind {
		case domain.StepQuestionnaire:
			return testutils.Values("country_childhood", "Ireland", "age", "31"), nil
		case domain.StepDissimilarity, domain.StepSemantic:
			return testutils.Values("rating", "0"), nil
		case domain.StepFeedback:
			return testutils.Values("feedback", "fine"), nil
		}
		return testutils.Values(), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession(spec.SpecID))
	tracker.Observe(rt)
	require.NoError(t, rt.Run(context.Background(), tree.Full))

	assert.True(t, tree.English.Built())
	assert.False(t, tree.NonEnglish.Built())

	counts := map[string]int{}
	for _, r := range rt.Session().Records() {
		counts[r.Name]++
	}
	assert.Equal(t, 1, counts[compose.TplQuestionnaire])
	assert.Equal(t, 5, counts[compose.NamePractice])
	assert.Equal(t, 6, counts[compose.NameDissimilarity])
	assert.Equal(t, 3*27, counts[compose.NameSemantic])
	assert.Equal(t, 1, counts[compose.TplFeedback])

	var rendered bool
	for _, s := range host.Steps() {
		if s.Name == compose.NameDissimilarity && strings.Contains(s.Content, " vs ") {
			rendered = true
		}
	}
	assert.True(t, rendered, "rating content is populated from the trial")
	assert.InDelta(t, 1, tracker.Value(), 1e-9)
	assert.Equal(t, compose.TplExperimentComplete, host.Steps()[len(host.Steps())-1].Name)
}

func TestCompose_PracticeReminderOnSelfPair(t *testing.T) {
	spec := testSpec()
	c := compose.New(memory.NewTemplates(nil))
	tree := c.Build(contentFor(c), spec, nil)
	require.NoError(t, tree.Controller.Screen(false))

	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		return testutils.Values("rating", 5), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession(spec.SpecID))
	require.NoError(t, rt.Run(context.Background(), tree.NonEnglish))

	var reminders int
	for _, s := range host.Steps() {
		if s.Content == compose.TplPracticeReminder {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders, "exactly one practice pair is identical")
}

func TestCompose_ConsentRefusalCancels(t *testing.T) {
	spec := testSpec()
	c := compose.New(memory.NewTemplates(nil), compose.WithWelcome(true))
	tree := c.Build(contentFor(c), spec, nil)

	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		if s.Kind == domain.StepConsent {
			return testutils.Values("consent", "false"), nil
		}
		return testutils.Values(), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession(spec.SpecID))
	require.NoError(t, rt.Run(context.Background(), tree.Full))

	assert.True(t, rt.Session().Cancelled())
	assert.Equal(t, compose.ReasonConsent, rt.Session().CancelReason())
	require.Len(t, host.Notices(), 1)
	assert.Equal(t, compose.TplConsentFailure, host.Notices()[0].Message)
	for _, s := range host.Steps() {
		assert.NotEqual(t, domain.StepQuestionnaire, s.Kind, "nothing runs after refusal")
	}
	assert.Equal(t, 1, rt.Session().Len(), "the consent answer is kept")
}

func TestCompose_HeadphoneFailureCancels(t *testing.T) {
	c := compose.New(memory.NewTemplates(nil), compose.WithHeadphoneCheck(true))
	tree := c.Build(contentFor(c), testSpec(), nil)

	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		return testutils.Values("passed", false), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession("s"))
	require.NoError(t, rt.Run(context.Background(), tree.Full))
	assert.Equal(t, compose.ReasonHeadphones, rt.Session().CancelReason())
}

func TestCompose_QuestionnaireValidation(t *testing.T) {
	c := compose.New(memory.NewTemplates(nil))
	tree := c.Build(contentFor(c), testSpec(), nil)

	attempts := 0
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		if s.Kind == domain.StepQuestionnaire {
			attempts++
			if attempts == 1 {
				return testutils.Values("age", 20), nil
			}
			return testutils.Values("country_childhood", "Japan"), nil
		}
		return testutils.Values("rating", 1), nil
	})
	rt := flow.NewRuntime(host, flow.NewSession("s"))
	require.NoError(t, rt.Run(context.Background(), tree.Full))

	assert.Equal(t, 2, attempts)
	assert.True(t, tree.NonEnglish.Built())
	assert.False(t, tree.English.Built())
}

func TestPrefetch_MissingTemplate(t *testing.T) {
	c := compose.New(memory.NewTemplates(map[string]string{"welcome_1": "hi"}))
	_, err := c.Compose(context.Background(), testSpec(), nil)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestIsEnglishSpeakingCountry(t *testing.T) {
	assert.Equal(t, 44, compose.EnglishSpeakingCountries())
	for _, c := range []string{"United Kingdom", "Virgin Islands, U.S.", "Saint Vincent and The Grenadines"} {
		assert.True(t, compose.IsEnglishSpeakingCountry(c), c)
	}
	for _, c := range []string{"France", "united kingdom", ""} {
		assert.False(t, compose.IsEnglishSpeakingCountry(c), fmt.Sprintf("%q", c))
	}
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, compose.ValidateRating(testutils.Values("rating", "7")))
	assert.Error(t, compose.ValidateRating(testutils.Values()))
	assert.Error(t, compose.ValidateRating(testutils.Values("rating", 11)))
	assert.Error(t, compose.ValidateRating(testutils.Values("rating", "loud")))
}
