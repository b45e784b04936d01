package flow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/testutils"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(host *testutils.ScriptedHost, opts ...flow.RuntimeOption) *flow.Runtime {
	return flow.NewRuntime(host, flow.NewSession("spec-1"), opts...)
}

func rating(id string) *flow.Leaf {
	return flow.NewLeaf(id, id, domain.StepDissimilarity, domain.SectionDissimilarity, "rate")
}

func TestSequence_RunsChildrenInOrder(t *testing.T) {
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		return testutils.Values("rating", 3), nil
	})
	rt := newRuntime(host)

	intro := flow.NewLeaf("intro", "intro", domain.StepText, domain.SectionNone, "hello")
	seq := flow.NewSequence("root", "root", domain.SectionNone, intro, rating("a"), rating("b"))

	require.NoError(t, rt.Run(context.Background(), seq))

	assert.Equal(t, []string{"intro", "a", "b"}, host.StepIDs())
	assert.Equal(t, flow.StatusEnded, seq.Status())

	records := rt.Session().Records()
	require.Len(t, records, 2, "text screens do not record")
	assert.Equal(t, "a", records[0].BlockID)
	assert.Equal(t, "b", records[1].BlockID)
	for _, r := range records {
		assert.Equal(t, "spec-1", r.SpecID)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, 3, r.Values["rating"])
	}

	done, total := seq.Leaves()
	assert.Equal(t, 3, done)
	assert.Equal(t, 3, total)
}

func TestBlock_RunTwiceFails(t *testing.T) {
	rt := newRuntime(testutils.NewScriptedHost(nil))
	leaf := rating("a")
	require.NoError(t, rt.Run(context.Background(), leaf))

	err := leaf.Run(context.Background(), rt)
	assert.ErrorIs(t, err, domain.ErrBlockEnded)
	assert.Equal(t, 1, rt.Session().Len())
}

func TestBlock_EndBeforeRunIsZeroDuration(t *testing.T) {
	host := testutils.NewScriptedHost(nil)
	rt := newRuntime(host)

	skipped := rating("skipped")
	skipped.End()

	var ended bool
	skipped.OnEnd(func(context.Context, flow.Block) { ended = true })

	seq := flow.NewSequence("root", "root", domain.SectionNone, skipped, rating("next"))
	require.NoError(t, rt.Run(context.Background(), seq))

	assert.True(t, ended)
	assert.Equal(t, []string{"next"}, host.StepIDs(), "skipped leaf is never presented")
	require.Equal(t, 1, rt.Session().Len())
	assert.Equal(t, "next", rt.Session().Records()[0].BlockID)
}

func TestLoop_MaterializesLazily(t *testing.T) {
	host := testutils.NewScriptedHost(nil)
	rt := newRuntime(host)

	built := 0
	params := []domain.Trial{
		{Left: "a.wav", Right: "b.wav", TrialNumber: 1, TotalTrials: 2},
		{Left: "b.wav", Right: "b.wav", TrialNumber: 2, TotalTrials: 2},
	}
	loop := flow.NewLoop("dissim", "dissim", domain.SectionDissimilarity, "rate {{.Left}}", params,
		func(id, content string, p domain.Trial) flow.Block {
			built++
			return flow.NewLeaf(id, "dissim_trial", domain.StepDissimilarity, domain.SectionDissimilarity, content, flow.WithParams(p))
		})

	assert.Equal(t, 2, loop.Len())
	assert.Nil(t, loop.Children())
	assert.Zero(t, built)
	done, total := loop.Leaves()
	assert.Equal(t, 0, done)
	assert.Equal(t, 2, total)

	require.NoError(t, rt.Run(context.Background(), loop))

	assert.Equal(t, 2, built)
	assert.Equal(t, []string{"dissim/1", "dissim/2"}, host.StepIDs())
	records := rt.Session().Records()
	require.Len(t, records, 2)
	assert.Equal(t, params[0], records[0].Params)
	assert.Equal(t, params[1], records[1].Params)
}

func TestRuntime_CancelUnwindsActiveChain(t *testing.T) {
	var rt *flow.Runtime
	host := testutils.NewScriptedHost(func(ctx context.Context, s *domain.Step) (*domain.Response, error) {
		if s.BlockID == "b" {
			rt.Cancel("stop")
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return testutils.Values("rating", 1), nil
	})
	rt = newRuntime(host)

	var endedOnCancel bool
	root := flow.NewSequence("root", "root", domain.SectionNone, rating("a"), rating("b"), rating("c"))
	root.OnEnd(func(context.Context, flow.Block) {
		endedOnCancel = rt.Session().Cancelled()
	})

	require.NoError(t, rt.Run(context.Background(), root))

	assert.True(t, endedOnCancel, "end observers see the cancellation flag")
	assert.Equal(t, "stop", rt.Session().CancelReason())
	assert.Equal(t, []string{"a", "b"}, host.StepIDs())
	assert.Equal(t, 1, rt.Session().Len())
}

func TestRuntime_CancelIsIdempotent(t *testing.T) {
	rt := newRuntime(testutils.NewScriptedHost(nil))
	rt.Cancel("first")
	rt.Cancel("second")
	assert.Equal(t, "first", rt.Session().CancelReason())
}

func TestLeaf_ValidationRepresents(t *testing.T) {
	attempts := 0
	host := testutils.NewScriptedHost(func(context.Context, *domain.Step) (*domain.Response, error) {
		attempts++
		return testutils.Values("age", attempts*10), nil
	})
	rt := newRuntime(host)

	leaf := flow.NewLeaf("q", "questionnaire", domain.StepQuestionnaire, domain.SectionQuestionnaire, "form",
		flow.WithValidation(func(r *domain.Response) error {
			if r.Values["age"].(int) < 18 {
				return errors.New("age must be at least 18")
			}
			return nil
		}))

	require.NoError(t, rt.Run(context.Background(), leaf))
	assert.Equal(t, 2, attempts)
	require.Len(t, host.Notices(), 1)
	assert.Equal(t, domain.NoticeWarning, host.Notices()[0].Level)
	assert.Equal(t, 20, rt.Session().Records()[0].Values["age"])
}

func TestLeaf_ResponseHandlerRunsAfterAppend(t *testing.T) {
	rt := newRuntime(testutils.NewScriptedHost(nil))

	var seen int
	leaf := flow.NewLeaf("q", "q", domain.StepQuestionnaire, domain.SectionQuestionnaire, "",
		flow.WithResponseHandler(func(context.Context, *flow.Runtime, *domain.Response) error {
			seen = rt.Session().Len()
			return nil
		}))
	require.NoError(t, rt.Run(context.Background(), leaf))
	assert.Equal(t, 1, seen)
}

func TestLeaf_HostErrorPropagates(t *testing.T) {
	boom := errors.New("display gone")
	host := testutils.NewScriptedHost(func(context.Context, *domain.Step) (*domain.Response, error) {
		return nil, boom
	})
	rt := newRuntime(host)
	err := rt.Run(context.Background(), rating("a"))
	assert.ErrorIs(t, err, boom)
}

func TestSequence_HostErrorStopsSiblings(t *testing.T) {
	boom := errors.New("display gone")
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		if s.BlockID == "a" {
			return nil, boom
		}
		return testutils.Values("rating", 2), nil
	})
	rt := newRuntime(host)
	seq := flow.NewSequence("seq", "seq", domain.SectionDissimilarity, rating("a"), rating("b"))

	var ended error
	seq.OnEnd(func(context.Context, flow.Block) { ended = rt.Session().Err() })

	err := rt.Run(context.Background(), seq)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, host.Steps(), 1)
	assert.Equal(t, 0, rt.Session().Len())
	assert.ErrorIs(t, ended, boom)
	assert.False(t, rt.Session().Cancelled())
}

func TestLeaf_Reminder(t *testing.T) {
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		return testutils.Values("rating", 4), nil
	})
	rt := newRuntime(host)

	leaf := flow.NewLeaf("p", "practice", domain.StepDissimilarity, domain.SectionPractice, "",
		flow.WithReminder(func(r *domain.Response) (string, bool) {
			return "identical pairs are rated 0", r.Values["rating"] != 0
		}))
	require.NoError(t, rt.Run(context.Background(), leaf))

	steps := host.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, domain.StepText, steps[1].Kind)
	assert.Equal(t, 1, rt.Session().Len())
}

func TestStep_ReleasedOnEnd(t *testing.T) {
	var released bool
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		s.Defer(func() { released = true })
		return testutils.Values(), nil
	})
	rt := newRuntime(host)
	require.NoError(t, rt.Run(context.Background(), rating("a")))
	assert.True(t, released)
	assert.True(t, host.Steps()[0].Released())
}

func TestRuntime_LifecycleHooks(t *testing.T) {
	var log []string
	hooks := domain.LifecycleHooks{
		OnBlockEnter: func(_ context.Context, e *domain.BlockEvent) {
			log = append(log, fmt.Sprintf("enter %s", e.BlockID))
		},
		OnBlockEnd: func(_ context.Context, e *domain.BlockEvent) {
			log = append(log, fmt.Sprintf("end %s recorded=%v", e.BlockID, e.Recorded))
			assert.Equal(t, "spec-1", e.SpecID)
		},
		OnProgress: func(_ context.Context, e *domain.ProgressEvent) {
			log = append(log, fmt.Sprintf("progress %.1f", e.Value))
		},
	}
	host := testutils.NewScriptedHost(nil)
	rt := newRuntime(host, flow.WithLifecycleHooks(hooks))

	leaf := rating("a")
	leaf.OnEnd(func(ctx context.Context, _ flow.Block) {
		rt.EmitProgress(ctx, 0.5)
	})
	seq := flow.NewSequence("root", "root", domain.SectionNone, leaf)
	require.NoError(t, rt.Run(context.Background(), seq))

	assert.Equal(t, []string{
		"enter root",
		"enter a",
		"end a recorded=true",
		"progress 0.5",
		"end root recorded=false",
	}, log)
	assert.Equal(t, []float64{0.5}, host.ProgressValues())
}
