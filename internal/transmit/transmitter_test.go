package transmit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/testutils"
	"github.com/aretw0/timbre/internal/transmit"
	"github.com/aretw0/timbre/pkg/adapters/memory"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{ calls int }

func (s *failingSink) Submit(context.Context, domain.Submission) error {
	s.calls++
	return errors.New("503 Service Unavailable")
}

type recordingExporter struct {
	got  []domain.Submission
	path string
	err  error
}

func (e *recordingExporter) Export(_ context.Context, sub domain.Submission) (string, error) {
	e.got = append(e.got, sub)
	return e.path, e.err
}

func run(t *testing.T, host *testutils.ScriptedHost, tr *transmit.Transmitter, cancel bool) *flow.Runtime {
	t.Helper()
	rt := flow.NewRuntime(host, flow.NewSession("spec-42"))

	var rater flow.Block = flow.NewLeaf("r", "dissimilarity", domain.StepDissimilarity, domain.SectionDissimilarity, "")
	if cancel {
		rater = flow.NewLeaf("r", "dissimilarity", domain.StepDissimilarity, domain.SectionDissimilarity, "",
			flow.WithResponseHandler(func(_ context.Context, rt *flow.Runtime, _ *domain.Response) error {
				rt.Cancel("stop")
				return nil
			}))
	}
	experiment := flow.NewSequence("experiment", "experiment", domain.SectionNone, rater)
	tr.Attach(experiment, rt)
	require.NoError(t, rt.Run(context.Background(), experiment))
	return rt
}

func TestTransmitter_Delivers(t *testing.T) {
	sink := memory.NewStore()
	host := testutils.NewScriptedHost(nil)
	tr := transmit.New(sink)

	run(t, host, tr, false)

	res := tr.Result()
	assert.Equal(t, transmit.StatusDelivered, res.Status)
	assert.Equal(t, 1, res.Records)

	sub, err := sink.Load(context.Background(), "spec-42")
	require.NoError(t, err)
	require.Len(t, sub.Responses, 1)
	assert.Equal(t, "spec-42", sub.Responses[0].SpecID)

	require.Len(t, host.Notices(), 1)
	assert.Equal(t, transmit.MessageComplete, host.Notices()[0].Message)
}

func TestTransmitter_CancelledSkips(t *testing.T) {
	sink := memory.NewStore()
	host := testutils.NewScriptedHost(nil)
	tr := transmit.New(sink)

	rt := run(t, host, tr, true)

	assert.Equal(t, transmit.StatusSkipped, tr.Result().Status)
	assert.Zero(t, sink.Len())
	assert.Empty(t, host.Notices())
	assert.Equal(t, 1, rt.Session().Len(), "partial records are kept")
}

func TestTransmitter_FallbackExport(t *testing.T) {
	sink := &failingSink{}
	exporter := &recordingExporter{path: "/tmp/responses-spec-42.json"}
	host := testutils.NewScriptedHost(nil)
	var observed []transmit.Result
	tr := transmit.New(sink,
		transmit.WithExporter(exporter),
		transmit.WithContact("study@example.org"),
		transmit.WithObserver(func(_ context.Context, r transmit.Result) { observed = append(observed, r) }),
	)

	run(t, host, tr, false)

	res := tr.Result()
	assert.Equal(t, 1, sink.calls, "exactly one attempt")
	assert.Equal(t, transmit.StatusExported, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrTransmission)
	assert.Equal(t, exporter.path, res.ExportPath)
	require.Len(t, exporter.got, 1)
	assert.Len(t, exporter.got[0].Responses, 1)
	require.Len(t, observed, 1)

	notices := host.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NoticeWarning, notices[0].Level)
	assert.Equal(t, exporter.path, notices[0].ExportPath)
	assert.Contains(t, notices[0].Message, "study@example.org")
}

func TestTransmitter_ExportFails(t *testing.T) {
	exporter := &recordingExporter{err: errors.New("disk full")}
	host := testutils.NewScriptedHost(nil)
	tr := transmit.New(&failingSink{}, transmit.WithExporter(exporter))

	rt := run(t, host, tr, false)

	res := tr.Result()
	assert.Equal(t, transmit.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrTransmission)
	assert.Equal(t, 1, rt.Session().Len())
	require.Len(t, host.Notices(), 1)
}

func TestTransmitter_FailedRunAborts(t *testing.T) {
	boom := errors.New("display gone")
	sink := memory.NewStore()
	host := testutils.NewScriptedHost(func(_ context.Context, s *domain.Step) (*domain.Response, error) {
		if s.BlockID == "second" {
			return nil, boom
		}
		return testutils.Values("rating", 1), nil
	})
	tr := transmit.New(sink)
	rt := flow.NewRuntime(host, flow.NewSession("spec-42"))
	experiment := flow.NewSequence("experiment", "experiment", domain.SectionNone,
		flow.NewLeaf("first", "dissimilarity", domain.StepDissimilarity, domain.SectionDissimilarity, ""),
		flow.NewLeaf("second", "dissimilarity", domain.StepDissimilarity, domain.SectionDissimilarity, ""),
	)
	tr.Attach(experiment, rt)

	err := rt.Run(context.Background(), experiment)
	require.ErrorIs(t, err, boom)

	res := tr.Result()
	assert.Equal(t, transmit.StatusAborted, res.Status)
	assert.ErrorIs(t, res.Err, boom)
	assert.Zero(t, sink.Len())
	assert.Empty(t, host.Notices())
	assert.Equal(t, 1, rt.Session().Len())
}
