package timbre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/timbre/internal/compose"
	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/internal/progress"
	"github.com/aretw0/timbre/internal/transmit"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/observability"
	"github.com/aretw0/timbre/pkg/ports"
	"github.com/aretw0/timbre/templates"
)

// Cancellation reasons recorded on the session.
const (
	// ReasonStopped is recorded by Stop.
	ReasonStopped = "stopped"
	// ReasonInterrupted is recorded when the context passed to Run is done.
	ReasonInterrupted = "interrupted"
)

// Study is one participant session.
type Study struct {
	source    ports.SpecSource
	host      ports.ScreenHost
	sink      ports.ResultSink
	exporter  ports.Exporter
	templates ports.TemplateProvider
	contact   string
	hooks     domain.LifecycleHooks
	metrics   *observability.Metrics
	logger    *slog.Logger

	composeOpts []compose.Option
	runtimeOpts []flow.RuntimeOption

	mu          sync.Mutex
	spec        *domain.ExperimentSpec
	tree        *compose.Tree
	rt          *flow.Runtime
	tracker     *progress.Tracker
	transmitter *transmit.Transmitter
	running     bool
}

// Option configures a Study.
type Option func(*Study)

// WithSink sets where responses are submitted. Without a sink every finished
// session goes straight to the export fallback.
func WithSink(sink ports.ResultSink) Option {
	return func(s *Study) {
		s.sink = sink
	}
}

// WithExporter sets the fallback used when submission fails.
func WithExporter(exporter ports.Exporter) Option {
	return func(s *Study) {
		s.exporter = exporter
	}
}

// WithTemplates replaces the embedded step content.
func WithTemplates(provider ports.TemplateProvider) Option {
	return func(s *Study) {
		s.templates = provider
	}
}

// WithContact sets the address shown when responses had to be exported.
func WithContact(email string) Option {
	return func(s *Study) {
		s.contact = email
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Study) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithMetrics feeds block, progress and transmission collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Study) {
		s.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Study) {
		s.logger = logger
	}
}

// WithChunkSize sets the number of dissimilarity trials between breaks.
func WithChunkSize(size int) Option {
	return func(s *Study) {
		s.composeOpts = append(s.composeOpts, compose.WithChunkSize(size))
	}
}

// WithWelcome enables the welcome and consent section.
func WithWelcome(enabled bool) Option {
	return func(s *Study) {
		s.composeOpts = append(s.composeOpts, compose.WithWelcome(enabled))
	}
}

// WithHeadphoneCheck enables the headphone check gate.
func WithHeadphoneCheck(enabled bool) Option {
	return func(s *Study) {
		s.composeOpts = append(s.composeOpts, compose.WithHeadphoneCheck(enabled))
	}
}

// WithRand seeds the semantic block shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(s *Study) {
		s.composeOpts = append(s.composeOpts, compose.WithRand(rng))
	}
}

// WithRuntimeOptions passes options to the flow runtime (clock, record IDs).
func WithRuntimeOptions(opts ...flow.RuntimeOption) Option {
	return func(s *Study) {
		s.runtimeOpts = append(s.runtimeOpts, opts...)
	}
}

// New creates a Study that reads its spec from source and presents steps on host.
func New(source ports.SpecSource, host ports.ScreenHost, opts ...Option) (*Study, error) {
	if source == nil {
		return nil, &domain.ConfigurationError{Reason: "a spec source is required"}
	}
	if host == nil {
		return nil, &domain.ConfigurationError{Reason: "a screen host is required"}
	}
	s := &Study{
		source: source,
		host:   host,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.templates == nil {
		s.templates = templates.Default()
	}
	if s.sink == nil {
		s.sink = noSink{}
	}
	return s, nil
}

// Prepare fetches the spec and composes the flow. Run calls it when needed.
// A failed fetch or a spec no session can run is fatal and returns a
// *domain.SpecFetchError.
func (s *Study) Prepare(ctx context.Context) error {
	s.mu.Lock()
	prepared := s.tree != nil
	s.mu.Unlock()
	if prepared {
		return nil
	}

	spec, err := s.source.FetchSpec(ctx)
	if err != nil {
		return &domain.SpecFetchError{Cause: err}
	}
	if err := checkSpec(spec); err != nil {
		return &domain.SpecFetchError{Cause: err}
	}

	opts := append([]compose.Option{compose.WithLogger(s.logger)}, s.composeOpts...)
	composer := compose.New(s.templates, opts...)
	tracker := progress.New(progress.WithLogger(s.logger))

	tree, err := composer.Compose(ctx, spec, tracker)
	if err != nil {
		return fmt.Errorf("failed to compose flow: %w", err)
	}

	hooks := s.hooks
	if s.metrics != nil {
		hooks = hooks.Merge(s.metrics.Hooks())
	}
	rtOpts := append([]flow.RuntimeOption{
		flow.WithLogger(s.logger),
		flow.WithLifecycleHooks(hooks),
	}, s.runtimeOpts...)
	rt := flow.NewRuntime(s.host, flow.NewSession(spec.SpecID), rtOpts...)
	tracker.Observe(rt)

	tOpts := []transmit.Option{
		transmit.WithLogger(s.logger),
		transmit.WithContact(s.contact),
	}
	if s.exporter != nil {
		tOpts = append(tOpts, transmit.WithExporter(s.exporter))
	}
	if s.metrics != nil {
		m := s.metrics
		tOpts = append(tOpts, transmit.WithObserver(func(_ context.Context, res transmit.Result) {
			m.ObserveTransmission(string(res.Status))
		}))
	}
	transmitter := transmit.New(s.sink, tOpts...)
	transmitter.Attach(tree.Experiment, rt)
	rt.SetCancelTarget(tree.Full)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree != nil {
		// A concurrent Prepare published first.
		return nil
	}
	s.spec, s.tree, s.rt, s.tracker, s.transmitter = spec, tree, rt, tracker, transmitter
	s.logger.Info("study prepared",
		"spec_id", spec.SpecID,
		"files", len(spec.Files),
		"trials", len(spec.Trials),
		"semantic_trials", spec.NumSemantic(),
	)
	return nil
}

// Run executes the session to its end. A stopped session shows the stop
// screen and returns an error wrapping domain.ErrCancelled. Cancelling ctx
// stops the session the same way Stop does.
func (s *Study) Run(ctx context.Context) error {
	if err := s.Prepare(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("study is already running")
	}
	s.running = true
	rt, tree := s.rt, s.tree
	s.mu.Unlock()

	release := context.AfterFunc(ctx, func() { rt.Cancel(ReasonInterrupted) })
	err := rt.Run(context.WithoutCancel(ctx), tree.Full)
	release()
	if err != nil {
		return err
	}

	session := rt.Session()
	if !session.Cancelled() {
		return nil
	}
	if stopErr := tree.Stop.Run(context.WithoutCancel(ctx), rt); stopErr != nil {
		s.logger.Warn("stop screen failed", "err", stopErr)
	}
	return fmt.Errorf("%w: %s", domain.ErrCancelled, session.CancelReason())
}

// Stop ends the running session. Responses collected so far stay available
// through Records and are not transmitted. It reports false when the session
// was not prepared or was already stopped.
func (s *Study) Stop() bool {
	s.mu.Lock()
	rt := s.rt
	s.mu.Unlock()
	if rt == nil || rt.Session().Cancelled() {
		return false
	}
	rt.Cancel(ReasonStopped)
	return true
}

// Spec returns the session's spec, or nil before Prepare.
func (s *Study) Spec() *domain.ExperimentSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Records returns a copy of the responses collected so far.
func (s *Study) Records() []domain.ResponseRecord {
	s.mu.Lock()
	rt := s.rt
	s.mu.Unlock()
	if rt == nil {
		return nil
	}
	return rt.Session().Records()
}

// Progress returns the current weighted completion (0.0 to 1.0).
func (s *Study) Progress() float64 {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker == nil {
		return 0
	}
	return tracker.Value()
}

// Result reports what finalization did.
func (s *Study) Result() transmit.Result {
	s.mu.Lock()
	t := s.transmitter
	s.mu.Unlock()
	if t == nil {
		return transmit.Result{Status: transmit.StatusPending}
	}
	return t.Result()
}

// checkSpec rejects specs no session can run.
func checkSpec(spec *domain.ExperimentSpec) error {
	switch {
	case spec == nil:
		return errors.New("empty spec")
	case spec.SpecID == "":
		return &domain.ConfigurationError{Reason: "spec has no specId"}
	case len(spec.Files) < 2:
		return &domain.ConfigurationError{Reason: fmt.Sprintf("spec needs at least 2 stimuli, got %d", len(spec.Files))}
	case len(spec.Trials) == 0:
		return &domain.ConfigurationError{Reason: "spec has no trials"}
	}
	return nil
}

type noSink struct{}

func (noSink) Submit(context.Context, domain.Submission) error {
	return fmt.Errorf("%w: no result endpoint configured", domain.ErrTransmission)
}
