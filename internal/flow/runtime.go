package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
	"github.com/google/uuid"
)

// Runtime executes a block tree against a ScreenHost and broadcasts lifecycle
// events to its observers.
type Runtime struct {
	host    ports.ScreenHost
	session *Session
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu     sync.Mutex
	hooks  domain.LifecycleHooks
	target Block
}

// RuntimeOption configures the Runtime.
type RuntimeOption func(*Runtime)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) RuntimeOption {
	return func(r *Runtime) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithClock injects the time source used for record timestamps.
func WithClock(now func() time.Time) RuntimeOption {
	return func(r *Runtime) {
		r.now = now
	}
}

// WithIDGenerator injects the record ID generator.
func WithIDGenerator(fn func() string) RuntimeOption {
	return func(r *Runtime) {
		r.newID = fn
	}
}

// NewRuntime creates a runtime writing into session.
func NewRuntime(host ports.ScreenHost, session *Session, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		host:    host,
		session: session,
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session returns the log the runtime writes into.
func (r *Runtime) Session() *Session {
	return r.session
}

// Host returns the execution substrate.
func (r *Runtime) Host() ports.ScreenHost {
	return r.host
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Subscribe adds observers after construction.
func (r *Runtime) Subscribe(hooks domain.LifecycleHooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = r.hooks.Merge(hooks)
}

// SetCancelTarget sets the block ended by Cancel.
func (r *Runtime) SetCancelTarget(b Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = b
}

// Run executes root. When no cancel target was set, root becomes the target.
func (r *Runtime) Run(ctx context.Context, root Block) error {
	r.mu.Lock()
	if r.target == nil {
		r.target = root
	}
	r.mu.Unlock()
	return root.Run(ctx, r)
}

// Cancel sets the session's cancellation flag and ends the cancel target,
// unwinding the active chain. Finalization side effects check the flag.
func (r *Runtime) Cancel(reason string) {
	if !r.session.Cancel(reason) {
		return
	}
	r.logger.Info("session cancelled", "spec_id", r.session.SpecID(), "reason", reason)

	r.mu.Lock()
	target := r.target
	r.mu.Unlock()
	if target != nil {
		target.End()
	}
}

// EmitProgress publishes a completion value to the host and the hooks.
func (r *Runtime) EmitProgress(ctx context.Context, value float64) {
	r.host.Progress(ctx, value)

	hooks := r.currentHooks()
	if hooks.OnProgress != nil {
		hooks.OnProgress(ctx, &domain.ProgressEvent{
			EventBase: r.eventBase(domain.EventProgress),
			Value:     value,
		})
	}
}

func (r *Runtime) currentHooks() domain.LifecycleHooks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hooks
}

func (r *Runtime) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: r.now(),
		Type:      t,
		SpecID:    r.session.SpecID(),
	}
}

func (r *Runtime) blockEvent(t domain.EventType, b Block) *domain.BlockEvent {
	e := &domain.BlockEvent{
		EventBase: r.eventBase(t),
		BlockID:   b.ID(),
		BlockKind: b.Kind(),
		Name:      b.Name(),
		Section:   b.Section(),
	}
	if leaf, ok := b.(*Leaf); ok {
		e.StepKind = leaf.StepKind()
	}
	return e
}

func (r *Runtime) emitEnter(ctx context.Context, b Block) {
	r.logger.Debug("block enter", "block_id", b.ID(), "kind", b.Kind())
	if hooks := r.currentHooks(); hooks.OnBlockEnter != nil {
		hooks.OnBlockEnter(ctx, r.blockEvent(domain.EventBlockEnter, b))
	}
}

func (r *Runtime) emitEnd(ctx context.Context, b Block, outcome Outcome) {
	r.logger.Debug("block end", "block_id", b.ID(), "kind", b.Kind(), "cancelled", outcome.Cancelled)
	if hooks := r.currentHooks(); hooks.OnBlockEnd != nil {
		e := r.blockEvent(domain.EventBlockEnd, b)
		e.Recorded = outcome.Recorded
		e.Cancelled = outcome.Cancelled
		hooks.OnBlockEnd(ctx, e)
	}
}

func (r *Runtime) newRecord(step *domain.Step, resp *domain.Response, startedAt time.Time) domain.ResponseRecord {
	endedAt := r.now()
	return domain.ResponseRecord{
		ID:        r.newID(),
		BlockID:   step.BlockID,
		Name:      step.Name,
		Kind:      step.Kind,
		Section:   step.Section,
		Params:    step.Params,
		Values:    resp.Values,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Duration:  endedAt.Sub(startedAt),
	}
}
