package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Status is the lifecycle state of a block.
type Status int32

const (
	StatusIdle Status = iota
	StatusRunning
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusEnded:
		return "ended"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Hook observes a block transition.
type Hook func(ctx context.Context, b Block)

// Block is a node of the flow tree.
type Block interface {
	ID() string
	Name() string
	Kind() domain.BlockKind
	Section() domain.Section
	Status() Status

	// Run drives the block from Idle to Ended. It returns nil when the block
	// ended normally or through End/cancellation, and an error only when a
	// step failed.
	Run(ctx context.Context, rt *Runtime) error

	// End moves the block to Ended, unwinding running descendants.
	End()

	// Leaves reports completed and total leaf counts inside the block.
	Leaves() (done, total int)

	// OnEnter registers an observer fired when the block starts running.
	OnEnter(fn Hook)

	// OnEnd registers an observer fired when the block ends.
	OnEnd(fn Hook)
}

// Outcome describes how a block ended.
type Outcome struct {
	Cancelled bool
	Recorded  bool
	// Err is set when the block failed; the session is marked failed before
	// the end observers run.
	Err error
}

// Base carries the state machine shared by every block variant. Variants
// embed it and call Enter/Exit around their own work.
type Base struct {
	id      string
	name    string
	kind    domain.BlockKind
	section domain.Section

	mu         sync.Mutex
	status     Status
	pendingEnd bool
	cancel     context.CancelFunc
	onEnter    []Hook
	onEnd      []Hook
	onEnterOne []Hook
}

// NewBase creates the shared block state.
func NewBase(id, name string, kind domain.BlockKind, section domain.Section) Base {
	return Base{id: id, name: name, kind: kind, section: section}
}

func (b *Base) ID() string              { return b.id }
func (b *Base) Name() string            { return b.name }
func (b *Base) Kind() domain.BlockKind  { return b.kind }
func (b *Base) Section() domain.Section { return b.section }

// Status returns the current lifecycle state.
func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// OnEnter registers an observer fired on every entry (there is only one).
func (b *Base) OnEnter(fn Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEnter = append(b.onEnter, fn)
}

// OnEnterOnce registers an observer that is dropped after it fires.
func (b *Base) OnEnterOnce(fn Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEnterOne = append(b.onEnterOne, fn)
}

// OnEnd registers an observer fired when the block ends.
func (b *Base) OnEnd(fn Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEnd = append(b.onEnd, fn)
}

// End moves the block to Ended. A running block has its context cancelled and
// finishes on its own goroutine; an idle block ends with zero duration as soon
// as it is run.
func (b *Base) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.status {
	case StatusIdle:
		b.pendingEnd = true
	case StatusRunning:
		if b.cancel != nil {
			b.cancel()
		}
	}
}

// Enter performs Idle -> Running and fires the enter observers. The returned
// context is cancelled by End; variants must pass it to their children.
func (b *Base) Enter(ctx context.Context, rt *Runtime, self Block) (context.Context, error) {
	b.mu.Lock()
	if b.status != StatusIdle {
		b.mu.Unlock()
		return nil, fmt.Errorf("block %s: %w", b.id, domain.ErrBlockEnded)
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.status = StatusRunning
	b.cancel = cancel
	if b.pendingEnd {
		cancel()
	}
	hooks := append([]Hook(nil), b.onEnter...)
	hooks = append(hooks, b.onEnterOne...)
	b.onEnterOne = nil
	b.mu.Unlock()

	rt.emitEnter(ctx, self)
	for _, h := range hooks {
		h(ctx, self)
	}
	return runCtx, nil
}

// Exit performs Running -> Ended and fires the end observers.
func (b *Base) Exit(ctx context.Context, rt *Runtime, self Block, outcome Outcome) {
	b.mu.Lock()
	if b.status == StatusEnded {
		b.mu.Unlock()
		return
	}
	b.status = StatusEnded
	if b.cancel != nil {
		b.cancel()
	}
	hooks := append([]Hook(nil), b.onEnd...)
	b.mu.Unlock()

	if outcome.Err != nil {
		rt.session.Fail(outcome.Err)
	}
	rt.emitEnd(ctx, self, outcome)
	for _, h := range hooks {
		h(ctx, self)
	}
}

// runChildren runs blocks in order until one fails or ctx is cancelled.
func runChildren(ctx context.Context, rt *Runtime, children []Block) error {
	for _, child := range children {
		if ctx.Err() != nil {
			return nil
		}
		if err := child.Run(ctx, rt); err != nil {
			return err
		}
	}
	return nil
}

func sumLeaves(children []Block) (done, total int) {
	for _, c := range children {
		d, t := c.Leaves()
		done += d
		total += t
	}
	return done, total
}
