package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/timbre/pkg/domain"
)

// ResponseFunc reacts to a recorded response. It runs after the record has
// been appended and before the Leaf's on-end notification.
type ResponseFunc func(ctx context.Context, rt *Runtime, resp *domain.Response) error

// ValidateFunc rejects malformed input; the step is presented again.
type ValidateFunc func(resp *domain.Response) error

// ReminderFunc returns follow-up content shown after a response (for example
// when a participant rates an identical pair above zero).
type ReminderFunc func(resp *domain.Response) (content string, show bool)

// Leaf is one interactive step. It contributes at most one ResponseRecord.
type Leaf struct {
	Base
	stepKind domain.StepKind
	content  string
	params   any

	validate   ValidateFunc
	onResponse ResponseFunc
	reminder   ReminderFunc
}

// LeafOption configures a Leaf.
type LeafOption func(*Leaf)

// WithParams attaches the Loop parameter the leaf was built from.
func WithParams(params any) LeafOption {
	return func(l *Leaf) {
		l.params = params
	}
}

// WithValidation re-presents the step until validate accepts the response.
func WithValidation(validate ValidateFunc) LeafOption {
	return func(l *Leaf) {
		l.validate = validate
	}
}

// WithResponseHandler registers fn to run on the recorded response.
func WithResponseHandler(fn ResponseFunc) LeafOption {
	return func(l *Leaf) {
		l.onResponse = fn
	}
}

// WithReminder shows follow-up content when fn asks for it.
func WithReminder(fn ReminderFunc) LeafOption {
	return func(l *Leaf) {
		l.reminder = fn
	}
}

// NewLeaf creates a leaf presenting content as a step of the given kind.
func NewLeaf(id, name string, kind domain.StepKind, section domain.Section, content string, opts ...LeafOption) *Leaf {
	l := &Leaf{
		Base:     NewBase(id, name, domain.BlockLeaf, section),
		stepKind: kind,
		content:  content,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StepKind returns the interaction this leaf asks the host for.
func (l *Leaf) StepKind() domain.StepKind {
	return l.stepKind
}

// Params returns the attached loop parameter.
func (l *Leaf) Params() any {
	return l.params
}

// Leaves implements Block.
func (l *Leaf) Leaves() (done, total int) {
	if l.Status() == StatusEnded {
		return 1, 1
	}
	return 0, 1
}

// Run implements Block.
func (l *Leaf) Run(ctx context.Context, rt *Runtime) error {
	runCtx, err := l.Enter(ctx, rt, l)
	if err != nil {
		return err
	}
	if runCtx.Err() != nil {
		// Ended by an on-enter observer or an earlier End.
		l.Exit(ctx, rt, l, Outcome{Cancelled: true})
		return nil
	}

	step := &domain.Step{
		BlockID: l.ID(),
		Name:    l.Name(),
		Kind:    l.stepKind,
		Section: l.Section(),
		Content: l.content,
		Params:  l.params,
	}
	startedAt := rt.now()

	resp, err := l.present(runCtx, rt, step)
	if err != nil {
		step.Release()
		// Exit cancels runCtx; read it first.
		if runCtx.Err() != nil {
			l.Exit(ctx, rt, l, Outcome{Cancelled: true})
			return nil
		}
		err = fmt.Errorf("step %s: %w", l.ID(), err)
		l.Exit(ctx, rt, l, Outcome{Cancelled: true, Err: err})
		return err
	}

	recorded := false
	if resp != nil && l.stepKind.Records() {
		rt.session.Append(rt.newRecord(step, resp, startedAt))
		recorded = true
	}

	if resp != nil && l.onResponse != nil {
		if err := l.onResponse(runCtx, rt, resp); err != nil {
			step.Release()
			err = fmt.Errorf("step %s: %w", l.ID(), err)
			l.Exit(ctx, rt, l, Outcome{Cancelled: true, Recorded: recorded, Err: err})
			return err
		}
	}

	if resp != nil && l.reminder != nil && runCtx.Err() == nil {
		if content, show := l.reminder(resp); show {
			reminder := &domain.Step{
				BlockID: l.ID() + "/reminder",
				Name:    l.Name() + "_reminder",
				Kind:    domain.StepText,
				Section: l.Section(),
				Content: content,
			}
			_, err := rt.host.Present(runCtx, reminder)
			reminder.Release()
			if err != nil && runCtx.Err() == nil {
				step.Release()
				err = fmt.Errorf("step %s reminder: %w", l.ID(), err)
				l.Exit(ctx, rt, l, Outcome{Cancelled: true, Recorded: recorded, Err: err})
				return err
			}
		}
	}

	step.Release()
	l.Exit(ctx, rt, l, Outcome{Recorded: recorded, Cancelled: runCtx.Err() != nil})
	return nil
}

func (l *Leaf) present(ctx context.Context, rt *Runtime, step *domain.Step) (*domain.Response, error) {
	for {
		resp, err := rt.host.Present(ctx, step)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if l.validate == nil || resp == nil {
			return resp, nil
		}
		verr := l.validate(resp)
		if verr == nil {
			return resp, nil
		}
		rt.logger.Debug("response rejected", "block_id", l.ID(), "err", verr)
		if err := rt.host.Notify(ctx, domain.Notice{Level: domain.NoticeWarning, Message: verr.Error()}); err != nil {
			return nil, err
		}
	}
}
