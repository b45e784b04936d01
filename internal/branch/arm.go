package branch

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/pkg/domain"
)

// Arm is a lazily built language sub-tree. When entered it consults the
// controller: the selected arm builds and runs its subtree, the other one
// ends immediately without building anything.
type Arm struct {
	flow.Base
	ctrl  *Controller
	lang  Language
	build Builder

	mu    sync.Mutex
	child flow.Block
}

// Language returns the language the arm serves.
func (a *Arm) Language() Language {
	return a.lang
}

// Child returns the built subtree, or nil when the arm was not selected.
func (a *Arm) Child() flow.Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.child
}

// Built reports whether the subtree was constructed.
func (a *Arm) Built() bool {
	return a.Child() != nil
}

// Leaves implements flow.Block.
func (a *Arm) Leaves() (done, total int) {
	if child := a.Child(); child != nil {
		return child.Leaves()
	}
	return 0, 0
}

// Run implements flow.Block.
func (a *Arm) Run(ctx context.Context, rt *flow.Runtime) error {
	runCtx, err := a.Enter(ctx, rt, a)
	if err != nil {
		return err
	}

	selected, answered := a.ctrl.Selected()
	if !answered {
		err := fmt.Errorf("arm %s: %w", a.ID(), domain.ErrScreeningPending)
		a.Exit(ctx, rt, a, flow.Outcome{Cancelled: true, Err: err})
		return err
	}
	if selected != a.lang || runCtx.Err() != nil {
		rt.Logger().Debug("arm skipped", "block_id", a.ID(), "selected", selected.String())
		a.Exit(ctx, rt, a, flow.Outcome{Cancelled: runCtx.Err() != nil})
		return nil
	}

	child, err := a.materialize(runCtx)
	if err != nil {
		err = fmt.Errorf("arm %s: build: %w", a.ID(), err)
		a.Exit(ctx, rt, a, flow.Outcome{Cancelled: true, Err: err})
		return err
	}

	err = child.Run(runCtx, rt)
	a.Exit(ctx, rt, a, flow.Outcome{Cancelled: err != nil || runCtx.Err() != nil, Err: err})
	return err
}

func (a *Arm) materialize(ctx context.Context) (flow.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.child != nil {
		return a.child, nil
	}
	child, err := a.build(ctx)
	if err != nil {
		return nil, err
	}
	a.child = child
	return child, nil
}
