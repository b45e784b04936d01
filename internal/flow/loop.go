package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Factory builds the child for one Loop parameter from the loop's content
// template.
type Factory[P any] func(id, content string, param P) Block

// Loop materializes one child per parameter, in parameter order, when it is
// entered, and runs them like a Sequence.
type Loop struct {
	Base
	count int
	build func(i int) Block

	mu       sync.Mutex
	children []Block
}

// NewLoop creates a loop calling factory once per element of params.
// Child IDs are "<id>/<n>" with n starting at 1.
func NewLoop[P any](id, name string, section domain.Section, content string, params []P, factory Factory[P]) *Loop {
	params = append([]P(nil), params...)
	return &Loop{
		Base:  NewBase(id, name, domain.BlockLoop, section),
		count: len(params),
		build: func(i int) Block {
			return factory(fmt.Sprintf("%s/%d", id, i+1), content, params[i])
		},
	}
}

// Len is the number of parameters.
func (l *Loop) Len() int {
	return l.count
}

// Children returns the materialized children (nil before the loop runs).
func (l *Loop) Children() []Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.children
}

func (l *Loop) materialize() []Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.children == nil {
		l.children = make([]Block, l.count)
		for i := range l.children {
			l.children[i] = l.build(i)
		}
	}
	return l.children
}

// Run implements Block.
func (l *Loop) Run(ctx context.Context, rt *Runtime) error {
	runCtx, err := l.Enter(ctx, rt, l)
	if err != nil {
		return err
	}
	var children []Block
	if runCtx.Err() == nil {
		children = l.materialize()
	}
	err = runChildren(runCtx, rt, children)
	l.Exit(ctx, rt, l, Outcome{Cancelled: err != nil || runCtx.Err() != nil, Err: err})
	return err
}

// Leaves implements Block. Before materialization every parameter counts as
// one pending leaf.
func (l *Loop) Leaves() (done, total int) {
	children := l.Children()
	if children == nil {
		return 0, l.count
	}
	return sumLeaves(children)
}
