package flow

import (
	"context"

	"github.com/aretw0/timbre/pkg/domain"
)

// Sequence runs its children in order and ends after the last one.
type Sequence struct {
	Base
	children []Block
}

// NewSequence creates a sequence owning children.
func NewSequence(id, name string, section domain.Section, children ...Block) *Sequence {
	return &Sequence{
		Base:     NewBase(id, name, domain.BlockSequence, section),
		children: children,
	}
}

// Children returns the owned blocks in order.
func (s *Sequence) Children() []Block {
	return s.children
}

// Run implements Block.
func (s *Sequence) Run(ctx context.Context, rt *Runtime) error {
	runCtx, err := s.Enter(ctx, rt, s)
	if err != nil {
		return err
	}
	err = runChildren(runCtx, rt, s.children)
	s.Exit(ctx, rt, s, Outcome{Cancelled: err != nil || runCtx.Err() != nil, Err: err})
	return err
}

// Leaves implements Block.
func (s *Sequence) Leaves() (done, total int) {
	return sumLeaves(s.children)
}
