package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBlockEnter EventType = "block_enter"
	EventBlockEnd   EventType = "block_end"
	EventProgress   EventType = "progress"
)

// BlockKind names the Block variant that emitted an event.
type BlockKind string

const (
	BlockLeaf     BlockKind = "leaf"
	BlockSequence BlockKind = "sequence"
	BlockLoop     BlockKind = "loop"
	BlockArm      BlockKind = "arm"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SpecID    string    `json:"spec_id"`
}

// BlockEvent represents entry into or end of a block.
type BlockEvent struct {
	EventBase
	BlockID   string    `json:"block_id"`
	BlockKind BlockKind `json:"block_kind"`
	Name      string    `json:"name,omitempty"`
	StepKind  StepKind  `json:"step_kind,omitempty"`
	Section   Section   `json:"section,omitempty"`
	// Recorded is true on a Leaf end event when a ResponseRecord was appended.
	Recorded bool `json:"recorded,omitempty"`
	// Cancelled is true when the block ended through cancellation.
	Cancelled bool `json:"cancelled,omitempty"`
}

// ProgressEvent carries the weighted completion value (0.0 to 1.0).
type ProgressEvent struct {
	EventBase
	Value float64 `json:"value"`
}

// LifecycleHooks defines callbacks for flow observability.
type LifecycleHooks struct {
	OnBlockEnter func(context.Context, *BlockEvent)
	OnBlockEnd   func(context.Context, *BlockEvent)
	OnProgress   func(context.Context, *ProgressEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnBlockEnter: chainBlock(h.OnBlockEnter, other.OnBlockEnter),
		OnBlockEnd:   chainBlock(h.OnBlockEnd, other.OnBlockEnd),
		OnProgress:   chainProgress(h.OnProgress, other.OnProgress),
	}
}

func chainBlock(a, b func(context.Context, *BlockEvent)) func(context.Context, *BlockEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *BlockEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainProgress(a, b func(context.Context, *ProgressEvent)) func(context.Context, *ProgressEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ProgressEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
