package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// AnswerFunc decides the response for a presented step.
type AnswerFunc func(ctx context.Context, step *domain.Step) (*domain.Response, error)

// ScriptedHost is a ScreenHost that answers steps from a script and records
// everything it was shown.
type ScriptedHost struct {
	Answer AnswerFunc

	mu       sync.Mutex
	steps    []*domain.Step
	notices  []domain.Notice
	progress []float64
}

// NewScriptedHost returns a host answering with fn. A nil fn answers every
// step with an empty response.
func NewScriptedHost(fn AnswerFunc) *ScriptedHost {
	return &ScriptedHost{Answer: fn}
}

// Present implements ports.ScreenHost.
func (h *ScriptedHost) Present(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	h.mu.Lock()
	h.steps = append(h.steps, step)
	h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Answer == nil {
		return &domain.Response{Values: map[string]any{}}, nil
	}
	return h.Answer(ctx, step)
}

// Notify implements ports.ScreenHost.
func (h *ScriptedHost) Notify(_ context.Context, n domain.Notice) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, n)
	return nil
}

// Progress implements ports.ScreenHost.
func (h *ScriptedHost) Progress(_ context.Context, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = append(h.progress, value)
}

// Steps returns the presented steps in order.
func (h *ScriptedHost) Steps() []*domain.Step {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*domain.Step(nil), h.steps...)
}

// StepIDs returns the block IDs of the presented steps.
func (h *ScriptedHost) StepIDs() []string {
	var ids []string
	for _, s := range h.Steps() {
		ids = append(ids, s.BlockID)
	}
	return ids
}

// Notices returns the received notices.
func (h *ScriptedHost) Notices() []domain.Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Notice(nil), h.notices...)
}

// ProgressValues returns every progress value reported.
func (h *ScriptedHost) ProgressValues() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.progress...)
}

// Values builds a response from key/value pairs.
func Values(kv ...any) *domain.Response {
	values := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		values[kv[i].(string)] = kv[i+1]
	}
	return &domain.Response{Values: values}
}
