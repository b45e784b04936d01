package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Message is one JSON line written by the JSONHost.
type Message struct {
	Type     string          `json:"type"`
	BlockID  string          `json:"block_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Kind     domain.StepKind `json:"kind,omitempty"`
	Section  domain.Section  `json:"section,omitempty"`
	Content  string          `json:"content,omitempty"`
	Params   any             `json:"params,omitempty"`
	Notice   *domain.Notice  `json:"notice,omitempty"`
	Progress *float64        `json:"progress,omitempty"`
}

// Message types.
const (
	MessageStep     = "step"
	MessageNotice   = "notice"
	MessageProgress = "progress"
)

// JSONHost speaks JSON-Lines: every step, notice and progress change is one
// line of output, and every step that waits for input reads one line holding
// a JSON object of response values.
type JSONHost struct {
	input *lineReader

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHost creates a host reading r and writing w (Stdin/Stdout when nil).
func NewJSONHost(r io.Reader, w io.Writer) *JSONHost {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHost{
		input:   newLineReader(r),
		encoder: json.NewEncoder(w),
	}
}

func (h *JSONHost) emit(m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(m)
}

// Present implements ports.ScreenHost.
func (h *JSONHost) Present(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	err := h.emit(Message{
		Type:    MessageStep,
		BlockID: step.BlockID,
		Name:    step.Name,
		Kind:    step.Kind,
		Section: step.Section,
		Content: step.Content,
		Params:  step.Params,
	})
	if err != nil {
		return nil, err
	}
	if step.Kind == domain.StepNotice {
		return &domain.Response{Values: map[string]any{}}, nil
	}

	text, err := h.input.Next(ctx)
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	if text = strings.TrimSpace(text); text != "" {
		if err := json.Unmarshal([]byte(text), &values); err != nil {
			return nil, fmt.Errorf("invalid response line: %w", err)
		}
	}
	return &domain.Response{Values: values}, nil
}

// Notify implements ports.ScreenHost.
func (h *JSONHost) Notify(ctx context.Context, notice domain.Notice) error {
	return h.emit(Message{Type: MessageNotice, Notice: &notice})
}

// Progress implements ports.ScreenHost.
func (h *JSONHost) Progress(ctx context.Context, value float64) {
	_ = h.emit(Message{Type: MessageProgress, Progress: &value})
}
