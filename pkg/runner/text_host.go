package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// questionnaireFields are asked in order by the questionnaire step.
var questionnaireFields = []struct {
	key, prompt string
}{
	{"age", "Age"},
	{"gender", "Gender"},
	{"country_childhood", "Country where you spent most of your childhood"},
	{"country_residence", "Country of residence"},
	{"first_language", "First language"},
	{"musical_experience", "Years of musical training"},
}

// TextHost presents steps as prompts on a terminal.
type TextHost struct {
	Writer   io.Writer
	Renderer ContentRenderer
	// AudioBase is prefixed to file names shown in audition and rating steps.
	AudioBase string

	input *lineReader
	mu    sync.Mutex
	last  int
}

// TextHostOption configures a TextHost.
type TextHostOption func(*TextHost)

// WithRenderer sets the content renderer.
func WithRenderer(renderer ContentRenderer) TextHostOption {
	return func(h *TextHost) {
		h.Renderer = renderer
	}
}

// WithAudioBase sets the location prefix of stimulus files.
func WithAudioBase(base string) TextHostOption {
	return func(h *TextHost) {
		h.AudioBase = base
	}
}

// NewTextHost creates a host reading r and writing w (Stdin/Stdout when nil).
func NewTextHost(r io.Reader, w io.Writer, opts ...TextHostOption) *TextHost {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHost{
		Writer: w,
		input:  newLineReader(r),
		last:   -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Present implements ports.ScreenHost.
func (h *TextHost) Present(ctx context.Context, step *domain.Step) (*domain.Response, error) {
	h.show(step.Content)
	h.showStimuli(step)

	values := map[string]any{}
	switch step.Kind {
	case domain.StepNotice:
	case domain.StepText, domain.StepAudition:
		if _, err := h.ask(ctx, "Press Enter to continue"); err != nil {
			return nil, err
		}
	case domain.StepConsent:
		ok, err := h.askYesNo(ctx, "Do you consent to take part? (yes/no)")
		if err != nil {
			return nil, err
		}
		values["consent"] = ok
	case domain.StepHeadphoneCheck:
		ok, err := h.askYesNo(ctx, "Did you pass the headphone check? (yes/no)")
		if err != nil {
			return nil, err
		}
		values["passed"] = ok
	case domain.StepQuestionnaire:
		for _, f := range questionnaireFields {
			answer, err := h.ask(ctx, f.prompt)
			if err != nil {
				return nil, err
			}
			values[f.key] = answer
		}
	case domain.StepDissimilarity, domain.StepSemantic:
		rating, err := h.askInt(ctx, "Rating")
		if err != nil {
			return nil, err
		}
		values["rating"] = rating
	case domain.StepFeedback:
		answer, err := h.ask(ctx, "Feedback (optional)")
		if err != nil {
			return nil, err
		}
		values["feedback"] = answer
	default:
		return nil, fmt.Errorf("unsupported step kind %q", step.Kind)
	}
	return &domain.Response{Values: values}, nil
}

// Notify implements ports.ScreenHost.
func (h *TextHost) Notify(ctx context.Context, notice domain.Notice) error {
	prefix := "[Notice]"
	if notice.Level == domain.NoticeWarning {
		prefix = "[Warning]"
	}
	fmt.Fprintf(h.Writer, "\n%s %s\n", prefix, notice.Message)
	if notice.ExportPath != "" {
		fmt.Fprintf(h.Writer, "%s Responses saved to %s\n", prefix, notice.ExportPath)
	}
	return nil
}

// Progress implements ports.ScreenHost. Only whole-percent changes are printed.
func (h *TextHost) Progress(ctx context.Context, value float64) {
	pct := int(value * 100)
	h.mu.Lock()
	changed := pct != h.last
	h.last = pct
	h.mu.Unlock()
	if changed {
		fmt.Fprintf(h.Writer, "Progress: %s %3d%%\n", bar(value, 20), pct)
	}
}

func (h *TextHost) show(content string) {
	if content == "" {
		return
	}
	output := content
	if h.Renderer != nil {
		if rendered, err := h.Renderer(content); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
}

func (h *TextHost) showStimuli(step *domain.Step) {
	switch p := step.Params.(type) {
	case domain.Trial:
		fmt.Fprintf(h.Writer, "  A: %s%s\n  B: %s%s\n", h.AudioBase, p.Left, h.AudioBase, p.Right)
	case domain.SemanticTrial:
		fmt.Fprintf(h.Writer, "  %s%s: %s\n", h.AudioBase, p.File, p.Descriptor)
	case []string:
		for _, f := range p {
			fmt.Fprintf(h.Writer, "  - %s%s\n", h.AudioBase, f)
		}
	}
}

func (h *TextHost) ask(ctx context.Context, prompt string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(h.Writer, "%s > ", prompt)
		text, err := h.input.Next(ctx)
		if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
}

func (h *TextHost) askYesNo(ctx context.Context, prompt string) (bool, error) {
	for {
		answer, err := h.ask(ctx, prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		fmt.Fprintln(h.Writer, "Please answer yes or no.")
	}
}

func (h *TextHost) askInt(ctx context.Context, prompt string) (int, error) {
	for {
		answer, err := h.ask(ctx, prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n, nil
		}
		fmt.Fprintln(h.Writer, "Please enter a whole number.")
	}
}

func bar(value float64, width int) string {
	value = min(max(value, 0), 1)
	filled := int(value * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
