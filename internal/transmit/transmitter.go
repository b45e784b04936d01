// Package transmit uploads a finished session's responses and falls back to a
// local export when the upload fails.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
)

// Status is the outcome of finalization.
type Status string

const (
	// StatusPending means finalization has not run.
	StatusPending Status = "pending"
	// StatusSkipped means the session was cancelled; nothing was sent.
	StatusSkipped Status = "skipped"
	// StatusDelivered means the sink acknowledged the submission.
	StatusDelivered Status = "delivered"
	// StatusExported means the upload failed and the records were exported.
	StatusExported Status = "exported"
	// StatusAborted means the run ended with an error; nothing was sent.
	StatusAborted Status = "aborted"
	// StatusFailed means both the upload and the export failed. Records are
	// still held by the session.
	StatusFailed Status = "failed"
)

// Result describes what finalization did.
type Result struct {
	Status     Status
	SpecID     string
	Records    int
	ExportPath string
	Err        error
}

// Messages shown to the participant.
const (
	MessageComplete = "The experiment is complete. It is now safe to close this window."
	MessageFailed   = "There was a problem uploading your responses."
)

// Transmitter finalizes a session.
type Transmitter struct {
	sink     ports.ResultSink
	exporter ports.Exporter
	contact  string
	logger   *slog.Logger
	observe  func(context.Context, Result)

	mu     sync.Mutex
	result Result
}

// Option configures the Transmitter.
type Option func(*Transmitter)

// WithExporter sets the fallback used when the upload fails.
func WithExporter(exporter ports.Exporter) Option {
	return func(t *Transmitter) {
		t.exporter = exporter
	}
}

// WithContact sets the address participants send exported files to.
func WithContact(email string) Option {
	return func(t *Transmitter) {
		t.contact = email
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transmitter) {
		t.logger = logger
	}
}

// WithObserver is called with every finalization result.
func WithObserver(fn func(context.Context, Result)) Option {
	return func(t *Transmitter) {
		t.observe = fn
	}
}

// New creates a transmitter submitting to sink.
func New(sink ports.ResultSink, opts ...Option) *Transmitter {
	t := &Transmitter{
		sink:   sink,
		logger: logging.NewNop(),
		result: Result{Status: StatusPending},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach finalizes when b ends. The hook runs after the last record of b was
// appended.
func (t *Transmitter) Attach(b flow.Block, rt *flow.Runtime) {
	b.OnEnd(func(ctx context.Context, _ flow.Block) {
		t.Finalize(context.WithoutCancel(ctx), rt.Host(), rt.Session())
	})
}

// Result returns the last finalization result.
func (t *Transmitter) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Finalize submits the session log unless it was cancelled. On failure the
// records are exported and the participant is told where they are.
func (t *Transmitter) Finalize(ctx context.Context, host ports.ScreenHost, session *flow.Session) Result {
	res := t.finalize(ctx, host, session)

	t.mu.Lock()
	t.result = res
	t.mu.Unlock()

	if t.observe != nil {
		t.observe(ctx, res)
	}
	return res
}

func (t *Transmitter) finalize(ctx context.Context, host ports.ScreenHost, session *flow.Session) Result {
	res := Result{SpecID: session.SpecID()}
	if session.Cancelled() {
		t.logger.Info("transmission skipped", "spec_id", res.SpecID, "reason", session.CancelReason())
		res.Status = StatusSkipped
		return res
	}
	if err := session.Err(); err != nil {
		t.logger.Warn("transmission skipped after a failed run", "spec_id", res.SpecID, "err", err)
		res.Status = StatusAborted
		res.Err = err
		return res
	}

	sub := session.Submission()
	res.Records = len(sub.Responses)

	err := t.sink.Submit(ctx, sub)
	if err == nil {
		t.logger.Info("responses transmitted", "spec_id", res.SpecID, "records", res.Records)
		res.Status = StatusDelivered
		t.notify(ctx, host, domain.Notice{Level: domain.NoticeInfo, Message: MessageComplete})
		return res
	}

	if !errors.Is(err, domain.ErrTransmission) {
		err = fmt.Errorf("%w: %w", domain.ErrTransmission, err)
	}
	res.Err = err
	t.logger.Error("transmission failed", "spec_id", res.SpecID, "err", err)

	if t.exporter != nil {
		path, exportErr := t.exporter.Export(ctx, sub)
		if exportErr == nil {
			res.Status = StatusExported
			res.ExportPath = path
			t.logger.Info("responses exported", "spec_id", res.SpecID, "path", path)
			t.notify(ctx, host, domain.Notice{
				Level:      domain.NoticeWarning,
				Message:    t.fallbackMessage(path),
				ExportPath: path,
			})
			return res
		}
		res.Err = errors.Join(err, fmt.Errorf("export: %w", exportErr))
		t.logger.Error("export failed", "spec_id", res.SpecID, "err", exportErr)
	}

	res.Status = StatusFailed
	t.notify(ctx, host, domain.Notice{Level: domain.NoticeWarning, Message: t.fallbackMessage("")})
	return res
}

func (t *Transmitter) fallbackMessage(path string) string {
	msg := MessageFailed
	if path != "" {
		msg += fmt.Sprintf(" Your responses were saved to %s.", path)
	} else {
		msg += " Please ask the study operator to export your responses."
	}
	if t.contact != "" {
		msg += fmt.Sprintf(" Please send them by email to %s.", t.contact)
	}
	return msg
}

func (t *Transmitter) notify(ctx context.Context, host ports.ScreenHost, n domain.Notice) {
	if host == nil {
		return
	}
	if err := host.Notify(ctx, n); err != nil {
		t.logger.Warn("notice not delivered", "err", err)
	}
}
