package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/timbre"
	"github.com/aretw0/timbre/internal/config"
	"github.com/aretw0/timbre/internal/presentation/tui"
	"github.com/aretw0/timbre/internal/transmit"
	"github.com/aretw0/timbre/pkg/adapters/file"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/observability"
	"github.com/aretw0/timbre/pkg/ports"
	"github.com/aretw0/timbre/pkg/runner"
)

// RunOptions configures a terminal session.
type RunOptions struct {
	Debug bool
	// JSON switches to the JSON-Lines host and suppresses the banner.
	JSON bool
	In   io.Reader
	Out  io.Writer
}

// RunSession runs one participant session in the terminal. SIGINT and
// SIGTERM act as the stop button.
func RunSession(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	logger := NewLogger(cfg, opts.Debug)

	provider, err := NewTemplates(cfg)
	if err != nil {
		return err
	}
	sink, release, err := NewSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	var host ports.ScreenHost
	if opts.JSON {
		host = runner.NewJSONHost(opts.In, opts.Out)
	} else {
		tui.PrintBanner(opts.Out, timbre.Version)
		audioBase := cfg.Audio.Dir + string(os.PathSeparator)
		if cfg.Server.Endpoint != "" {
			audioBase = strings.TrimRight(cfg.Server.Endpoint, "/") + "/audio/"
		}
		host = runner.NewTextHost(opts.In, opts.Out,
			runner.WithRenderer(tui.NewRenderer(opts.Out)),
			runner.WithAudioBase(audioBase),
		)
	}

	studyOpts := []timbre.Option{
		timbre.WithSink(sink),
		timbre.WithExporter(file.NewExporter(cfg.Export.Dir)),
		timbre.WithTemplates(provider),
		timbre.WithContact(cfg.Contact.Email),
		timbre.WithLogger(logger),
		timbre.WithChunkSize(cfg.Dissimilarity.ChunkSize),
		timbre.WithWelcome(cfg.Sections.Welcome),
		timbre.WithHeadphoneCheck(cfg.Sections.HeadphoneCheck),
	}
	if opts.Debug {
		studyOpts = append(studyOpts, timbre.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	study, err := timbre.New(NewSpecSource(cfg, logger), host, studyOpts...)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	err = study.Run(sigCtx)
	if errors.Is(err, domain.ErrCancelled) {
		logger.Info("session stopped", "signal", sigCtx.Signal(), "records", len(study.Records()))
		if !opts.JSON {
			printSystemMessage(opts.Out, "Session stopped. Responses were not submitted.")
		}
		return nil
	}
	if err != nil {
		return err
	}

	res := study.Result()
	if !opts.JSON {
		printSystemMessage(opts.Out, "Session %s finished: %s (%d responses)", res.SpecID, res.Status, res.Records)
	}
	if res.Status == transmit.StatusFailed {
		return res.Err
	}
	return nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
