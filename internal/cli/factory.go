package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/timbre/internal/config"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/aretw0/timbre/pkg/adapters/file"
	httpadapter "github.com/aretw0/timbre/pkg/adapters/http"
	loamadapter "github.com/aretw0/timbre/pkg/adapters/loam"
	"github.com/aretw0/timbre/pkg/adapters/redis"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/persistence/middleware"
	"github.com/aretw0/timbre/pkg/ports"
	"github.com/aretw0/timbre/templates"
)

// NewLogger builds the CLI logger. Debug forces debug level; otherwise the
// configured level is used and output goes to stderr.
func NewLogger(cfg *config.Config, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

// NewSpecSource returns the remote server when an endpoint is configured and
// a local generator over the audio directory otherwise.
func NewSpecSource(cfg *config.Config, logger *slog.Logger) ports.SpecSource {
	if cfg.Server.Endpoint != "" {
		return httpadapter.NewClient(cfg.Server.Endpoint, httpadapter.WithClientLogger(logger))
	}
	return NewGenerator(cfg, logger)
}

// NewGenerator returns a trial generator over the configured audio directory.
func NewGenerator(cfg *config.Config, logger *slog.Logger) *trialgen.Generator {
	return trialgen.New(
		trialgen.WithDir(cfg.Audio.Dir),
		trialgen.WithExtension(cfg.Audio.Extension),
		trialgen.WithLogger(logger),
	)
}

// NewTemplates returns a loam-backed provider when a templates directory is
// configured and the embedded content otherwise.
func NewTemplates(cfg *config.Config) (ports.TemplateProvider, error) {
	if cfg.Templates.Dir == "" {
		return templates.Default(), nil
	}
	provider, err := loamadapter.Open(cfg.Templates.Dir)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: "templates.dir", Cause: err}
	}
	return provider, nil
}

// NewResultStore returns a redis store when a URL is configured and a file
// store in the results directory otherwise. The returned func releases it.
func NewResultStore(ctx context.Context, cfg *config.Config) (ports.ResultStore, func() error, error) {
	mws, err := protection(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.URL == "" {
		return middleware.Chain(file.NewStore(cfg.Results.Dir), mws...), func() error { return nil }, nil
	}

	var opts []redis.Option
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	if cfg.Redis.TTL > 0 {
		opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
	}
	store, err := redis.New(cfg.Redis.URL, opts...)
	if err != nil {
		return nil, nil, &domain.ConfigurationError{Reason: "redis.url", Cause: err}
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return middleware.Chain(store, mws...), store.Close, nil
}

// protection builds the redaction and sealing layers the config asks for.
func protection(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Results.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Results.Redact))
	}
	key, err := cfg.ResultsKey()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}

// NewSink returns where a terminal session submits its responses: the
// remote server when an endpoint is configured, the local result store
// otherwise.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ResultSink, func() error, error) {
	if cfg.Server.Endpoint != "" {
		return httpadapter.NewClient(cfg.Server.Endpoint, httpadapter.WithClientLogger(logger)), func() error { return nil }, nil
	}
	store, release, err := NewResultStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return storeSink{store}, release, nil
}

type storeSink struct {
	store ports.ResultStore
}

func (s storeSink) Submit(ctx context.Context, sub domain.Submission) error {
	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransmission, err)
	}
	return nil
}
