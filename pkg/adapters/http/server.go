package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/timbre"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/observability"
	"github.com/aretw0/timbre/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxSubmissionBytes bounds the request body of a result upload.
const maxSubmissionBytes = 16 << 20

// LoadSwagger parses and validates the embedded OpenAPI document.
func LoadSwagger(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

// Server serves experiment specs and stores submissions.
type Server struct {
	Specs   ports.SpecSource
	Results ports.ResultStore

	logger   *slog.Logger
	audioDir string
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	swagger  *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAudioDir serves stimulus files from dir under /audio/.
func WithAudioDir(dir string) Option {
	return func(s *Server) {
		s.audioDir = dir
	}
}

// WithMetrics counts served specs and submissions and exposes gatherer on
// /metrics.
func WithMetrics(m *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// NewHandler creates the HTTP handler for the study server.
func NewHandler(specs ports.SpecSource, results ports.ResultStore, opts ...Option) (http.Handler, error) {
	s := &Server{
		Specs:   specs,
		Results: results,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	swagger, err := LoadSwagger(context.Background())
	if err != nil {
		return nil, err
	}
	s.swagger = swagger

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/api", func(r chi.Router) {
		r.Get("/get-experiment-spec", s.GetExperimentSpec)
		r.Post("/store-experiment-data", s.StoreExperimentData)
		r.Get("/results", s.ListResults)
		r.Get("/results/{specId}", s.GetResult)
	})
	if s.audioDir != "" {
		r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(s.audioDir))))
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// GetExperimentSpec handles GET /api/get-experiment-spec. Every request gets
// a fresh spec.
func (s *Server) GetExperimentSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := s.Specs.FetchSpec(r.Context())
	if err != nil {
		s.logger.Error("spec generation failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to generate experiment spec")
		return
	}
	if s.metrics != nil {
		s.metrics.SpecsServed.Inc()
	}
	s.logger.Info("spec served", "spec_id", spec.SpecID, "trials", len(spec.Trials))
	s.writeJSON(w, http.StatusOK, spec)
}

// StoreExperimentData handles POST /api/store-experiment-data.
func (s *Server) StoreExperimentData(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err := dec.Decode(&sub); err != nil {
		s.logger.Warn("invalid submission body", "err", err)
		s.countSubmission("invalid")
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(sub.SpecID) == "" {
		s.countSubmission("invalid")
		s.writeError(w, http.StatusBadRequest, "specId is required")
		return
	}

	if err := s.Results.Save(r.Context(), sub); err != nil {
		s.logger.Error("submission not stored", "spec_id", sub.SpecID, "err", err)
		s.countSubmission("error")
		s.writeError(w, http.StatusInternalServerError, "failed to store responses")
		return
	}

	s.countSubmission("created")
	s.logger.Info("submission stored", "spec_id", sub.SpecID, "records", len(sub.Responses))
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"specId":  sub.SpecID,
		"records": len(sub.Responses),
	})
}

func (s *Server) countSubmission(status string) {
	if s.metrics != nil {
		s.metrics.SubmissionsSeen.WithLabelValues(status).Inc()
	}
}

// ListResults handles GET /api/results.
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Results.List(r.Context())
	if err != nil {
		s.logger.Error("list results failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetResult handles GET /api/results/{specId}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	specID := chi.URLParam(r, "specId")
	sub, err := s.Results.Load(r.Context(), specID)
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		s.writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		s.logger.Error("load result failed", "spec_id", specID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.swagger != nil && s.swagger.Info != nil {
		apiVersion = s.swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "timbre-http",
		"version":     strings.TrimSpace(timbre.Version),
		"api_version": apiVersion,
	})
}
