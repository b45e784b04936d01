package observability

import (
	"context"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "timbre"

// Metrics holds the study collectors.
type Metrics struct {
	BlocksEntered   *prometheus.CounterVec
	BlocksEnded     *prometheus.CounterVec
	Responses       *prometheus.CounterVec
	Progress        prometheus.Gauge
	Transmissions   *prometheus.CounterVec
	SpecsServed     prometheus.Counter
	SubmissionsSeen *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksEntered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_entered_total",
			Help:      "Blocks that started running, by kind.",
		}, []string{"kind"}),
		BlocksEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_ended_total",
			Help:      "Blocks that ended, by kind and whether they were cancelled.",
		}, []string{"kind", "cancelled"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_recorded_total",
			Help:      "Response records appended, by section.",
		}, []string{"section"}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_ratio",
			Help:      "Weighted completion of the current session.",
		}),
		Transmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transmissions_total",
			Help:      "Session finalizations, by outcome.",
		}, []string{"status"}),
		SpecsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "specs_served_total",
			Help:      "Experiment specs generated for clients.",
		}),
		SubmissionsSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Result submissions received by the server, by outcome.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.BlocksEntered,
		m.BlocksEnded,
		m.Responses,
		m.Progress,
		m.Transmissions,
		m.SpecsServed,
		m.SubmissionsSeen,
	)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(_ context.Context, e *domain.BlockEvent) {
			m.BlocksEntered.WithLabelValues(string(e.BlockKind)).Inc()
		},
		OnBlockEnd: func(_ context.Context, e *domain.BlockEvent) {
			cancelled := "false"
			if e.Cancelled {
				cancelled = "true"
			}
			m.BlocksEnded.WithLabelValues(string(e.BlockKind), cancelled).Inc()
			if e.Recorded {
				m.Responses.WithLabelValues(string(e.Section)).Inc()
			}
		},
		OnProgress: func(_ context.Context, e *domain.ProgressEvent) {
			m.Progress.Set(e.Value)
		},
	}
}

// ObserveTransmission counts a finalization outcome.
func (m *Metrics) ObserveTransmission(status string) {
	m.Transmissions.WithLabelValues(status).Inc()
}
