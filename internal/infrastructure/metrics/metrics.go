package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"NewsScanner/internal/domain"
)

// Metrics groups the pipeline collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Items             *prometheus.CounterVec
	Candidates        prometheus.Counter
	Runs              *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	SummarizeDuration *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsscanner_items_total",
			Help: "Item pipelines finished, by outcome.",
		}, []string{"outcome"}),
		Candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsscanner_candidates_total",
			Help: "Candidate URLs scheduled for processing.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsscanner_runs_total",
			Help: "Pipeline runs, by status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsscanner_run_duration_seconds",
			Help:    "Wall time of a full pipeline run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		SummarizeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsscanner_summarize_duration_seconds",
			Help:    "Latency of reasoning-service calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(m.Items, m.Candidates, m.Runs, m.RunDuration, m.SummarizeDuration)
	}
	return m
}

// ObserveItem counts one finished item.
func (m *Metrics) ObserveItem(outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(string(outcome)).Inc()
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(candidates int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Runs.WithLabelValues(status).Inc()
	m.Candidates.Add(float64(candidates))
	m.RunDuration.Observe(elapsed.Seconds())
}

// ObserveSummarize records one reasoning-service call.
func (m *Metrics) ObserveSummarize(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SummarizeDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
